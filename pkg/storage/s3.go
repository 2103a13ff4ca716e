package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/checkin-lab/backend/config"
	"github.com/google/uuid"
)

type s3Storage struct {
	uploader *s3manager.Uploader
	cfg      config.S3Configs
}

// NewS3Storage talks to any S3-compatible endpoint (AWS, MinIO). Path-style
// addressing keeps self-hosted MinIO working without wildcard DNS.
func NewS3Storage(cfg config.S3Configs) Storage {
	sess, _ := session.NewSession(&aws.Config{
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		Endpoint:         aws.String(cfg.Endpoint),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(cfg.SSLDisabled),
	})

	return &s3Storage{uploader: s3manager.NewUploader(sess), cfg: cfg}
}

func (s *s3Storage) Upload(ctx context.Context, obj *Object) (*Uploaded, error) {
	key := objectKey(obj)

	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(obj.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(obj.Data),
		ACL:         aws.String("public-read"),
		ContentType: aws.String(obj.Mime),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot upload %s/%s: %w", obj.Bucket, key, err)
	}

	return &Uploaded{
		URL:      fmt.Sprintf("%s/%s/%s", s.cfg.PublicEndpoint, obj.Bucket, key),
		FileName: key,
	}, nil
}

func objectKey(obj *Object) string {
	return path.Join(obj.Prefix, uuid.NewString()+"-"+obj.FileName)
}
