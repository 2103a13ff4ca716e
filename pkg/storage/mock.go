package storage

import (
	"context"
	"fmt"
)

// MockStorage records uploads in memory for tests.
type MockStorage struct {
	Objects []*Object
}

func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

func (s *MockStorage) Upload(ctx context.Context, obj *Object) (*Uploaded, error) {
	key := objectKey(obj)
	s.Objects = append(s.Objects, obj)

	return &Uploaded{
		URL:      fmt.Sprintf("mock://%s/%s", obj.Bucket, key),
		FileName: key,
	}, nil
}
