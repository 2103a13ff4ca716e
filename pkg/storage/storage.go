package storage

import "context"

// Storage persists uploaded assets and exposes them by public URL.
type Storage interface {
	Upload(ctx context.Context, obj *Object) (*Uploaded, error)
}

// Object is a single asset to store. FileName is a hint only; implementations
// prepend Prefix and a random component to avoid collisions.
type Object struct {
	Bucket   string
	Prefix   string
	FileName string
	Mime     string
	Data     []byte
}

type Uploaded struct {
	URL      string
	FileName string
}
