// Package storage defines the interface for object storage operations.
// The MinIO implementation works with any S3-compatible provider.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Object is a stored blob together with the metadata recorded at put time.
// Metadata keys are lowercase regardless of what the backend reports.
type Object struct {
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

// ObjectStore is the interface for the private media bucket. Objects are
// not publicly readable; access goes through time-limited signed URLs.
type ObjectStore interface {
	// Put stores data under path with the given content type, Cache-Control
	// header value, and user metadata.
	Put(ctx context.Context, path string, data []byte, contentType, cacheControl string, metadata map[string]string) error
	// Get retrieves an object and its metadata. Returns ErrNotFound when
	// the path does not exist.
	Get(ctx context.Context, path string) (*Object, error)
	// Exists reports whether an object is present at path.
	Exists(ctx context.Context, path string) (bool, error)
	// SignedURL issues a presigned GET URL valid for ttl.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}
