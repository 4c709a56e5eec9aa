package storage

import (
	"context"
	"io"
	"time"
)

// Service writes and removes objects in remote object storage.
type Service interface {
	PutObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	DeletePrefix(ctx context.Context, bucket, prefix string) error
	PresignGetURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

// Location renders the canonical s3:// address of an object.
func Location(bucket, key string) string {
	return "s3://" + bucket + "/" + key
}
