package storage

import "context"

// BlobStore is the object-storage contract the grievance layer talks
// to. Keys are opaque; everything under grievance_attachments/ holds
// encrypted bytes only.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) error
}
