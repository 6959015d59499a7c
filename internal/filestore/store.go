// Package filestore defines the storage interface for uploaded HR documents
// (contracts, certificates, ID proofs). The documents table keeps the
// metadata; the bytes live in one bucket of an object store.
//
// Usage:
//
//	store, err := minio.New(ctx, cfg.FileStore)
//	if err != nil { ... }
//	defer store.Close()
//
//	url, err := store.PresignGetURL(ctx, "contracts/jdoe.pdf", cfg.FileStore.PresignTTL)
package filestore

import (
	"context"
	"io"
	"time"
)

// Store is implemented by every document storage provider.
// Keys are relative to the configured bucket.
type Store interface {
	// Ping verifies the backend is reachable and the bucket exists.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// PutObject uploads size bytes from r under key.
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*ObjectInfo, error)

	// GetObject opens a streaming handle to the object at key.
	// The caller MUST call Object.Close() after reading.
	GetObject(ctx context.Context, key string) (Object, error)

	// StatObject returns metadata without downloading the content.
	StatObject(ctx context.Context, key string) (*ObjectInfo, error)

	// PresignGetURL returns a time-limited URL that downloads the object
	// without credentials.
	PresignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
