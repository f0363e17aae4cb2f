// Package store keeps translation results and intermediate unit files in
// a flat key space, on local disk or in a MinIO/S3 bucket.
package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// Object describes a stored object.
type Object struct {
	Key      string    `json:"key"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Store is a minimal object store. Keys are slash-separated relative
// paths.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Object, error)
}

// CleanKey normalises a key and rejects absolute or escaping paths.
func CleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return clean, nil
}

// ResultKey is where the assembled translation of a document lives. The
// same content translated with the same style maps to the same key.
func ResultKey(contentHash, style string) string {
	return fmt.Sprintf("results/%s-%s.md", contentHash, style)
}

// UnitKey is where one translated unit of a job lives.
func UnitKey(jobID, unitFile string) string {
	return fmt.Sprintf("jobs/%s/%s", jobID, unitFile)
}

// Options selects and configures a backend for Open.
type Options struct {
	Backend string // "local" or "minio"
	Dir     string
	MinIO   MinIOConfig
}

// Open returns the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "local":
		l, err := NewLocal(opts.Dir)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "minio":
		m, err := NewMinIO(ctx, opts.MinIO)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
}
