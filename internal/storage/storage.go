package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"willtank/internal/config"
)

// ErrNotFound is returned when no object is stored under a key.
var ErrNotFound = errors.New("object not found")

// Storage defines the interface for file storage operations. Keys are
// slash separated and always live under the uploads/ prefix.
type Storage interface {
	// Save stores a file at the given key
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Get retrieves a file from the given key
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a file. Missing files are not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if a file exists at the given key
	Exists(ctx context.Context, key string) (bool, error)

	// SignedURL returns a temporary URL for downloading a private file.
	// Backends without signing return "" and the caller streams instead.
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// New creates a storage backend based on configuration.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "local", "":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// DocumentKey builds the key for a will attachment.
func DocumentKey(userID, willID uuid.UUID, fileName string) string {
	return path.Join("uploads", userID.String(), willID.String(), uuid.NewString()+"-"+SanitizeName(fileName))
}

// VideoKey builds the key for a will's video testimony.
func VideoKey(userID, willID uuid.UUID, fileName string) string {
	return path.Join("uploads", userID.String(), willID.String(), "video", uuid.NewString()+"-"+SanitizeName(fileName))
}

// SanitizeName strips path components and characters that are awkward in
// object keys and archive entries.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}
