// Package storage holds the persistent backends: a blob store for photos and a
// record store for memories.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/memorybook/memorybook/models"
)

// ErrBlobExists is returned when a blob name is already taken. Blobs are immutable.
var ErrBlobExists = errors.New("blob already exists")

// BlobStore stores uploaded photos and knows their public address.
type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	PublicURL(name string) string
}

// BlobLister is implemented by blob stores that can enumerate what they hold.
type BlobLister interface {
	List(ctx context.Context) ([]string, error)
}

// RecordStore persists memories. SelectAll returns newest first.
type RecordStore interface {
	Insert(ctx context.Context, m *models.Memory) error
	SelectAll(ctx context.Context) ([]models.Memory, error)
}
