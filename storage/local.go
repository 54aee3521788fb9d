package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalBlobStore keeps photos as plain files under one directory:
//
//	<root>/
//	  <blob name>
//
// The directory is served publicly under urlPrefix.
type LocalBlobStore struct {
	root      string
	urlPrefix string
}

// NewLocalBlobStore creates the directory if needed. urlPrefix is the absolute URL the directory is served at.
func NewLocalBlobStore(root, urlPrefix string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &LocalBlobStore{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Root is the directory blobs are written to.
func (s *LocalBlobStore) Root() string { return s.root }

// Put writes the blob atomically. An existing name is never overwritten.
func (s *LocalBlobStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	if err := validBlobName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dest := filepath.Join(s.root, name)
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("%w: %s", ErrBlobExists, name)
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	written, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	// os.Link fails if dest appeared meanwhile, so a concurrent writer cannot be clobbered
	if err := os.Link(tmpPath, dest); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrBlobExists, name)
		}
		return fmt.Errorf("failed to publish blob: %w", err)
	}
	return nil
}

// PublicURL returns the absolute URL of a blob.
func (s *LocalBlobStore) PublicURL(name string) string {
	return s.urlPrefix + "/" + url.PathEscape(name)
}

// List returns blob names in lexical order.
func (s *LocalBlobStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func validBlobName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid blob name %q", name)
	}
	return nil
}
