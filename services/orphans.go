package services

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"sort"
	"time"

	"github.com/memorybook/memorybook/storage"
	"github.com/memorybook/memorybook/utils"
)

// OrphanReporter finds photos that no memory points at, left behind when an
// insert failed after its upload. It only reports; blobs are never deleted.
type OrphanReporter struct {
	blobs   storage.BlobStore
	records storage.RecordStore
}

func NewOrphanReporter(blobs storage.BlobStore, records storage.RecordStore) *OrphanReporter {
	return &OrphanReporter{blobs: blobs, records: records}
}

// Scan returns the names of unreferenced blobs in lexical order.
func (r *OrphanReporter) Scan(ctx context.Context) ([]string, error) {
	lister, ok := r.blobs.(storage.BlobLister)
	if !ok {
		return nil, fmt.Errorf("blob store %T cannot list its contents", r.blobs)
	}
	names, err := lister.List(ctx)
	if err != nil {
		return nil, err
	}
	memories, err := r.records.SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListing, err)
	}

	referenced := make(map[string]bool, len(memories))
	for _, m := range memories {
		if m.HasPhoto() {
			referenced[blobNameOf(*m.PhotoURL)] = true
		}
	}

	orphans := []string{}
	for _, name := range names {
		if !referenced[name] {
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)
	orphanedBlobs.Set(float64(len(orphans)))
	return orphans, nil
}

// blobNameOf returns the object name a stored photo URL points at. Matching on the
// name keeps rows valid after the public base URL or CDN host changes.
func blobNameOf(photoURL string) string {
	p := photoURL
	if u, err := url.Parse(photoURL); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}

// Start runs Scan every interval until ctx is done, logging what it finds.
func (r *OrphanReporter) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				orphans, err := r.Scan(ctx)
				if err != nil {
					utils.Sugar.Warnf("orphan scan failed: %v", err)
					continue
				}
				for _, name := range orphans {
					utils.Sugar.Warnf("orphaned photo %s at %s", name, r.blobs.PublicURL(name))
				}
			}
		}
	}()
}
