package services

import (
	"context"
	"fmt"

	"github.com/memorybook/memorybook/models"
	"github.com/memorybook/memorybook/storage"
)

// ListingService reads every memory for the admin gallery.
type ListingService struct {
	records storage.RecordStore
}

func NewListingService(records storage.RecordStore) *ListingService {
	return &ListingService{records: records}
}

// ListAll returns all memories ordered by created_at descending. No paging, no filtering.
func (s *ListingService) ListAll(ctx context.Context) ([]models.Memory, error) {
	out, err := s.records.SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListing, err)
	}
	if out == nil {
		out = []models.Memory{}
	}
	return out, nil
}
