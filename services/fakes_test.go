package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/memorybook/memorybook/models"
)

// callLog records the order writes reach the stores.
type callLog []string

type fakeBlobs struct {
	log    *callLog
	stored map[string][]byte
	err    error
}

func newFakeBlobs(log *callLog) *fakeBlobs {
	return &fakeBlobs{log: log, stored: map[string][]byte{}}
}

func (f *fakeBlobs) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	*f.log = append(*f.log, "put:"+name)
	if f.err != nil {
		return f.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.stored[name] = b
	return nil
}

func (f *fakeBlobs) PublicURL(name string) string {
	return "https://cdn.test/photos/" + name
}

func (f *fakeBlobs) List(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(f.stored))
	for n := range f.stored {
		names = append(names, n)
	}
	return names, nil
}

// plainBlobs cannot enumerate its contents.
type plainBlobs struct{}

func (plainBlobs) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	return nil
}

func (plainBlobs) PublicURL(name string) string { return name }

type fakeRecords struct {
	log       *callLog
	rows      []models.Memory
	insertErr error
	selectErr error
	clock     time.Time
}

func newFakeRecords(log *callLog) *fakeRecords {
	return &fakeRecords{log: log, clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeRecords) Insert(ctx context.Context, m *models.Memory) error {
	*f.log = append(*f.log, "insert")
	if f.insertErr != nil {
		return f.insertErr
	}
	f.clock = f.clock.Add(time.Minute)
	m.ID = fmt.Sprintf("id-%d", len(f.rows)+1)
	m.CreatedAt = f.clock
	f.rows = append([]models.Memory{*m}, f.rows...)
	return nil
}

func (f *fakeRecords) SelectAll(ctx context.Context) ([]models.Memory, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	return f.rows, nil
}
