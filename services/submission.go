package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/memorybook/memorybook/models"
	"github.com/memorybook/memorybook/storage"
	"github.com/memorybook/memorybook/utils"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// Photo is an optional image attached to a submission. Its size was checked when it was selected.
type Photo struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SubmissionInput is what a visitor sends. YearMet arrives as text from the choice list.
type SubmissionInput struct {
	Name    string
	YearMet string
	Message string
	Photo   *Photo
}

// SubmissionService writes one memory, uploading its photo first.
// The two writes are not atomic: if the insert fails the photo stays behind, unreferenced.
type SubmissionService struct {
	blobs   storage.BlobStore
	records storage.RecordStore
	yearMin int
	yearMax int
	now     func() time.Time
	random  io.Reader
}

// SubmissionOption customises a SubmissionService.
type SubmissionOption func(*SubmissionService)

// WithClock replaces time.Now, used for blob names.
func WithClock(now func() time.Time) SubmissionOption {
	return func(s *SubmissionService) { s.now = now }
}

// WithRandom replaces crypto/rand as the source of the blob name fragment.
func WithRandom(r io.Reader) SubmissionOption {
	return func(s *SubmissionService) { s.random = r }
}

func NewSubmissionService(blobs storage.BlobStore, records storage.RecordStore, yearMin, yearMax int, opts ...SubmissionOption) *SubmissionService {
	s := &SubmissionService{
		blobs:   blobs,
		records: records,
		yearMin: yearMin,
		yearMax: yearMax,
		now:     time.Now,
		random:  rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// YearRange is the inclusive range accepted for year_met.
func (s *SubmissionService) YearRange() (int, int) { return s.yearMin, s.yearMax }

// Submit validates the input, stores the photo if any, then inserts the memory.
// Nothing is retried and nothing is rolled back.
func (s *SubmissionService) Submit(ctx context.Context, in SubmissionInput) error {
	year, err := s.validate(in)
	if err != nil {
		submissionFailuresTotal.WithLabelValues("validation").Inc()
		return err
	}

	memory := &models.Memory{
		Name:    in.Name,
		YearMet: year,
		Message: in.Message,
	}

	var blobName string
	if in.Photo != nil {
		blobName, err = s.blobName(in.Photo.Filename)
		if err != nil {
			submissionFailuresTotal.WithLabelValues("blob").Inc()
			return fmt.Errorf("%w: %w", ErrBlobUpload, err)
		}
		if err := s.blobs.Put(ctx, blobName, in.Photo.Body, in.Photo.Size, in.Photo.ContentType); err != nil {
			submissionFailuresTotal.WithLabelValues("blob").Inc()
			utils.Logger.Error("photo upload failed", zap.String("blob", blobName), zap.Error(err))
			return fmt.Errorf("%w: %w", ErrBlobUpload, err)
		}
		photoURL := s.blobs.PublicURL(blobName)
		memory.PhotoURL = &photoURL
	}

	if err := s.records.Insert(ctx, memory); err != nil {
		submissionFailuresTotal.WithLabelValues("record").Inc()
		fields := []zap.Field{zap.Error(err)}
		if blobName != "" {
			fields = append(fields, zap.String("orphaned_blob", blobName))
		}
		utils.Logger.Error("memory insert failed", fields...)
		return fmt.Errorf("%w: %w", ErrRecordInsert, err)
	}

	submissionsTotal.WithLabelValues(strconv.FormatBool(in.Photo != nil)).Inc()
	utils.Logger.Info("memory stored",
		zap.String("id", memory.ID),
		zap.Int("year_met", memory.YearMet),
		zap.Bool("photo", in.Photo != nil))
	return nil
}

func (s *SubmissionService) validate(in SubmissionInput) (int, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		verr.add("name", "Name is required")
	}
	if strings.TrimSpace(in.Message) == "" {
		verr.add("message", "Message is required")
	}

	year := 0
	raw := strings.TrimSpace(in.YearMet)
	if raw == "" {
		verr.add("year_met", "Year is required")
	} else if y, err := strconv.Atoi(raw); err != nil {
		verr.add("year_met", "Year must be a number")
	} else if y < s.yearMin || y > s.yearMax {
		verr.add("year_met", fmt.Sprintf("Year must be between %d and %d", s.yearMin, s.yearMax))
	} else {
		year = y
	}

	if len(verr.Fields) > 0 {
		return 0, verr
	}
	return year, nil
}

// blobName builds "<epoch millis>-<base36 fragment>.<ext>".
func (s *SubmissionService) blobName(filename string) (string, error) {
	frag, err := s.fragment(6)
	if err != nil {
		return "", fmt.Errorf("generate blob name: %w", err)
	}
	return fmt.Sprintf("%d-%s.%s", s.now().UnixMilli(), frag, Extension(filename)), nil
}

func (s *SubmissionService) fragment(n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(s.random, b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = base36[int(b[i])%len(base36)]
	}
	return string(b), nil
}

// Extension returns the lowercased alphanumeric extension of filename, or "bin" when there is none.
func Extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return "bin"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(filename[idx+1:]) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == 10 {
			break
		}
	}
	if b.Len() == 0 {
		return "bin"
	}
	return b.String()
}
