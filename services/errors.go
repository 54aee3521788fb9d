package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrValidation marks input rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrBlobUpload marks a failed photo write; no record was inserted.
	ErrBlobUpload = errors.New("photo upload failed")
	// ErrRecordInsert marks a failed record insert. A photo uploaded just before may be orphaned.
	ErrRecordInsert = errors.New("memory insert failed")
	// ErrListing marks a failed read of the record store.
	ErrListing = errors.New("memory listing failed")
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
}
