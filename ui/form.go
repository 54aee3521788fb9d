// Package ui drives the two pages as explicit state machines: the visitor's
// submission form and the admin gallery. Handlers render whatever state results.
package ui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/memorybook/memorybook/services"
)

// FormStage is where the submission form is in its lifecycle.
type FormStage int

const (
	Editing FormStage = iota
	Submitting
	Succeeded
)

func (s FormStage) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	default:
		return fmt.Sprintf("FormStage(%d)", int(s))
	}
}

var (
	ErrPhotoTooLarge    = errors.New("photo too large")
	ErrMissingFields    = errors.New("required fields missing")
	ErrAlreadySubmitted = errors.New("form already submitted")
	ErrSubmitInFlight   = errors.New("submission in flight")
)

// GenericSubmitError is shown for any storage failure.
const GenericSubmitError = "Something went wrong. Please try again."

// Submitter stores one memory.
type Submitter interface {
	Submit(ctx context.Context, in services.SubmissionInput) error
}

// SubmissionForm holds what the visitor typed. Field values survive a failed submit.
type SubmissionForm struct {
	Name    string
	YearMet string
	Message string
	Photo   *services.Photo
	Error   string
	Stage   FormStage

	maxPhotoBytes int64
}

// NewSubmissionForm starts in Editing.
func NewSubmissionForm(maxPhotoBytes int64) *SubmissionForm {
	return &SubmissionForm{maxPhotoBytes: maxPhotoBytes}
}

// SelectPhoto attaches a photo. An oversized photo is refused with an inline
// error and the previous selection is kept; the stage never changes.
func (f *SubmissionForm) SelectPhoto(p *services.Photo) error {
	if f.Stage != Editing {
		return ErrAlreadySubmitted
	}
	if p.Size > f.maxPhotoBytes {
		f.Error = fmt.Sprintf("Photo must be less than %dMB", f.maxPhotoBytes/(1024*1024))
		return ErrPhotoTooLarge
	}
	f.Photo = p
	f.Error = ""
	return nil
}

// ClearPhoto drops the current photo selection.
func (f *SubmissionForm) ClearPhoto() {
	if f.Stage == Editing {
		f.Photo = nil
	}
}

// Ready reports whether the required fields are present.
func (f *SubmissionForm) Ready() bool {
	return f.Name != "" && f.YearMet != "" && f.Message != ""
}

// Submit moves Editing -> Submitting and then to Succeeded, or back to Editing with an error.
func (f *SubmissionForm) Submit(ctx context.Context, svc Submitter) error {
	switch f.Stage {
	case Succeeded:
		return ErrAlreadySubmitted
	case Submitting:
		return ErrSubmitInFlight
	}
	if !f.Ready() {
		f.Error = "Please fill in all required fields."
		return ErrMissingFields
	}

	f.Stage = Submitting
	f.Error = ""
	err := svc.Submit(ctx, services.SubmissionInput{
		Name:    f.Name,
		YearMet: f.YearMet,
		Message: f.Message,
		Photo:   f.Photo,
	})
	if err != nil {
		f.Stage = Editing
		f.Error = submitErrorMessage(err)
		return err
	}
	f.Stage = Succeeded
	return nil
}

func submitErrorMessage(err error) string {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		keys := make([]string, 0, len(verr.Fields))
		for k := range verr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		msgs := make([]string, 0, len(keys))
		for _, k := range keys {
			msgs = append(msgs, verr.Fields[k])
		}
		return strings.Join(msgs, ". ") + "."
	}
	return GenericSubmitError
}

// YearChoices lists the selectable years, newest first.
func YearChoices(first, last int) []int {
	if last < first {
		return nil
	}
	years := make([]int, 0, last-first+1)
	for y := last; y >= first; y-- {
		years = append(years, y)
	}
	return years
}
