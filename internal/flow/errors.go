package flow

import (
	"errors"
	"fmt"
)

var (
	ErrCatalogUnavailable = errors.New("questionnaire unavailable")
	ErrUnknownQuestion    = errors.New("unknown question")
	ErrTypeMismatch       = errors.New("answer does not match the question type")
	ErrOptionOutOfRange   = errors.New("option index out of range")
	ErrUnknownValue       = errors.New("value is not an option of the question")
	ErrNotAnswered        = errors.New("question has no answer")
	ErrUnanswered         = errors.New("current question requires an answer")
	ErrNotVisible         = errors.New("question is not active")
	ErrIncomplete         = errors.New("assessment is incomplete")
	ErrSubmitted          = errors.New("assessment already submitted")
	ErrSubmitInFlight     = errors.New("submission in progress")
	ErrNotStarted         = errors.New("questionnaire not loaded")
	ErrStaleSnapshot      = errors.New("progress snapshot is older than the stored one")
)

// CatalogUnavailableError is returned when the questionnaire cannot be
// loaded. Reason is safe to show to the user.
type CatalogUnavailableError struct {
	Reason string
	Err    error
}

func (e *CatalogUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrCatalogUnavailable, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrCatalogUnavailable, e.Reason)
}

func (e *CatalogUnavailableError) Unwrap() error { return e.Err }

func (e *CatalogUnavailableError) Is(target error) bool { return target == ErrCatalogUnavailable }

// SubmitError reports a failed submission. The controller state is left as
// it was so the caller can retry.
type SubmitError struct {
	Reason string
	Err    error
}

func (e *SubmitError) Error() string {
	return "submission failed: " + e.Reason
}

func (e *SubmitError) Unwrap() error { return e.Err }

// StaleSnapshotError is returned by a ProgressStore that kept a snapshot with
// a sequence at least as high as the one offered.
type StaleSnapshotError struct {
	StoredSeq int64
}

func (e *StaleSnapshotError) Error() string {
	return fmt.Sprintf("%s: stored seq %d", ErrStaleSnapshot, e.StoredSeq)
}

func (e *StaleSnapshotError) Is(target error) bool { return target == ErrStaleSnapshot }
