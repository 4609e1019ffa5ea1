package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrNotConfigured means no budget categories exist yet. It is an onboarding
	// state, not a failure.
	ErrNotConfigured = errors.New("budget not configured")

	// ErrEmptySelection is returned when a commit is attempted with no rows selected.
	ErrEmptySelection = errors.New("no transactions selected")

	ErrNotFound = errors.New("not found")
)

// ValidationError reports bad user input against a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UpstreamError wraps a failure of an external collaborator (settings,
// expense store, statement parser).
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// UserMessage is the message shown to the user, taken verbatim from the collaborator.
func (e *UpstreamError) UserMessage() string {
	if e.Err == nil {
		return "Upstream service failed"
	}
	return e.Err.Error()
}

// Upstream wraps err unless it is nil or already carries a more specific meaning.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) || errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}
