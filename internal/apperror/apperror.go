// Package apperror defines the error taxonomy shared by every layer.
//
// Lower layers return an *AppError wrapping one of the sentinels below. The HTTP
// layer never inspects messages; it asks errors.Is(err, apperror.ErrXxx) and maps
// the answer to a status code.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrIntegrity    = errors.New("integrity violation")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error    // actual error
	Message string   // Human-readable error message
	Field   string   // Optional: field causing the error
	Details []string // Optional: every message when several checks failed at once
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Messages returns the client-facing message list. A single-failure error
// reports its own message.
func (e *AppError) Messages() []string {
	if len(e.Details) > 0 {
		return e.Details
	}
	return []string{e.Message}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Integrity reports a storage-level constraint violation (UNIQUE, NOT NULL,
// FOREIGN KEY) that pre-commit validation did not catch.
func Integrity(message string) *AppError {
	return &AppError{
		Err:     ErrIntegrity,
		Message: message,
	}
}

// Unauthorized covers both bad credentials and a missing or stale session.
// The message is shown to the client, so it must not say which credential
// was wrong.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Validation collects field-level failures for one entity so the caller gets
// every problem in a single report instead of the first one only.
//
// The zero value is ready to use:
//
//	var v apperror.Validation
//	if title == "" {
//	    v.Add("title", "title required")
//	}
//	return v.Err()
type Validation struct {
	failures []*AppError
}

// Add records a failure for field.
func (v *Validation) Add(field, message string) {
	v.failures = append(v.failures, ValidationFailed(field, message))
}

// Err returns nil when nothing was added. Otherwise it returns a single
// *AppError wrapping ErrValidation whose Details lists every message in the
// order they were added.
func (v *Validation) Err() error {
	switch len(v.failures) {
	case 0:
		return nil
	case 1:
		return v.failures[0]
	}

	messages := make([]string, 0, len(v.failures))
	for _, f := range v.failures {
		messages = append(messages, f.Message)
	}
	return &AppError{
		Err:     ErrValidation,
		Message: strings.Join(messages, "; "),
		Field:   v.failures[0].Field,
		Details: messages,
	}
}
