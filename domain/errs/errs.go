// Package errs holds the error kinds surfaced by the news services.
//
// Every error returned across the service boundary is either an *Error carrying
// a Kind, or an unexpected failure that handlers render as INTERNAL_ERROR.
package errs

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable error category sent to API clients.
type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindUpload     Kind = "UPLOAD_ERROR"
	KindInternal   Kind = "INTERNAL_ERROR"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Validationf(format string, args ...interface{}) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

func Upload(message string, err error) *Error {
	return &Error{Kind: KindUpload, Message: message, Err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf reports the Kind of err, or KindInternal for anything unclassified.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// BlobCleanupWarning describes a blob that could not be released after its
// media row was removed. It is logged, never returned to callers.
type BlobCleanupWarning struct {
	URL string
	Err error
}

func (w *BlobCleanupWarning) Error() string {
	return fmt.Sprintf("failed to release blob %s: %v", w.URL, w.Err)
}

func (w *BlobCleanupWarning) Unwrap() error {
	return w.Err
}
