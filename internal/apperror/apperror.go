package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that decide on retries or status codes.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindInvalidStatus Kind = "invalid_status"
	KindConflict      Kind = "conflict"
	KindStorage       Kind = "storage"
	KindForbidden     Kind = "forbidden"
	KindUnauthorized  Kind = "unauthorized"
	KindRateLimited   Kind = "rate_limited"
	KindRecallCascade Kind = "recall_cascade"
)

// Kind sentinels. errors.Is(err, ErrNotFound) holds for every domain error of that kind.
var (
	ErrValidation    = &Error{Kind: KindValidation, Code: string(KindValidation)}
	ErrNotFound      = &Error{Kind: KindNotFound, Code: string(KindNotFound)}
	ErrInvalidStatus = &Error{Kind: KindInvalidStatus, Code: string(KindInvalidStatus)}
	ErrConflict      = &Error{Kind: KindConflict, Code: string(KindConflict)}
	ErrStorage       = &Error{Kind: KindStorage, Code: string(KindStorage)}
	ErrForbidden     = &Error{Kind: KindForbidden, Code: string(KindForbidden)}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized, Code: string(KindUnauthorized)}
	ErrRateLimited   = &Error{Kind: KindRateLimited, Code: string(KindRateLimited)}
)

// Error is a coded domain error. Code is the stable snake_case identifier
// surfaced to API clients.
type Error struct {
	Kind  Kind
	Code  string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.cause)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches another *Error by code, or a kind sentinel by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == string(t.Kind) {
		return e.Kind == t.Kind
	}
	return e.Code == t.Code
}

func New(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

func Validation(code string) *Error    { return New(KindValidation, code) }
func NotFound(code string) *Error      { return New(KindNotFound, code) }
func InvalidStatus(code string) *Error { return New(KindInvalidStatus, code) }
func Conflict(code string) *Error      { return New(KindConflict, code) }

// Storage wraps an underlying store failure. Errors that already carry a
// kind pass through unchanged. Nil in, nil out.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := KindOf(err); ok || errors.Is(err, ErrValidation) {
		return err
	}
	return &Error{Kind: KindStorage, Code: "storage_unavailable", cause: err}
}

// Wrap attaches cause to a copy of sentinel; errors.Is(err, sentinel) still holds.
func Wrap(sentinel *Error, cause error) error {
	if cause == nil {
		return sentinel
	}
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, cause: cause}
}

// KindOf returns the kind of the first coded error in the chain.
func KindOf(err error) (Kind, bool) {
	var cascade *RecallCascadeError
	if errors.As(err, &cascade) {
		return KindRecallCascade, true
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Kind, true
	}
	return "", false
}

// CodeOf returns the client-facing code of err, or "" when err is not coded.
func CodeOf(err error) string {
	var cascade *RecallCascadeError
	if errors.As(err, &cascade) {
		return "recall_cascade_incomplete"
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// RecallCascadeError reports a recall whose cascade stopped partway.
// Retrying the recall resumes from the recorded state.
type RecallCascadeError struct {
	BatchID int64
	Stage   string
	Err     error
}

func (e *RecallCascadeError) Error() string {
	return fmt.Sprintf("recall cascade for batch %d failed at %s: %v", e.BatchID, e.Stage, e.Err)
}

func (e *RecallCascadeError) Unwrap() error { return e.Err }
