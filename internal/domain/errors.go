package domain

import (
	"errors"
	"fmt"
)

// Error kinds, matched with errors.Is. Adapters choose their response from
// the kind alone.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrValidation  = errors.New("validation failed")
	ErrForbidden   = errors.New("forbidden")
	ErrUnavailable = errors.New("unavailable")

	// ErrFetch covers any quote that could not be retrieved or decoded.
	ErrFetch = errors.New("quote fetch failed")

	// ErrPersistence covers favorites that could not be loaded or saved.
	ErrPersistence = errors.New("favorites persistence failed")
)

// NotFoundError reports a resource the quote service does not have.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}

	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (*NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError returns a *NotFoundError. id may be empty.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError reports work that lost to concurrent work, such as a quote
// fetch superseded by a newer one.
type ConflictError struct {
	Entity string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
}

func (*ConflictError) Unwrap() error { return ErrConflict }

// NewConflictError returns a *ConflictError.
func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

// ValidationError reports input that breaks a rule: an unknown lifecycle
// phase, a malformed quote, a bad favorites file name. Field is empty when
// the whole input is at fault.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid: " + e.Message
	}

	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (*ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError returns a *ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue is NewValidationError recording the rejected
// value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ForbiddenError reports an operation the quote service refused.
type ForbiddenError struct {
	Operation string
	Reason    string
}

func (e *ForbiddenError) Error() string {
	msg := e.Operation + " refused"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

func (*ForbiddenError) Unwrap() error { return ErrForbidden }

// NewForbiddenError returns a *ForbiddenError.
func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

// UnavailableError reports a dependency that cannot serve right now: the
// quote service, its circuit breaker, or the favorites directory.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	msg := e.Service + " unavailable"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

func (*UnavailableError) Unwrap() error { return ErrUnavailable }

// NewUnavailableError returns an *UnavailableError.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// FetchError wraps any failure to retrieve a quote: transport errors,
// unexpected responses, and bodies that do not match the quote shape.
// It matches ErrFetch and, through Cause, the cause's own kind.
type FetchError struct {
	Cause error
}

func (e *FetchError) Error() string {
	if e.Cause == nil {
		return ErrFetch.Error()
	}

	return fmt.Sprintf("%s: %v", ErrFetch, e.Cause)
}

func (e *FetchError) Unwrap() []error {
	return withCause(ErrFetch, e.Cause)
}

// NewFetchError wraps cause in a FetchError.
func NewFetchError(cause error) error {
	return &FetchError{Cause: cause}
}

// PersistenceOp names the persistence operation that failed.
type PersistenceOp string

const (
	OpLoad PersistenceOp = "load"
	OpSave PersistenceOp = "save"
)

// PersistenceError reports a favorites file that could not be read or
// written. A missing file on load also matches ErrNotFound.
type PersistenceError struct {
	Op    PersistenceOp
	Path  string
	Cause error
}

func (e *PersistenceError) Error() string {
	msg := fmt.Sprintf("%s favorites", e.Op)
	if e.Path != "" {
		msg += fmt.Sprintf(" at %q", e.Path)
	}

	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

func (e *PersistenceError) Unwrap() []error {
	return withCause(ErrPersistence, e.Cause)
}

// NewPersistenceError creates a persistence error for op on path.
func NewPersistenceError(op PersistenceOp, path string, cause error) error {
	return &PersistenceError{Op: op, Path: path, Cause: cause}
}

func withCause(kind, cause error) []error {
	if cause == nil {
		return []error{kind}
	}

	return []error{kind, cause}
}

func IsNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool    { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool  { return errors.Is(err, ErrValidation) }
func IsForbidden(err error) bool   { return errors.Is(err, ErrForbidden) }
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
func IsFetch(err error) bool       { return errors.Is(err, ErrFetch) }
func IsPersistence(err error) bool { return errors.Is(err, ErrPersistence) }
