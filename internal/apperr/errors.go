// Package apperr defines the error taxonomy surfaced by domain operations.
//
// Every failure a caller can observe is an *Error with a stable Kind:
//
//   - VALIDATION: constraint, enum, or range violation; Field names the column
//   - AUTHORIZATION: the policy evaluator denied the operation; identical for
//     a forbidden row and a row that does not exist
//   - CONFLICT: uniqueness violation
//   - NOT_FOUND: a referenced entity is absent
//   - COLLABORATOR: an external collaborator (classifier, storage, delivery)
//     failed; Err carries the cause
//
// Errors that are not *Error are internal and are never rendered verbatim to
// callers (see Describe).
package apperr

import (
	"errors"
	"fmt"
)

// Kind categorizes an error.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindAuthorization Kind = "AUTHORIZATION"
	KindConflict      Kind = "CONFLICT"
	KindNotFound      Kind = "NOT_FOUND"
	KindCollaborator  Kind = "COLLABORATOR"

	// KindInternal is reported by Describe for errors outside the taxonomy.
	KindInternal Kind = "INTERNAL"
)

// Error is a structured domain error.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Entity is the entity type involved (e.g. "user", "conversation").
	Entity string

	// ID identifies the row, when one is known.
	ID string

	// Field names the offending column for validation and conflict errors.
	Field string

	// Message is a human-readable description safe to show to callers.
	Message string

	// Err is the wrapped cause (collaborator failures, constraint errors).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: %s.%s: %s", e.Kind, e.Entity, e.Field, e.Message)
	case e.ID != "":
		return fmt.Sprintf("%s: %s %s: %s", e.Kind, e.Entity, e.ID, e.Message)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Entity, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation creates a field-named validation error.
func Validation(entity, field, message string) *Error {
	return &Error{Kind: KindValidation, Entity: entity, Field: field, Message: message}
}

// Denied creates an authorization error.
// The message never says whether the row exists.
func Denied(entity, id string) *Error {
	return &Error{Kind: KindAuthorization, Entity: entity, ID: id, Message: "access denied"}
}

// Conflict creates a uniqueness violation error.
func Conflict(entity, field, message string) *Error {
	return &Error{Kind: KindConflict, Entity: entity, Field: field, Message: message}
}

// NotFound creates an error for an absent referenced entity.
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id, Message: "not found"}
}

// Collaborator wraps a failure of an external collaborator.
func Collaborator(name string, err error) *Error {
	return &Error{Kind: KindCollaborator, Entity: name, Message: "collaborator call failed", Err: err}
}

// KindOf returns the Kind of err, or KindInternal when err is not an *Error.
// Uses errors.As to handle wrapped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return Is(err, KindValidation) }

// IsAuthorization reports whether err is an authorization error.
func IsAuthorization(err error) bool { return Is(err, KindAuthorization) }

// IsConflict reports whether err is a uniqueness conflict.
func IsConflict(err error) bool { return Is(err, KindConflict) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return Is(err, KindNotFound) }

// IsCollaborator reports whether err is a collaborator failure.
func IsCollaborator(err error) bool { return Is(err, KindCollaborator) }

// FieldOf returns the offending field of a validation or conflict error.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// Description is the structured, user-visible form of an error.
type Description struct {
	Kind    Kind   `json:"kind"`
	Entity  string `json:"entity,omitempty"`
	ID      string `json:"id,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Describe renders err for callers. Errors outside the taxonomy are reported
// as INTERNAL without their text.
func Describe(err error) Description {
	var e *Error
	if !errors.As(err, &e) {
		return Description{Kind: KindInternal, Message: "internal error"}
	}
	return Description{
		Kind:    e.Kind,
		Entity:  e.Entity,
		ID:      e.ID,
		Field:   e.Field,
		Message: e.Message,
	}
}
