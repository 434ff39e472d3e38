package validate

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequiredField marks a required field absent from a document.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrDanglingReference marks a ref value with no matching target.
	ErrDanglingReference = errors.New("dangling reference")
	// ErrDuplicateUniqueValue marks a collision on a unique field.
	ErrDuplicateUniqueValue = errors.New("duplicate unique value")
	// ErrTypeMismatch marks a value that does not conform to its declared
	// signature.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrUnknownTargetType marks a data load against a type name that is
	// not registered, or an inference pass that matched no type at all.
	ErrUnknownTargetType = errors.New("unknown target type")
	// ErrAmbiguousTargetType marks a document whose shape matches more than
	// one registered type when no type name was given.
	ErrAmbiguousTargetType = errors.New("ambiguous target type")
)

// MissingFieldError names the absent required field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("Missing required field '%s'", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingRequiredField }

// DanglingReferenceError names the ref path and the value that failed to
// resolve against the uniqueness index.
type DanglingReferenceError struct {
	Target string
	Value  any
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("Reference 'ref[%s]' does not match any known value for '%v'", e.Target, e.Value)
}

func (e *DanglingReferenceError) Unwrap() error { return ErrDanglingReference }

// DuplicateValueError names the unique field and the colliding value.
type DuplicateValueError struct {
	Field string
	Value any
}

func (e *DuplicateValueError) Error() string {
	return fmt.Sprintf("Duplicate value '%v' for unique field '%s'", e.Value, e.Field)
}

func (e *DuplicateValueError) Unwrap() error { return ErrDuplicateUniqueValue }

// TypeMismatchError describes a non-conforming value.
type TypeMismatchError struct {
	Field    string
	Declared string
	Value    any
	Reason   string
}

func (e *TypeMismatchError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = fmt.Sprintf("value '%v' does not conform to '%s'", e.Value, e.Declared)
	}
	return fmt.Sprintf("Field '%s': %s", e.Field, reason)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }
