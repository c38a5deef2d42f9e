// Package errors provides structured error types used across the directory.
// Presentation layers switch on the kind (validation vs business rule) to pick
// a message or status code, so prefer these over raw fmt.Errorf strings.
package errors

import (
	"errors"
	"fmt"
)

// ValidationError indicates malformed input supplied by a caller/user.
type ValidationError struct {
	Op    string // where it happened (package.Function)
	Field string // offending input field, e.g. "phone"
	Msg   string // human friendly message
	Err   error  // underlying cause (optional)
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("validation: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("validation: %s: %s", e.Op, e.Msg)
}

func (e *ValidationError) Unwrap() error     { return e.Err }
func (e *ValidationError) Operation() string { return e.Op }
func (e *ValidationError) Message() string   { return e.Msg }
func (e *ValidationError) Context() map[string]any {
	return map[string]any{"op": e.Op, "field": e.Field, "msg": e.Msg}
}

func NewValidation(op, field, msg string, err error) error {
	return &ValidationError{Op: op, Field: field, Msg: msg, Err: err}
}

// BizError is for directory rule failures that aren't programmer bugs,
// e.g. a phone number already owned by another contact.
type BizError struct {
	Op  string
	Msg string
	Err error
}

func (e *BizError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("biz: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("biz: %s: %s", e.Op, e.Msg)
}

func (e *BizError) Unwrap() error           { return e.Err }
func (e *BizError) Operation() string       { return e.Op }
func (e *BizError) Message() string         { return e.Msg }
func (e *BizError) Context() map[string]any { return map[string]any{"op": e.Op, "msg": e.Msg} }

func NewBiz(op, msg string, err error) error { return &BizError{Op: op, Msg: msg, Err: err} }

// Kind markers: if errors.Is(err, errors.ErrValidation) { ... }
var (
	ErrValidation = &ValidationError{}
	ErrBiz        = &BizError{}
)

// Is enables Is(err, ErrValidation) via errors.As semantics.
func Is(err, target error) bool {
	if err == nil || target == nil {
		return errors.Is(err, target)
	}
	switch target.(type) {
	case *ValidationError:
		var v *ValidationError
		return errors.As(err, &v)
	case *BizError:
		var b *BizError
		return errors.As(err, &b)
	default:
		return errors.Is(err, target)
	}
}

// MessageOf returns the human friendly message carried by a typed error,
// falling back to err.Error().
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Msg
	}
	var b *BizError
	if errors.As(err, &b) {
		return b.Msg
	}
	return err.Error()
}
