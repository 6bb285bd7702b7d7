// Package services implements the reconciliation core: period resolution,
// the audit trail store, the reconciliation link manager, the sale workflow
// and carrier report imports. Handlers are thin wrappers over this package.
package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ValidationError means the input was missing, malformed or referenced a
// record that does not exist. Safe to surface to the end user; not retryable.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError means the operation would violate the
// one-reconciled-link-per-pair invariant. Distinct from generic failure so
// callers can show "already reconciled"; retryable after re-checking state.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return e.Msg
}

// StoreError wraps a read/write rejected by the record store. The core does
// not retry; retry policy belongs to the caller.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error in %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// isDuplicateKey recognizes a unique-index violation from either supported
// driver: GORM's translated sentinel, MySQL error 1062, or sqlite's UNIQUE
// constraint message.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
