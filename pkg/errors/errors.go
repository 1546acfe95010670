// Package errors holds the error kinds shared by every layer.
// Service errors wrap one of the kinds so handlers can map them to a status
// without knowing every sentinel.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrDatastore  = errors.New("datastore failure")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid is shorthand for &ValidationError{...}.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Wrap attaches a kind to a message, e.g. Wrap(ErrNotFound, "shipment not found").
func Wrap(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// Datastore marks a storage failure while keeping the cause in the chain.
func Datastore(op string, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDatastore, cause)
}

// IsDuplicateKey reports a unique constraint violation.
// gorm translates it when TranslateError is on; the message checks cover
// drivers or code paths where translation did not happen.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Error 1062") || // mysql
		strings.Contains(msg, "SQLSTATE 23505") || // postgres (pgx)
		strings.Contains(msg, "UNIQUE constraint failed") // sqlite
}

// IsNotFound reports gorm's record-not-found as well as the local kind.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
