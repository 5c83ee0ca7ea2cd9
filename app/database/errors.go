package database

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConflict reports a uniqueness violation. The ingestion pipeline treats it
	// as a benign duplicate.
	ErrConflict = errors.New("storage conflict")
	ErrNotFound = errors.New("not found")
)

// StorageError wraps an unexpected persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return &StorageError{Op: op, Err: err}
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: UNIQUE")
}
