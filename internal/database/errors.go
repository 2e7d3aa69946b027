package database

import (
	"errors"
	"fmt"
)

// Op is the category of store operation that failed. Callers surface it
// as part of a single human-readable message; nothing retries
// automatically.
type Op string

const (
	OpSave   Op = "save"
	OpDelete Op = "delete"
	OpFetch  Op = "fetch"
)

// PersistenceError wraps an underlying store error with the operation
// category that failed.
type PersistenceError struct {
	Op  Op
	Err error
}

func (e *PersistenceError) Error() string {
	switch e.Op {
	case OpSave:
		return fmt.Sprintf("failed to save: %v", e.Err)
	case OpDelete:
		return fmt.Sprintf("failed to delete: %v", e.Err)
	default:
		return fmt.Sprintf("failed to fetch data: %v", e.Err)
	}
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// SaveError wraps err as a failed save; returns nil for a nil err.
func SaveError(err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: OpSave, Err: err}
}

// DeleteError wraps err as a failed delete; returns nil for a nil err.
func DeleteError(err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: OpDelete, Err: err}
}

// FetchError wraps err as a failed fetch; returns nil for a nil err.
func FetchError(err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: OpFetch, Err: err}
}

// OpOf reports the operation category of err, or empty if err is not a
// persistence error.
func OpOf(err error) Op {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe.Op
	}
	return ""
}
