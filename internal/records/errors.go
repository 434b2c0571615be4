package records

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound is returned for update/delete/history lookups on an
	// unknown record id.
	ErrRecordNotFound = errors.New("Data not found")

	// ErrInvalidPeriod is returned when the snapshot coordinate is out of range.
	ErrInvalidPeriod = errors.New("Invalid snapshot period")
)

// PersistenceError wraps a storage failure inside a period replacement or
// update unit of work. The transaction has been rolled back; the caller must
// surface this loudly so the operator can re-run the import.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
