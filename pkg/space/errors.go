package space

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery is matched by every *QueryError.
	ErrInvalidQuery = errors.New("space: invalid query region")

	// ErrStaleRecord is returned when a record that is no longer in the
	// space is replaced or removed.
	ErrStaleRecord = errors.New("space: stale geometry record")

	// ErrUnknownNode is returned when geometry names an owner that has no
	// node entry.
	ErrUnknownNode = errors.New("space: unknown node")
)

// QueryError reports a malformed query or insertion region.
type QueryError struct {
	Box    BoundBox
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("space: invalid region %s: %s", e.Box, e.Reason)
}

// Is reports whether target is ErrInvalidQuery.
func (e *QueryError) Is(target error) bool {
	return target == ErrInvalidQuery
}

// StaleRecordError names the record that could not be found.
type StaleRecordError struct {
	ID string
}

func (e *StaleRecordError) Error() string {
	return fmt.Sprintf("space: geometry record %s is not in the space", e.ID)
}

// Is reports whether target is ErrStaleRecord.
func (e *StaleRecordError) Is(target error) bool {
	return target == ErrStaleRecord
}
