package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("room_not_found")
	ErrInvalidArgument = errors.New("invalid_argument")

	ErrInvalidPeriod = &ArgumentError{Field: "period", Code: "invalid_period"}
	ErrInvalidDate   = &ArgumentError{Field: "date", Code: "invalid_date"}
	ErrInvalidRoomID = &ArgumentError{Field: "room_id", Code: "invalid_room_id"}
)

// ArgumentError is an InvalidArgument failure for a single input field.
type ArgumentError struct {
	Field string
	Code  string
}

func (e *ArgumentError) Error() string { return e.Code }

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// StorageError wraps a failed read. Aggregates are never computed from a
// partial or failed query.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("energy storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// WrapStorage tags err as a StorageError for op. It returns nil for nil.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
