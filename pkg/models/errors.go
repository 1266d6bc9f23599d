package models

import (
	"errors"
	"fmt"
)

// ErrDuplicate matches every DuplicateError with errors.Is.
var ErrDuplicate = errors.New("duplicate key")

// DuplicateError is returned by a store's Create when a unique column
// already holds the inserted value.
type DuplicateError struct {
	Column string
	Err    error
}

func (e *DuplicateError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("duplicate %s", e.Column)
	}
	return fmt.Sprintf("duplicate %s: %v", e.Column, e.Err)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }
