package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrAuthRequired = errors.New("authentication required")
	ErrUpstream     = errors.New("upstream unavailable")
	ErrInvalidRoute = errors.New("invalid place route")
	ErrPersistence  = errors.New("persistence failed")
)

// PersistenceError reports that a computed state change could not be written
// back. The caller keeps the prior state.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
