package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRange = errors.New("invalid time range")

	ErrInvalidEventCategory = errors.New("invalid event category")

	ErrUnauthorized = errors.New("operation not authorized")

	ErrSlotConflict = errors.New("slot conflicts with an active reservation")

	ErrInvalidTransition = errors.New("invalid state transition")

	ErrNotFound = errors.New("not found")

	ErrPersistenceFailure = errors.New("persistence failure")
)

type ConflictError struct {
	SpaceName     string
	ConflictingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("space %q: %v (reservation %s)", e.SpaceName, ErrSlotConflict, e.ConflictingID)
}

func (e *ConflictError) Unwrap() error {
	return ErrSlotConflict
}

type TransitionError struct {
	ID   string
	From string
	Op   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("reservation %s: cannot %s from %s: %v", e.ID, e.Op, e.From, ErrInvalidTransition)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// NotFoundError names what was looked up: "reservation", "space" or "requester".
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q %v", e.Kind, e.Key, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// PersistenceError reports a store failure after the in-memory change was committed.
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s reservation %s: %v: %v", e.Op, e.ID, ErrPersistenceFailure, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistenceFailure, e.Err}
}

func NewNotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

func InvalidRange(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRange, fmt.Sprintf(format, args...))
}

func InvalidEventCategory(category string) error {
	return fmt.Errorf("%w: %q", ErrInvalidEventCategory, category)
}

func Unauthorized(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}
