package model

import (
	"errors"
	"fmt"
)

// Entities reported by NotFoundError.
const (
	EntityShow         = "Show"
	EntityShowTiming   = "ShowTiming"
	EntitySeatCategory = "SeatCategory"
	EntityBooking      = "Booking"
	EntityUser         = "User"
)

var (
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrCapacityExceeded means the seat category is sold out.
	ErrCapacityExceeded = errors.New("no seats available in this category")
	// ErrAlreadyCancelled guards against cancelling (and refunding) twice.
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	// ErrSeatTaken means an active booking already holds the seat number.
	ErrSeatTaken = errors.New("seat number is already booked")
	// ErrRefundMismatch means a supplied refund differs from the policy amount.
	ErrRefundMismatch = errors.New("refund amount does not match refund policy")
	// ErrForbidden means the caller may not act on another user's data.
	ErrForbidden = errors.New("forbidden")
	// ErrStorage wraps persistence failures; the whole operation may be retried.
	ErrStorage = errors.New("storage error")
)

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError for field.
func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// Required builds the ValidationError for an absent field.
func Required(field string) *ValidationError {
	return Invalid(field, "is required")
}

// NotFoundError names the referenced entity that does not exist.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError for entity.
func NotFound(entity string) *NotFoundError {
	return &NotFoundError{Entity: entity}
}

// Storage wraps a persistence failure so callers can match ErrStorage
// while the driver error stays reachable through errors.Unwrap.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
