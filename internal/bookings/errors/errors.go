package errors

import "errors"

var (
	ErrNotFound = errors.New("trip not found")

	ErrInvalidID = errors.New("invalid trip ID format")

	ErrVersionConflict = errors.New("trip was modified concurrently")

	ErrLocked = errors.New("trip is locked by another operation")

	ErrBookingNotFound = errors.New("booking not found on trip")
)
