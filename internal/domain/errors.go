// Package domain holds the contracts shared between the service, storage
// and transport layers, and the error values callers match with errors.Is.
package domain

import "errors"

var (
	ErrDuplicateName      = errors.New("name already used")
	ErrDuplicateEmail     = errors.New("email already used")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
	// ErrSessionRequired is returned when an operation needs a logged in account.
	ErrSessionRequired = errors.New("login required")

	ErrCarNotFound    = errors.New("car not found")
	ErrOutOfInventory = errors.New("car out of inventory")

	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrMalformedSnapshot means persisted data could not be decoded. The
	// store recovers by starting from an empty snapshot.
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)
