// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver-specific errors. For example,
// ErrDuplicateBookingNumber signals a unique-key collision on
// bookings.booking_number that the caller may retry with a fresh number.
package repository

import (
	"errors"
	"strings"
)

// ErrRoomNotFound is returned when a room lookup matches no row.
// Handlers should translate this into an HTTP 404 response.
var ErrRoomNotFound = errors.New("room not found")

// ErrBookingNotFound is returned when a booking does not exist or is not
// owned by the requesting user. Ownership misses deliberately map to the
// same error so handlers cannot leak the existence of other users'
// bookings.
var ErrBookingNotFound = errors.New("booking not found")

// ErrDuplicateBookingNumber is returned when an insert collides with an
// existing booking_number. Auto-generated numbers are retried with a new
// value; caller-supplied numbers surface the error to the client.
var ErrDuplicateBookingNumber = errors.New("booking number already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (error number 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
