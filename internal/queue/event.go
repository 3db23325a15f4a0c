// Package queue defines message payloads exchanged over the message broker.
package queue

// Booking event actions.
const (
	ActionCreated   = "created"
	ActionCancelled = "cancelled"
)

// BookingEvent is published when a booking is created or cancelled. It
// contains enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type BookingEvent struct {
	Action        string  `json:"action"`
	BookingID     uint64  `json:"booking_id"`
	BookingNumber string  `json:"booking_number"`
	UserID        uint64  `json:"user_id"`
	RoomID        uint64  `json:"room_id"`
	RoomTitle     string  `json:"room_title"`
	CheckIn       string  `json:"check_in"`
	CheckOut      string  `json:"check_out"`
	Nights        int     `json:"nights"`
	Guests        uint32  `json:"guests"`
	Total         float64 `json:"total"`
	OccurredAt    string  `json:"occurred_at"`
}
