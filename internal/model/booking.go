package model

import (
	"crypto/rand"
	"time"
)

// Booking status values as stored in the bookings.status column. A booking
// only ever transitions into StatusCancelled; "past" can also be stored
// when a booking is created for dates that already lie behind, but for
// reads the temporal classification is derived from check_out (see
// TimeCategory) rather than trusted from storage.
const (
	StatusUpcoming  = "upcoming"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusPast      = "past"
)

// ValidStatus reports whether s is one of the accepted status values.
func ValidStatus(s string) bool {
	switch s {
	case StatusUpcoming, StatusConfirmed, StatusCancelled, StatusPast:
		return true
	}
	return false
}

// Booking mirrors the `bookings` table. CheckIn/CheckOut are date-only
// values (UTC midnight); the stay occupies [CheckIn, CheckOut). Nights and
// Total are derived at creation time and persisted. Room is populated on
// read paths that join the rooms table.
type Booking struct {
	ID            uint64
	UserID        uint64
	RoomID        uint64
	CheckIn       time.Time
	CheckOut      time.Time
	Guests        uint32
	Nights        int
	Total         float64
	BookingNumber string
	Status        string
	CancelledAt   *time.Time
	Title         string
	Name          string
	Email         string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Room *Room
}

// Cancellable reports whether the booking may still transition to
// cancelled. Only upcoming and confirmed bookings can be cancelled;
// cancelling anything else is a no-op.
func (b *Booking) Cancellable() bool {
	return b.Status == StatusUpcoming || b.Status == StatusConfirmed
}

// TimeCategory classifies the booking as "upcoming" or "past" relative to
// now. A stay whose checkout day has arrived (check_out <= today) is past
// regardless of the stored status.
func (b *Booking) TimeCategory(now time.Time) string {
	if b.CheckOut.After(DateOnly(now)) {
		return StatusUpcoming
	}
	return StatusPast
}

// BookingView is the JSON shape of a booking. Dates are rendered as plain
// calendar dates and the room is nested when loaded.
type BookingView struct {
	ID            uint64     `json:"id"`
	UserID        uint64     `json:"user_id"`
	RoomID        uint64     `json:"room_id"`
	CheckIn       string     `json:"check_in"`
	CheckOut      string     `json:"check_out"`
	Guests        uint32     `json:"guests"`
	Nights        int        `json:"nights"`
	Total         float64    `json:"total"`
	BookingNumber string     `json:"booking_number"`
	Status        string     `json:"status"`
	CancelledAt   *time.Time `json:"cancelled_at"`
	Title         string     `json:"title"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	CreatedAt     time.Time  `json:"created_at"`
	Room          *RoomView  `json:"room,omitempty"`
}

// View builds the API representation of the booking.
func (b *Booking) View() BookingView {
	v := BookingView{
		ID:            b.ID,
		UserID:        b.UserID,
		RoomID:        b.RoomID,
		CheckIn:       b.CheckIn.Format(time.DateOnly),
		CheckOut:      b.CheckOut.Format(time.DateOnly),
		Guests:        b.Guests,
		Nights:        b.Nights,
		Total:         b.Total,
		BookingNumber: b.BookingNumber,
		Status:        b.Status,
		CancelledAt:   b.CancelledAt,
		Title:         b.Title,
		Name:          b.Name,
		Email:         b.Email,
		CreatedAt:     b.CreatedAt,
	}
	if b.Room != nil {
		rv := b.Room.View()
		v.Room = &rv
	}
	return v
}

// bookingNumberPrefix and the alphabet match the externally visible
// reservation number format: RES followed by eight characters.
const (
	bookingNumberPrefix   = "RES"
	bookingNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	bookingNumberLength   = 8
)

// NewBookingNumber generates a random reservation number. Uniqueness is
// enforced by the bookings.booking_number unique key; callers retry on a
// duplicate-key error.
func NewBookingNumber() string {
	buf := make([]byte, bookingNumberLength)
	if _, err := rand.Read(buf); err != nil {
		panic("booking number entropy unavailable: " + err.Error())
	}
	out := make([]byte, bookingNumberLength)
	for i, b := range buf {
		out[i] = bookingNumberAlphabet[int(b)%len(bookingNumberAlphabet)]
	}
	return bookingNumberPrefix + string(out)
}
