package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stayforge/room-booking-api/internal/model"
	"github.com/stayforge/room-booking-api/internal/repository"
)

// RoomStore is the room access the coordinator needs. GetByIDForUpdate
// must take a row lock when running inside a real transaction; that lock
// is what serializes concurrent bookings of the same room.
type RoomStore interface {
	GetByID(ctx context.Context, q repository.DBTX, id uint64) (*model.Room, error)
	GetByIDForUpdate(ctx context.Context, q repository.DBTX, id uint64) (*model.Room, error)
}

// Ledger is the availability ledger surface the coordinator mutates.
// All ranges are half-open [start, end).
type Ledger interface {
	BlockedDays(ctx context.Context, q repository.DBTX, roomID uint64, checkIn, checkOut time.Time) (int, error)
	OverridesInRange(ctx context.Context, q repository.DBTX, roomID uint64, start, end time.Time) (map[string]float64, error)
	MarkUnavailable(ctx context.Context, q repository.DBTX, roomID uint64, start, end time.Time, notes *string) error
	MarkAvailable(ctx context.Context, q repository.DBTX, roomID uint64, start, end time.Time) error
}

// BookingStore is the booking persistence surface.
type BookingStore interface {
	Create(ctx context.Context, q repository.DBTX, b *model.Booking) error
	CountOverlapping(ctx context.Context, q repository.DBTX, roomID uint64, checkIn, checkOut time.Time) (int, error)
	GetByIDForUser(ctx context.Context, q repository.DBTX, bookingID, userID uint64) (*model.Booking, error)
	MarkCancelled(ctx context.Context, q repository.DBTX, bookingID uint64, at time.Time) error
	ListByUser(ctx context.Context, q repository.DBTX, userID uint64, typ string, today time.Time, page, perPage int) ([]model.Booking, int64, error)
}

// BookingService coordinates the check-reserve-release lifecycle of a
// booking against the availability ledger. Every mutation runs inside a
// single transaction: the availability check, the booking write and the
// ledger update commit or roll back together, so the two blocking
// signals (ledger rows and active bookings) cannot drift apart.
type BookingService struct {
	DB       repository.DBTX
	Txs      repository.TxRunner
	Rooms    RoomStore
	Ledger   Ledger
	Bookings BookingStore
	Now      func() time.Time
}

// NewBookingService wires the coordinator to a live database.
func NewBookingService(db *sql.DB, rooms RoomStore, ledger Ledger, bookings BookingStore) *BookingService {
	if rooms == nil || ledger == nil || bookings == nil {
		panic("nil store passed to NewBookingService")
	}
	return &BookingService{
		DB:       db,
		Txs:      &repository.SQLTxRunner{DB: db},
		Rooms:    rooms,
		Ledger:   ledger,
		Bookings: bookings,
		Now:      time.Now,
	}
}

// CreateBookingInput carries a booking request into the coordinator.
// BookingNumber, Status and Total are optional caller overrides; when
// absent they are derived.
type CreateBookingInput struct {
	RoomID        uint64
	CheckIn       time.Time
	CheckOut      time.Time
	Guests        uint32
	Title         string
	Name          string
	Email         string
	BookingNumber string
	Status        string
	Total         *float64
}

// bookedNotes annotates ledger rows written by the booking path, as
// opposed to administrative maintenance blocks.
const bookedNotes = "Booked"

// createAttempts bounds booking-number regeneration on unique-key
// collisions.
const createAttempts = 3

// CreateBooking validates the request, verifies availability and
// persists the booking while blocking its date range, all in one
// transaction. On an availability conflict nothing is written: no
// booking row and no ledger mutation.
func (s *BookingService) CreateBooking(ctx context.Context, userID uint64, in CreateBookingInput) (*model.Booking, error) {
	checkIn := model.DateOnly(in.CheckIn)
	checkOut := model.DateOnly(in.CheckOut)
	if !checkOut.After(checkIn) {
		return nil, &ValidationError{Field: "check_out", Reason: "check_out must be after check_in"}
	}
	if in.Guests < 1 {
		return nil, &ValidationError{Field: "guests", Reason: "at least one guest is required"}
	}
	if in.Status != "" && !model.ValidStatus(in.Status) {
		return nil, &ValidationError{Field: "status", Reason: "unknown status"}
	}
	nights := model.Nights(checkIn, checkOut)

	attempts := 1
	if in.BookingNumber == "" {
		attempts = createAttempts
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		number := in.BookingNumber
		if number == "" {
			number = model.NewBookingNumber()
		}
		var booking *model.Booking
		err := s.Txs.RunTx(ctx, func(tx *sql.Tx) error {
			// Lock the room row first; concurrent creates for the same
			// room serialize here.
			room, err := s.Rooms.GetByIDForUpdate(ctx, tx, in.RoomID)
			if err != nil {
				return err
			}
			blocked, err := s.Ledger.BlockedDays(ctx, tx, room.ID, checkIn, checkOut)
			if err != nil {
				return err
			}
			if blocked > 0 {
				return &AvailabilityError{Reason: fmt.Sprintf(
					"room is not available for the selected dates (%d blocked day(s))", blocked)}
			}
			overlapping, err := s.Bookings.CountOverlapping(ctx, tx, room.ID, checkIn, checkOut)
			if err != nil {
				return err
			}
			if overlapping > 0 {
				return &AvailabilityError{Reason: "room is already booked for the selected dates"}
			}

			status := in.Status
			if status == "" {
				status = model.StatusUpcoming
				if !checkIn.After(model.DateOnly(s.Now())) {
					status = model.StatusPast
				}
			}
			total, err := s.effectiveTotal(ctx, tx, room, checkIn, checkOut, in.Total)
			if err != nil {
				return err
			}

			b := &model.Booking{
				UserID:        userID,
				RoomID:        room.ID,
				CheckIn:       checkIn,
				CheckOut:      checkOut,
				Guests:        in.Guests,
				Nights:        nights,
				Total:         total,
				BookingNumber: number,
				Status:        status,
				Title:         in.Title,
				Name:          in.Name,
				Email:         in.Email,
			}
			if err := s.Bookings.Create(ctx, tx, b); err != nil {
				return err
			}
			notes := bookedNotes
			if err := s.Ledger.MarkUnavailable(ctx, tx, room.ID, checkIn, checkOut, &notes); err != nil {
				return err
			}
			b.Room = room
			booking = b
			return nil
		})
		if err == nil {
			return booking, nil
		}
		lastErr = err
		// Regenerate only when the number was ours to pick.
		if errors.Is(err, repository.ErrDuplicateBookingNumber) && in.BookingNumber == "" {
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// effectiveTotal sums the per-night price over [checkIn, checkOut),
// honoring ledger price overrides, unless the caller supplied an
// explicit total.
func (s *BookingService) effectiveTotal(ctx context.Context, q repository.DBTX, room *model.Room, checkIn, checkOut time.Time, override *float64) (float64, error) {
	if override != nil {
		return *override, nil
	}
	overrides, err := s.Ledger.OverridesInRange(ctx, q, room.ID, checkIn, checkOut)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, day := range model.DaysIn(checkIn, checkOut) {
		if p, ok := overrides[day.Format(time.DateOnly)]; ok {
			total += p
			continue
		}
		total += room.Price
	}
	return total, nil
}

// CancelBooking flips an upcoming or confirmed booking to cancelled and
// releases its date range in the ledger. Cancelling a booking that is
// already cancelled or past is a no-op that returns the booking
// unchanged with transitioned=false, so repeat cancels do not look like
// fresh cancellations to callers that emit events. A booking owned by
// another user is not found.
func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID uint64) (booking *model.Booking, transitioned bool, err error) {
	err = s.Txs.RunTx(ctx, func(tx *sql.Tx) error {
		b, err := s.Bookings.GetByIDForUser(ctx, tx, bookingID, userID)
		if err != nil {
			return err
		}
		if !b.Cancellable() {
			booking = b
			return nil
		}
		now := s.Now().UTC()
		if err := s.Bookings.MarkCancelled(ctx, tx, b.ID, now); err != nil {
			return err
		}
		if err := s.Ledger.MarkAvailable(ctx, tx, b.RoomID, b.CheckIn, b.CheckOut); err != nil {
			return err
		}
		b.Status = model.StatusCancelled
		b.CancelledAt = &now
		booking = b
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return booking, transitioned, nil
}

// GetUserBooking loads a booking scoped to the requesting user.
func (s *BookingService) GetUserBooking(ctx context.Context, userID, bookingID uint64) (*model.Booking, error) {
	return s.Bookings.GetByIDForUser(ctx, s.DB, bookingID, userID)
}

// ListUserBookings returns one page of the user's bookings plus the
// total count. typ is "upcoming", "past" or "all"; anything else lists
// all. The past/upcoming split is computed from check_out against today,
// not from the stored status alone.
func (s *BookingService) ListUserBookings(ctx context.Context, userID uint64, typ string, page, perPage int) ([]model.Booking, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 5
	}
	today := model.DateOnly(s.Now())
	return s.Bookings.ListByUser(ctx, s.DB, userID, typ, today, page, perPage)
}

// IsRoomAvailable answers whether [checkIn, checkOut) is bookable for
// the room, consulting both blocking signals outside a transaction. Used
// by read paths; the booking path re-checks under lock.
func (s *BookingService) IsRoomAvailable(ctx context.Context, roomID uint64, checkIn, checkOut time.Time) (bool, error) {
	blocked, err := s.Ledger.BlockedDays(ctx, s.DB, roomID, checkIn, checkOut)
	if err != nil {
		return false, err
	}
	if blocked > 0 {
		return false, nil
	}
	overlapping, err := s.Bookings.CountOverlapping(ctx, s.DB, roomID, checkIn, checkOut)
	if err != nil {
		return false, err
	}
	return overlapping == 0, nil
}
