package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/stayforge/room-booking-api/internal/model"
)

// BookingRepo provides persistence for bookings. Every read is scoped to
// the owning user; a booking belonging to someone else behaves exactly
// like a missing one. Availability gating is not done here; the service
// layer combines this repository with the availability ledger inside a
// transaction.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for callers that begin transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = `b.id, b.user_id, b.room_id, b.check_in, b.check_out, b.guests,
	b.nights, b.total, b.booking_number, b.status, b.cancelled_at,
	b.title, b.name, b.email, b.created_at, b.updated_at`

const roomColumns = `r.id, r.title, r.description, r.price, r.image, r.guests, r.created_at, r.updated_at`

// Create inserts a booking and populates its ID and timestamps. A
// duplicate booking_number maps to ErrDuplicateBookingNumber so callers
// can regenerate and retry.
func (r *BookingRepo) Create(ctx context.Context, q DBTX, b *model.Booking) error {
	const ins = `INSERT INTO bookings
	             (user_id, room_id, check_in, check_out, guests, nights, total, booking_number, status, title, name, email)
	             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := q.ExecContext(ctx, ins,
		b.UserID, b.RoomID,
		b.CheckIn.Format(time.DateOnly), b.CheckOut.Format(time.DateOnly),
		b.Guests, b.Nights, b.Total, b.BookingNumber, b.Status,
		b.Title, b.Name, b.Email,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateBookingNumber
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back timestamps set by the database.
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	return q.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// CountOverlapping counts non-cancelled bookings for the room whose stay
// intersects the half-open range [checkIn, checkOut). This is the second
// blocking signal alongside the ledger; the service consults both under
// the same transaction.
func (r *BookingRepo) CountOverlapping(ctx context.Context, q DBTX, roomID uint64, checkIn, checkOut time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM bookings
	               WHERE room_id = ? AND status != 'cancelled'
	                 AND check_in < ? AND check_out > ?`
	var n int
	err := q.QueryRowContext(ctx, query, roomID,
		checkOut.Format(time.DateOnly), checkIn.Format(time.DateOnly),
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// GetByIDForUser loads a booking with its room, restricted to the owning
// user. Missing and not-owned both return ErrBookingNotFound.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, q DBTX, bookingID, userID uint64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + `, ` + roomColumns + `
	          FROM bookings b
	          JOIN rooms r ON r.id = b.room_id
	          WHERE b.id = ? AND b.user_id = ?`
	b, err := scanBookingWithRoom(q.QueryRowContext(ctx, query, bookingID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// MarkCancelled flips a booking to cancelled with the given timestamp.
func (r *BookingRepo) MarkCancelled(ctx context.Context, q DBTX, bookingID uint64, at time.Time) error {
	const query = `UPDATE bookings SET status = 'cancelled', cancelled_at = ? WHERE id = ?`
	_, err := q.ExecContext(ctx, query, at.UTC().Format("2006-01-02 15:04:05"), bookingID)
	return err
}

// ListByUser returns one page of a user's bookings with their rooms,
// newest-created first, plus the total row count for the filter.
//
// typ selects a temporal slice relative to today:
//   - "upcoming": check_out > today and not cancelled
//   - "past":     check_out <= today or cancelled
//   - anything else: all bookings
//
// The classification is computed from dates at query time, so a stored
// status of "confirmed" with a checkout in the past lists under "past".
func (r *BookingRepo) ListByUser(ctx context.Context, q DBTX, userID uint64, typ string, today time.Time, page, perPage int) ([]model.Booking, int64, error) {
	cond := `b.user_id = ?`
	args := []any{userID}
	day := model.DateOnly(today).Format(time.DateOnly)
	switch typ {
	case "upcoming":
		cond += ` AND b.check_out > ? AND b.status != 'cancelled'`
		args = append(args, day)
	case "past":
		cond += ` AND (b.check_out <= ? OR b.status = 'cancelled')`
		args = append(args, day)
	}

	var total int64
	countSQL := `SELECT COUNT(*) FROM bookings b WHERE ` + cond
	if err := q.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT ` + bookingColumns + `, ` + roomColumns + `
	            FROM bookings b
	            JOIN rooms r ON r.id = b.room_id
	            WHERE ` + cond + `
	            ORDER BY b.created_at DESC, b.id DESC
	            LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), perPage, (page-1)*perPage)

	rows, err := q.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0, perPage)
	for rows.Next() {
		b, err := scanBookingWithRoom(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookingWithRoom(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	var room model.Room
	var cancelledAt sql.NullTime
	var image sql.NullString
	if err := row.Scan(
		&b.ID, &b.UserID, &b.RoomID, &b.CheckIn, &b.CheckOut, &b.Guests,
		&b.Nights, &b.Total, &b.BookingNumber, &b.Status, &cancelledAt,
		&b.Title, &b.Name, &b.Email, &b.CreatedAt, &b.UpdatedAt,
		&room.ID, &room.Title, &room.Description, &room.Price, &image, &room.Guests,
		&room.CreatedAt, &room.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		b.CancelledAt = &t
	}
	if image.Valid {
		img := image.String
		room.Image = &img
	}
	b.CheckIn = model.DateOnly(b.CheckIn)
	b.CheckOut = model.DateOnly(b.CheckOut)
	b.Room = &room
	return &b, nil
}
