package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/stayforge/room-booking-api/internal/model"
)

// RoomRepo provides persistence for rooms, including the availability-
// filtered search used by the public room listing.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle for callers that begin transactions.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomSelect = `SELECT id, title, description, price, image, guests, created_at, updated_at FROM rooms`

// Create inserts a room and populates its ID.
func (r *RoomRepo) Create(ctx context.Context, q DBTX, room *model.Room) error {
	const ins = `INSERT INTO rooms (title, description, price, image, guests) VALUES (?, ?, ?, ?, ?)`
	res, err := q.ExecContext(ctx, ins, room.Title, room.Description, room.Price, room.Image, room.Guests)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM rooms WHERE id = ?`
	return q.QueryRowContext(ctx, sel, room.ID).Scan(&room.CreatedAt, &room.UpdatedAt)
}

// GetByID fetches a single room or ErrRoomNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, q DBTX, id uint64) (*model.Room, error) {
	return r.getByID(ctx, q, id, false)
}

// GetByIDForUpdate fetches a room with a FOR UPDATE row lock. The booking
// coordinator takes this lock before checking availability so two
// concurrent bookings against the same room serialize on the room row:
// the second transaction blocks here until the first commits, then sees
// its ledger rows and overlapping booking.
func (r *RoomRepo) GetByIDForUpdate(ctx context.Context, q DBTX, id uint64) (*model.Room, error) {
	return r.getByID(ctx, q, id, true)
}

func (r *RoomRepo) getByID(ctx context.Context, q DBTX, id uint64, forUpdate bool) (*model.Room, error) {
	query := roomSelect + ` WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	room, err := scanRoom(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// RoomSearchQuery defines filters and pagination for room search. When
// CheckIn/CheckOut are both set, rooms blocked in the ledger or taken by
// an overlapping non-cancelled booking for that range are excluded.
type RoomSearchQuery struct {
	Guests    uint32 // minimum capacity; 0 means no filter
	CheckIn   *time.Time
	CheckOut  *time.Time
	Term      string // matches title or description, case-insensitive
	SortPrice string // "asc" or "desc"; empty sorts by id
	Page      int
	PerPage   int
}

// Search returns one page of rooms plus the total match count.
//
// Availability is gated on both signals the way the booking path gates
// them: no explicit unavailable day in [check_in, check_out) and no
// overlapping active booking.
func (r *RoomRepo) Search(ctx context.Context, q DBTX, sq RoomSearchQuery) ([]model.Room, int64, error) {
	where := []string{}
	args := []any{}

	if sq.Guests > 0 {
		where = append(where, "guests >= ?")
		args = append(args, sq.Guests)
	}
	if sq.Term != "" {
		term := "%" + strings.ToLower(sq.Term) + "%"
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, term, term)
	}
	if sq.CheckIn != nil && sq.CheckOut != nil {
		in := model.DateOnly(*sq.CheckIn).Format(time.DateOnly)
		out := model.DateOnly(*sq.CheckOut).Format(time.DateOnly)
		where = append(where, `NOT EXISTS (
			SELECT 1 FROM room_availability a
			WHERE a.room_id = rooms.id AND a.is_available = 0 AND a.date >= ? AND a.date < ?)`)
		args = append(args, in, out)
		where = append(where, `NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.room_id = rooms.id AND b.status != 'cancelled'
			  AND b.check_in < ? AND b.check_out > ?)`)
		args = append(args, out, in)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*) FROM rooms WHERE ` + cond
	if err := q.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "id"
	switch strings.ToLower(sq.SortPrice) {
	case "asc":
		order = "price ASC"
	case "desc":
		order = "price DESC"
	}

	dataSQL := roomSelect + ` WHERE ` + cond + ` ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), sq.PerPage, (sq.Page-1)*sq.PerPage)

	rows, err := q.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.Room, 0, sq.PerPage)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func scanRoom(row rowScanner) (*model.Room, error) {
	var room model.Room
	var image sql.NullString
	if err := row.Scan(&room.ID, &room.Title, &room.Description, &room.Price, &image,
		&room.Guests, &room.CreatedAt, &room.UpdatedAt); err != nil {
		return nil, err
	}
	if image.Valid {
		img := image.String
		room.Image = &img
	}
	return &room, nil
}
