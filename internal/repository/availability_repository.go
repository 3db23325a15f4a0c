package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/stayforge/room-booking-api/internal/model"
)

// AvailabilityRepo is the availability ledger: one row per room per
// calendar day in the room_availability table, keyed by the unique
// (room_id, date) index. The absence of a row for a date means the room
// is available on that date; only an explicit is_available=0 row blocks
// it. Rows are never deleted in normal operation, only flipped.
//
// All range operations treat [start, end) as half-open so the checkout
// day is never written or consulted.
type AvailabilityRepo struct {
	db *sql.DB
}

// NewAvailabilityRepo returns an AvailabilityRepo bound to the given database.
func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo { return &AvailabilityRepo{db: db} }

// DB exposes the underlying handle for callers that run standalone queries.
func (r *AvailabilityRepo) DB() *sql.DB { return r.db }

// AvailabilityRecord mirrors the room_availability table.
type AvailabilityRecord struct {
	ID            uint64    `json:"id"`
	RoomID        uint64    `json:"room_id"`
	Date          string    `json:"date"`
	IsAvailable   bool      `json:"is_available"`
	PriceOverride *float64  `json:"price_override,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BlockedDays counts days in [checkIn, checkOut) with an explicit
// unavailable row for the room. Zero means the ledger does not block the
// range; missing rows count as available by convention.
func (r *AvailabilityRepo) BlockedDays(ctx context.Context, q DBTX, roomID uint64, checkIn, checkOut time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM room_availability
	               WHERE room_id = ? AND is_available = 0 AND date >= ? AND date < ?`
	var n int
	err := q.QueryRowContext(ctx, query, roomID,
		model.DateOnly(checkIn).Format(time.DateOnly),
		model.DateOnly(checkOut).Format(time.DateOnly),
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// MarkUnavailable blocks every day in [start, end) for the room with a
// single multi-row upsert. Re-running with identical arguments leaves the
// ledger unchanged; existing rows have is_available and notes
// overwritten, price overrides are preserved.
func (r *AvailabilityRepo) MarkUnavailable(ctx context.Context, q DBTX, roomID uint64, start, end time.Time, notes *string) error {
	return r.upsertRange(ctx, q, roomID, start, end, false, notes, true)
}

// MarkAvailable re-opens every day in [start, end) for the room, clearing
// any notes left by the block that is being lifted.
func (r *AvailabilityRepo) MarkAvailable(ctx context.Context, q DBTX, roomID uint64, start, end time.Time) error {
	return r.upsertRange(ctx, q, roomID, start, end, true, nil, true)
}

// Generate bulk-initializes ledger rows for [start, end), used when
// onboarding a room for a booking horizon. Only the availability flag is
// written; notes on existing rows are left alone.
func (r *AvailabilityRepo) Generate(ctx context.Context, q DBTX, roomID uint64, start, end time.Time, available bool) error {
	return r.upsertRange(ctx, q, roomID, start, end, available, nil, false)
}

// upsertRange builds one INSERT ... ON DUPLICATE KEY UPDATE statement for
// the whole range. A single round-trip keeps bulk generation (a year of
// rows) and booking-path blocking cheap, and the unique (room_id, date)
// key makes the statement idempotent.
func (r *AvailabilityRepo) upsertRange(ctx context.Context, q DBTX, roomID uint64, start, end time.Time, available bool, notes *string, touchNotes bool) error {
	days := model.DaysIn(start, end)
	if len(days) == 0 {
		return nil
	}
	query := `INSERT INTO room_availability (room_id, date, is_available, notes) VALUES `
	args := make([]any, 0, len(days)*4)
	for i, d := range days {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, roomID, d.Format(time.DateOnly), available, notes)
	}
	query += ` ON DUPLICATE KEY UPDATE is_available = VALUES(is_available)`
	if touchNotes {
		query += `, notes = VALUES(notes)`
	}
	_, err := q.ExecContext(ctx, query, args...)
	return err
}

// OverridesInRange returns per-date price overrides for the room within
// [start, end), keyed by the date string. Days without an override are
// absent from the map and charge the room's base price.
func (r *AvailabilityRepo) OverridesInRange(ctx context.Context, q DBTX, roomID uint64, start, end time.Time) (map[string]float64, error) {
	const query = `SELECT date, price_override FROM room_availability
	               WHERE room_id = ? AND price_override IS NOT NULL AND date >= ? AND date < ?`
	rows, err := q.QueryContext(ctx, query, roomID,
		model.DateOnly(start).Format(time.DateOnly),
		model.DateOnly(end).Format(time.DateOnly),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]float64)
	for rows.Next() {
		var date time.Time
		var price float64
		if err := rows.Scan(&date, &price); err != nil {
			return nil, err
		}
		out[date.UTC().Format(time.DateOnly)] = price
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListForRoom returns the ledger rows for a room in [start, end), ordered
// by date. Used by the admin availability endpoints to inspect blocks.
func (r *AvailabilityRepo) ListForRoom(ctx context.Context, q DBTX, roomID uint64, start, end time.Time) ([]AvailabilityRecord, error) {
	const query = `SELECT id, room_id, date, is_available, price_override, notes, created_at, updated_at
	               FROM room_availability
	               WHERE room_id = ? AND date >= ? AND date < ?
	               ORDER BY date`
	rows, err := q.QueryContext(ctx, query, roomID,
		model.DateOnly(start).Format(time.DateOnly),
		model.DateOnly(end).Format(time.DateOnly),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := make([]AvailabilityRecord, 0)
	for rows.Next() {
		var rec AvailabilityRecord
		var date time.Time
		var override sql.NullFloat64
		var notes sql.NullString
		if err := rows.Scan(&rec.ID, &rec.RoomID, &date, &rec.IsAvailable, &override, &notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.Date = date.UTC().Format(time.DateOnly)
		if override.Valid {
			v := override.Float64
			rec.PriceOverride = &v
		}
		if notes.Valid {
			n := notes.String
			rec.Notes = &n
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
