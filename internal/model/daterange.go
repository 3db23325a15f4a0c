package model

import "time"

// Stay ranges are half-open: [check_in, check_out). The checkout day is
// never blocked, so a departing guest's last day is a valid check-in day
// for the next booking.

// DateOnly truncates a timestamp to midnight UTC. All calendar arithmetic
// in the booking flow operates on date-only values.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights returns the number of whole days between two date-only values.
func Nights(checkIn, checkOut time.Time) int {
	return int(DateOnly(checkOut).Sub(DateOnly(checkIn)) / (24 * time.Hour))
}

// DaysIn enumerates every day in [start, end). An empty or inverted range
// yields an empty slice.
func DaysIn(start, end time.Time) []time.Time {
	start = DateOnly(start)
	end = DateOnly(end)
	var days []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Overlaps reports whether two half-open date ranges share at least one
// night: a.start < b.end AND a.end > b.start.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
