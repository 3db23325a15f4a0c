package model

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateOnlyTruncates(t *testing.T) {
	in := time.Date(2026, 3, 10, 17, 45, 12, 999, time.FixedZone("CET", 3600))
	got := DateOnly(in)
	want := date(2026, 3, 10)
	if !got.Equal(want) {
		t.Fatalf("DateOnly(%v) = %v, want %v", in, got, want)
	}
}

func TestNights(t *testing.T) {
	cases := []struct {
		in, out time.Time
		want    int
	}{
		{date(2026, 6, 1), date(2026, 6, 4), 3},
		{date(2026, 6, 1), date(2026, 6, 2), 1},
		{date(2026, 12, 30), date(2027, 1, 2), 3},
	}
	for _, c := range cases {
		if got := Nights(c.in, c.out); got != c.want {
			t.Errorf("Nights(%v, %v) = %d, want %d", c.in, c.out, got, c.want)
		}
	}
}

func TestDaysInHalfOpen(t *testing.T) {
	days := DaysIn(date(2026, 6, 1), date(2026, 6, 4))
	if len(days) != 3 {
		t.Fatalf("got %d days, want 3", len(days))
	}
	if !days[0].Equal(date(2026, 6, 1)) {
		t.Errorf("first day = %v, want 2026-06-01", days[0])
	}
	// 6/4 is the checkout day and must not be enumerated.
	if !days[2].Equal(date(2026, 6, 3)) {
		t.Errorf("last day = %v, want 2026-06-03", days[2])
	}
}

func TestDaysInEmptyRanges(t *testing.T) {
	if days := DaysIn(date(2026, 6, 1), date(2026, 6, 1)); len(days) != 0 {
		t.Errorf("same-day range produced %d days", len(days))
	}
	if days := DaysIn(date(2026, 6, 4), date(2026, 6, 1)); len(days) != 0 {
		t.Errorf("inverted range produced %d days", len(days))
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                 string
		aIn, aOut, bIn, bOut time.Time
		want                 bool
	}{
		{"disjoint", date(2026, 6, 1), date(2026, 6, 3), date(2026, 6, 5), date(2026, 6, 7), false},
		{"contained", date(2026, 6, 1), date(2026, 6, 10), date(2026, 6, 3), date(2026, 6, 5), true},
		{"partial", date(2026, 6, 1), date(2026, 6, 5), date(2026, 6, 4), date(2026, 6, 8), true},
		// Back to back: one stay checks out the day the next checks in.
		{"checkout equals checkin", date(2026, 6, 1), date(2026, 6, 3), date(2026, 6, 3), date(2026, 6, 5), false},
		{"identical", date(2026, 6, 1), date(2026, 6, 3), date(2026, 6, 1), date(2026, 6, 3), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Overlaps(c.aIn, c.aOut, c.bIn, c.bOut); got != c.want {
				t.Errorf("Overlaps = %v, want %v", got, c.want)
			}
		})
	}
}
