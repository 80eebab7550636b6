package member

import (
	"testing"
	"time"
)

func TestNextStatus(t *testing.T) {
	cases := []struct {
		name string
		cur  Status
		days int
		want Status
	}{
		{"fresh active", StatusActive, 10, StatusActive},
		{"exactly inactive threshold", StatusActive, 90, StatusInactive},
		{"inactive stays inactive below terminated", StatusInactive, 200, StatusInactive},
		{"active beyond terminated", StatusActive, 400, StatusTerminated},
		{"inactive beyond terminated", StatusInactive, 366, StatusTerminated},
		{"exactly terminated threshold", StatusActive, 365, StatusTerminated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := NextStatus(tc.cur, tc.days, 90, 365)
			if got != tc.want {
				t.Fatalf("NextStatus(%s,%d) = %s, want %s", tc.cur, tc.days, got, tc.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, 1, 31, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 30 {
		t.Fatalf("DaysBetween = %d, want 30", got)
	}
}
