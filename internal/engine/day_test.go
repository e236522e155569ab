package engine

import (
	"testing"
	"time"
)

func TestDayKeyAnchorZone(t *testing.T) {
	karachi, err := time.LoadLocation("Asia/Karachi")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 21:00 UTC on the 10th is already the 11th at +05:00.
	instant := time.Date(2025, 3, 10, 21, 0, 0, 0, time.UTC)
	if got := DayKey(instant, time.UTC); got != "2025-03-10" {
		t.Errorf("DayKey UTC = %q, want 2025-03-10", got)
	}
	if got := DayKey(instant, karachi); got != "2025-03-11" {
		t.Errorf("DayKey Karachi = %q, want 2025-03-11", got)
	}
}

func TestDayKeyMidnightBoundary(t *testing.T) {
	before := time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC)
	after := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	if DayKey(before, time.UTC) == DayKey(after, time.UTC) {
		t.Error("instants across midnight share a day key")
	}
}

func TestValidDayKey(t *testing.T) {
	valid := []string{"2025-03-10", "2024-02-29", "1999-12-31"}
	for _, s := range valid {
		if !ValidDayKey(s) {
			t.Errorf("ValidDayKey(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "2025-3-10", "2025-03-10T00:00:00Z", "2025-02-30", "today", "10-03-2025"}
	for _, s := range invalid {
		if ValidDayKey(s) {
			t.Errorf("ValidDayKey(%q) = true, want false", s)
		}
	}
}
