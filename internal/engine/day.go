package engine

import "time"

// DayKey reduces a timestamp to its YYYY-MM-DD calendar day in the given
// anchor zone. Every component derives day keys through this one function so
// client-local notions of "today" never leak into the record keys.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// ValidDayKey reports whether s parses as a YYYY-MM-DD date.
func ValidDayKey(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
