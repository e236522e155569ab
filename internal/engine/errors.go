// Package engine holds what every attendance service shares: the error
// taxonomy and the calendar-day anchor. Every failure a caller can act on is
// one of these sentinels, so handlers map errors to responses without string
// matching.
package engine

import "errors"

var (
	// ErrCodeNotFound is returned when no QR transaction backs the scanned
	// code, or the code is bound to a different employee.
	ErrCodeNotFound = errors.New("qr code not found")

	// ErrCodeExpired is returned when the code's issue day has passed, or its
	// configured TTL has elapsed.
	ErrCodeExpired = errors.New("qr code expired")

	// ErrCodeAlreadyConsumed is returned when a code was consumed by a
	// different employee. Same-employee resubmits replay the prior result
	// instead of hitting this.
	ErrCodeAlreadyConsumed = errors.New("qr code already consumed")

	// ErrInvalidTimeOrdering is returned when a logout timestamp precedes the
	// paired login timestamp.
	ErrInvalidTimeOrdering = errors.New("logout before login")

	// ErrAttendanceAlreadyComplete is returned when the day already holds a
	// full login/logout pair. A day supports exactly one pair.
	ErrAttendanceAlreadyComplete = errors.New("attendance already complete for day")

	// ErrInvalidStateTransition is returned for writes that would violate the
	// attendance record invariants.
	ErrInvalidStateTransition = errors.New("invalid attendance state transition")

	// ErrNoRecordsInRange is returned when a statement is requested over a
	// range with no attendance records.
	ErrNoRecordsInRange = errors.New("no attendance records in range")

	// ErrBusy is returned when the per-key critical section cannot be entered
	// within the configured wait. Callers may retry with backoff.
	ErrBusy = errors.New("attendance key busy")

	// ErrStoreUnavailable is returned when the durable store fails. The
	// request is lost but no partial state is left behind.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Retryable reports whether err is worth retrying automatically. Only
// contention qualifies; everything else needs a new user action.
func Retryable(err error) bool {
	return errors.Is(err, ErrBusy)
}
