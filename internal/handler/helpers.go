package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/okvist/punchcard/internal/engine"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// validDayRange checks range inputs at the request boundary: malformed or
// inverted ranges are caller mistakes (400), not state conflicts.
func validDayRange(from, to string) (string, bool) {
	if !engine.ValidDayKey(from) || !engine.ValidDayKey(to) {
		return "from and to must be YYYY-MM-DD dates", false
	}
	if from > to {
		return "from must not be after to", false
	}
	return "", true
}

// writeEngineError maps the engine error taxonomy to HTTP statuses. Busy is
// the only automatically retryable kind, so it alone carries Retry-After.
func writeEngineError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, engine.ErrCodeNotFound), errors.Is(err, engine.ErrNoRecordsInRange):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrCodeExpired),
		errors.Is(err, engine.ErrCodeAlreadyConsumed),
		errors.Is(err, engine.ErrAttendanceAlreadyComplete),
		errors.Is(err, engine.ErrInvalidTimeOrdering),
		errors.Is(err, engine.ErrInvalidStateTransition):
		status = http.StatusConflict
	case engine.Retryable(err):
		w.Header().Set("Retry-After", "1")
		status = http.StatusTooManyRequests
	case errors.Is(err, engine.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	msg := err.Error()
	if status >= 500 {
		// Internal detail stays in the logs.
		msg = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
