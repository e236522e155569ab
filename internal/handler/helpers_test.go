package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okvist/punchcard/internal/engine"
)

func TestWriteEngineErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{engine.ErrCodeNotFound, http.StatusNotFound},
		{engine.ErrNoRecordsInRange, http.StatusNotFound},
		{engine.ErrCodeExpired, http.StatusConflict},
		{engine.ErrCodeAlreadyConsumed, http.StatusConflict},
		{engine.ErrAttendanceAlreadyComplete, http.StatusConflict},
		{engine.ErrInvalidTimeOrdering, http.StatusConflict},
		{engine.ErrInvalidStateTransition, http.StatusConflict},
		{engine.ErrBusy, http.StatusTooManyRequests},
		{engine.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{errors.New("something else"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeEngineError(rec, c.err)
		if rec.Code != c.status {
			t.Errorf("writeEngineError(%v) status = %d, want %d", c.err, rec.Code, c.status)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}
	}
}

func TestWriteEngineErrorWrappedSentinel(t *testing.T) {
	rec := httptest.NewRecorder()
	writeEngineError(rec, fmt.Errorf("%w: day 2025-03-10 has a recorded login", engine.ErrInvalidStateTransition))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(body["error"], "recorded login") {
		t.Errorf("error = %q, want wrapped detail preserved", body["error"])
	}
}

func TestWriteEngineErrorBusyRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	writeEngineError(rec, engine.ErrBusy)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("busy response missing Retry-After")
	}
}

func TestWriteEngineErrorRedactsInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeEngineError(rec, fmt.Errorf("%w: dial tcp 10.0.0.9: connection refused", engine.ErrStoreUnavailable))

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if strings.Contains(body["error"], "10.0.0.9") {
		t.Errorf("error = %q, internal detail leaked", body["error"])
	}
	if body["error"] != http.StatusText(http.StatusServiceUnavailable) {
		t.Errorf("error = %q, want generic status text", body["error"])
	}
}

func TestValidDayRange(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{"2025-03-10", "2025-03-12", true},
		{"2025-03-10", "2025-03-10", true},
		{"2025-03-12", "2025-03-10", false},
		{"2025-3-10", "2025-03-12", false},
		{"2025-03-10", "tomorrow", false},
		{"", "2025-03-12", false},
	}
	for _, c := range cases {
		if _, ok := validDayRange(c.from, c.to); ok != c.ok {
			t.Errorf("validDayRange(%q, %q) = %v, want %v", c.from, c.to, ok, c.ok)
		}
	}
}
