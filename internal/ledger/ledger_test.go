package ledger

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/okvist/punchcard/internal/database"
	"github.com/okvist/punchcard/internal/engine"
	"github.com/okvist/punchcard/internal/model"
	"github.com/okvist/punchcard/internal/store"
)

type ledgerFixture struct {
	db   *sql.DB
	atts *store.AttendanceStore
	svc  *Service
}

func setupLedger(t *testing.T) *ledgerFixture {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	atts := store.NewAttendanceStore(db)
	return &ledgerFixture{
		db:   db,
		atts: atts,
		svc:  New(atts, slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
}

func (f *ledgerFixture) login(t *testing.T, day string) *model.AttendanceRecord {
	t.Helper()
	tx, err := f.db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	record, err := f.atts.CreateLoginTx(tx, 1, 2, day, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("create login: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return record
}

func TestQueryOrderedInclusiveRange(t *testing.T) {
	f := setupLedger(t)

	for _, day := range []string{"2025-03-12", "2025-03-10", "2025-03-11"} {
		f.login(t, day)
	}
	// Outside the range.
	f.login(t, "2025-03-20")

	records, err := f.svc.Query(1, 2, "2025-03-10", "2025-03-12")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	for i, want := range []string{"2025-03-10", "2025-03-11", "2025-03-12"} {
		if records[i].Day != want {
			t.Errorf("records[%d].Day = %q, want %q", i, records[i].Day, want)
		}
	}
}

func TestQueryEmptyRangeIsEmptyNotError(t *testing.T) {
	f := setupLedger(t)

	records, err := f.svc.Query(1, 2, "2025-03-10", "2025-03-12")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %d, want 0", len(records))
	}
}

func TestQueryRejectsMalformedRange(t *testing.T) {
	f := setupLedger(t)

	cases := []struct{ from, to string }{
		{"2025-3-10", "2025-03-12"},
		{"2025-03-10", "tomorrow"},
		{"2025-03-12", "2025-03-10"},
	}
	for _, c := range cases {
		if _, err := f.svc.Query(1, 2, c.from, c.to); !errors.Is(err, engine.ErrInvalidStateTransition) {
			t.Errorf("Query(%q, %q) err = %v, want ErrInvalidStateTransition", c.from, c.to, err)
		}
	}
}

func TestSetDayStatusCreatesAndUpdates(t *testing.T) {
	f := setupLedger(t)

	record, err := f.svc.SetDayStatus(1, 2, "2025-03-10", model.StatusAbsent)
	if err != nil {
		t.Fatalf("set absent: %v", err)
	}
	if record.Status != model.StatusAbsent {
		t.Errorf("status = %q, want absent", record.Status)
	}
	if record.LoginTime != nil {
		t.Error("administrative record must have no login time")
	}

	// Correcting the same day is allowed while no login exists.
	record, err = f.svc.SetDayStatus(1, 2, "2025-03-10", model.StatusSickLeave)
	if err != nil {
		t.Fatalf("update to sick_leave: %v", err)
	}
	if record.Status != model.StatusSickLeave {
		t.Errorf("status = %q, want sick_leave", record.Status)
	}
}

func TestSetDayStatusRejectsPresentAndUnknown(t *testing.T) {
	f := setupLedger(t)

	for _, status := range []model.AttendanceStatus{model.StatusPresent, "vacation", ""} {
		if _, err := f.svc.SetDayStatus(1, 2, "2025-03-10", status); !errors.Is(err, engine.ErrInvalidStateTransition) {
			t.Errorf("SetDayStatus(%q) err = %v, want ErrInvalidStateTransition", status, err)
		}
	}
}

func TestSetDayStatusRejectsDayWithLogin(t *testing.T) {
	f := setupLedger(t)

	f.login(t, "2025-03-10")
	_, err := f.svc.SetDayStatus(1, 2, "2025-03-10", model.StatusLeave)
	if !errors.Is(err, engine.ErrInvalidStateTransition) {
		t.Fatalf("err = %v, want ErrInvalidStateTransition", err)
	}

	// The scanned record is untouched.
	got, err := f.atts.GetForDay(1, 2, "2025-03-10")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.StatusPresent {
		t.Errorf("status = %q, want present preserved", got.Status)
	}
}
