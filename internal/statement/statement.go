// Package statement reduces ledger records into immutable, human-readable
// attendance statements.
package statement

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/okvist/punchcard/internal/engine"
	"github.com/okvist/punchcard/internal/ledger"
	"github.com/okvist/punchcard/internal/model"
	"github.com/okvist/punchcard/internal/store"
)

// Uploader receives rendered statement bodies for later retrieval by the
// reporting UI. A disabled uploader turns uploads into no-ops.
type Uploader interface {
	Enabled() bool
	Upload(ctx context.Context, key, contentType string, body []byte) error
}

type Service struct {
	ledger   *ledger.Service
	stmts    *store.StatementStore
	uploader Uploader
	tz       *time.Location
	logger   *slog.Logger
}

func New(ledger *ledger.Service, stmts *store.StatementStore, uploader Uploader, tz *time.Location, logger *slog.Logger) *Service {
	if tz == nil {
		tz = time.UTC
	}
	return &Service{ledger: ledger, stmts: stmts, uploader: uploader, tz: tz, logger: logger}
}

// Generate renders and persists a statement over the inclusive day range.
// Each generation is a new artifact; overlapping ranges coexist. The row is
// the source of truth; the artifact upload is a copy, so an upload failure
// is logged without failing the generation.
func (s *Service) Generate(ctx context.Context, employeeID, employerID int64, fromDay, toDay string) (*model.AttendanceStatement, error) {
	records, err := s.ledger.Query(employeeID, employerID, fromDay, toDay)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, engine.ErrNoRecordsInRange
	}

	body := s.render(employeeID, employerID, fromDay, toDay, records)

	st, err := s.stmts.Create(employeeID, employerID, fromDay, toDay, body)
	if err != nil {
		return nil, fmt.Errorf("%w: persist statement: %v", engine.ErrStoreUnavailable, err)
	}

	if s.uploader != nil && s.uploader.Enabled() {
		key := fmt.Sprintf("statements/%d/%d/%d.txt", employerID, employeeID, st.ID)
		if err := s.uploader.Upload(ctx, key, "text/plain; charset=utf-8", []byte(body)); err != nil {
			s.logger.Warn("statement upload", "statement_id", st.ID, "error", err)
		} else if err := s.stmts.SetObjectKey(st.ID, key); err != nil {
			s.logger.Warn("record object key", "statement_id", st.ID, "error", err)
		} else {
			st.ObjectKey = &key
		}
	}

	s.logger.Info("statement generated", "employee_id", employeeID, "employer_id", employerID, "from", fromDay, "to", toDay, "statement_id", st.ID)
	return st, nil
}

// Get fetches a previously generated statement.
func (s *Service) Get(id int64) (*model.AttendanceStatement, error) {
	st, err := s.stmts.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: get statement: %v", engine.ErrStoreUnavailable, err)
	}
	return st, nil
}

// List returns the caller's statements, newest first.
func (s *Service) List(employeeID, employerID int64) ([]model.AttendanceStatement, error) {
	statements, err := s.stmts.ListByEmployee(employeeID, employerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list statements: %v", engine.ErrStoreUnavailable, err)
	}
	return statements, nil
}

// render walks the ordered records once, accumulating per-status counts and
// worked minutes, and produces the deterministic text body.
func (s *Service) render(employeeID, employerID int64, fromDay, toDay string, records []model.AttendanceRecord) string {
	counts := map[model.AttendanceStatus]int{}
	var totalMinutes int

	var b strings.Builder
	fmt.Fprintf(&b, "Attendance Statement\n")
	fmt.Fprintf(&b, "Employee %d / Employer %d\n", employeeID, employerID)
	fmt.Fprintf(&b, "Period %s to %s\n\n", fromDay, toDay)

	for _, r := range records {
		counts[r.Status]++

		switch {
		case r.Status != model.StatusPresent:
			fmt.Fprintf(&b, "%s  %-10s  not recorded\n", r.Day, r.Status)
		case r.Complete():
			mins := recordMinutes(r)
			totalMinutes += mins
			fmt.Fprintf(&b, "%s  %-10s  %s - %s  %s\n",
				r.Day, r.Status, s.clock(r.LoginTime), s.clock(r.LogoutTime), FormatMinutes(mins))
		default:
			fmt.Fprintf(&b, "%s  %-10s  %s - pending\n", r.Day, r.Status, s.clock(r.LoginTime))
		}
	}

	fmt.Fprintf(&b, "\nSummary\n")
	for _, status := range []model.AttendanceStatus{model.StatusPresent, model.StatusAbsent, model.StatusLeave, model.StatusSickLeave} {
		fmt.Fprintf(&b, "  %-11s %d\n", string(status)+":", counts[status])
	}
	fmt.Fprintf(&b, "  Total hours worked: %s\n", FormatMinutes(totalMinutes))

	return b.String()
}

func (s *Service) clock(t *time.Time) string {
	if t == nil {
		return "not recorded"
	}
	return t.In(s.tz).Format("15:04")
}

// recordMinutes converts a record's decimal hours to whole minutes, rounded
// to the nearest minute. Summing minutes keeps the totals exact for the
// rendered format.
func recordMinutes(r model.AttendanceRecord) int {
	if r.TotalHours == nil {
		return 0
	}
	return int(math.Round(*r.TotalHours * 60))
}

// FormatMinutes renders whole minutes as "N hrs M mins" for a non-technical
// audience.
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%d hrs %d mins", minutes/60, minutes%60)
}
