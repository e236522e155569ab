// Package ledger is the read side of the attendance record plus the
// administrative status path. The scan resolver is the only other writer.
package ledger

import (
	"fmt"
	"log/slog"

	"github.com/okvist/punchcard/internal/engine"
	"github.com/okvist/punchcard/internal/model"
	"github.com/okvist/punchcard/internal/store"
)

type Service struct {
	atts   *store.AttendanceStore
	logger *slog.Logger
}

func New(atts *store.AttendanceStore, logger *slog.Logger) *Service {
	return &Service{atts: atts, logger: logger}
}

// Query returns the records in the inclusive day range, ordered by day
// ascending. Days with no record are simply missing from the sequence,
// which callers must not conflate with an explicit absent entry.
func (s *Service) Query(employeeID, employerID int64, fromDay, toDay string) ([]model.AttendanceRecord, error) {
	if !engine.ValidDayKey(fromDay) || !engine.ValidDayKey(toDay) {
		return nil, fmt.Errorf("%w: malformed day range %q..%q", engine.ErrInvalidStateTransition, fromDay, toDay)
	}
	if fromDay > toDay {
		return nil, fmt.Errorf("%w: range start after end", engine.ErrInvalidStateTransition)
	}

	records, err := s.atts.ListRange(employeeID, employerID, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("%w: list range: %v", engine.ErrStoreUnavailable, err)
	}
	return records, nil
}

// SetDayStatus is the administrative path for absent, leave, and sick_leave.
// Present is set only by scanning, and a day that already has a clock-in
// cannot be rewritten here.
func (s *Service) SetDayStatus(employeeID, employerID int64, day string, status model.AttendanceStatus) (*model.AttendanceRecord, error) {
	if !status.Valid() || status == model.StatusPresent {
		return nil, fmt.Errorf("%w: status %q not settable administratively", engine.ErrInvalidStateTransition, status)
	}
	if !engine.ValidDayKey(day) {
		return nil, fmt.Errorf("%w: malformed day %q", engine.ErrInvalidStateTransition, day)
	}

	existing, err := s.atts.GetForDay(employeeID, employerID, day)
	if err != nil {
		return nil, fmt.Errorf("%w: read record: %v", engine.ErrStoreUnavailable, err)
	}

	if existing == nil {
		record, err := s.atts.CreateDayStatus(employeeID, employerID, day, status)
		if err != nil {
			return nil, fmt.Errorf("%w: create day status: %v", engine.ErrStoreUnavailable, err)
		}
		s.logger.Info("day status set", "employee_id", employeeID, "employer_id", employerID, "day", day, "status", status)
		return record, nil
	}

	if existing.LoginTime != nil {
		return nil, fmt.Errorf("%w: day %s has a recorded login", engine.ErrInvalidStateTransition, day)
	}

	record, ok, err := s.atts.UpdateDayStatus(existing.ID, status)
	if err != nil {
		return nil, fmt.Errorf("%w: update day status: %v", engine.ErrStoreUnavailable, err)
	}
	if !ok {
		// A scan landed between our read and the conditional write.
		return nil, fmt.Errorf("%w: day %s has a recorded login", engine.ErrInvalidStateTransition, day)
	}

	s.logger.Info("day status set", "employee_id", employeeID, "employer_id", employerID, "day", day, "status", status)
	return record, nil
}
