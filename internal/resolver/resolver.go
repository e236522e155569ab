// Package resolver turns scanned codes into exactly-once attendance
// transitions. It is the only writer of shared mutable state: all record
// mutations and code consumption happen inside its per-key critical section,
// in one transaction.
package resolver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/okvist/punchcard/internal/engine"
	"github.com/okvist/punchcard/internal/model"
	"github.com/okvist/punchcard/internal/store"
	"github.com/okvist/punchcard/internal/token"
)

// Config tunes the resolver's day anchoring and contention behavior.
type Config struct {
	// Timezone anchors calendar days for the whole deployment.
	Timezone *time.Location
	// CodeTTL optionally tightens code validity below the same-calendar-day
	// default. Zero means day-scoped only.
	CodeTTL time.Duration
	// LockWait bounds how long a scan waits for its key's critical section
	// before failing with ErrBusy.
	LockWait time.Duration
}

func (c *Config) defaults() {
	if c.Timezone == nil {
		c.Timezone = time.UTC
	}
	if c.LockWait <= 0 {
		c.LockWait = 3 * time.Second
	}
}

// ScanResult is the outcome of a resolved scan.
type ScanResult struct {
	Action   model.ScanAction        `json:"action"`
	Record   *model.AttendanceRecord `json:"record"`
	Replayed bool                    `json:"replayed,omitempty"`
}

// Service is the scan resolver.
type Service struct {
	db     *sql.DB
	codec  *token.Codec
	qrs    *store.QrStore
	atts   *store.AttendanceStore
	cfg    Config
	locks  *keyedLock
	logger *slog.Logger
}

func New(db *sql.DB, codec *token.Codec, qrs *store.QrStore, atts *store.AttendanceStore, cfg Config, logger *slog.Logger) *Service {
	cfg.defaults()
	return &Service{
		db:     db,
		codec:  codec,
		qrs:    qrs,
		atts:   atts,
		cfg:    cfg,
		locks:  newKeyedLock(),
		logger: logger,
	}
}

// Resolve decides whether the scan is a login or a logout and applies the
// transition. The record mutation and the code consumption commit together
// or not at all; a concurrent scan of the same code or day key sees the
// post-transition state, never stale state.
func (s *Service) Resolve(ctx context.Context, code string, employeeID int64, scannedAt time.Time) (*ScanResult, error) {
	payload, err := s.codec.Open(code)
	if err != nil {
		return nil, engine.ErrCodeNotFound
	}
	if payload.Purpose != model.PurposeMarkAttendance {
		return nil, engine.ErrCodeNotFound
	}
	// A code bound to one employee does not exist for anyone else.
	if payload.TargetEmployeeID != nil && *payload.TargetEmployeeID != employeeID {
		return nil, engine.ErrCodeNotFound
	}

	qr, err := s.qrs.GetByCode(code)
	if err != nil {
		return nil, fmt.Errorf("%w: look up code: %v", engine.ErrStoreUnavailable, err)
	}
	if qr == nil {
		// Opens under our key but was never persisted; issuance fails closed,
		// so this is a code from before a secret rotation at best.
		return nil, engine.ErrCodeNotFound
	}

	if s.codeExpired(qr, scannedAt) {
		if err := s.qrs.MarkExpired(code); err != nil {
			s.logger.Warn("mark expired", "qr_id", qr.ID, "error", err)
		}
		return nil, engine.ErrCodeExpired
	}

	if qr.Status != model.QrPending {
		return s.resolveConsumed(qr, employeeID)
	}

	day := engine.DayKey(scannedAt, s.cfg.Timezone)
	key := fmt.Sprintf("%d/%d/%s", employeeID, qr.EmployerID, day)

	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockWait)
	defer cancel()
	release, err := s.locks.acquire(lockCtx, key)
	if err != nil {
		return nil, engine.ErrBusy
	}
	defer release()

	var result *ScanResult
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(50*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := s.resolveLocked(ctx, code, employeeID, qr.EmployerID, day, scannedAt)
		if err != nil {
			if sqliteBusy(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		if sqliteBusy(err) {
			return nil, engine.ErrBusy
		}
		return nil, err
	}

	s.logger.Info("scan resolved",
		"employee_id", employeeID,
		"employer_id", qr.EmployerID,
		"day", day,
		"action", result.Action,
		"replayed", result.Replayed,
	)
	return result, nil
}

// resolveLocked runs one attempt of the atomic unit: read record state,
// decide action, write new state, consume the code. Called with the day key
// lock held.
func (s *Service) resolveLocked(ctx context.Context, code string, employeeID, employerID int64, day string, scannedAt time.Time) (*ScanResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", engine.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	// Re-read under the transaction: the pre-check ran without protection.
	qr, err := s.qrs.GetByCodeTx(tx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: reread code: %v", engine.ErrStoreUnavailable, err)
	}
	if qr == nil {
		return nil, engine.ErrCodeNotFound
	}
	if qr.Status != model.QrPending {
		return s.resolveConsumed(qr, employeeID)
	}

	record, err := s.atts.GetForDayTx(tx, employeeID, employerID, day)
	if err != nil {
		return nil, fmt.Errorf("%w: read record: %v", engine.ErrStoreUnavailable, err)
	}

	var action model.ScanAction
	switch {
	case record == nil:
		action = model.ActionLogin
		record, err = s.atts.CreateLoginTx(tx, employeeID, employerID, day, scannedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: create login: %v", engine.ErrStoreUnavailable, err)
		}

	case record.LoginTime == nil:
		// Administratively pre-created day with no clock-in yet.
		action = model.ActionLogin
		record, err = s.atts.SetLoginTx(tx, record.ID, scannedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: set login: %v", engine.ErrStoreUnavailable, err)
		}

	case record.PendingLogout():
		duration := scannedAt.Sub(*record.LoginTime)
		if duration < 0 {
			// Clock skew: surface it instead of storing a negative span. The
			// rollback leaves the record in pending-logout state.
			return nil, engine.ErrInvalidTimeOrdering
		}
		action = model.ActionLogout
		var ok bool
		record, ok, err = s.atts.SetLogoutTx(tx, record.ID, scannedAt, duration.Hours())
		if err != nil {
			return nil, fmt.Errorf("%w: set logout: %v", engine.ErrStoreUnavailable, err)
		}
		if !ok {
			return nil, engine.ErrAttendanceAlreadyComplete
		}

	default:
		// One login/logout pair per day; a completed day rejects further scans.
		return nil, engine.ErrAttendanceAlreadyComplete
	}

	consumed, err := s.qrs.ConsumeTx(tx, code, employeeID, scannedAt, action)
	if err != nil {
		return nil, fmt.Errorf("%w: consume code: %v", engine.ErrStoreUnavailable, err)
	}
	if !consumed {
		// A concurrent resolver for a different day key won the code. Roll
		// back our transition and decide from the committed state.
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			return nil, fmt.Errorf("%w: rollback: %v", engine.ErrStoreUnavailable, err)
		}
		after, err := s.qrs.GetByCode(code)
		if err != nil {
			return nil, fmt.Errorf("%w: reread consumed code: %v", engine.ErrStoreUnavailable, err)
		}
		if after == nil || after.Status == model.QrPending {
			return nil, engine.ErrCodeAlreadyConsumed
		}
		return s.resolveConsumed(after, employeeID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", engine.ErrStoreUnavailable, err)
	}

	return &ScanResult{Action: action, Record: record}, nil
}

// resolveConsumed handles a code that is no longer pending. The employee who
// consumed it gets the prior result back (benign duplicate retry); anyone
// else gets a hard rejection.
func (s *Service) resolveConsumed(qr *model.QrTransaction, employeeID int64) (*ScanResult, error) {
	if qr.Status == model.QrExpired {
		return nil, engine.ErrCodeExpired
	}
	if qr.ConsumedBy == nil || *qr.ConsumedBy != employeeID {
		return nil, engine.ErrCodeAlreadyConsumed
	}
	if qr.ResultAction == nil || qr.ConsumedAt == nil {
		return nil, engine.ErrCodeAlreadyConsumed
	}

	day := engine.DayKey(*qr.ConsumedAt, s.cfg.Timezone)
	record, err := s.atts.GetForDay(employeeID, qr.EmployerID, day)
	if err != nil {
		return nil, fmt.Errorf("%w: read record: %v", engine.ErrStoreUnavailable, err)
	}
	if record == nil {
		return nil, engine.ErrCodeAlreadyConsumed
	}
	return &ScanResult{Action: *qr.ResultAction, Record: record, Replayed: true}, nil
}

// codeExpired applies the validity window: codes live within their issue
// calendar day, optionally capped by a TTL.
func (s *Service) codeExpired(qr *model.QrTransaction, scannedAt time.Time) bool {
	if qr.Status != model.QrPending {
		// Terminal rows keep their state; expiry only applies to pending codes.
		return qr.Status == model.QrExpired
	}
	if engine.DayKey(qr.IssuedAt, s.cfg.Timezone) != engine.DayKey(scannedAt, s.cfg.Timezone) {
		return true
	}
	if s.cfg.CodeTTL > 0 && scannedAt.Sub(qr.IssuedAt) > s.cfg.CodeTTL {
		return true
	}
	return false
}

// sqliteBusy reports whether err is a lock-contention failure from the
// driver rather than a semantic failure.
func sqliteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
