// Package issuer mints single-use attendance codes for employer stations.
package issuer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/okvist/punchcard/internal/engine"
	"github.com/okvist/punchcard/internal/model"
	"github.com/okvist/punchcard/internal/store"
	"github.com/okvist/punchcard/internal/token"
)

// Service mints codes and records them as pending transactions. The pending
// row is written before the code leaves this package: a persistence failure
// means no code is displayed, never a code with no backing record.
type Service struct {
	codec  *token.Codec
	qrs    *store.QrStore
	logger *slog.Logger
}

func New(codec *token.Codec, qrs *store.QrStore, logger *slog.Logger) *Service {
	return &Service{codec: codec, qrs: qrs, logger: logger}
}

// Issue mints a code for the employer, optionally bound to one employee.
// The issue timestamp comes from the caller's clock so the transition logic
// stays deterministic.
func (s *Service) Issue(employerID int64, targetEmployeeID *int64, issuedAt time.Time) (*model.QrTransaction, error) {
	payload := token.Payload{
		EmployerID:       employerID,
		TargetEmployeeID: targetEmployeeID,
		Purpose:          model.PurposeMarkAttendance,
		IssuedAtUnix:     issuedAt.UTC().Unix(),
		Nonce:            uuid.NewString(),
	}

	code, err := s.codec.Seal(payload)
	if err != nil {
		return nil, fmt.Errorf("seal code: %w", err)
	}

	qr, err := s.qrs.Create(code, employerID, targetEmployeeID, model.PurposeMarkAttendance, issuedAt)
	if err != nil {
		// Fail closed: without a backing row the code would resolve to a
		// silent no-op scan.
		return nil, fmt.Errorf("%w: persist code: %v", engine.ErrStoreUnavailable, err)
	}

	s.logger.Info("code issued", "employer_id", employerID, "qr_id", qr.ID, "targeted", targetEmployeeID != nil)
	return qr, nil
}
