package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/okvist/punchcard/internal/model"
)

type QrStore struct {
	db *sql.DB
}

func NewQrStore(db *sql.DB) *QrStore {
	return &QrStore{db: db}
}

func scanQr(scanner interface{ Scan(...any) error }) (*model.QrTransaction, error) {
	var q model.QrTransaction
	var target sql.NullInt64
	var consumedBy sql.NullInt64
	var consumedAt sql.NullTime
	var resultAction sql.NullString

	err := scanner.Scan(
		&q.ID, &q.Code, &q.EmployerID, &target, &q.Purpose, &q.IssuedAt,
		&q.Status, &consumedBy, &consumedAt, &resultAction, &q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if target.Valid {
		q.TargetEmployeeID = &target.Int64
	}
	if consumedBy.Valid {
		q.ConsumedBy = &consumedBy.Int64
	}
	if consumedAt.Valid {
		t := consumedAt.Time
		q.ConsumedAt = &t
	}
	if resultAction.Valid {
		a := model.ScanAction(resultAction.String)
		q.ResultAction = &a
	}
	return &q, nil
}

const qrCols = `id, code, employer_id, target_employee_id, purpose, issued_at, status, consumed_by, consumed_at, result_action, created_at`

// Create persists a pending transaction for a freshly minted code.
func (s *QrStore) Create(code string, employerID int64, targetEmployeeID *int64, purpose string, issuedAt time.Time) (*model.QrTransaction, error) {
	var target sql.NullInt64
	if targetEmployeeID != nil {
		target = sql.NullInt64{Int64: *targetEmployeeID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO qr_transactions (code, employer_id, target_employee_id, purpose, issued_at) VALUES (?, ?, ?, ?, ?)`,
		code, employerID, target, purpose, issuedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert qr transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+qrCols+` FROM qr_transactions WHERE id = ?`, id)
	return scanQr(row)
}

// GetByCode returns the transaction for a code, or nil if none exists.
func (s *QrStore) GetByCode(code string) (*model.QrTransaction, error) {
	row := s.db.QueryRow(`SELECT `+qrCols+` FROM qr_transactions WHERE code = ?`, code)
	q, err := scanQr(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get qr transaction: %w", err)
	}
	return q, nil
}

// GetByCodeTx is GetByCode inside an open transaction.
func (s *QrStore) GetByCodeTx(tx *sql.Tx, code string) (*model.QrTransaction, error) {
	row := tx.QueryRow(`SELECT `+qrCols+` FROM qr_transactions WHERE code = ?`, code)
	q, err := scanQr(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get qr transaction: %w", err)
	}
	return q, nil
}

// ConsumeTx flips a pending code to consumed. The WHERE clause on status
// makes the transition conditional: it reports false when another resolver
// already consumed the code, without touching the row.
func (s *QrStore) ConsumeTx(tx *sql.Tx, code string, employeeID int64, at time.Time, action model.ScanAction) (bool, error) {
	result, err := tx.Exec(
		`UPDATE qr_transactions SET status = ?, consumed_by = ?, consumed_at = ?, result_action = ? WHERE code = ? AND status = ?`,
		model.QrConsumed, employeeID, at.UTC(), action, code, model.QrPending,
	)
	if err != nil {
		return false, fmt.Errorf("consume qr transaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// MarkExpired records that a still-pending code has passed its validity
// window. Losing the race to a concurrent consume is fine; the row keeps
// whichever terminal state was written first.
func (s *QrStore) MarkExpired(code string) error {
	_, err := s.db.Exec(
		`UPDATE qr_transactions SET status = ? WHERE code = ? AND status = ?`,
		model.QrExpired, code, model.QrPending,
	)
	if err != nil {
		return fmt.Errorf("mark qr expired: %w", err)
	}
	return nil
}
