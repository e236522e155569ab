package model

import "time"

// QrStatus is the lifecycle state of a QR transaction.
type QrStatus string

const (
	QrPending  QrStatus = "pending"
	QrConsumed QrStatus = "consumed"
	QrExpired  QrStatus = "expired"
)

// Valid reports whether s is one of the known QR statuses.
func (s QrStatus) Valid() bool {
	switch s {
	case QrPending, QrConsumed, QrExpired:
		return true
	}
	return false
}

// ScanAction is the state transition a resolved scan produced.
type ScanAction string

const (
	ActionLogin  ScanAction = "login"
	ActionLogout ScanAction = "logout"
)

// Valid reports whether a is a known scan action.
func (a ScanAction) Valid() bool {
	return a == ActionLogin || a == ActionLogout
}

// PurposeMarkAttendance is the only purpose tag currently minted.
const PurposeMarkAttendance = "mark_attendance"

// QrTransaction is the audit row behind a displayed code. Rows transition
// pending -> consumed exactly once and are never deleted.
type QrTransaction struct {
	ID               int64       `json:"id"`
	Code             string      `json:"code"`
	EmployerID       int64       `json:"employer_id"`
	TargetEmployeeID *int64      `json:"target_employee_id"`
	Purpose          string      `json:"purpose"`
	IssuedAt         time.Time   `json:"issued_at"`
	Status           QrStatus    `json:"status"`
	ConsumedBy       *int64      `json:"consumed_by"`
	ConsumedAt       *time.Time  `json:"consumed_at"`
	ResultAction     *ScanAction `json:"result_action"`
	CreatedAt        time.Time   `json:"created_at"`
}
