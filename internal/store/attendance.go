package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/okvist/punchcard/internal/model"
)

type AttendanceStore struct {
	db *sql.DB
}

func NewAttendanceStore(db *sql.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

func scanRecord(scanner interface{ Scan(...any) error }) (*model.AttendanceRecord, error) {
	var r model.AttendanceRecord
	var loginAt sql.NullTime
	var logoutAt sql.NullTime
	var hours sql.NullFloat64

	err := scanner.Scan(
		&r.ID, &r.EmployeeID, &r.EmployerID, &r.Day, &r.Status,
		&loginAt, &logoutAt, &hours, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if loginAt.Valid {
		t := loginAt.Time
		r.LoginTime = &t
	}
	if logoutAt.Valid {
		t := logoutAt.Time
		r.LogoutTime = &t
	}
	if hours.Valid {
		h := hours.Float64
		r.TotalHours = &h
	}
	return &r, nil
}

const recordCols = `id, employee_id, employer_id, day, status, login_time, logout_time, total_hours, created_at, updated_at`

// GetForDay returns the record for one day key, or nil if the day has no
// record (distinct from an explicit absent entry).
func (s *AttendanceStore) GetForDay(employeeID, employerID int64, day string) (*model.AttendanceRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+recordCols+` FROM attendance_records WHERE employee_id = ? AND employer_id = ? AND day = ?`,
		employeeID, employerID, day,
	)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance record: %w", err)
	}
	return r, nil
}

// GetForDayTx is GetForDay inside an open transaction.
func (s *AttendanceStore) GetForDayTx(tx *sql.Tx, employeeID, employerID int64, day string) (*model.AttendanceRecord, error) {
	row := tx.QueryRow(
		`SELECT `+recordCols+` FROM attendance_records WHERE employee_id = ? AND employer_id = ? AND day = ?`,
		employeeID, employerID, day,
	)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance record: %w", err)
	}
	return r, nil
}

// CreateLoginTx inserts a fresh present record with a login time. The unique
// day key rejects a second concurrent insert for the same day.
func (s *AttendanceStore) CreateLoginTx(tx *sql.Tx, employeeID, employerID int64, day string, loginAt time.Time) (*model.AttendanceRecord, error) {
	result, err := tx.Exec(
		`INSERT INTO attendance_records (employee_id, employer_id, day, status, login_time) VALUES (?, ?, ?, ?, ?)`,
		employeeID, employerID, day, model.StatusPresent, loginAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert attendance record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := tx.QueryRow(`SELECT `+recordCols+` FROM attendance_records WHERE id = ?`, id)
	return scanRecord(row)
}

// SetLoginTx records a login on an existing record (an administratively
// pre-created day that had no login yet).
func (s *AttendanceStore) SetLoginTx(tx *sql.Tx, id int64, loginAt time.Time) (*model.AttendanceRecord, error) {
	_, err := tx.Exec(
		`UPDATE attendance_records SET status = ?, login_time = ?, updated_at = datetime('now') WHERE id = ?`,
		model.StatusPresent, loginAt.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set login: %w", err)
	}
	row := tx.QueryRow(`SELECT `+recordCols+` FROM attendance_records WHERE id = ?`, id)
	return scanRecord(row)
}

// SetLogoutTx completes a pending-logout record. The WHERE clause on
// logout_time keeps the transition conditional: a record that was completed
// by a racing scan is left untouched and false is reported.
func (s *AttendanceStore) SetLogoutTx(tx *sql.Tx, id int64, logoutAt time.Time, totalHours float64) (*model.AttendanceRecord, bool, error) {
	result, err := tx.Exec(
		`UPDATE attendance_records SET logout_time = ?, total_hours = ?, updated_at = datetime('now') WHERE id = ? AND login_time IS NOT NULL AND logout_time IS NULL`,
		logoutAt.UTC(), totalHours, id,
	)
	if err != nil {
		return nil, false, fmt.Errorf("set logout: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	row := tx.QueryRow(`SELECT `+recordCols+` FROM attendance_records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err != nil {
		return nil, false, fmt.Errorf("reread attendance record: %w", err)
	}
	return r, n == 1, nil
}

// ListRange returns records for the inclusive day range, ordered by day
// ascending. Days with no record produce no entry.
func (s *AttendanceStore) ListRange(employeeID, employerID int64, fromDay, toDay string) ([]model.AttendanceRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+recordCols+` FROM attendance_records WHERE employee_id = ? AND employer_id = ? AND day >= ? AND day <= ? ORDER BY day ASC`,
		employeeID, employerID, fromDay, toDay,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendance range: %w", err)
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// CreateDayStatus inserts a scan-free record for the administrative path
// (absent, leave, sick_leave).
func (s *AttendanceStore) CreateDayStatus(employeeID, employerID int64, day string, status model.AttendanceStatus) (*model.AttendanceRecord, error) {
	result, err := s.db.Exec(
		`INSERT INTO attendance_records (employee_id, employer_id, day, status) VALUES (?, ?, ?, ?)`,
		employeeID, employerID, day, status,
	)
	if err != nil {
		return nil, fmt.Errorf("insert day status: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+recordCols+` FROM attendance_records WHERE id = ?`, id)
	return scanRecord(row)
}

// UpdateDayStatus rewrites the status of an existing scan-free record. The
// login_time guard makes the write conditional on no clock-in having landed
// in the meantime.
func (s *AttendanceStore) UpdateDayStatus(id int64, status model.AttendanceStatus) (*model.AttendanceRecord, bool, error) {
	result, err := s.db.Exec(
		`UPDATE attendance_records SET status = ?, updated_at = datetime('now') WHERE id = ? AND login_time IS NULL`,
		status, id,
	)
	if err != nil {
		return nil, false, fmt.Errorf("update day status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+recordCols+` FROM attendance_records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err != nil {
		return nil, false, fmt.Errorf("reread attendance record: %w", err)
	}
	return r, n == 1, nil
}
