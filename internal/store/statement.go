package store

import (
	"database/sql"
	"fmt"

	"github.com/okvist/punchcard/internal/model"
)

type StatementStore struct {
	db *sql.DB
}

func NewStatementStore(db *sql.DB) *StatementStore {
	return &StatementStore{db: db}
}

func scanStatement(scanner interface{ Scan(...any) error }) (*model.AttendanceStatement, error) {
	var st model.AttendanceStatement
	var objectKey sql.NullString

	err := scanner.Scan(
		&st.ID, &st.EmployeeID, &st.EmployerID, &st.StartDay, &st.EndDay,
		&st.Body, &objectKey, &st.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if objectKey.Valid {
		st.ObjectKey = &objectKey.String
	}
	return &st, nil
}

const statementCols = `id, employee_id, employer_id, start_day, end_day, body, object_key, created_at`

// Create persists a rendered statement. Rows are insert-only; regenerating
// the same range creates a new row.
func (s *StatementStore) Create(employeeID, employerID int64, startDay, endDay, body string) (*model.AttendanceStatement, error) {
	result, err := s.db.Exec(
		`INSERT INTO attendance_statements (employee_id, employer_id, start_day, end_day, body) VALUES (?, ?, ?, ?, ?)`,
		employeeID, employerID, startDay, endDay, body,
	)
	if err != nil {
		return nil, fmt.Errorf("insert statement: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+statementCols+` FROM attendance_statements WHERE id = ?`, id)
	return scanStatement(row)
}

// SetObjectKey records where the artifact copy of the body was uploaded.
// The body itself is immutable.
func (s *StatementStore) SetObjectKey(id int64, key string) error {
	_, err := s.db.Exec(`UPDATE attendance_statements SET object_key = ? WHERE id = ?`, key, id)
	if err != nil {
		return fmt.Errorf("set object key: %w", err)
	}
	return nil
}

func (s *StatementStore) GetByID(id int64) (*model.AttendanceStatement, error) {
	row := s.db.QueryRow(`SELECT `+statementCols+` FROM attendance_statements WHERE id = ?`, id)
	st, err := scanStatement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get statement: %w", err)
	}
	return st, nil
}

func (s *StatementStore) ListByEmployee(employeeID, employerID int64) ([]model.AttendanceStatement, error) {
	rows, err := s.db.Query(
		`SELECT `+statementCols+` FROM attendance_statements WHERE employee_id = ? AND employer_id = ? ORDER BY created_at DESC, id DESC`,
		employeeID, employerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()

	var statements []model.AttendanceStatement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		statements = append(statements, *st)
	}
	return statements, rows.Err()
}
