package model

import "time"

// AttendanceStatement is an immutable rendered summary of attendance over a
// date range. Regenerating the same range creates a new row; there is no
// versioning or dedup.
type AttendanceStatement struct {
	ID         int64     `json:"id"`
	EmployeeID int64     `json:"employee_id"`
	EmployerID int64     `json:"employer_id"`
	StartDay   string    `json:"start_day"`
	EndDay     string    `json:"end_day"`
	Body       string    `json:"body"`
	ObjectKey  *string   `json:"object_key"`
	CreatedAt  time.Time `json:"created_at"`
}
