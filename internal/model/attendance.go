package model

import "time"

// AttendanceStatus classifies an attendance record for one calendar day.
type AttendanceStatus string

const (
	StatusPresent   AttendanceStatus = "present"
	StatusAbsent    AttendanceStatus = "absent"
	StatusLeave     AttendanceStatus = "leave"
	StatusSickLeave AttendanceStatus = "sick_leave"
)

// Valid reports whether s is one of the known statuses.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLeave, StatusSickLeave:
		return true
	}
	return false
}

// AttendanceRecord is the per-employee, per-day attendance row. The key
// (EmployeeID, EmployerID, Day) is unique; Day is a YYYY-MM-DD date computed
// in the deployment's anchor timezone.
type AttendanceRecord struct {
	ID         int64            `json:"id"`
	EmployeeID int64            `json:"employee_id"`
	EmployerID int64            `json:"employer_id"`
	Day        string           `json:"day"`
	Status     AttendanceStatus `json:"status"`
	LoginTime  *time.Time       `json:"login_time"`
	LogoutTime *time.Time       `json:"logout_time"`
	TotalHours *float64         `json:"total_hours"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// PendingLogout reports whether the employee is clocked in with no logout yet.
func (r *AttendanceRecord) PendingLogout() bool {
	return r.LoginTime != nil && r.LogoutTime == nil
}

// Complete reports whether the record holds a full login/logout pair.
func (r *AttendanceRecord) Complete() bool {
	return r.LoginTime != nil && r.LogoutTime != nil
}
