package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/okvist/punchcard/internal/auth"
	"github.com/okvist/punchcard/internal/ledger"
	"github.com/okvist/punchcard/internal/model"
)

type AttendanceHandler struct {
	ledger *ledger.Service
}

func NewAttendanceHandler(svc *ledger.Service) *AttendanceHandler {
	return &AttendanceHandler{ledger: svc}
}

// Query lists the attendance records for a day range. Employees see their
// own records; an employer may pass employee_id to read any of its staff.
func (h *AttendanceHandler) Query(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from and to are required (YYYY-MM-DD)"})
		return
	}
	if msg, ok := validDayRange(from, to); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	employeeID := id.EmployeeID
	if raw := r.URL.Query().Get("employee_id"); raw != "" {
		if !auth.IsEmployer(r.Context()) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "only employers may query other employees"})
			return
		}
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid employee_id"})
			return
		}
		employeeID = parsed
	}

	records, err := h.ledger.Query(employeeID, id.EmployerID, from, to)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

type dayStatusRequest struct {
	Status model.AttendanceStatus `json:"status"`
}

// SetDayStatus is the administrative route for absent/leave/sick_leave.
// Employer role is enforced by the middleware chain.
func (h *AttendanceHandler) SetDayStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	employeeID, err := parseIDParam(r, "employee_id")
	if err != nil || employeeID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid employee_id"})
		return
	}
	day := r.PathValue("day")

	var req dayStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	record, err := h.ledger.SetDayStatus(employeeID, id.EmployerID, day, req.Status)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
