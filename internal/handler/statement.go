package handler

import (
	"encoding/json"
	"net/http"

	"github.com/okvist/punchcard/internal/auth"
	"github.com/okvist/punchcard/internal/model"
	"github.com/okvist/punchcard/internal/statement"
)

type StatementHandler struct {
	statements *statement.Service
}

func NewStatementHandler(svc *statement.Service) *StatementHandler {
	return &StatementHandler{statements: svc}
}

type generateRequest struct {
	From       string `json:"from"`
	To         string `json:"to"`
	EmployeeID *int64 `json:"employee_id"`
}

// Generate renders and persists a new statement for the range. Employees
// generate their own; an employer may generate for any of its staff.
func (h *StatementHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.From == "" || req.To == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from and to are required (YYYY-MM-DD)"})
		return
	}
	if msg, ok := validDayRange(req.From, req.To); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	employeeID := id.EmployeeID
	if req.EmployeeID != nil {
		if !auth.IsEmployer(r.Context()) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "only employers may generate for other employees"})
			return
		}
		if *req.EmployeeID <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid employee_id"})
			return
		}
		employeeID = *req.EmployeeID
	}

	st, err := h.statements.Generate(r.Context(), employeeID, id.EmployerID, req.From, req.To)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// Get fetches one previously generated statement the caller may see.
func (h *StatementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	stID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	st, err := h.statements.Get(stID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if st == nil || !mayViewStatement(r, id, st) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "statement not found"})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// List returns the caller's statements, newest first.
func (h *StatementHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	statements, err := h.statements.List(id.EmployeeID, id.EmployerID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if statements == nil {
		statements = []model.AttendanceStatement{}
	}
	writeJSON(w, http.StatusOK, statements)
}

func mayViewStatement(r *http.Request, id auth.Identity, st *model.AttendanceStatement) bool {
	if st.EmployerID != id.EmployerID {
		return false
	}
	return auth.IsEmployer(r.Context()) || st.EmployeeID == id.EmployeeID
}
