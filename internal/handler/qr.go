package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/okvist/punchcard/internal/auth"
	"github.com/okvist/punchcard/internal/issuer"
)

type QrHandler struct {
	issuer *issuer.Service
	now    func() time.Time
	logger *slog.Logger
}

func NewQrHandler(svc *issuer.Service, now func() time.Time, logger *slog.Logger) *QrHandler {
	return &QrHandler{issuer: svc, now: now, logger: logger}
}

type issueRequest struct {
	TargetEmployeeID *int64 `json:"target_employee_id"`
}

// Issue mints a code for the authenticated employer's station display.
func (h *QrHandler) Issue(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	var req issueRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
			return
		}
	}
	if req.TargetEmployeeID != nil && *req.TargetEmployeeID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target_employee_id must be positive"})
		return
	}

	qr, err := h.issuer.Issue(id.EmployerID, req.TargetEmployeeID, h.now())
	if err != nil {
		h.logger.Error("issue code", "employer_id", id.EmployerID, "error", err)
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, qr)
}
