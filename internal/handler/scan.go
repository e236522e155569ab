package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/okvist/punchcard/internal/auth"
	"github.com/okvist/punchcard/internal/resolver"
	"github.com/okvist/punchcard/internal/websocket"
)

type ScanHandler struct {
	resolver *resolver.Service
	hub      *websocket.Hub
	now      func() time.Time
	logger   *slog.Logger
}

func NewScanHandler(svc *resolver.Service, hub *websocket.Hub, now func() time.Time, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{resolver: svc, hub: hub, now: now, logger: logger}
}

type scanRequest struct {
	Code string `json:"code"`
}

// Resolve applies the scanned code as a login or logout for the
// authenticated employee and notifies the employer's dashboards.
func (h *ScanHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}

	result, err := h.resolver.Resolve(r.Context(), req.Code, id.EmployeeID, h.now())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if h.hub != nil && !result.Replayed {
		h.hub.Broadcast(result.Record.EmployerID, websocket.NewScanEvent(result.Action, result.Record))
	}

	writeJSON(w, http.StatusOK, result)
}
