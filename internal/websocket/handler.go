package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/okvist/punchcard/internal/auth"
)

// HandleDashboard upgrades an authenticated employer connection and runs it
// as a hub client scoped to that employer's events.
func HandleDashboard(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok || id.Role != auth.RoleEmployer {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, id.EmployerID)
		client.Run(r.Context())
	}
}
