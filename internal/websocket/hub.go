package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/okvist/punchcard/internal/model"
)

// Event is a live attendance notification pushed to employer dashboards.
type Event struct {
	Type       string           `json:"type"`
	EmployeeID int64            `json:"employee_id"`
	Day        string           `json:"day"`
	Action     model.ScanAction `json:"action"`
	RecordID   int64            `json:"record_id"`
}

// NewScanEvent builds the event broadcast after a scan commits.
func NewScanEvent(action model.ScanAction, record *model.AttendanceRecord) Event {
	return Event{
		Type:       "attendance_" + string(action),
		EmployeeID: record.EmployeeID,
		Day:        record.Day,
		Action:     action,
		RecordID:   record.ID,
	}
}

// Hub tracks station dashboard connections grouped by employer and fans
// events out to the issuing employer's dashboards only.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client under its employer.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.employerID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.employerID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.employerID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.clients, c.employerID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends the event to every dashboard of the given employer.
func (h *Hub) Broadcast(employerID int64, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[employerID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected dashboards for an employer.
func (h *Hub) ClientCount(employerID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[employerID])
}
