package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/okvist/punchcard/internal/model"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testEvent(employeeID int64) Event {
	return NewScanEvent(model.ActionLogin, &model.AttendanceRecord{
		ID:         11,
		EmployeeID: employeeID,
		Day:        "2025-03-10",
		Status:     model.StatusPresent,
	})
}

func TestBroadcastScopedToEmployer(t *testing.T) {
	hub := testHub()

	mine := NewClient(hub, nil, 7)
	other := NewClient(hub, nil, 8)
	hub.Register(mine)
	hub.Register(other)

	hub.Broadcast(7, testEvent(42))

	select {
	case data := <-mine.send:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Type != "attendance_login" || ev.EmployeeID != 42 || ev.Day != "2025-03-10" {
			t.Errorf("event = %+v", ev)
		}
	default:
		t.Fatal("employer 7 dashboard received nothing")
	}

	select {
	case <-other.send:
		t.Fatal("event leaked to another employer's dashboard")
	default:
	}
}

func TestBroadcastReachesAllEmployerDashboards(t *testing.T) {
	hub := testHub()

	a := NewClient(hub, nil, 7)
	b := NewClient(hub, nil, 7)
	hub.Register(a)
	hub.Register(b)
	if hub.ClientCount(7) != 2 {
		t.Fatalf("client count = %d, want 2", hub.ClientCount(7))
	}

	hub.Broadcast(7, testEvent(42))
	for _, c := range []*Client{a, b} {
		select {
		case <-c.send:
		default:
			t.Fatal("a dashboard missed the broadcast")
		}
	}
}

func TestUnregisterClosesAndForgets(t *testing.T) {
	hub := testHub()

	c := NewClient(hub, nil, 7)
	hub.Register(c)
	hub.Unregister(c)

	if hub.ClientCount(7) != 0 {
		t.Fatalf("client count = %d, want 0", hub.ClientCount(7))
	}
	select {
	case _, open := <-c.send:
		if open {
			t.Fatal("send channel should be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}

	// Double unregister must not panic.
	hub.Unregister(c)

	// Broadcasting into the empty hub is a no-op.
	hub.Broadcast(7, testEvent(42))
}

func TestBroadcastDropsWhenClientStalls(t *testing.T) {
	hub := testHub()

	c := NewClient(hub, nil, 7)
	hub.Register(c)

	// Fill the buffer past capacity; Broadcast must never block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range cap(c.send) + 5 {
			hub.Broadcast(7, testEvent(42))
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a stalled client")
	}
	if len(c.send) != cap(c.send) {
		t.Errorf("buffered = %d, want full buffer %d", len(c.send), cap(c.send))
	}
}
