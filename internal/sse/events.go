// Package sse streams realtime table changes to connected admin clients as
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/galeriaarte/galeria-server/internal/realtime"
)

// EventType names an SSE event. Change events are named <table>.<action>,
// e.g. "obras.insert".
type EventType string

const (
	// EventConnected is sent once when a client connects.
	EventConnected EventType = "connected"
	// EventHeartbeat keeps idle connections open.
	EventHeartbeat EventType = "heartbeat"
)

// Event is one message sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
	// Table is set on change events and used for client filtering.
	Table string `json:"table,omitempty"`
}

// ChangeData is the payload of a change event. Row images are passed
// through as the database sent them.
type ChangeData struct {
	New       json.RawMessage `json:"new,omitempty"`
	Old       json.RawMessage `json:"old,omitempty"`
	Truncated bool            `json:"truncated,omitempty"`
}

// ChangeEventType returns the event name for a change on table.
func ChangeEventType(table string, t realtime.ChangeType) EventType {
	return EventType(table + "." + strings.ToLower(string(t)))
}

// NewChangeEvent wraps a realtime change.
func NewChangeEvent(c realtime.Change) Event {
	return Event{
		Type:      ChangeEventType(c.Table, c.Type),
		Table:     c.Table,
		Timestamp: time.Now(),
		Data:      ChangeData{New: c.New, Old: c.Old, Truncated: c.Truncated},
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
		Data:      struct{}{},
	}
}
