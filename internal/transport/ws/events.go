package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/projectdesk/internal/domain"
)

// Event types - Client → Server
const (
	EventTypePing = "ping"
)

// Event types - Server → Client
const (
	EventTypeProjectAssigned = "project.assigned"
	EventTypeProjectDeleted  = "project.deleted"
	EventTypePong            = "pong"
	EventTypeError           = "error"
)

// Event is the envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// IsProjectEvent reports whether the event changes the project list.
func (e *Event) IsProjectEvent() bool {
	return e.Type == EventTypeProjectAssigned || e.Type == EventTypeProjectDeleted
}

type ProjectAssignedPayload struct {
	domain.Project
}

type ProjectDeletedPayload struct {
	ID uuid.UUID `json:"id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
