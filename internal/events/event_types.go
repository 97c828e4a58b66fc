package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketResolved EventType = "ticket_resolved"
)

// Event is one outbox entry handed to delivery handlers.
type Event struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	RecipientID string         `json:"recipient_id"`
	Timestamp   time.Time      `json:"timestamp"`
	Payload     map[string]any `json:"payload"`
}

// TicketID extracts the ticket reference carried by ticket events.
func (e Event) TicketID() string {
	if id, ok := e.Payload["ticket_id"].(string); ok {
		return id
	}
	return ""
}
