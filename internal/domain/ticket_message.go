package domain

import "time"

// TicketMessage captures one entry in a ticket conversation.
type TicketMessage struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}
