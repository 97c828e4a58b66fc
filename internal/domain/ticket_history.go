package domain

import "time"

// History field names.
const (
	HistoryFieldStatus     = "status"
	HistoryFieldAssignedTo = "assigned_to"
	HistoryFieldSLA        = "sla"
)

// SLABreachedValue is the new_value written once a ticket misses its deadline.
const SLABreachedValue = "breached"

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID        string
	TicketID  string
	ActorID   string
	Field     string
	OldValue  string
	NewValue  string
	CreatedAt time.Time
}
