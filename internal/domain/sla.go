package domain

import "time"

var slaByPriority = map[TicketPriority]time.Duration{
	TicketPriorityUrgent: 15 * time.Minute,
	TicketPriorityHigh:   2 * time.Hour,
	TicketPriorityMedium: 8 * time.Hour,
	TicketPriorityLow:    24 * time.Hour,
}

// SLAOffset returns the response window for a priority.
func SLAOffset(priority TicketPriority) (time.Duration, bool) {
	offset, ok := slaByPriority[priority]
	return offset, ok
}

// DueAt computes the deadline for a ticket created at createdAt. Priorities
// without a policy have no deadline.
func DueAt(priority TicketPriority, createdAt time.Time) *time.Time {
	offset, ok := SLAOffset(priority)
	if !ok {
		return nil
	}
	due := createdAt.Add(offset)
	return &due
}
