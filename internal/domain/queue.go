package domain

import (
	"sort"
	"time"
)

// IsOverdue reports whether an open ticket has missed its deadline.
func IsOverdue(t *Ticket, now time.Time) bool {
	return t.Status == TicketStatusOpen && t.DueAt != nil && t.DueAt.Before(now)
}

// QueueLess orders the agent work queue: overdue first, then the nearest
// deadline (tickets without one last), then oldest first.
func QueueLess(a, b *Ticket, now time.Time) bool {
	ao, bo := IsOverdue(a, now), IsOverdue(b, now)
	if ao != bo {
		return ao
	}
	switch {
	case a.DueAt != nil && b.DueAt == nil:
		return true
	case a.DueAt == nil && b.DueAt != nil:
		return false
	case a.DueAt != nil && b.DueAt != nil && !a.DueAt.Equal(*b.DueAt):
		return a.DueAt.Before(*b.DueAt)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// SortQueue sorts tickets in place using QueueLess.
func SortQueue(tickets []Ticket, now time.Time) {
	sort.SliceStable(tickets, func(i, j int) bool {
		return QueueLess(&tickets[i], &tickets[j], now)
	})
}
