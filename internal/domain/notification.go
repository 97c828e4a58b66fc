package domain

import "time"

// NotificationStatus enumerates outbox delivery states.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is a queued outbox entry addressed to a single user.
type Notification struct {
	ID            string
	ToUserID      string
	Event         string
	Payload       map[string]any
	Status        NotificationStatus
	Attempts      int
	LastError     string
	NextAttemptAt *time.Time
	SentAt        *time.Time
	ReadAt        *time.Time
	CreatedAt     time.Time
}

// Deliverable reports whether a batch worker may pick the entry up at now.
// Failed entries become eligible again once their backoff has elapsed, until
// maxAttempts is reached.
func (n *Notification) Deliverable(now time.Time, maxAttempts int) bool {
	switch n.Status {
	case NotificationStatusPending:
		return true
	case NotificationStatusFailed:
		if maxAttempts > 0 && n.Attempts >= maxAttempts {
			return false
		}
		return n.NextAttemptAt == nil || !n.NextAttemptAt.After(now)
	}
	return false
}
