package dto

import (
	"time"

	"github.com/spec-kit/ticket-workflow/internal/domain"
)

// NotificationResponse is what a recipient sees of an outbox entry.
type NotificationResponse struct {
	ID        string                    `json:"id"`
	Event     string                    `json:"event"`
	Payload   map[string]any            `json:"payload"`
	Status    domain.NotificationStatus `json:"status"`
	SentAt    *time.Time                `json:"sent_at"`
	ReadAt    *time.Time                `json:"read_at"`
	CreatedAt time.Time                 `json:"created_at"`
}

// NewNotificationResponse maps a notification.
func NewNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Event:     n.Event,
		Payload:   n.Payload,
		Status:    n.Status,
		SentAt:    n.SentAt,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
