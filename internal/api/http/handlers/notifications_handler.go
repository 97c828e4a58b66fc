package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-workflow/internal/api/dto"
	"github.com/spec-kit/ticket-workflow/internal/service"
)

// NotificationsHandler exposes a user's own notifications.
type NotificationsHandler struct {
	outbox *service.OutboxService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(outbox *service.OutboxService) *NotificationsHandler {
	return &NotificationsHandler{outbox: outbox}
}

// List GET /api/notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	limit, offset, err := page(c)
	if err != nil {
		return err
	}
	items, err := h.outbox.ListForRecipient(c.UserContext(), actor, limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.NotificationResponse, 0, len(items))
	for i := range items {
		resp = append(resp, dto.NewNotificationResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Acknowledge POST /api/notifications/:id/ack.
func (h *NotificationsHandler) Acknowledge(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Notification")
	if err != nil {
		return err
	}
	n, err := h.outbox.Acknowledge(c.UserContext(), id, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewNotificationResponse(n)})
}
