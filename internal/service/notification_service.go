package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-workflow/internal/config"
	"github.com/spec-kit/ticket-workflow/internal/events"
	apperrors "github.com/spec-kit/ticket-workflow/pkg/util"
)

// Publisher pushes a serialized notification onto a named channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// NotificationService registers the delivery handlers the outbox publishes
// through. Without a publisher, delivery only logs the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  Publisher
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
	cfg        config.OutboxConfig
}

// NewNotificationService creates the service. publisher may be nil.
func NewNotificationService(dispatcher events.Dispatcher, publisher Publisher, logger *zap.Logger, cfg config.OutboxConfig) *NotificationService {
	settings := gobreaker.Settings{
		Name:        "NotificationChannel",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cfg.BreakerOpen(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.BreakerMaxFailures > 0 && counts.ConsecutiveFailures >= uint32(cfg.BreakerMaxFailures)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.SubscribeAll(n.logDelivery)
	if n.publisher != nil {
		n.dispatcher.SubscribeAll(n.publishToChannel)
	}
}

func (n *NotificationService) logDelivery(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("notification_id", event.ID),
		zap.String("recipient_id", event.RecipientID),
		zap.String("ticket_id", event.TicketID()))
	return nil
}

func (n *NotificationService) publishToChannel(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	channel := n.Channel(event.RecipientID)

	_, err = apperrors.ExecuteWithBreaker(n.breaker, func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return struct{}{}, n.publisher.Publish(ctx, channel, data)
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// Channel returns the per-recipient delivery channel.
func (n *NotificationService) Channel(recipientID string) string {
	return n.cfg.ChannelPrefix + ":" + recipientID
}
