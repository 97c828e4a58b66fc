package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-workflow/internal/clock"
	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/events"
	"github.com/spec-kit/ticket-workflow/internal/observability"
	"github.com/spec-kit/ticket-workflow/internal/repository"
	apperrors "github.com/spec-kit/ticket-workflow/pkg/util"
)

// DefaultBatchSize is used when ProcessBatch is called without a limit.
const DefaultBatchSize = 50

const (
	defaultNotificationPageSize = 20
	maxBackoff                  = 24 * time.Hour
)

// RetryPolicy decides when a failed delivery may be attempted again.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Max         time.Duration
}

// NextAttempt returns when an entry that has failed attempts times becomes
// eligible again, or nil once it has run out of attempts.
func (p RetryPolicy) NextAttempt(now time.Time, attempts int) *time.Time {
	if p.MaxAttempts > 0 && attempts >= p.MaxAttempts {
		return nil
	}
	if attempts < 1 {
		attempts = 1
	}
	ceiling := p.Max
	if ceiling <= 0 {
		ceiling = maxBackoff
	}
	delay := p.Base
	for i := 1; i < attempts && delay < ceiling; i++ {
		delay <<= 1
	}
	if delay > ceiling {
		delay = ceiling
	}
	next := now.Add(delay)
	return &next
}

// OutboxService stores notifications next to the state change they describe
// and delivers them in batches.
type OutboxService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	clock      clock.Clock
	ids        clock.IDGenerator
	retry      RetryPolicy
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// OutboxDependencies bundles collaborators for the outbox service.
type OutboxDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Clock      clock.Clock
	IDs        clock.IDGenerator
	Retry      RetryPolicy
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewOutboxService constructs the service.
func NewOutboxService(deps OutboxDependencies) *OutboxService {
	s := &OutboxService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		clock:      deps.Clock,
		ids:        deps.IDs,
		retry:      deps.Retry,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
	if s.dispatcher == nil {
		s.dispatcher = events.NewInMemoryDispatcher()
	}
	if s.clock == nil {
		s.clock = clock.SystemClock{}
	}
	if s.ids == nil {
		s.ids = clock.UUIDGenerator{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Enqueue inserts a pending notification using the caller's transaction so it
// commits or rolls back together with the triggering change.
func (s *OutboxService) Enqueue(ctx context.Context, repos repository.Repositories, toUserID string, event events.EventType, payload map[string]any) (*domain.Notification, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	n := &domain.Notification{
		ID:        s.ids.NewID(),
		ToUserID:  toUserID,
		Event:     string(event),
		Payload:   payload,
		Status:    domain.NotificationStatusPending,
		CreatedAt: s.clock.Now(),
	}
	if err := repos.Notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// ProcessBatch delivers up to limit deliverable entries, oldest first, and
// returns how many reached "sent". Rows locked by a concurrent batch are
// skipped. A failed delivery is recorded on its row and never aborts the
// rest of the batch.
func (s *OutboxService) ProcessBatch(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultBatchSize
	}

	ctx, span := otel.Tracer("outbox").Start(ctx, "OutboxService.ProcessBatch")
	defer span.End()

	sent, failed := 0, 0
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		now := s.clock.Now()
		batch, err := repos.Notifications.ClaimBatch(ctx, limit, now, s.retry.MaxAttempts)
		if err != nil {
			return err
		}

		for i := range batch {
			n := &batch[i]
			if deliverErr := s.deliver(ctx, n); deliverErr != nil {
				next := s.retry.NextAttempt(now, n.Attempts+1)
				if err := repos.Notifications.MarkFailed(ctx, n.ID, deliverErr.Error(), next); err != nil {
					return err
				}
				failed++
				observability.WithTrace(ctx, s.logger).Warn("notification delivery failed",
					zap.String("notification_id", n.ID),
					zap.Int("attempts", n.Attempts+1),
					zap.Bool("will_retry", next != nil),
					zap.Error(deliverErr))
				continue
			}
			if err := repos.Notifications.MarkSent(ctx, n.ID, s.clock.Now()); err != nil {
				return err
			}
			sent++
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	span.SetAttributes(attribute.Int("outbox.sent", sent), attribute.Int("outbox.failed", failed))
	s.metrics.RecordOutboxBatch(sent, failed)
	if sent+failed > 0 {
		s.logger.Debug("outbox batch processed", zap.Int("sent", sent), zap.Int("failed", failed))
	}
	return sent, nil
}

func (s *OutboxService) deliver(ctx context.Context, n *domain.Notification) error {
	return s.dispatcher.Publish(ctx, events.Event{
		ID:          n.ID,
		Type:        events.EventType(n.Event),
		RecipientID: n.ToUserID,
		Timestamp:   n.CreatedAt,
		Payload:     n.Payload,
	})
}

// Acknowledge marks a notification as read by its recipient. Repeated calls
// keep the first read_at.
func (s *OutboxService) Acknowledge(ctx context.Context, notificationID string, actor domain.Actor) (*domain.Notification, error) {
	var n *domain.Notification
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Notifications.GetByID(ctx, notificationID)
		if err != nil {
			return notFoundOr(err, "Notification", "notification_id", notificationID)
		}
		if current.ToUserID != actor.ID {
			return apperrors.NewPermissionDenied("You can only acknowledge your own notifications")
		}
		readAt, err := repos.Notifications.MarkRead(ctx, current.ID, s.clock.Now())
		if err != nil {
			return err
		}
		current.ReadAt = &readAt
		n = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ListForRecipient returns the actor's own notifications, newest first.
func (s *OutboxService) ListForRecipient(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationPageSize
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Repos().Notifications.ListByRecipient(ctx, actor.ID, limit, offset)
}
