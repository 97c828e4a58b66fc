package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-workflow/internal/clock"
	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/events"
	"github.com/spec-kit/ticket-workflow/internal/observability"
	"github.com/spec-kit/ticket-workflow/internal/repository"
	"github.com/spec-kit/ticket-workflow/internal/repository/memory"
	"github.com/spec-kit/ticket-workflow/internal/roster"
	apperrors "github.com/spec-kit/ticket-workflow/pkg/util"
)

var epoch = time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)

type harness struct {
	store      *memory.Store
	clock      *clock.FixedClock
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	outbox     *OutboxService
	workflow   *WorkflowService
	query      *QueryService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewFixedClock(epoch)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	outbox := NewOutboxService(OutboxDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Clock:      clk,
		Retry:      RetryPolicy{MaxAttempts: 3, Base: 30 * time.Second, Max: 10 * time.Minute},
		Logger:     zap.NewNop(),
		Metrics:    metrics,
	})
	workflow := NewWorkflowService(WorkflowDependencies{
		TxManager: store,
		Roster:    roster.NewRepositoryProvider(store.Repos().Users),
		Outbox:    outbox,
		Clock:     clk,
		Logger:    zap.NewNop(),
		Metrics:   metrics,
	})
	query := NewQueryService(QueryDependencies{Store: store, Workflow: workflow, Clock: clk})

	return &harness{
		store:      store,
		clock:      clk,
		dispatcher: dispatcher,
		metrics:    metrics,
		outbox:     outbox,
		workflow:   workflow,
		query:      query,
	}
}

func (h *harness) user(t *testing.T, id string, role domain.Role) domain.Actor {
	t.Helper()
	u := &domain.User{
		ID:        id,
		Email:     id + "@example.com",
		Name:      id,
		Role:      role,
		Active:    true,
		CreatedAt: h.clock.Now(),
		UpdatedAt: h.clock.Now(),
	}
	require.NoError(t, h.store.Repos().Users.Create(context.Background(), u))
	return u.Actor()
}

func (h *harness) ticket(t *testing.T, creator domain.Actor, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	ticket, err := h.workflow.CreateTicket(context.Background(), creator, CreateTicketInput{
		Title:       "VPN drops every hour",
		Description: "since the last update",
		Priority:    priority,
	})
	require.NoError(t, err)
	return ticket
}

func (h *harness) reload(t *testing.T, id string) *domain.Ticket {
	t.Helper()
	ticket, err := h.store.Repos().Tickets.GetByID(context.Background(), id)
	require.NoError(t, err)
	return ticket
}

func (h *harness) history(t *testing.T, ticketID string) []domain.TicketHistory {
	t.Helper()
	rows, err := h.store.Repos().History.ListByTicket(context.Background(), ticketID)
	require.NoError(t, err)
	return rows
}

func (h *harness) notifications(t *testing.T, userID string) []domain.Notification {
	t.Helper()
	rows, err := h.store.Repos().Notifications.ListByRecipient(context.Background(), userID, 100, 0)
	require.NoError(t, err)
	return rows
}

func requireCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, code), "expected %s, got %v", code, err)
	return apperrors.ToDomainError(err)
}

func fields(rows []domain.TicketHistory) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Field)
	}
	return out
}

var _ repository.Store = (*memory.Store)(nil)
