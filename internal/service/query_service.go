package service

import (
	"context"

	"github.com/spec-kit/ticket-workflow/internal/clock"
	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/repository"
	apperrors "github.com/spec-kit/ticket-workflow/pkg/util"
)

// QueryService serves read paths over tickets.
type QueryService struct {
	store    repository.Store
	workflow *WorkflowService
	clock    clock.Clock
}

// QueryDependencies bundles collaborators for the query service.
type QueryDependencies struct {
	Store    repository.Store
	Workflow *WorkflowService
	Clock    clock.Clock
}

// TicketPage is one page of a ticket listing.
type TicketPage struct {
	Items  []domain.Ticket
	Count  int
	Limit  int
	Offset int
}

// TicketDetail is a ticket with its conversation and audit trail.
type TicketDetail struct {
	Ticket   *domain.Ticket
	Messages []domain.TicketMessage
	History  []domain.TicketHistory
}

// NewQueryService constructs the service.
func NewQueryService(deps QueryDependencies) *QueryService {
	s := &QueryService{
		store:    deps.Store,
		workflow: deps.Workflow,
		clock:    deps.Clock,
	}
	if s.clock == nil {
		s.clock = clock.SystemClock{}
	}
	return s
}

// ListTickets returns tickets matching filter, newest first. Clients only
// ever see tickets they created.
func (s *QueryService) ListTickets(ctx context.Context, actor domain.Actor, filter repository.TicketFilter) (*TicketPage, error) {
	if !actor.Role.Can(domain.CapabilityViewAllTickets) {
		filter.CreatedBy = &actor.ID
	}
	limit, offset := filter.Page()
	filter.Limit, filter.Offset = limit, offset

	repos := s.store.Repos()
	items, err := repos.Tickets.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := repos.Tickets.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &TicketPage{Items: items, Count: count, Limit: limit, Offset: offset}, nil
}

// GetTicket loads a single ticket the actor is allowed to see.
func (s *QueryService) GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.store.Repos().Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "Ticket", "ticket_id", ticketID)
	}
	if !domain.CanViewTicket(actor, ticket) {
		return nil, apperrors.NewPermissionDenied("You do not have access to this ticket")
	}
	return ticket, nil
}

// GetTicketDetail loads a ticket the actor is allowed to see together with
// its conversation and audit trail.
func (s *QueryService) GetTicketDetail(ctx context.Context, actor domain.Actor, ticketID string) (*TicketDetail, error) {
	ticket, err := s.GetTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	messages, err := repos.Messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	history, err := repos.History.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{Ticket: ticket, Messages: messages, History: history}, nil
}

// AgentQueue returns tickets in work order: overdue open tickets first, then
// by deadline, then oldest. Every overdue ticket seen here gets its SLA breach
// recorded.
func (s *QueryService) AgentQueue(ctx context.Context, actor domain.Actor, filter repository.TicketFilter) (*TicketPage, error) {
	if !actor.Role.Can(domain.CapabilityViewQueue) {
		return nil, apperrors.NewPermissionDenied("Only agent/admin can view the queue")
	}
	limit, offset := filter.Page()
	filter.Limit, filter.Offset = limit, offset

	repos := s.store.Repos()
	items, err := repos.Tickets.ListQueue(ctx, filter, s.clock.Now())
	if err != nil {
		return nil, err
	}
	for i := range items {
		if _, err := s.workflow.MarkSLABreachedIfNeeded(ctx, &items[i], actor); err != nil {
			return nil, err
		}
	}
	count, err := repos.Tickets.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &TicketPage{Items: items, Count: count, Limit: limit, Offset: offset}, nil
}
