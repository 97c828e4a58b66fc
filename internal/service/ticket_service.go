package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-workflow/internal/clock"
	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/events"
	"github.com/spec-kit/ticket-workflow/internal/observability"
	"github.com/spec-kit/ticket-workflow/internal/repository"
	"github.com/spec-kit/ticket-workflow/internal/roster"
	apperrors "github.com/spec-kit/ticket-workflow/pkg/util"
)

const maxTitleLength = 180

// WorkflowService owns every ticket mutation. Each operation runs in one
// transaction and locks the ticket row it changes.
type WorkflowService struct {
	tx      repository.TxManager
	roster  roster.Provider
	outbox  *OutboxService
	clock   clock.Clock
	ids     clock.IDGenerator
	logger  *zap.Logger
	metrics *observability.Metrics
}

// WorkflowDependencies bundles collaborators for the workflow service.
type WorkflowDependencies struct {
	TxManager repository.TxManager
	Roster    roster.Provider
	Outbox    *OutboxService
	Clock     clock.Clock
	IDs       clock.IDGenerator
	Logger    *zap.Logger
	Metrics   *observability.Metrics
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	s := &WorkflowService{
		tx:      deps.TxManager,
		roster:  deps.Roster,
		outbox:  deps.Outbox,
		clock:   deps.Clock,
		ids:     deps.IDs,
		logger:  deps.Logger,
		metrics: deps.Metrics,
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

// CreateTicket opens a ticket and notifies every active agent.
func (s *WorkflowService) CreateTicket(ctx context.Context, actor domain.Actor, input CreateTicketInput) (ticket *domain.Ticket, err error) {
	defer s.record("create_ticket", &err)

	if !actor.Role.Can(domain.CapabilityCreateTicket) {
		return nil, apperrors.NewPermissionDenied("You cannot create tickets")
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if details := validateTicketInput(title, priority); len(details) > 0 {
		return nil, apperrors.NewValidationError("Invalid input", details)
	}

	agents, err := s.roster.ActiveAgents(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	ticket = &domain.Ticket{
		ID:          s.ids.NewID(),
		CreatedBy:   actor.ID,
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
		DueAt:       domain.DueAt(priority, now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Tickets.Create(ctx, ticket); err != nil {
			return err
		}
		for _, agentID := range agents {
			if _, err := s.outbox.Enqueue(ctx, repos, agentID, events.EventTicketCreated, ticketPayload(ticket)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.WithTrace(ctx, s.logger).Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("priority", string(ticket.Priority)),
		zap.Int("notified_agents", len(agents)))
	return ticket, nil
}

// ChangeStatus moves a ticket along the transition table.
func (s *WorkflowService) ChangeStatus(ctx context.Context, ticketID string, actor domain.Actor, newStatus domain.TicketStatus) (ticket *domain.Ticket, err error) {
	defer s.record("change_status", &err)

	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("Invalid input", map[string]any{
			"status": []string{"\"" + string(newStatus) + "\" is not a valid choice."},
		})
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		locked, err := s.lockTicket(ctx, repos, ticketID)
		if err != nil {
			return err
		}
		ticket = locked

		oldStatus := ticket.Status
		if !domain.CanTransition(oldStatus, newStatus) {
			return apperrors.NewConflict(
				"Invalid status transition: "+string(oldStatus)+" -> "+string(newStatus),
				map[string]any{
					"from":    oldStatus,
					"to":      newStatus,
					"allowed": domain.AllowedTransitions(oldStatus),
				},
			)
		}
		if capability, ok := domain.StatusCapability(newStatus); ok && !actor.Role.Can(capability) {
			return apperrors.NewPermissionDenied("Only agent/admin can " + string(capability) + " tickets")
		}

		now := s.clock.Now()
		ticket.Status = newStatus
		ticket.UpdatedAt = now
		if newStatus == domain.TicketStatusResolved {
			ticket.ResolvedAt = &now
		}
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		if newStatus == domain.TicketStatusResolved {
			payload := ticketPayload(ticket)
			payload["resolved_at"] = now
			if _, err := s.outbox.Enqueue(ctx, repos, ticket.CreatedBy, events.EventTicketResolved, payload); err != nil {
				return err
			}
		}
		return s.writeHistory(ctx, repos, ticket.ID, actor, domain.HistoryFieldStatus, string(oldStatus), string(newStatus))
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// AddMessage appends a message to the ticket conversation. Who may write is
// decided by the caller.
func (s *WorkflowService) AddMessage(ctx context.Context, ticketID string, actor domain.Actor, body string) (msg *domain.TicketMessage, err error) {
	defer s.record("add_message", &err)

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("Invalid input", map[string]any{
			"body": []string{"This field may not be blank."},
		})
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ticket, err := s.lockTicket(ctx, repos, ticketID)
		if err != nil {
			return err
		}
		msg = &domain.TicketMessage{
			ID:        s.ids.NewID(),
			TicketID:  ticket.ID,
			AuthorID:  actor.ID,
			Body:      body,
			CreatedAt: s.clock.Now(),
		}
		return repos.Messages.Create(ctx, msg)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkSLABreachedIfNeeded records a single "sla/breached" history entry once
// an open ticket has passed its deadline. It reports whether an entry was
// written by this call.
func (s *WorkflowService) MarkSLABreachedIfNeeded(ctx context.Context, ticket *domain.Ticket, actor domain.Actor) (bool, error) {
	if !domain.IsOverdue(ticket, s.clock.Now()) {
		return false, nil
	}

	written := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := s.lockTicket(ctx, repos, ticket.ID)
		if err != nil {
			return err
		}
		if !domain.IsOverdue(current, s.clock.Now()) {
			return nil
		}
		exists, err := repos.History.Exists(ctx, current.ID, domain.HistoryFieldSLA, domain.SLABreachedValue)
		if err != nil || exists {
			return err
		}
		written = true
		return s.writeHistory(ctx, repos, current.ID, actor, domain.HistoryFieldSLA, "", domain.SLABreachedValue)
	})
	if err != nil {
		return false, err
	}
	if written {
		s.metrics.RecordSLABreach()
		observability.WithTrace(ctx, s.logger).Warn("ticket breached its SLA", zap.String("ticket_id", ticket.ID))
	}
	return written, nil
}

func (s *WorkflowService) lockTicket(ctx context.Context, repos repository.Repositories, ticketID string) (*domain.Ticket, error) {
	ticket, err := repos.Tickets.GetForUpdate(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "Ticket", "ticket_id", ticketID)
	}
	return ticket, nil
}

func (s *WorkflowService) writeHistory(ctx context.Context, repos repository.Repositories, ticketID string, actor domain.Actor, field, oldValue, newValue string) error {
	return repos.History.Create(ctx, &domain.TicketHistory{
		ID:        s.ids.NewID(),
		TicketID:  ticketID,
		ActorID:   actor.ID,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		CreatedAt: s.clock.Now(),
	})
}

func (s *WorkflowService) record(operation string, err *error) {
	outcome := "ok"
	if *err != nil {
		outcome = strings.ToLower(apperrors.ToDomainError(*err).Code)
	}
	s.metrics.RecordOperation(operation, outcome)
}

func validateTicketInput(title string, priority domain.TicketPriority) map[string]any {
	details := map[string]any{}
	switch {
	case title == "":
		details["title"] = []string{"This field may not be blank."}
	case len([]rune(title)) > maxTitleLength:
		details["title"] = []string{"Ensure this field has no more than 180 characters."}
	}
	if !priority.Valid() {
		details["priority"] = []string{"\"" + string(priority) + "\" is not a valid choice."}
	}
	return details
}

func ticketPayload(ticket *domain.Ticket) map[string]any {
	return map[string]any{
		"ticket_id": ticket.ID,
		"title":     ticket.Title,
		"priority":  string(ticket.Priority),
		"status":    string(ticket.Status),
	}
}

// notFoundOr converts repository.ErrNotFound into a NOT_FOUND domain error.
func notFoundOr(err error, resource, key, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{key: id})
	}
	return err
}
