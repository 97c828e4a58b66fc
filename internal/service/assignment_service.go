package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/observability"
	"github.com/spec-kit/ticket-workflow/internal/repository"
	apperrors "github.com/spec-kit/ticket-workflow/pkg/util"
)

// ClaimTicket assigns an unassigned ticket to the calling agent. Concurrent
// claims serialize on the ticket lock; the loser sees the winner in the
// conflict details.
func (s *WorkflowService) ClaimTicket(ctx context.Context, ticketID string, actor domain.Actor) (ticket *domain.Ticket, err error) {
	defer s.record("claim_ticket", &err)

	if !actor.Role.Can(domain.CapabilityClaim) {
		return nil, apperrors.NewPermissionDenied("Only agent/admin can claim tickets")
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		locked, err := s.lockTicket(ctx, repos, ticketID)
		if err != nil {
			return err
		}
		ticket = locked

		if ticket.AssignedTo != nil {
			return apperrors.NewConflict("Ticket already claimed", map[string]any{
				"assigned_to": *ticket.AssignedTo,
			})
		}
		if ticket.Status != domain.TicketStatusOpen && ticket.Status != domain.TicketStatusInProgress {
			return apperrors.NewConflict("Ticket is "+string(ticket.Status)+" and cannot be claimed", map[string]any{
				"status": ticket.Status,
			})
		}

		oldStatus := ticket.Status
		assignee := actor.ID
		ticket.AssignedTo = &assignee
		ticket.Status = domain.TicketStatusInProgress
		ticket.UpdatedAt = s.clock.Now()
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return err
		}

		if err := s.writeHistory(ctx, repos, ticket.ID, actor, domain.HistoryFieldAssignedTo, "", assignee); err != nil {
			return err
		}
		return s.writeHistory(ctx, repos, ticket.ID, actor, domain.HistoryFieldStatus, string(oldStatus), string(ticket.Status))
	})
	if err != nil {
		return nil, err
	}

	observability.WithTrace(ctx, s.logger).Info("ticket claimed",
		zap.String("ticket_id", ticket.ID),
		zap.String("agent_id", actor.ID))
	return ticket, nil
}

// AssignTicket lets an admin hand a ticket to a specific active agent. An open
// ticket moves to in_progress; other statuses are left alone.
func (s *WorkflowService) AssignTicket(ctx context.Context, ticketID string, actor domain.Actor, agentID string) (ticket *domain.Ticket, err error) {
	defer s.record("assign_ticket", &err)

	if !actor.Role.Can(domain.CapabilityAssign) {
		return nil, apperrors.NewPermissionDenied("Only admin can assign tickets")
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		locked, err := s.lockTicket(ctx, repos, ticketID)
		if err != nil {
			return err
		}
		ticket = locked

		agent, err := repos.Users.GetByID(ctx, agentID)
		if err != nil {
			return notFoundOr(err, "User", "agent_id", agentID)
		}
		if agent.Role != domain.RoleAgent {
			return apperrors.NewConflict("Assignee must be an agent", map[string]any{
				"agent_id": agentID,
				"role":     agent.Role,
			})
		}
		if !agent.Active {
			return apperrors.NewConflict("Assignee is not active", map[string]any{
				"agent_id": agentID,
			})
		}

		oldAssignee := ""
		if ticket.AssignedTo != nil {
			oldAssignee = *ticket.AssignedTo
		}
		oldStatus := ticket.Status

		ticket.AssignedTo = &agent.ID
		if ticket.Status == domain.TicketStatusOpen {
			ticket.Status = domain.TicketStatusInProgress
		}
		ticket.UpdatedAt = s.clock.Now()
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return err
		}

		if oldAssignee != agent.ID {
			if err := s.writeHistory(ctx, repos, ticket.ID, actor, domain.HistoryFieldAssignedTo, oldAssignee, agent.ID); err != nil {
				return err
			}
		}
		if oldStatus != ticket.Status {
			return s.writeHistory(ctx, repos, ticket.ID, actor, domain.HistoryFieldStatus, string(oldStatus), string(ticket.Status))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}
