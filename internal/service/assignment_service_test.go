package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-workflow/internal/domain"
	apperrors "github.com/spec-kit/ticket-workflow/pkg/util"
)

func TestClaimTicket(t *testing.T) {
	h := newHarness(t)
	client := h.user(t, "client-1", domain.RoleClient)
	agent := h.user(t, "agent-a", domain.RoleAgent)
	ticket := h.ticket(t, client, domain.TicketPriorityMedium)

	claimed, err := h.workflow.ClaimTicket(context.Background(), ticket.ID, agent)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, claimed.Status)
	require.NotNil(t, claimed.AssignedTo)
	assert.Equal(t, agent.ID, *claimed.AssignedTo)

	history := h.history(t, ticket.ID)
	require.Len(t, history, 2)
	assert.Equal(t, domain.HistoryFieldAssignedTo, history[0].Field)
	assert.Equal(t, agent.ID, history[0].NewValue)
	assert.Equal(t, domain.HistoryFieldStatus, history[1].Field)
	assert.Equal(t, "open", history[1].OldValue)
	assert.Equal(t, "in_progress", history[1].NewValue)
}

func TestClaimTicketRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.user(t, "client-1", domain.RoleClient)
	agentA := h.user(t, "agent-a", domain.RoleAgent)
	agentB := h.user(t, "agent-b", domain.RoleAgent)
	ticket := h.ticket(t, client, domain.TicketPriorityMedium)

	_, err := h.workflow.ClaimTicket(ctx, ticket.ID, client)
	requireCode(t, err, apperrors.CodePermissionDenied)

	_, err = h.workflow.ClaimTicket(ctx, "missing", agentA)
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = h.workflow.ClaimTicket(ctx, ticket.ID, agentA)
	require.NoError(t, err)
	_, err = h.workflow.ClaimTicket(ctx, ticket.ID, agentB)
	appErr := requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, agentA.ID, appErr.Details["assigned_to"])
}

func TestConcurrentClaimsHaveExactlyOneWinner(t *testing.T) {
	h := newHarness(t)
	client := h.user(t, "client-1", domain.RoleClient)
	agents := make([]domain.Actor, 8)
	for i := range agents {
		agents[i] = h.user(t, "agent-"+string(rune('a'+i)), domain.RoleAgent)
	}
	ticket := h.ticket(t, client, domain.TicketPriorityHigh)

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]error, len(agents))
	)
	for i, agent := range agents {
		wg.Add(1)
		go func(i int, agent domain.Actor) {
			defer wg.Done()
			<-start
			_, results[i] = h.workflow.ClaimTicket(context.Background(), ticket.ID, agent)
		}(i, agent)
	}
	close(start)
	wg.Wait()

	winner := ""
	for i, err := range results {
		if err == nil {
			require.Empty(t, winner, "two claims succeeded")
			winner = agents[i].ID
		}
	}
	require.NotEmpty(t, winner)

	for _, err := range results {
		if err != nil {
			appErr := requireCode(t, err, apperrors.CodeConflict)
			assert.Equal(t, winner, appErr.Details["assigned_to"])
		}
	}
	assert.Equal(t, winner, *h.reload(t, ticket.ID).AssignedTo)
	assert.Len(t, h.history(t, ticket.ID), 2)
}

func TestAssignTicketOpenTicket(t *testing.T) {
	h := newHarness(t)
	client := h.user(t, "client-1", domain.RoleClient)
	admin := h.user(t, "admin-1", domain.RoleAdmin)
	agentB := h.user(t, "agent-b", domain.RoleAgent)
	ticket := h.ticket(t, client, domain.TicketPriorityMedium)

	assigned, err := h.workflow.AssignTicket(context.Background(), ticket.ID, admin, agentB.ID)
	require.NoError(t, err)
	assert.Equal(t, agentB.ID, *assigned.AssignedTo)
	assert.Equal(t, domain.TicketStatusInProgress, assigned.Status)
	assert.Equal(t, []string{"assigned_to", "status"}, fields(h.history(t, ticket.ID)))
}

func TestReassignWritesOnlyAssigneeHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.user(t, "client-1", domain.RoleClient)
	admin := h.user(t, "admin-1", domain.RoleAdmin)
	agentA := h.user(t, "agent-a", domain.RoleAgent)
	agentB := h.user(t, "agent-b", domain.RoleAgent)
	ticket := h.ticket(t, client, domain.TicketPriorityMedium)

	_, err := h.workflow.ClaimTicket(ctx, ticket.ID, agentA)
	require.NoError(t, err)
	before := len(h.history(t, ticket.ID))

	_, err = h.workflow.AssignTicket(ctx, ticket.ID, admin, agentB.ID)
	require.NoError(t, err)

	history := h.history(t, ticket.ID)
	require.Len(t, history, before+1)
	last := history[len(history)-1]
	assert.Equal(t, domain.HistoryFieldAssignedTo, last.Field)
	assert.Equal(t, agentA.ID, last.OldValue)
	assert.Equal(t, agentB.ID, last.NewValue)
	assert.Equal(t, domain.TicketStatusInProgress, h.reload(t, ticket.ID).Status)
}

func TestAssignTicketRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.user(t, "client-1", domain.RoleClient)
	admin := h.user(t, "admin-1", domain.RoleAdmin)
	agent := h.user(t, "agent-a", domain.RoleAgent)
	ticket := h.ticket(t, client, domain.TicketPriorityMedium)

	_, err := h.workflow.AssignTicket(ctx, ticket.ID, agent, agent.ID)
	requireCode(t, err, apperrors.CodePermissionDenied)

	_, err = h.workflow.AssignTicket(ctx, "missing", admin, agent.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = h.workflow.AssignTicket(ctx, ticket.ID, admin, "nobody")
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = h.workflow.AssignTicket(ctx, ticket.ID, admin, client.ID)
	requireCode(t, err, apperrors.CodeConflict)

	assert.Nil(t, h.reload(t, ticket.ID).AssignedTo)
	assert.Empty(t, h.history(t, ticket.ID))
}
