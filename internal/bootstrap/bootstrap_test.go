package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-workflow/internal/config"
	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/repository/memory"
	"github.com/spec-kit/ticket-workflow/internal/service"
)

func TestNewFallsBackToMemory(t *testing.T) {
	cfg := &config.Config{
		Auth:   config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 5},
		Outbox: config.OutboxConfig{BatchSize: 10, Workers: 1, MaxAttempts: 3, BackoffBaseSeconds: 1},
	}
	c, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &memory.Store{}, c.Store)
	assert.False(t, c.Redis.Enabled())
	assert.NotNil(t, c.OutboxWorker())

	ctx := context.Background()
	agent, err := c.Auth.RegisterUser(ctx, "agent@example.com", "Agent", domain.RoleAgent)
	require.NoError(t, err)
	client, err := c.Auth.RegisterUser(ctx, "client@example.com", "Client", domain.RoleClient)
	require.NoError(t, err)

	_, err = c.Workflow.CreateTicket(ctx, client.Actor(), service.CreateTicketInput{Title: "Mailbox full"})
	require.NoError(t, err)

	sent, err := c.Outbox.ProcessBatch(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	list, err := c.Outbox.ListForRecipient(ctx, agent.Actor(), 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationStatusSent, list[0].Status)
}
