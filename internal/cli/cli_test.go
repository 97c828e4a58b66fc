package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-workflow/internal/config"
)

func useMemoryConfig(t *testing.T) {
	t.Helper()
	prev := loadConfig
	loadConfig = func() (*config.Config, error) {
		return &config.Config{
			Logger: config.LoggerConfig{Level: "error"},
			Auth:   config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 5},
			Outbox: config.OutboxConfig{BatchSize: 10, Workers: 1, MaxAttempts: 3},
		}, nil
	}
	t.Cleanup(func() { loadConfig = prev })
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestOutboxProcess(t *testing.T) {
	useMemoryConfig(t)

	out, err := execute(t, OutboxCmd(), "process", "--limit", "5")
	require.NoError(t, err)
	assert.Equal(t, "Processed: 0 notifications\n", out)

	_, err = execute(t, OutboxCmd(), "process", "--limit", "0")
	assert.Error(t, err)
}

func TestUserCreate(t *testing.T) {
	useMemoryConfig(t)

	out, err := execute(t, UserCmd(), "create", "Agent@Example.com", "--role", "agent", "--name", "Ann")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Created agent "), out)
	assert.Contains(t, out, "agent@example.com")

	_, err = execute(t, UserCmd(), "create", "someone@example.com", "--role", "owner")
	assert.Error(t, err)
}

func TestTokenIssueUnknownUser(t *testing.T) {
	useMemoryConfig(t)

	_, err := execute(t, TokenCmd(), "issue", "nobody")
	assert.Error(t, err)
}

func TestMigrateRequiresDSN(t *testing.T) {
	useMemoryConfig(t)

	_, err := execute(t, MigrateCmd(), "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_DSN")
}
