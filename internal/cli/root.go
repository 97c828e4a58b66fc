// Package cli implements the ticketctl operator commands.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-workflow/internal/bootstrap"
	"github.com/spec-kit/ticket-workflow/internal/config"
	"github.com/spec-kit/ticket-workflow/internal/observability"
)

// loadConfig is swapped in tests.
var loadConfig = config.Load

// withContainer builds the service graph for the duration of one command.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *bootstrap.Container) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if c.Postgres.Pool == nil {
		logger.Warn("running against the in-memory store; changes are discarded on exit", zap.String("command", cmd.CommandPath()))
	}
	return fn(ctx, c)
}
