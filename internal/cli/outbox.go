package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-workflow/internal/bootstrap"
	"github.com/spec-kit/ticket-workflow/internal/service"
)

// OutboxCmd groups notification outbox commands.
func OutboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Process the notification outbox",
	}
	cmd.AddCommand(outboxProcessCmd(), outboxRunCmd())
	return cmd
}

func outboxProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Deliver one batch of pending notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				processed, err := c.Outbox.ProcessBatch(ctx, limit)
				if err != nil {
					return fmt.Errorf("failed to process outbox: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Processed: %d notifications\n", processed)
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", service.DefaultBatchSize, "maximum notifications to claim")
	return cmd
}

func outboxRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll the outbox until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				c.OutboxWorker().Run(ctx)
				return nil
			})
		},
	}
}
