package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-workflow/internal/bootstrap"
	"github.com/spec-kit/ticket-workflow/internal/domain"
)

// UserCmd manages users.
func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	create := &cobra.Command{
		Use:   "create [email]",
		Short: "Create an active user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			role, _ := cmd.Flags().GetString("role")
			return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				user, err := c.Auth.RegisterUser(ctx, args[0], name, domain.Role(role))
				if err != nil {
					return fmt.Errorf("failed to create user: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", user.Role, user.ID, user.Email)
				return nil
			})
		},
	}
	create.Flags().String("name", "", "display name")
	create.Flags().String("role", string(domain.RoleClient), "client, agent or admin")
	cmd.AddCommand(create)
	return cmd
}

// TokenCmd issues bearer tokens for existing users.
func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage access tokens",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "issue [user-id]",
		Short: "Issue a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				token, expiresAt, err := c.Auth.IssueToken(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to issue token: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
				return nil
			})
		},
	})
	return cmd
}
