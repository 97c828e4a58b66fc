// Package roster answers which agents should hear about new tickets.
package roster

import (
	"context"
	"fmt"

	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/repository"
)

// Provider lists the users currently on duty as agents.
type Provider interface {
	ActiveAgents(ctx context.Context) ([]string, error)
}

type repositoryProvider struct {
	users repository.UserRepository
}

// NewRepositoryProvider reads the roster straight from the user store.
func NewRepositoryProvider(users repository.UserRepository) Provider {
	return &repositoryProvider{users: users}
}

func (p *repositoryProvider) ActiveAgents(ctx context.Context) ([]string, error) {
	agents, err := p.users.ListActiveByRole(ctx, domain.RoleAgent)
	if err != nil {
		return nil, fmt.Errorf("list active agents: %w", err)
	}
	ids := make([]string, 0, len(agents))
	for _, agent := range agents {
		ids = append(ids, agent.ID)
	}
	return ids, nil
}
