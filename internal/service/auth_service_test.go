package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-workflow/internal/auth"
	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/repository/memory"
	apperrors "github.com/spec-kit/ticket-workflow/pkg/util"
)

func TestAuthServiceRegisterAndIssue(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	tokens := auth.NewTokenManager("secret", 10)
	svc := NewAuthService(AuthDependencies{UserRepo: store.Repos().Users, TokenManager: tokens})

	user, err := svc.RegisterUser(ctx, " Agent@Example.com ", "Agent Smith", domain.RoleAgent)
	require.NoError(t, err)
	assert.Equal(t, "agent@example.com", user.Email)
	assert.True(t, user.Active)

	_, err = svc.RegisterUser(ctx, "agent@example.com", "Twin", domain.RoleAgent)
	requireCode(t, err, apperrors.CodeConflict)

	_, err = svc.RegisterUser(ctx, "not-an-email", "", "superuser")
	appErr := requireCode(t, err, apperrors.CodeValidation)
	assert.Contains(t, appErr.Details, "email")
	assert.Contains(t, appErr.Details, "role")

	token, _, err := svc.IssueToken(ctx, user.ID)
	require.NoError(t, err)
	claims, err := tokens.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, domain.RoleAgent, claims.Role)

	_, _, err = svc.IssueToken(ctx, "ghost")
	requireCode(t, err, apperrors.CodeNotFound)
}
