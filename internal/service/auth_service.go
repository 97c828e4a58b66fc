package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/spec-kit/ticket-workflow/internal/auth"
	"github.com/spec-kit/ticket-workflow/internal/clock"
	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/repository"
	apperrors "github.com/spec-kit/ticket-workflow/pkg/util"
)

// AuthService provisions users and issues the bearer tokens the API accepts.
// Credential checks belong to an external identity provider.
type AuthService struct {
	users    repository.UserRepository
	tokenMgr *auth.TokenManager
	clock    clock.Clock
	ids      clock.IDGenerator
}

// AuthDependencies encapsulates requirements for auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	Clock        clock.Clock
	IDs          clock.IDGenerator
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	s := &AuthService{
		users:    deps.UserRepo,
		tokenMgr: deps.TokenManager,
		clock:    deps.Clock,
		ids:      deps.IDs,
	}
	if s.clock == nil {
		s.clock = clock.SystemClock{}
	}
	if s.ids == nil {
		s.ids = clock.UUIDGenerator{}
	}
	return s
}

// RegisterUser creates an active user with the given role.
func (s *AuthService) RegisterUser(ctx context.Context, email, name string, role domain.Role) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	details := map[string]any{}
	if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = []string{"Enter a valid email address."}
	}
	if !role.Valid() {
		details["role"] = []string{"\"" + string(role) + "\" is not a valid choice."}
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("Invalid input", details)
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:        s.ids.NewID(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("Email already registered", map[string]any{"email": email})
		}
		return nil, err
	}
	return user, nil
}

// IssueToken signs a token for an existing active user.
func (s *AuthService) IssueToken(ctx context.Context, userID string) (string, time.Time, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", time.Time{}, notFoundOr(err, "User", "user_id", userID)
	}
	if !user.Active {
		return "", time.Time{}, apperrors.NewConflict("User is not active", map[string]any{"user_id": userID})
	}
	return s.tokenMgr.GenerateToken(user.ID, user.Role)
}
