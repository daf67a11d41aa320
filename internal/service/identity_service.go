package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/complaintrack/complaint-service/internal/auth"
	"github.com/complaintrack/complaint-service/internal/config"
	"github.com/complaintrack/complaint-service/internal/domain"
	"github.com/complaintrack/complaint-service/internal/repository"
	"github.com/complaintrack/complaint-service/pkg/util/errorutil"
)

// IdentityService is the identity collaborator: it registers accounts,
// authenticates them, and answers role-membership queries. The ticket engine
// only ever consumes resolved user ids from it.
type IdentityService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	cfg    config.AuthConfig
	logger *zap.Logger
}

// NewIdentityService constructs the service.
func NewIdentityService(users repository.UserRepository, tokens *auth.TokenManager, cfg config.AuthConfig, logger *zap.Logger) *IdentityService {
	return &IdentityService{users: users, tokens: tokens, cfg: cfg, logger: logger}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *IdentityService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Register creates an end-user account.
func (s *IdentityService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || len(password) < 8 {
		return nil, errorutil.NewValidationError("name, email, and a password of at least 8 characters are required", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, errorutil.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("lookup user by email", zap.Error(err))
		return nil, errorutil.NewStorageError("failed to look up user", err)
	}

	hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, errorutil.ToDomainError(err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Roles:        []domain.Role{domain.RoleUser},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("create user", zap.Error(err))
		return nil, errorutil.NewStorageError("failed to create user", err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login authenticates by email and password and issues a bearer token.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, errorutil.NewUnauthorized("invalid credentials")
		}
		s.logger.Error("lookup user by email", zap.Error(err))
		return nil, "", time.Time{}, errorutil.NewStorageError("failed to look up user", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, errorutil.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, errorutil.ToDomainError(err)
	}
	return user, token, expiresAt, nil
}

// GetUser resolves a user id to its projection.
func (s *IdentityService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorutil.NewNotFound("user", map[string]any{"id": id})
		}
		s.logger.Error("load user", zap.String("user_id", id), zap.Error(err))
		return nil, errorutil.NewStorageError("failed to load user", err)
	}
	return user, nil
}

// UsersInRole lists accounts holding a role; the assign flow uses it to
// populate the agent selection list.
func (s *IdentityService) UsersInRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		s.logger.Error("list users by role", zap.String("role", string(role)), zap.Error(err))
		return nil, errorutil.NewStorageError("failed to list users", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// EnsureAdmin seeds a default administrator when the user table is empty.
func (s *IdentityService) EnsureAdmin(ctx context.Context) error {
	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(s.cfg.SeedAdminPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.User{
		ID:           uuid.NewString(),
		Name:         "Administrator",
		Email:        strings.ToLower(s.cfg.SeedAdminEmail),
		PasswordHash: hash,
		Roles:        []domain.Role{domain.RoleAdmin, domain.RoleAgent},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("seeded default admin", zap.String("email", admin.Email))
	return nil
}
