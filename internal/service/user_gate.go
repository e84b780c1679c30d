package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/member-auth-api/internal/models"
	appErrors "github.com/noah-isme/member-auth-api/pkg/errors"
	"github.com/noah-isme/member-auth-api/pkg/hash"
)

type gateUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}

// PasswordHasher computes hash(id, salt, secret).
type PasswordHasher interface {
	Hash(id, salt, secret string) string
}

// UserGate reads live account state from the user store. Suspended accounts
// are disclosed; deleted and unknown accounts are folded into
// ErrAuthentication.
type UserGate struct {
	repo   gateUserRepository
	hasher PasswordHasher
	logger *zap.Logger
}

// NewUserGate constructs a UserGate.
func NewUserGate(repo gateUserRepository, hasher PasswordHasher, logger *zap.Logger) *UserGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserGate{repo: repo, hasher: hasher, logger: logger}
}

// Authenticate checks credentials against the stored hash.
func (g *UserGate) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := g.Current(ctx, username)
	if err != nil {
		return nil, err
	}
	if !g.CheckPassword(user, password) {
		return nil, appErrors.ErrAuthentication
	}
	return user, nil
}

// Current returns the user only when it may still hold a session.
func (g *UserGate) Current(ctx context.Context, username string) (*models.User, error) {
	user, err := g.Lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.Status == models.UserStatusSuspended {
		return nil, appErrors.ErrSuspendedUser
	}
	return user, nil
}

// Lookup returns the live user record. Suspended users are returned as is.
func (g *UserGate) Lookup(ctx context.Context, username string) (*models.User, error) {
	user, err := g.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAuthentication
		}
		g.logger.Error("failed to read user", zap.String("username", username), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to read user")
	}
	if user.Status == models.UserStatusDeleted {
		return nil, appErrors.ErrAuthentication
	}
	return user, nil
}

// CheckPassword reports whether password matches the stored hash.
func (g *UserGate) CheckPassword(user *models.User, password string) bool {
	return hash.Equal(g.hasher.Hash(user.Username, user.Salt(), password), user.PasswordHash)
}

// UpdatePassword hashes and stores a new password.
func (g *UserGate) UpdatePassword(ctx context.Context, user *models.User, newPassword string) error {
	digest := g.hasher.Hash(user.Username, user.Salt(), newPassword)
	if err := g.repo.UpdatePassword(ctx, user.Username, digest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrAuthentication
		}
		g.logger.Error("failed to update password", zap.String("username", user.Username), zap.Error(err))
		return appErrors.Internal(err, "failed to update password")
	}
	user.PasswordHash = digest
	return nil
}
