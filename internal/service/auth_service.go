package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/member-auth-api/internal/models"
	"github.com/noah-isme/member-auth-api/internal/repository"
	appErrors "github.com/noah-isme/member-auth-api/pkg/errors"
)

// Revocation reasons reported to metrics.
const (
	revokeReasonLogout         = "logout"
	revokeReasonLogoutOthers   = "logout_others"
	revokeReasonPasswordChange = "password_change"
	revokeReasonRotation       = "rotation"
)

const registryOpRevokeOthers = "revoke_others"

type sessionRegistry interface {
	Key(username, token string) string
	Put(ctx context.Context, username, token string, ttl time.Duration) error
	Exists(ctx context.Context, username, token string) (bool, error)
	TTL(ctx context.Context, username, token string) (time.Duration, error)
	Scan(ctx context.Context, username string) ([]string, error)
	Delete(ctx context.Context, keys ...string) error
}

type auditRecorder interface {
	Record(entry models.AuditLog)
}

// AuthServiceParams groups constructor dependencies.
type AuthServiceParams struct {
	Codec    *TokenCodec
	Sessions sessionRegistry
	Users    *UserGate
	Audit    auditRecorder
	Metrics  *MetricsService
	Logger   *zap.Logger
	Clock    func() time.Time
}

// AuthService manages the session lifecycle: login, refresh verification
// with rotation, single and bulk revocation, renewal and password change.
type AuthService struct {
	codec    *TokenCodec
	sessions sessionRegistry
	users    *UserGate
	audit    auditRecorder
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(params AuthServiceParams) *AuthService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		codec:    params.Codec,
		sessions: params.Sessions,
		users:    params.Users,
		audit:    params.Audit,
		metrics:  params.Metrics,
		logger:   logger,
		now:      now,
	}
}

// Login authenticates a user and opens a new session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenPair, error) {
	if !ValidUsername(req.Username) || !ValidPassword(req.Username, req.Password) {
		s.metrics.RecordLogin(LoginResultRejected)
		return nil, appErrors.ErrAuthentication
	}

	user, err := s.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		s.metrics.RecordLogin(loginResult(err))
		return nil, err
	}

	accessToken, err := s.codec.MintAccess(user.Username, user.Status, user.Admin)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}
	refreshToken, err := s.codec.MintRefresh(user.Username, user.Status, user.Admin)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create refresh token")
	}

	if err := s.sessions.Put(ctx, user.Username, refreshToken, RefreshTokenTTL); err != nil {
		s.logger.Error("failed to register session", zap.String("username", user.Username), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to register session")
	}

	s.metrics.RecordLogin(LoginResultSuccess)
	s.record(models.AuditLog{
		Username:  user.Username,
		Action:    models.AuditActionLogin,
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	})

	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// VerifyAccess validates an access token. Access tokens are stateless and
// never consult the registry.
func (s *AuthService) VerifyAccess(raw string) (*models.AuthToken, error) {
	verified, err := s.codec.Verify(raw, models.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return &verified.Claims, nil
}

// VerifyRefresh validates a refresh token against the registry and rotates
// it once less than RotationThreshold of its lifetime remains. The
// replacement carries the user's live status and admin flag.
func (s *AuthService) VerifyRefresh(ctx context.Context, raw string) (*models.RefreshVerification, error) {
	verified, err := s.checkRefresh(ctx, raw)
	if err != nil {
		return nil, err
	}

	result := &models.RefreshVerification{Claims: verified.Claims, RefreshToken: raw}
	if !s.needsRotation(verified) {
		return result, nil
	}

	user, err := s.users.Lookup(ctx, verified.Claims.Username)
	if err != nil {
		return nil, err
	}
	rotated, err := s.rotate(ctx, user, raw)
	if err != nil {
		return nil, err
	}

	result.RefreshToken = rotated
	result.Rotated = true
	return result, nil
}

// Logout ends the session identified by the refresh token. A second logout
// with the same token fails because its registry entry is gone.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	verified, err := s.VerifyRefresh(ctx, raw)
	if err != nil {
		return err
	}
	username := verified.Claims.Username

	if err := s.sessions.Delete(ctx, s.sessions.Key(username, verified.RefreshToken)); err != nil {
		s.logger.Error("failed to delete session", zap.String("username", username), zap.Error(err))
		return appErrors.Internal(err, "failed to delete session")
	}

	s.metrics.RecordRevocations(revokeReasonLogout, 1)
	s.record(models.AuditLog{Username: username, Action: models.AuditActionLogout})
	return nil
}

// LogoutOthers revokes every session of the caller except the current one.
// A near-expiry token is rotated after the sweep.
func (s *AuthService) LogoutOthers(ctx context.Context, raw string) (*models.SessionResult, error) {
	verified, err := s.checkRefresh(ctx, raw)
	if err != nil {
		return nil, err
	}
	username := verified.Claims.Username

	var user *models.User
	if s.needsRotation(verified) {
		if user, err = s.users.Lookup(ctx, username); err != nil {
			return nil, err
		}
	}

	revoked, err := s.revokeOthers(ctx, username, raw, revokeReasonLogoutOthers)
	if err != nil {
		return nil, err
	}
	s.record(models.AuditLog{Username: username, Action: models.AuditActionLogoutOthers, Detail: revokedDetail(revoked)})

	return s.finishSession(ctx, user, raw)
}

// Renew issues a fresh access token from a refresh token, using the user's
// live status. The refresh token is only rotated once the user has passed
// the status gate, so a rejected renewal leaves the presented token valid.
func (s *AuthService) Renew(ctx context.Context, raw string) (*models.RenewResult, error) {
	verified, err := s.checkRefresh(ctx, raw)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Current(ctx, verified.Claims.Username)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.codec.MintAccess(user.Username, user.Status, user.Admin)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	res := &models.RenewResult{AccessToken: accessToken, RefreshToken: raw}
	if s.needsRotation(verified) {
		if res.RefreshToken, err = s.rotate(ctx, user, raw); err != nil {
			return nil, err
		}
		res.Rotated = true
	}
	return res, nil
}

// ChangePassword replaces the caller's password and revokes all of the
// caller's other sessions. Every check runs before the session is touched:
// a rejected request leaves the presented token and the other sessions as
// they were.
func (s *AuthService) ChangePassword(ctx context.Context, raw string, req models.ChangePasswordRequest) (*models.SessionResult, error) {
	verified, err := s.checkRefresh(ctx, raw)
	if err != nil {
		return nil, err
	}
	username := verified.Claims.Username
	rotationDue := s.needsRotation(verified)

	if req.CurrentPassword == req.NewPassword {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "new password must differ from the current password")
	}
	if !ValidPassword(username, req.CurrentPassword) || !ValidPassword(username, req.NewPassword) {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "password does not satisfy the password rules")
	}

	user, err := s.users.Current(ctx, username)
	if err != nil {
		return nil, err
	}
	if !s.users.CheckPassword(user, req.CurrentPassword) {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "current password does not match")
	}

	if err := s.users.UpdatePassword(ctx, user, req.NewPassword); err != nil {
		return nil, err
	}

	revoked, err := s.revokeOthers(ctx, username, raw, revokeReasonPasswordChange)
	if err != nil {
		return nil, err
	}
	s.record(models.AuditLog{Username: username, Action: models.AuditActionPasswordChange, Detail: revokedDetail(revoked)})

	if !rotationDue {
		user = nil
	}
	return s.finishSession(ctx, user, raw)
}

// checkRefresh verifies the token and its registry entry without rotating.
func (s *AuthService) checkRefresh(ctx context.Context, raw string) (*VerifiedToken, error) {
	verified, err := s.codec.Verify(raw, models.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	username := verified.Claims.Username

	ok, err := s.sessions.Exists(ctx, username, raw)
	if err != nil {
		s.logger.Error("failed to check session", zap.String("username", username), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to check session")
	}
	if !ok {
		return nil, appErrors.ErrAuthentication
	}
	return verified, nil
}

func (s *AuthService) needsRotation(verified *VerifiedToken) bool {
	return verified.ExpiresAt.Sub(s.now()) < RotationThreshold
}

// rotate registers a replacement for raw minted from user, then drops raw.
func (s *AuthService) rotate(ctx context.Context, user *models.User, raw string) (string, error) {
	username := user.Username

	rotated, err := s.codec.MintRefresh(username, user.Status, user.Admin)
	if err != nil {
		return "", appErrors.Internal(err, "failed to create refresh token")
	}
	if err := s.sessions.Put(ctx, username, rotated, RefreshTokenTTL); err != nil {
		s.logger.Error("failed to register rotated session", zap.String("username", username), zap.Error(err))
		return "", appErrors.Internal(err, "failed to register session")
	}
	if err := s.sessions.Delete(ctx, s.sessions.Key(username, raw)); err != nil {
		s.logger.Error("failed to drop rotated session", zap.String("username", username), zap.Error(err))
		return "", appErrors.Internal(err, "failed to drop session")
	}

	s.metrics.RecordRotation()
	s.metrics.RecordRevocations(revokeReasonRotation, 1)
	s.record(models.AuditLog{Username: username, Action: models.AuditActionRotate})
	return rotated, nil
}

// finishSession rotates raw when user is set and reports the token the
// caller should keep.
func (s *AuthService) finishSession(ctx context.Context, user *models.User, raw string) (*models.SessionResult, error) {
	if user == nil {
		return &models.SessionResult{RefreshToken: raw}, nil
	}
	rotated, err := s.rotate(ctx, user, raw)
	if err != nil {
		return nil, err
	}
	return &models.SessionResult{RefreshToken: rotated, Rotated: true}, nil
}

// revokeOthers deletes every registry entry of username and then restores
// the entry for token with the lifetime it had before the sweep. The TTL
// must be read first and the entry restored last, or the sweep revokes the
// caller too. The sequence is not atomic: a session created concurrently
// may survive or be revoked.
func (s *AuthService) revokeOthers(ctx context.Context, username, token, reason string) (int, error) {
	started := time.Now()

	ttl, err := s.sessions.TTL(ctx, username, token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return 0, appErrors.ErrAuthentication
		}
		s.logger.Error("failed to read session ttl", zap.String("username", username), zap.Error(err))
		return 0, appErrors.Internal(err, "failed to read session")
	}

	keys, err := s.sessions.Scan(ctx, username)
	if err != nil {
		s.logger.Error("failed to scan sessions", zap.String("username", username), zap.Error(err))
		return 0, appErrors.Internal(err, "failed to list sessions")
	}

	if err := s.sessions.Delete(ctx, keys...); err != nil {
		s.logger.Error("failed to delete sessions", zap.String("username", username), zap.Error(err))
		return 0, appErrors.Internal(err, "failed to delete sessions")
	}

	if err := s.sessions.Put(ctx, username, token, ttl); err != nil {
		s.logger.Error("failed to restore current session", zap.String("username", username), zap.Error(err))
		return 0, appErrors.Internal(err, "failed to restore session")
	}

	current := s.sessions.Key(username, token)
	revoked := 0
	for _, key := range keys {
		if key != current {
			revoked++
		}
	}

	s.metrics.ObserveRegistry(registryOpRevokeOthers, time.Since(started))
	s.metrics.RecordRevocations(reason, revoked)
	s.logger.Info("revoked other sessions", zap.String("username", username), zap.Int("revoked", revoked))
	return revoked, nil
}

func (s *AuthService) record(entry models.AuditLog) {
	if s.audit == nil {
		return
	}
	entry.CreatedAt = s.now().UTC()
	s.audit.Record(entry)
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, appErrors.ErrSuspendedUser):
		return LoginResultSuspended
	case errors.Is(err, appErrors.ErrAuthentication):
		return LoginResultRejected
	default:
		return LoginResultError
	}
}

func revokedDetail(n int) []byte {
	detail, _ := json.Marshal(map[string]int{"revoked": n})
	return detail
}
