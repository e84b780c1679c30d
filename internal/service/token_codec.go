package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/member-auth-api/internal/models"
	appErrors "github.com/noah-isme/member-auth-api/pkg/errors"
)

// Token lifetimes and the refresh rotation threshold.
const (
	AccessTokenTTL    = 15 * time.Minute
	RefreshTokenTTL   = 120 * time.Minute
	RotationThreshold = 20 * time.Minute
)

const signingAlgorithm = "HS512"

var errEmptySigningKey = errors.New("signing key is empty")

type tokenClaims struct {
	models.AuthToken
	jwt.RegisteredClaims
}

// VerifiedToken is a successfully verified token. Claims holds identity only;
// ExpiresAt is kept apart so callers can reason about remaining lifetime.
type VerifiedToken struct {
	Claims    models.AuthToken
	ExpiresAt time.Time
}

// TokenCodec mints and verifies HS512 signed access and refresh tokens. Each
// token class has its own key.
type TokenCodec struct {
	accessKey  []byte
	refreshKey []byte
	now        func() time.Time
}

// NewTokenCodec constructs a TokenCodec. A nil clock defaults to time.Now.
func NewTokenCodec(accessKey, refreshKey string, now func() time.Time) *TokenCodec {
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{accessKey: []byte(accessKey), refreshKey: []byte(refreshKey), now: now}
}

// MintAccess issues a 15 minute access token.
func (c *TokenCodec) MintAccess(username string, status models.UserStatus, admin bool) (string, error) {
	return c.mint(models.TokenTypeAccess, username, status, admin)
}

// MintRefresh issues a 120 minute refresh token. Registering it is the
// caller's job.
func (c *TokenCodec) MintRefresh(username string, status models.UserStatus, admin bool) (string, error) {
	return c.mint(models.TokenTypeRefresh, username, status, admin)
}

// Verify checks signature, expiry and type. Every failure is reported as
// ErrAuthentication.
func (c *TokenCodec) Verify(raw string, typ models.TokenType) (*VerifiedToken, error) {
	if raw == "" {
		return nil, appErrors.ErrAuthentication
	}

	key, ttl := c.keyFor(typ)
	if ttl == 0 {
		return nil, appErrors.ErrAuthentication
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{signingAlgorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrAuthentication.Code, appErrors.ErrAuthentication.Status, appErrors.ErrAuthentication.Message)
	}

	if claims.Type != typ || claims.Username == "" {
		return nil, appErrors.ErrAuthentication
	}

	return &VerifiedToken{Claims: claims.AuthToken, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (c *TokenCodec) mint(typ models.TokenType, username string, status models.UserStatus, admin bool) (string, error) {
	key, ttl := c.keyFor(typ)
	if len(key) == 0 {
		return "", errEmptySigningKey
	}

	issuedAt := c.now()
	claims := tokenClaims{
		AuthToken: models.AuthToken{
			Username: username,
			Type:     typ,
			Status:   status,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}
	if admin {
		flag := true
		claims.Admin = &flag
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(key)
}

func (c *TokenCodec) keyFor(typ models.TokenType) ([]byte, time.Duration) {
	switch typ {
	case models.TokenTypeAccess:
		return c.accessKey, AccessTokenTTL
	case models.TokenTypeRefresh:
		return c.refreshKey, RefreshTokenTTL
	default:
		return nil, 0
	}
}
