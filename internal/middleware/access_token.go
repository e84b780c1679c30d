package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/member-auth-api/internal/models"
	appErrors "github.com/noah-isme/member-auth-api/pkg/errors"
	"github.com/noah-isme/member-auth-api/pkg/response"
)

// Cookie names carrying the session tokens.
const (
	AccessTokenCookie  = "X-ACCESS-TOKEN"
	RefreshTokenCookie = "X-REFRESH-TOKEN"
)

// ContextUserKey is the gin context key storing access token claims.
const ContextUserKey = "currentUser"

type accessVerifier interface {
	VerifyAccess(raw string) (*models.AuthToken, error)
}

// AccessToken protects routes by requiring a valid access token cookie.
func AccessToken(verifier accessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(AccessTokenCookie)
		if err != nil || raw == "" {
			response.Error(c, appErrors.ErrAuthentication)
			return
		}

		claims, err := verifier.VerifyAccess(raw)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// CurrentUser returns the claims stored by AccessToken.
func CurrentUser(c *gin.Context) *models.AuthToken {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.AuthToken)
	if !ok {
		return nil
	}
	return claims
}
