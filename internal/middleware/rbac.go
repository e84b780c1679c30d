package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/member-auth-api/pkg/errors"
	"github.com/noah-isme/member-auth-api/pkg/response"
)

// AccessScope is how much of a member resource the caller may see.
type AccessScope int

const (
	ScopePublic AccessScope = iota
	ScopeFull
)

// ContextScopeKey is the gin context key storing the caller's AccessScope.
const ContextScopeKey = "accessScope"

// RBAC grants ScopeFull to admins and to the member named by the ownerParam
// route parameter; everyone else gets ScopePublic. It must run after
// AccessToken.
func RBAC(ownerParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.ErrAuthentication)
			return
		}

		scope := ScopePublic
		if claims.IsAdmin() || (c.Param(ownerParam) != "" && c.Param(ownerParam) == claims.Username) {
			scope = ScopeFull
		}

		c.Set(ContextScopeKey, scope)
		c.Next()
	}
}

// Scope returns the AccessScope stored by RBAC, ScopePublic when absent.
func Scope(c *gin.Context) AccessScope {
	if value, exists := c.Get(ContextScopeKey); exists {
		if scope, ok := value.(AccessScope); ok {
			return scope
		}
	}
	return ScopePublic
}
