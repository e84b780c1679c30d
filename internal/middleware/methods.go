package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/member-auth-api/pkg/errors"
	"github.com/noah-isme/member-auth-api/pkg/response"
)

// DefaultAllowedMethods are the methods the API answers to.
var DefaultAllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodHead}

// AllowedMethods rejects any request whose method is not listed with 405.
// OPTIONS is let through for CORS preflight.
func AllowedMethods(methods ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(methods)+1)
	for _, m := range methods {
		allowed[m] = struct{}{}
	}
	allowed[http.MethodOptions] = struct{}{}

	return func(c *gin.Context) {
		if _, ok := allowed[c.Request.Method]; !ok {
			response.Error(c, appErrors.ErrMethodNotAllowed)
			return
		}
		c.Next()
	}
}
