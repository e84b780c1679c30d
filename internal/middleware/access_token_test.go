package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/member-auth-api/internal/models"
	appErrors "github.com/noah-isme/member-auth-api/pkg/errors"
)

type stubVerifier struct {
	claims *models.AuthToken
	err    error
	seen   string
}

func (s *stubVerifier) VerifyAccess(raw string) (*models.AuthToken, error) {
	s.seen = raw
	return s.claims, s.err
}

func newAccessRouter(verifier accessVerifier) *gin.Engine {
	router := gin.New()
	router.GET("/", AccessToken(verifier), func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.Username)
	})
	return router
}

func TestAccessTokenAcceptsValidCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	verifier := &stubVerifier{claims: &models.AuthToken{Username: "alice01", Type: models.TokenTypeAccess}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "token-value"})
	recorder := httptest.NewRecorder()
	newAccessRouter(verifier).ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if recorder.Body.String() != "alice01" {
		t.Fatalf("unexpected body: %s", recorder.Body.String())
	}
	if verifier.seen != "token-value" {
		t.Fatalf("verifier saw %q", verifier.seen)
	}
}

func TestAccessTokenRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("missing cookie", func(t *testing.T) {
		verifier := &stubVerifier{}
		recorder := httptest.NewRecorder()
		newAccessRouter(verifier).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("unexpected status: %d", recorder.Code)
		}
		if verifier.seen != "" {
			t.Fatalf("verifier should not be called")
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		verifier := &stubVerifier{err: appErrors.ErrAuthentication}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "forged"})
		recorder := httptest.NewRecorder()
		newAccessRouter(verifier).ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("unexpected status: %d", recorder.Code)
		}
	})
}

func TestCurrentUserWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if CurrentUser(c) != nil {
		t.Fatalf("expected nil claims")
	}

	c.Set(ContextUserKey, "not-claims")
	if CurrentUser(c) != nil {
		t.Fatalf("expected nil claims for foreign value")
	}
}

func TestAllowedMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AllowedMethods(DefaultAllowedMethods...))
	router.Any("/", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	cases := map[string]int{
		http.MethodGet:     http.StatusNoContent,
		http.MethodPost:    http.StatusNoContent,
		http.MethodPut:     http.StatusNoContent,
		http.MethodDelete:  http.StatusNoContent,
		http.MethodHead:    http.StatusNoContent,
		http.MethodOptions: http.StatusNoContent,
		http.MethodPatch:   http.StatusMethodNotAllowed,
		http.MethodTrace:   http.StatusMethodNotAllowed,
	}
	for method, want := range cases {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(method, "/", nil))
		if recorder.Code != want {
			t.Fatalf("%s: expected %d, got %d", method, want, recorder.Code)
		}
	}
}
