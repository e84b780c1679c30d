package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/member-auth-api/internal/middleware"
	"github.com/noah-isme/member-auth-api/internal/models"
	"github.com/noah-isme/member-auth-api/internal/service"
	appErrors "github.com/noah-isme/member-auth-api/pkg/errors"
	"github.com/noah-isme/member-auth-api/pkg/response"
)

// CookieConfig controls the attributes of the token cookies.
type CookieConfig struct {
	Domain      string
	Secure      bool
	RefreshPath string
}

// AuthHandler wires HTTP endpoints to the auth service. Tokens travel only
// in httpOnly cookies.
type AuthHandler struct {
	service *service.AuthService
	cookies CookieConfig
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService, cookies CookieConfig) *AuthHandler {
	if cookies.RefreshPath == "" {
		cookies.RefreshPath = "/auth"
	}
	return &AuthHandler{service: svc, cookies: cookies}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by username and password; tokens are set as cookies
// @Tags Authentication
// @Accept json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	pair, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setAccessCookie(c, pair.AccessToken)
	h.setRefreshCookie(c, pair.RefreshToken)
	response.OK(c)
}

// Logout godoc
// @Summary Logout current session
// @Description Revoke the refresh token cookie and clear both token cookies
// @Tags Authentication
// @Success 200
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [delete]
func (h *AuthHandler) Logout(c *gin.Context) {
	raw, ok := h.refreshCookie(c)
	if !ok {
		return
	}

	if err := h.service.Logout(c.Request.Context(), raw); err != nil {
		response.Error(c, err)
		return
	}

	h.clearCookies(c)
	response.OK(c)
}

// LogoutOthers godoc
// @Summary Logout other sessions
// @Description Revoke every session of the caller except the current one
// @Tags Authentication
// @Success 200
// @Failure 401 {object} response.Envelope
// @Router /auth/sessions [delete]
func (h *AuthHandler) LogoutOthers(c *gin.Context) {
	raw, ok := h.refreshCookie(c)
	if !ok {
		return
	}

	res, err := h.service.LogoutOthers(c.Request.Context(), raw)
	if err != nil {
		response.Error(c, err)
		return
	}

	if res.Rotated {
		h.setRefreshCookie(c, res.RefreshToken)
	}
	response.OK(c)
}

// Renew godoc
// @Summary Renew access token
// @Description Issue a new access token cookie from the refresh token cookie
// @Tags Authentication
// @Success 200
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/renew [get]
func (h *AuthHandler) Renew(c *gin.Context) {
	raw, ok := h.refreshCookie(c)
	if !ok {
		return
	}

	res, err := h.service.Renew(c.Request.Context(), raw)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setAccessCookie(c, res.AccessToken)
	if res.Rotated {
		h.setRefreshCookie(c, res.RefreshToken)
	}
	response.OK(c)
}

// ChangePassword godoc
// @Summary Change password
// @Description Change the caller's password and revoke the caller's other sessions
// @Tags Authentication
// @Accept json
// @Param payload body models.ChangePasswordRequest true "Change password payload"
// @Success 200
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	raw, ok := h.refreshCookie(c)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid change password payload"))
		return
	}

	res, err := h.service.ChangePassword(c.Request.Context(), raw, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if res.Rotated {
		h.setRefreshCookie(c, res.RefreshToken)
	}
	response.OK(c)
}

// Me godoc
// @Summary Current user
// @Description Return the identity carried by the access token cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthentication)
		return
	}
	response.JSON(c, http.StatusOK, models.MeResponse{
		Username: claims.Username,
		Status:   claims.Status,
		Admin:    claims.IsAdmin(),
	})
}

func (h *AuthHandler) refreshCookie(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(middleware.RefreshTokenCookie)
	if err != nil || raw == "" {
		response.Error(c, appErrors.ErrAuthentication)
		return "", false
	}
	return raw, true
}

func (h *AuthHandler) setAccessCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AccessTokenCookie, token, int(service.AccessTokenTTL.Seconds()), "/", h.cookies.Domain, h.cookies.Secure, true)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.RefreshTokenCookie, token, int(service.RefreshTokenTTL.Seconds()), h.cookies.RefreshPath, h.cookies.Domain, h.cookies.Secure, true)
}

func (h *AuthHandler) clearCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, h.cookies.RefreshPath, h.cookies.Domain, h.cookies.Secure, true)
}
