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

// UserHandler handles member sign-up and profile reads.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// Create godoc
// @Summary Sign up
// @Description Register a new unverified member
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.NewUserRequest true "Sign-up payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /user [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req models.NewUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid user payload"))
		return
	}

	res, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// Detail godoc
// @Summary Member profile
// @Description Admins and the account owner get the full profile, other members the public view
// @Tags Users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /user/{username} [get]
func (h *UserHandler) Detail(c *gin.Context) {
	res, err := h.service.Detail(c.Request.Context(), c.Param("username"), middleware.Scope(c) == middleware.ScopeFull)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}
