// Package router assembles the gin engine.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/member-auth-api/internal/handler"
	"github.com/noah-isme/member-auth-api/internal/middleware"
	"github.com/noah-isme/member-auth-api/internal/service"
	appErrors "github.com/noah-isme/member-auth-api/pkg/errors"
	"github.com/noah-isme/member-auth-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/member-auth-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/member-auth-api/pkg/middleware/requestid"
	"github.com/noah-isme/member-auth-api/pkg/response"
)

// Options configures the engine.
type Options struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	AuthPrefix     string
	EnableDocs     bool
	Metrics        *service.MetricsService
}

// Handlers groups the HTTP handlers and the access token verifier.
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Metrics  *handler.MetricsHandler
	Sessions *service.AuthService
}

// New builds the gin engine with every route registered.
func New(opts Options, h Handlers) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.AuthPrefix == "" {
		opts.AuthPrefix = "/auth"
	}

	binding.EnableDecoderDisallowUnknownFields = true

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.AllowedMethods(middleware.DefaultAllowedMethods...))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.ErrNotFound)
	})

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := r.Group(opts.AuthPrefix)
	{
		auth.POST("/login", h.Auth.Login)
		auth.DELETE("/logout", h.Auth.Logout)
		auth.DELETE("/sessions", h.Auth.LogoutOthers)
		auth.GET("/renew", h.Auth.Renew)
		auth.PUT("/password", h.Auth.ChangePassword)
		auth.GET("/me", middleware.AccessToken(h.Sessions), h.Auth.Me)
	}

	users := r.Group("/user")
	{
		users.POST("", h.User.Create)
		users.GET("/:username", middleware.AccessToken(h.Sessions), middleware.RBAC("username"), h.User.Detail)
	}

	return r
}
