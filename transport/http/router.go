package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/lopushok9/whatbird/core"
	"github.com/lopushok9/whatbird/service"
)

// LoginPagePath is where unauthenticated page requests are sent
const LoginPagePath = "/auth"

// RouterConfig holds the transport settings of the router
type RouterConfig struct {
	Cookies CookieConfig
	Logger  *slog.Logger
}

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	handlers := NewAuthHandlers(authService, cfg.Cookies, logger)

	router.GET("/healthz", handlers.Healthz)

	// Wallet sign-in
	api := router.Group("/api")
	{
		api.GET("/solana-auth/challenge", handlers.Challenge)
		api.POST("/solana-auth", handlers.Login(core.ChainSolana))
		api.POST("/ethereum-auth", handlers.Login(core.ChainEthereum))
		api.POST("/auth/refresh", handlers.Refresh)
		api.POST("/auth/logout", handlers.Logout)
	}

	// Protected API routes
	protected := router.Group("/api")
	protected.Use(AuthMiddleware(authService, cfg.Cookies))
	{
		protected.GET("/me", handlers.Me)
		protected.PUT("/profile", handlers.UpdateProfile)
	}

	// Protected pages
	pages := router.Group("/")
	pages.Use(PageAuthMiddleware(authService, cfg.Cookies, LoginPagePath))
	{
		pages.GET("/profile", handlers.Profile)
	}

	return router
}
