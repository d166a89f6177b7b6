package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gtead/marketplace-backend/internal/handlers"
	"github.com/gtead/marketplace-backend/internal/middleware"
	"github.com/gtead/marketplace-backend/internal/types"
	"github.com/gtead/marketplace-backend/internal/utils"
)

type RouterConfig struct {
	AuthMiddleware     *middleware.AuthMiddleware
	AuthHandler        *handlers.AuthHandler
	ChallengeHandler   *handlers.ChallengeHandler
	SolutionHandler    *handlers.SolutionHandler
	ReviewHandler      *handlers.ReviewHandler
	ApplicationHandler *handlers.ApplicationHandler
	ChatHandler        *handlers.ChatHandler
	MatchHandler       *handlers.MatchHandler
	UploadHandler      *handlers.UploadHandler
	StatsHandler       *handlers.StatsHandler

	// OIDCEnabled gates the delegated auth routes.
	OIDCEnabled bool
	// ServeUploads points at the local upload dir in disk mode; empty
	// when uploads go to the bucket.
	ServeUploads string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := strings.Split(utils.GetEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173", nil), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Session resolution runs on every request; routes below decide
	// whether a user is required.
	router.Use(cfg.AuthMiddleware.Authenticate())

	router.GET("/healthcheck", handlers.HealthCheck)
	if cfg.ServeUploads != "" {
		router.Static("/uploads", cfg.ServeUploads)
	}

	api := router.Group("/api")

	// ===============
	// || Public    ||
	// ===============
	api.POST("/register", cfg.AuthHandler.Register)
	api.POST("/login", cfg.AuthHandler.Login)
	if cfg.OIDCEnabled {
		api.GET("/auth/oidc/login", cfg.AuthHandler.OIDCLogin)
		api.GET("/auth/oidc/callback", cfg.AuthHandler.OIDCCallback)
	}
	api.GET("/challenges", cfg.ChallengeHandler.List)
	api.GET("/challenges/:id", cfg.ChallengeHandler.Get)
	api.GET("/solutions", cfg.SolutionHandler.List)
	api.GET("/solutions/:id", cfg.SolutionHandler.Get)
	api.GET("/solutions/:id/reviews", cfg.ReviewHandler.ListBySolution)
	api.POST("/capability-search", cfg.MatchHandler.CapabilitySearch)
	api.GET("/stats", cfg.StatsHandler.Stats)

	// ===============
	// || Protected ||
	// ===============
	auth := api.Group("/")
	auth.Use(cfg.AuthMiddleware.RequireAuth())
	auth.POST("/logout", cfg.AuthHandler.Logout)
	auth.GET("/auth/user", cfg.AuthHandler.CurrentUser)
	auth.PATCH("/profile", cfg.AuthHandler.UpdateProfile)
	auth.PATCH("/solutions/:id", cfg.SolutionHandler.Patch)
	auth.GET("/applications", cfg.ApplicationHandler.List)
	auth.POST("/chat", cfg.ChatHandler.Chat)
	auth.GET("/chat/history", cfg.ChatHandler.History)
	auth.POST("/match", cfg.MatchHandler.Match)
	auth.POST("/upload/video", cfg.UploadHandler.UploadVideo)
	auth.POST("/upload/document", cfg.UploadHandler.UploadDocument)

	// Role-gated writes.
	api.POST("/challenges",
		cfg.AuthMiddleware.RequireRole(types.RoleAdmin),
		cfg.ChallengeHandler.Create)
	api.POST("/solutions",
		cfg.AuthMiddleware.RequireRole(types.RoleVendor),
		cfg.SolutionHandler.Create)
	api.POST("/solutions/:id/reviews",
		cfg.AuthMiddleware.RequireRole(types.RoleGovernment, types.RoleContractingOfficer),
		cfg.ReviewHandler.Create)
	api.POST("/applications",
		cfg.AuthMiddleware.RequireRole(types.RoleVendor),
		cfg.ApplicationHandler.Create)
	api.POST("/submission-tips",
		cfg.AuthMiddleware.RequireRole(types.RoleVendor),
		cfg.MatchHandler.SubmissionTips)
	api.GET("/solutions/:id/feedback-analysis",
		cfg.AuthMiddleware.RequireRole(types.RoleGovernment, types.RoleContractingOfficer, types.RoleAdmin),
		cfg.MatchHandler.FeedbackAnalysis)

	return router
}
