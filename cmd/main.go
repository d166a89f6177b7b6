package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/gtead/marketplace-backend/internal/db"
	"github.com/gtead/marketplace-backend/internal/handlers"
	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/memstore"
	"github.com/gtead/marketplace-backend/internal/middleware"
	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/server"
	"github.com/gtead/marketplace-backend/internal/services"
	"github.com/gtead/marketplace-backend/internal/sessionstore"
	"github.com/gtead/marketplace-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Storage: Postgres when configured, otherwise the seeded in-memory
	// catalog so the marketplace is browsable out of the box.
	var store *repos.Store
	var postgresService *db.PostgresService
	if db.Configured() {
		postgresService, err = db.NewPostgresService(log)
		if err != nil {
			log.Fatal("Postgres init failed", "error", err)
		}
		if err = postgresService.AutoMigrateAll(); err != nil {
			log.Fatal("Postgres auto migration failed", "error", err)
		}
		thePG := postgresService.DB()
		store = &repos.Store{
			Users:        repos.NewUserRepo(thePG, log),
			Challenges:   repos.NewChallengeRepo(thePG, log),
			Solutions:    repos.NewSolutionRepo(thePG, log),
			Reviews:      repos.NewReviewRepo(thePG, log),
			Applications: repos.NewApplicationRepo(thePG, log),
			ChatMessages: repos.NewChatMessageRepo(thePG, log),
		}
	} else {
		log.Warn("No database configured, using seeded in-memory store")
		store, err = memstore.NewStore(log, true)
		if err != nil {
			log.Fatal("Memstore init failed", "error", err)
		}
	}

	// Sessions: Redis > Postgres > process memory.
	var sessions sessionstore.SessionStore
	switch {
	case sessionstore.RedisConfigured():
		sessions, err = sessionstore.NewRedisStore(log)
		if err != nil {
			log.Fatal("Redis session store init failed", "error", err)
		}
	case postgresService != nil:
		sessions = sessionstore.NewPostgresStore(postgresService.DB(), log)
	default:
		log.Warn("Sessions are in-process only and will not survive a restart")
		sessions = sessionstore.NewMemoryStore()
	}

	// Auth providers. At least one of local (SESSION_SECRET) or OIDC
	// must be usable or nobody can ever log in.
	sessionSecret := utils.GetEnv("SESSION_SECRET", "", log)
	oidcEnabled := services.OIDCConfigured()
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET is required to sign session cookies")
	}

	authService := services.NewAuthService(log, store.Users, sessions, sessionSecret)
	if err := authService.EnsureDefaultAdmin(ctx); err != nil {
		log.Fatal("Default admin bootstrap failed", "error", err)
	}

	var oidcService services.OIDCService
	if oidcEnabled {
		oidcService, err = services.NewOIDCService(log, store.Users)
		if err != nil {
			log.Fatal("OIDC init failed", "error", err)
		}
	}

	// AI is optional; without a key the endpoints serve fallbacks.
	var aiClient services.AIClient
	if services.AIConfigured() {
		aiClient, err = services.NewOpenAIClient(log)
		if err != nil {
			log.Fatal("OpenAI client init failed", "error", err)
		}
	} else {
		log.Warn("OPENAI_API_KEY not set, AI features run in degraded mode")
	}
	aiService := services.NewAIService(log, aiClient, store)

	// Uploads: bucket when configured, local disk otherwise.
	var bucketService services.BucketService
	serveUploads := ""
	if services.BucketConfigured() {
		bucketService, err = services.NewBucketService(log)
		if err != nil {
			log.Fatal("Bucket init failed", "error", err)
		}
	} else {
		serveUploads = utils.GetEnv("UPLOAD_DIR", "./uploads", log)
	}
	uploadService, err := services.NewUploadService(log, bucketService)
	if err != nil {
		log.Fatal("Upload service init failed", "error", err)
	}

	// Middleware + handlers
	authMiddleware := middleware.NewAuthMiddleware(log, authService, oidcService)
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:     authMiddleware,
		AuthHandler:        handlers.NewAuthHandler(log, authService, oidcService, store.Users),
		ChallengeHandler:   handlers.NewChallengeHandler(log, store.Challenges),
		SolutionHandler:    handlers.NewSolutionHandler(log, store.Solutions),
		ReviewHandler:      handlers.NewReviewHandler(log, store.Reviews, store.Solutions),
		ApplicationHandler: handlers.NewApplicationHandler(log, store.Applications, store.Challenges),
		ChatHandler:        handlers.NewChatHandler(log, aiService, store.ChatMessages),
		MatchHandler:       handlers.NewMatchHandler(log, aiService),
		UploadHandler:      handlers.NewUploadHandler(log, uploadService),
		StatsHandler:       handlers.NewStatsHandler(log, store.Solutions, store.Challenges),
		OIDCEnabled:        oidcEnabled,
		ServeUploads:       serveUploads,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
