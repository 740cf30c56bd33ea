package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/memehub/memehub/internal/auth"
	"github.com/memehub/memehub/internal/badges"
	"github.com/memehub/memehub/internal/cache"
	"github.com/memehub/memehub/internal/database"
	"github.com/memehub/memehub/internal/handlers"
	"github.com/memehub/memehub/internal/leaderboard"
	"github.com/memehub/memehub/internal/logger"
	"github.com/memehub/memehub/internal/metrics"
	"github.com/memehub/memehub/internal/middleware"
	"github.com/memehub/memehub/internal/storage"
	"github.com/memehub/memehub/internal/telemetry"
	"github.com/memehub/memehub/internal/votes"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Structured logging
	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	log.Println("=== MemeHub server starting ===")

	// Initialize database
	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis is optional: without it, rate limiting falls back to in-process
	// token buckets.
	if host := os.Getenv("REDIS_HOST"); host != "" {
		redisClient, err := cache.NewRedisClient(host, os.Getenv("REDIS_PORT"), os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			log.Printf("Warning: Redis connection failed: %v", err)
			log.Println("Continuing without Redis - rate limits apply per instance")
		} else {
			defer redisClient.Close()
		}
	}

	// Prometheus metrics
	metrics.Initialize()

	// Distributed tracing (OTLP). Disabled unless OTEL_ENABLED is set.
	samplingRate := 1.0
	if rate, err := strconv.ParseFloat(os.Getenv("OTEL_SAMPLING_RATE"), 64); err == nil && rate > 0 {
		samplingRate = rate
	}
	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "memehub-backend",
		Environment:  os.Getenv("ENVIRONMENT"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Enabled:      os.Getenv("OTEL_ENABLED") == "true",
		SamplingRate: samplingRate,
	})
	if err != nil {
		log.Printf("Warning: tracing initialization failed: %v", err)
		log.Println("Continuing without tracing")
	}
	if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				log.Printf("Warning: tracer shutdown failed: %v", err)
			}
		}()
	}

	// Initialize auth service
	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		log.Fatalf("JWT_SECRET environment variable is required")
	}

	authService := auth.NewService(
		jwtSecret,
		os.Getenv("GOOGLE_CLIENT_ID"),
		os.Getenv("GOOGLE_CLIENT_SECRET"),
	)

	// Initialize S3 uploader
	s3Uploader, err := storage.NewS3Uploader(
		os.Getenv("AWS_REGION"),
		os.Getenv("AWS_BUCKET"),
		os.Getenv("CDN_BASE_URL"),
	)
	if err != nil {
		log.Fatalf("Failed to initialize S3 uploader: %v", err)
	}

	// Check S3 access (skip for development)
	if err := s3Uploader.CheckBucketAccess(context.Background()); err != nil {
		log.Printf("Warning: S3 bucket access failed: %v", err)
		log.Println("Continuing without S3 - meme uploads will fail")
	}

	// Domain services
	evaluator := badges.NewEvaluator(database.DB)
	ledger := votes.NewLedger(database.DB, evaluator)
	boards := leaderboard.NewAggregator(database.DB, evaluator)

	// Initialize handlers
	h := handlers.NewHandlers(ledger, evaluator, boards, s3Uploader)
	authHandlers := handlers.NewAuthHandlers(authService)

	// Setup Gin router
	if os.Getenv("ENVIRONMENT") != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.TracingMiddleware("memehub-backend")...)
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// CORS middleware
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"} // Configure properly for production
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "memehub-backend",
		})
	})

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api/v1")
	api.Use(middleware.RedisRateLimitMiddleware(middleware.DefaultRateLimitConfig()))
	{
		// Authentication routes (public)
		authGroup := api.Group("/auth")
		authGroup.Use(middleware.RedisRateLimitMiddleware(middleware.AuthRateLimitConfig()))
		{
			// Native auth
			authGroup.POST("/register", authHandlers.Register)
			authGroup.POST("/login", authHandlers.Login)

			// OAuth flow
			authGroup.GET("/google", authHandlers.GoogleOAuth)
			authGroup.GET("/google/callback", authHandlers.GoogleCallback)

			// User info (protected)
			authGroup.GET("/me", authHandlers.AuthMiddleware(), authHandlers.Me)
		}

		// Meme routes
		memes := api.Group("/memes")
		{
			// Public reads
			memes.GET("", h.ListMemes)
			memes.GET("/trending-tags", h.GetTrendingTags)
			memes.GET("/:id", h.GetMeme)

			// Protected writes
			protected := memes.Group("")
			protected.Use(authHandlers.AuthMiddleware())
			{
				protected.POST("", middleware.RedisRateLimitMiddleware(middleware.UploadRateLimitConfig()), h.CreateMeme)
				protected.DELETE("/:id", h.DeleteMeme)
				protected.POST("/:id/upvote", h.UpvoteMeme)
				protected.POST("/:id/downvote", h.DownvoteMeme)
				protected.POST("/:id/comments", h.CreateComment)
			}
		}

		// User routes
		users := api.Group("/users")
		{
			// Public profile and leaderboard reads
			users.GET("/leaderboard", h.GetLeaderboard)
			users.GET("/:id", h.GetUser)
			users.GET("/:id/stats", h.GetUserStats)
			users.GET("/:id/memes", h.GetUserMemes)

			// Protected profile management
			users.GET("/me", authHandlers.AuthMiddleware(), h.GetMe)
			users.PUT("/me", authHandlers.AuthMiddleware(), h.UpdateMe)
		}
	}

	// Server configuration
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("MemeHub backend starting on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
