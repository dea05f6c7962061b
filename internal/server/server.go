// Package server
//
// @title authdeck API
// @version 1.0
// @description Authentication, profile, analytics and reports API
// @host localhost:3000
// @BasePath /
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/authdeck/authdeck/internal/auth"
	"github.com/authdeck/authdeck/internal/config"
	"github.com/authdeck/authdeck/internal/forms"
	"github.com/authdeck/authdeck/internal/models"
	"github.com/authdeck/authdeck/internal/tasks"
)

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	db       *gorm.DB
	config   *config.Config
	logger   zerolog.Logger
	tokens   *auth.TokenIssuer
	enqueuer tasks.Enqueuer
	version  string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := OpenDatabase(cfg.Database.URL, zlog)
	if err != nil {
		return nil, err
	}

	// Initialize Asynq client for enqueueing tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	return NewWithDB(cfg, db, asynqClient, zlog, version)
}

// NewWithDB creates a server around an open, migrated database
func NewWithDB(cfg *config.Config, db *gorm.DB, enqueuer tasks.Enqueuer, zlog zerolog.Logger, version string) (*Server, error) {
	secret, err := loadJWTSecret(db, cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Register custom validators on gin's binding engine
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := forms.Register(v); err != nil {
			return nil, fmt.Errorf("failed to register validators: %w", err)
		}
	}

	server := &Server{
		db:       db,
		config:   cfg,
		logger:   zlog,
		tokens:   auth.NewTokenIssuer(secret, cfg.Tokens.AccessTTL),
		enqueuer: enqueuer,
		version:  version,
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// loadJWTSecret prefers JWT_SECRET, then the persisted secret, and
// generates and persists one on first start
func loadJWTSecret(db *gorm.DB, cfg *config.Config, zlog zerolog.Logger) (string, error) {
	if cfg.Tokens.JWTSecret != "" {
		return cfg.Tokens.JWTSecret, nil
	}

	var stored models.Config
	err := db.First(&stored).Error
	if err == nil {
		zlog.Debug().Msg("Loaded JWT secret from database")
		return stored.JWTSecret, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	secret, err := auth.GenerateSecret()
	if err != nil {
		return "", err
	}
	if err := db.Create(&models.Config{JWTSecret: secret}).Error; err != nil {
		return "", fmt.Errorf("failed to persist JWT secret: %w", err)
	}

	zlog.Info().Msg("Generated and stored a new JWT secret")
	return secret, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.HTTP.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth endpoints (no auth required)
	s.router.POST("/api/auth/login", s.login)
	s.router.POST("/api/auth/register", s.register)
	s.router.POST("/api/auth/refresh", s.refresh)

	// Authenticated API routes (JWT required)
	api := s.router.Group("/api")
	api.Use(JWTAuthMiddleware(s.db, s.tokens, s.logger))
	{
		// Auth endpoints
		api.GET("/auth/me", s.getCurrentUser)
		api.PATCH("/users/me", s.updateCurrentUser)

		// Analytics
		api.GET("/analytics/summary", s.getAnalyticsSummary)

		// Reports
		api.GET("/reports", s.listReports)
		api.POST("/reports", s.createReport)
		api.GET("/reports/:id", s.getReport)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "authdeck-api",
		"version":   s.version,
	})
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := s.config.HTTP.Addr

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Close Asynq client
	if closer, ok := s.enqueuer.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing Asynq client")
		}
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
