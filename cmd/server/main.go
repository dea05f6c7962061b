package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/authdeck/authdeck/internal/config"
	"github.com/authdeck/authdeck/internal/logger"
	"github.com/authdeck/authdeck/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	gin.SetMode(gin.ReleaseMode)

	log.Info().
		Str("version", version).
		Str("addr", cfg.HTTP.Addr).
		Str("database", cfg.Database.URL).
		Str("redis", cfg.Redis.Address).
		Strs("cors_origins", cfg.HTTP.AllowedOrigins).
		Dur("access_token_ttl", cfg.Tokens.AccessTTL).
		Dur("refresh_token_ttl", cfg.Tokens.RefreshTTL).
		Bool("jwt_secret_from_env", cfg.Tokens.JWTSecret != "").
		Msg("Booting authdeck API server")

	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	// Blocks until SIGINT or SIGTERM
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
}
