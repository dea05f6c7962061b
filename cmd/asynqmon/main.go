package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"

	"github.com/authdeck/authdeck/internal/config"
	"github.com/authdeck/authdeck/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	h := asynqmon.New(asynqmon.Options{
		RootPath:     "/asynqmon",
		RedisConnOpt: asynq.RedisClientOpt{Addr: cfg.Redis.Address},
	})
	defer h.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.MonitorPort,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("addr", srv.Addr).
		Str("redis", cfg.Redis.Address).
		Msg("Starting Asynqmon")

	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Asynqmon failed")
	}
}
