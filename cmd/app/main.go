package main

import (
	"context"
	"time"

	"roombook/config"
	"roombook/di"
	"roombook/helper"
	"roombook/shared/logger"

	"github.com/rs/zerolog/log"
)

const schedulerStopTimeout = 30 * time.Second

// @title Roombook API
// @version 1.0
// @description Room booking service with approval workflow and automatic status synchronization.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	if sink := logger.AttachFileSink(cfg); sink != nil {
		defer sink.Close()
	}

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	app, cleanup, err := di.InitializeService()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}
	defer cleanup()

	if cfg.Scheduler.Enable && cfg.Scheduler.Embedded {
		app.Scheduler.Start()

		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), schedulerStopTimeout)
			defer cancel()

			app.Scheduler.Stop(ctx)
		}()
	}

	app.HTTP.Serve()
}
