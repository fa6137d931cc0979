package handler

import (
	"net/http"

	"roombook/config"
	"roombook/di"
	"roombook/shared/logger"
	"roombook/transport/http/response"

	"github.com/rs/zerolog/log"
)

// Handler serves a single request on a serverless runtime. Status sync runs
// through the worker or POST /v1/bookings/sync, never from here.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()

	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	app, cleanup, err := di.InitializeService()
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize service")
		response.WithError(w, err)

		return
	}
	defer cleanup()

	app.HTTP.ServeHTTP(w, r)
}
