package main

import (
	"os"

	"roombook/config"
	"roombook/shared/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	if sink := logger.AttachFileSink(cfg); sink != nil {
		defer sink.Close()
	}

	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("worker failed")

		return 1
	}

	return 0
}
