package main

import (
	"os"

	"roombook/config"
	"roombook/helper"
	"roombook/shared/logger"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	logger.InitLogger()

	if err := newCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("Migration failed")
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate {up|down|drop|step-up}",
		Short: "Apply the schema under migrations/postgres",
		Long: `up       migrate to the latest version
step-up  apply the next migration only
down     roll back the last migration
drop     roll back every migration`,
		ValidArgs:     []string{"up", "down", "drop", "step-up"},
		Args:          cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			cfg := config.Get()
			logger.SetLogLevel(cfg)

			return helper.Runner(cfg, args[0])
		},
	}
}
