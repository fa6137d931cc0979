package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"roombook/di"
	"roombook/shared/timezone"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const stopTimeout = 30 * time.Second

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "worker",
		Short:         "Background jobs of the room booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newSyncCommand())
	cmd.AddCommand(newScheduleCommand())

	return cmd
}

func newSyncCommand() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one booking status synchronization and exit",
		Long: `Activate approved bookings whose start has passed and complete active
bookings whose planned return has passed, then exit.

Example:
  worker sync
  worker sync --at 2026-03-02T10:00:00+07:00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), at)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "evaluate as of this RFC3339 instant instead of the current time")

	return cmd
}

func runSync(ctx context.Context, at string) error {
	scheduler, cleanup, err := di.InitializeWorker()
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize worker")

		return fmt.Errorf("failed to initialize worker: %w", err)
	}
	defer cleanup()

	if at == "" {
		return scheduler.RunOnce(ctx) //nolint:wrapcheck
	}

	now, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return fmt.Errorf("invalid --at %q: %w", at, err)
	}

	return scheduler.RunAt(ctx, timezone.ToAppTime(now)) //nolint:wrapcheck
}

func newScheduleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run booking status synchronization on SCHEDULER_SPEC until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			scheduler, cleanup, err := di.InitializeWorker()
			if err != nil {
				log.Error().Err(err).Msg("Failed to initialize worker")

				return fmt.Errorf("failed to initialize worker: %w", err)
			}
			defer cleanup()

			scheduler.Start()

			<-ctx.Done()

			log.Info().Msg("Received shutdown signal, waiting for the running synchronization.")

			stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()

			scheduler.Stop(stopCtx)

			return nil
		},
	}
}
