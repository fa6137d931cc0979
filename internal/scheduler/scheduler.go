// Package scheduler runs the booking status synchronization on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"roombook/config"
	"roombook/internal/domains/booking/service"
	"roombook/shared/clock"
	"roombook/shared/timezone"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type Scheduler struct {
	cron  *cron.Cron
	sync  service.StatusSync
	clock clock.Clock
	spec  string
}

func New(cfg *config.Config, sync service.StatusSync, clock clock.Clock) (*Scheduler, error) {
	logger := cronLogger{}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(timezone.GetLocation()),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		sync:  sync,
		clock: clock,
		spec:  cfg.Scheduler.Spec,
	}

	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid scheduler spec %q: %w", s.spec, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	log.Info().Str("spec", s.spec).Msg("Starting booking status scheduler.")

	s.cron.Start()
}

// Stop waits for a running synchronization to finish or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		log.Info().Msg("Booking status scheduler stopped.")
	case <-ctx.Done():
		log.Warn().Msg("Booking status scheduler did not stop in time.")
	}
}

// RunOnce performs a single synchronization at the current clock time.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.RunAt(ctx, s.clock.Now())
}

// RunAt performs a single synchronization as if the time were now. The
// outcome is logged by the sync itself.
func (s *Scheduler) RunAt(ctx context.Context, now time.Time) error {
	if _, err := s.sync.Run(ctx, now); err != nil {
		return fmt.Errorf("booking status sync failed: %w", err)
	}

	return nil
}

func (s *Scheduler) tick() {
	_ = s.RunOnce(context.Background())
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
