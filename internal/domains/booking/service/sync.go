package service

//go:generate go run go.uber.org/mock/mockgen -source=./sync.go -destination=../mocks/sync_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"roombook/config"
	"roombook/infras/otel"
	"roombook/internal/domains/booking/model"
	"roombook/internal/domains/booking/model/dto"
	"roombook/internal/domains/booking/repository"
	historyModel "roombook/internal/domains/history/model"
	historyRepo "roombook/internal/domains/history/repository"
	roomRepo "roombook/internal/domains/room/repository"
	"roombook/shared/cache"
	"roombook/shared/constant"
	"roombook/shared/event"
	"roombook/shared/transaction"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const syncFlightPrefix = "booking-status-sync:"

// StatusSync advances bookings along approved -> active -> completed by wall
// clock time and keeps room status in step.
type StatusSync interface {
	// Run performs one activation pass followed by one completion pass in a
	// single transaction. Runs that overlap, in this process or on another
	// replica, are skipped.
	Run(ctx context.Context, now time.Time) (dto.SyncResult, error)
}

type statusSyncImpl struct {
	reconciler
	effects
	history historyRepo.History
	tx      transaction.Transactor
	otel    otel.Otel
	flight  singleflight.Group
}

func NewStatusSync(
	repo repository.Booking,
	roomRepo roomRepo.Room,
	history historyRepo.History,
	tx transaction.Transactor,
	events event.Publisher,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) StatusSync {
	return &statusSyncImpl{
		reconciler: reconciler{repo: repo, roomRepo: roomRepo},
		effects:    effects{cfg: cfg, cache: cache, events: events},
		history:    history,
		tx:         tx,
		otel:       otel,
	}
}

func (s *statusSyncImpl) Run(ctx context.Context, now time.Time) (res dto.SyncResult, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelJobScopeName, constant.OtelJobScopeName+".StatusSync.Run")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute("now", now)

	// Only callers asking for the same instant share a run. Runs for
	// different instants are serialized by the advisory lock instead.
	key := syncFlightPrefix + now.UTC().Format(time.RFC3339Nano)

	value, err, joined := s.flight.Do(key, func() (any, error) {
		return s.run(ctx, now)
	})
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	if joined {
		log.Debug().Msg("status sync joined a run already in progress")
	}

	res, _ = value.(dto.SyncResult)

	return res, nil
}

type syncBatch struct {
	result  dto.SyncResult
	entries []historyModel.History
	changes []dto.StatusChangedEvent
	roomIDs []string
}

func (s *statusSyncImpl) run(ctx context.Context, now time.Time) (dto.SyncResult, error) {
	var batch syncBatch

	err := s.tx.WithinTx(ctx, func(ctx context.Context, sqltx *sqlx.Tx) error {
		batch = syncBatch{}

		acquired, err := s.tx.TryAdvisoryLock(ctx, sqltx, s.cfg.Scheduler.LockKey)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if !acquired {
			batch.result.Skipped = true

			return nil
		}

		if err = s.activateTx(ctx, sqltx, now, &batch); err != nil {
			return err
		}

		if err = s.completeTx(ctx, sqltx, now, &batch); err != nil {
			return err
		}

		if err = s.history.InsertBulkTx(ctx, sqltx, batch.entries); err != nil {
			return fmt.Errorf("failed to write sync histories: %w", err)
		}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("status sync rolled back")

		return dto.SyncResult{}, err //nolint:wrapcheck
	}

	if batch.result.Skipped {
		log.Info().Msg("status sync skipped, another run holds the lock")

		return batch.result, nil
	}

	log.Info().
		Time("now", now).
		Int("activated", batch.result.Activated).
		Int("completed", batch.result.Completed).
		Int("rooms_released", batch.result.RoomsReleased).
		Int("rooms_kept", batch.result.RoomsKept).
		Msg("status sync finished")

	if len(batch.changes) > 0 {
		s.afterCommit(context.WithoutCancel(ctx), batch.changes, batch.roomIDs...)
	}

	return batch.result, nil
}

func (s *statusSyncImpl) activateTx(ctx context.Context, sqltx *sqlx.Tx, now time.Time, batch *syncBatch) error {
	due, err := s.repo.GetDueForActivationTx(ctx, sqltx, now)
	if err != nil {
		return fmt.Errorf("failed to get bookings due for activation: %w", err)
	}

	for _, booking := range due {
		fields := map[string]any{
			model.FieldStatus:        constant.BookingStatusActive,
			constant.FieldModifiedAt: now,
			constant.FieldModifiedBy: constant.ActorSystem,
		}

		if err = s.repo.UpdateByIDTx(ctx, sqltx, booking.ID, fields); err != nil {
			return fmt.Errorf("failed to activate booking %s: %w", booking.ID, err)
		}

		if err = s.occupyRoomTx(ctx, sqltx, booking, now); err != nil {
			return err
		}

		batch.record(booking, constant.HistoryActionActivated, constant.BookingStatusActive, "Borrowing period started", now)
		batch.result.Activated++
	}

	return nil
}

func (s *statusSyncImpl) completeTx(ctx context.Context, sqltx *sqlx.Tx, now time.Time, batch *syncBatch) error {
	due, err := s.repo.GetDueForCompletionTx(ctx, sqltx, now)
	if err != nil {
		return fmt.Errorf("failed to get bookings due for completion: %w", err)
	}

	for _, booking := range due {
		fields := map[string]any{
			model.FieldStatus:        constant.BookingStatusCompleted,
			model.FieldReturnedAt:    now,
			constant.FieldModifiedAt: now,
			constant.FieldModifiedBy: constant.ActorSystem,
		}

		if err = s.repo.UpdateByIDTx(ctx, sqltx, booking.ID, fields); err != nil {
			return fmt.Errorf("failed to complete booking %s: %w", booking.ID, err)
		}

		released, err := s.releaseRoomTx(ctx, sqltx, booking, constant.ActorSystem, now)
		if err != nil {
			return err
		}

		if released {
			batch.result.RoomsReleased++
		} else {
			batch.result.RoomsKept++
		}

		batch.record(booking, constant.HistoryActionCompleted, constant.BookingStatusCompleted, "Borrowing period ended", now)
		batch.result.Completed++
	}

	return nil
}

func (b *syncBatch) record(booking model.Booking, action, newStatus, comment string, at time.Time) {
	b.entries = append(b.entries, historyModel.NewEntry(booking.ID, action, booking.Status, newStatus, comment, constant.Empty, at))
	b.changes = append(b.changes, dto.NewStatusChangedEvent(booking, action, newStatus, constant.Empty, at))
	b.roomIDs = append(b.roomIDs, booking.RoomID)
}
