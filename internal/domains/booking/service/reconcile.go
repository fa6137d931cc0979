package service

import (
	"context"
	"fmt"
	"time"

	"roombook/internal/domains/booking/model"
	"roombook/internal/domains/booking/repository"
	roomRepo "roombook/internal/domains/room/repository"
	"roombook/shared/constant"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// reconciler keeps a room's status in line with its bookings at the moments a
// booking enters or leaves the active state. A room is available exactly when
// none of its bookings is active; maintenance set by an administrator holds
// until the next activation.
type reconciler struct {
	repo     repository.Booking
	roomRepo roomRepo.Room
}

// occupyRoomTx marks the room of a booking that just became active. It
// overrides maintenance.
func (r reconciler) occupyRoomTx(ctx context.Context, sqltx *sqlx.Tx, booking model.Booking, at time.Time) error {
	if err := r.roomRepo.UpdateStatusTx(ctx, sqltx, booking.RoomID, constant.RoomStatusOccupied, constant.ActorSystem, at); err != nil {
		return fmt.Errorf("failed to occupy room %s: %w", booking.RoomID, err)
	}

	return nil
}

// releaseRoomTx reports whether the room of a booking that just left the
// active state is available afterwards. The room row is locked first so two
// releases of the same room serialize.
func (r reconciler) releaseRoomTx(ctx context.Context, sqltx *sqlx.Tx, booking model.Booking, actor string, at time.Time) (bool, error) {
	room, err := r.roomRepo.GetForUpdateTx(ctx, sqltx, booking.RoomID)
	if err != nil {
		return false, fmt.Errorf("failed to lock room %s: %w", booking.RoomID, err)
	}

	if room.ID == constant.Empty {
		log.Warn().Str("booking", booking.ID).Str("room", booking.RoomID).Msg("room of finished booking no longer exists")

		return false, nil
	}

	if room.Status == constant.RoomStatusMaintenance {
		log.Info().Str("room", room.ID).Str("booking", booking.ID).Msg("room left under maintenance")

		return false, nil
	}

	active, err := r.repo.CountActiveByRoomTx(ctx, sqltx, room.ID, booking.ID)
	if err != nil {
		return false, fmt.Errorf("failed to count active bookings of room %s: %w", room.ID, err)
	}

	if active > 0 {
		log.Info().Str("room", room.ID).Str("booking", booking.ID).Int("active", active).
			Msg("room kept occupied, other bookings are still active")

		return false, nil
	}

	if room.Status == constant.RoomStatusAvailable {
		return true, nil
	}

	if err = r.roomRepo.UpdateStatusTx(ctx, sqltx, room.ID, constant.RoomStatusAvailable, actor, at); err != nil {
		return false, fmt.Errorf("failed to release room %s: %w", room.ID, err)
	}

	return true, nil
}
