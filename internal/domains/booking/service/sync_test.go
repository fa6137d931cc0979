package service_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"roombook/internal/domains/booking/model/dto"
	roomModel "roombook/internal/domains/room/model"
	"roombook/shared/constant"
	"roombook/shared/failure"
)

func TestStatusSync_SingleBooking(t *testing.T) {
	f := newFixture(t)
	w := newWorld([]roomModel.Room{newRoom(constant.RoomStatusAvailable)},
		newBooking("b1", constant.BookingStatusApproved, 9, 0, 10, 0))
	w.bind(f)

	res, err := f.sync.Run(context.Background(), at(8, 59))
	require.NoError(t, err)
	assert.Equal(t, dto.SyncResult{}, res)
	assert.Equal(t, constant.BookingStatusApproved, w.booking("b1").Status)

	res, err = f.sync.Run(context.Background(), at(9, 1))
	require.NoError(t, err)
	assert.Equal(t, dto.SyncResult{Activated: 1}, res)
	assert.Equal(t, constant.BookingStatusActive, w.booking("b1").Status)
	assert.Equal(t, constant.RoomStatusOccupied, w.roomStatus(roomID))

	res, err = f.sync.Run(context.Background(), at(10, 1))
	require.NoError(t, err)
	assert.Equal(t, dto.SyncResult{Completed: 1, RoomsReleased: 1}, res)

	b1 := w.booking("b1")
	assert.Equal(t, constant.BookingStatusCompleted, b1.Status)
	require.NotNil(t, b1.ReturnedAt)
	assert.Equal(t, at(10, 1), *b1.ReturnedAt)
	assert.Equal(t, constant.RoomStatusAvailable, w.roomStatus(roomID))

	require.Len(t, w.histories, 2)
	assert.Equal(t, constant.HistoryActionActivated, w.histories[0].Action)
	assert.Equal(t, constant.BookingStatusApproved, *w.histories[0].OldStatus)
	assert.Equal(t, constant.BookingStatusActive, w.histories[0].NewStatus)
	assert.Nil(t, w.histories[0].PerformedBy)
	assert.Equal(t, constant.HistoryActionCompleted, w.histories[1].Action)
	assert.Equal(t, constant.BookingStatusActive, *w.histories[1].OldStatus)

	assert.Equal(t, 2, f.published.count())
}

func TestStatusSync_OverlappingBookings(t *testing.T) {
	f := newFixture(t)
	w := newWorld([]roomModel.Room{newRoom(constant.RoomStatusAvailable)},
		newBooking("b1", constant.BookingStatusApproved, 9, 0, 10, 0),
		newBooking("b2", constant.BookingStatusApproved, 9, 30, 11, 0))
	w.bind(f)

	res, err := f.sync.Run(context.Background(), at(9, 31))
	require.NoError(t, err)
	assert.Equal(t, dto.SyncResult{Activated: 2}, res)
	assert.Equal(t, constant.BookingStatusActive, w.booking("b1").Status)
	assert.Equal(t, constant.BookingStatusActive, w.booking("b2").Status)
	assert.Equal(t, constant.RoomStatusOccupied, w.roomStatus(roomID))

	res, err = f.sync.Run(context.Background(), at(10, 1))
	require.NoError(t, err)
	assert.Equal(t, dto.SyncResult{Completed: 1, RoomsKept: 1}, res)
	assert.Equal(t, constant.BookingStatusCompleted, w.booking("b1").Status)
	assert.Equal(t, constant.BookingStatusActive, w.booking("b2").Status)
	assert.Equal(t, constant.RoomStatusOccupied, w.roomStatus(roomID))

	res, err = f.sync.Run(context.Background(), at(11, 1))
	require.NoError(t, err)
	assert.Equal(t, dto.SyncResult{Completed: 1, RoomsReleased: 1}, res)
	assert.Equal(t, constant.BookingStatusCompleted, w.booking("b2").Status)
	assert.Equal(t, constant.RoomStatusAvailable, w.roomStatus(roomID))
}

func TestStatusSync_Idempotent(t *testing.T) {
	f := newFixture(t)
	w := newWorld([]roomModel.Room{newRoom(constant.RoomStatusAvailable)},
		newBooking("b1", constant.BookingStatusApproved, 9, 0, 10, 0))
	w.bind(f)

	_, err := f.sync.Run(context.Background(), at(9, 1))
	require.NoError(t, err)

	writes := w.writeCount()
	histories := w.historyCount()
	published := f.published.count()

	res, err := f.sync.Run(context.Background(), at(9, 1))
	require.NoError(t, err)
	assert.Equal(t, dto.SyncResult{}, res)
	assert.Equal(t, writes, w.writeCount())
	assert.Equal(t, histories, w.historyCount())
	assert.Equal(t, published, f.published.count())
}

func TestStatusSync_ActivateAndCompleteInOneRun(t *testing.T) {
	f := newFixture(t)
	w := newWorld([]roomModel.Room{newRoom(constant.RoomStatusAvailable)},
		newBooking("b1", constant.BookingStatusApproved, 9, 0, 10, 0))
	w.bind(f)

	res, err := f.sync.Run(context.Background(), at(12, 0))
	require.NoError(t, err)
	assert.Equal(t, dto.SyncResult{Activated: 1, Completed: 1, RoomsReleased: 1}, res)
	assert.Equal(t, constant.BookingStatusCompleted, w.booking("b1").Status)
	assert.Equal(t, constant.RoomStatusAvailable, w.roomStatus(roomID))
	require.Len(t, w.histories, 2)
	assert.Equal(t, constant.HistoryActionActivated, w.histories[0].Action)
	assert.Equal(t, constant.HistoryActionCompleted, w.histories[1].Action)
}

func TestStatusSync_MultiDayBooking(t *testing.T) {
	f := newFixture(t)

	booking := newBooking("b1", constant.BookingStatusActive, 9, 0, 10, 0)
	returnDate := booking.BorrowDate.AddDate(0, 0, 1)
	booking.ReturnDate = &returnDate

	w := newWorld([]roomModel.Room{newRoom(constant.RoomStatusOccupied)}, booking)
	w.bind(f)

	res, err := f.sync.Run(context.Background(), at(10, 1))
	require.NoError(t, err)
	assert.Equal(t, dto.SyncResult{}, res)
	assert.Equal(t, constant.BookingStatusActive, w.booking("b1").Status)

	res, err = f.sync.Run(context.Background(), at(10, 1).AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, dto.SyncResult{Completed: 1, RoomsReleased: 1}, res)
}

func TestStatusSync_Maintenance(t *testing.T) {
	t.Run("activation overrides maintenance", func(t *testing.T) {
		f := newFixture(t)
		w := newWorld([]roomModel.Room{newRoom(constant.RoomStatusMaintenance)},
			newBooking("b1", constant.BookingStatusApproved, 9, 0, 10, 0))
		w.bind(f)

		_, err := f.sync.Run(context.Background(), at(9, 1))
		require.NoError(t, err)
		assert.Equal(t, constant.RoomStatusOccupied, w.roomStatus(roomID))
	})

	t.Run("completion keeps maintenance", func(t *testing.T) {
		f := newFixture(t)
		w := newWorld([]roomModel.Room{newRoom(constant.RoomStatusMaintenance)},
			newBooking("b1", constant.BookingStatusActive, 9, 0, 10, 0))
		w.bind(f)

		res, err := f.sync.Run(context.Background(), at(10, 1))
		require.NoError(t, err)
		assert.Equal(t, dto.SyncResult{Completed: 1, RoomsKept: 1}, res)
		assert.Equal(t, constant.RoomStatusMaintenance, w.roomStatus(roomID))
	})
}

func TestStatusSync_UpcomingBookingDoesNotBlockRelease(t *testing.T) {
	f := newFixture(t)
	w := newWorld([]roomModel.Room{newRoom(constant.RoomStatusOccupied)},
		newBooking("b1", constant.BookingStatusActive, 9, 0, 10, 0),
		newBooking("b2", constant.BookingStatusApproved, 14, 0, 15, 0))
	w.bind(f)

	res, err := f.sync.Run(context.Background(), at(10, 1))
	require.NoError(t, err)
	assert.Equal(t, dto.SyncResult{Completed: 1, RoomsReleased: 1}, res)
	assert.Equal(t, constant.RoomStatusAvailable, w.roomStatus(roomID))
	assert.Equal(t, constant.BookingStatusApproved, w.booking("b2").Status)
}

func TestStatusSync_MissingRoom(t *testing.T) {
	f := newFixture(t)
	w := newWorld(nil, newBooking("b1", constant.BookingStatusActive, 9, 0, 10, 0))
	w.bind(f)

	res, err := f.sync.Run(context.Background(), at(10, 1))
	require.NoError(t, err)
	assert.Equal(t, dto.SyncResult{Completed: 1, RoomsKept: 1}, res)
}

func TestStatusSync_FailureRollsBackWholeBatch(t *testing.T) {
	f := newFixture(t)
	w := newWorld([]roomModel.Room{newRoom(constant.RoomStatusAvailable)},
		newBooking("b1", constant.BookingStatusApproved, 9, 0, 10, 0),
		newBooking("b2", constant.BookingStatusApproved, 9, 0, 11, 0))
	w.failOn = "b2"
	w.bind(f)

	res, err := f.sync.Run(context.Background(), at(9, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrTransaction)
	assert.ErrorIs(t, err, errWrite)
	assert.Equal(t, http.StatusInternalServerError, failure.GetCode(err))
	assert.Equal(t, dto.SyncResult{}, res)

	assert.Equal(t, constant.BookingStatusApproved, w.booking("b1").Status)
	assert.Equal(t, constant.RoomStatusAvailable, w.roomStatus(roomID))
	assert.Zero(t, w.historyCount())
	assert.Zero(t, f.published.count())

	w.failOn = ""

	res, err = f.sync.Run(context.Background(), at(9, 1))
	require.NoError(t, err)
	assert.Equal(t, dto.SyncResult{Activated: 2}, res)
}

func TestStatusSync_SkippedWhenLockHeld(t *testing.T) {
	f := newFixture(t)

	f.tx.EXPECT().WithinTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, *sqlx.Tx) error) error {
			return failure.Transaction(fn(ctx, nil))
		})
	f.tx.EXPECT().TryAdvisoryLock(gomock.Any(), gomock.Any(), testLockKey).Return(false, nil)

	res, err := f.sync.Run(context.Background(), at(9, 1))
	require.NoError(t, err)
	assert.Equal(t, dto.SyncResult{Skipped: true}, res)
	assert.Zero(t, f.published.count())
}

func TestStatusSync_ConcurrentRunsKeepTheirInstant(t *testing.T) {
	f := newFixture(t)

	entered := make(chan struct{})
	release := make(chan struct{})

	var calls atomic.Int32

	f.tx.EXPECT().WithinTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ func(context.Context, *sqlx.Tx) error) error {
			if calls.Add(1) == 1 {
				close(entered)
				<-release
			}

			return nil
		}).Times(2)

	first := make(chan error, 1)
	go func() {
		_, err := f.sync.Run(context.Background(), at(9, 1))
		first <- err
	}()

	<-entered

	second := make(chan error, 1)
	go func() {
		_, err := f.sync.Run(context.Background(), at(10, 1))
		second <- err
	}()

	select {
	case err := <-second:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Error("run for a later instant waited on the earlier run")
	}

	close(release)
	require.NoError(t, <-first)

	if t.Failed() {
		<-second
	}

	assert.Equal(t, int32(2), calls.Load())
}
