package service_test

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/mock/gomock"

	"roombook/internal/domains/booking/model"
	historyModel "roombook/internal/domains/history/model"
	roomModel "roombook/internal/domains/room/model"
	"roombook/shared/constant"
	"roombook/shared/failure"
)

var errWrite = errors.New("write failed")

// world is an in-memory store behind the mocked repositories. A transaction
// that returns an error restores the state it started from.
type world struct {
	mu        sync.Mutex
	bookings  map[string]model.Booking
	rooms     map[string]roomModel.Room
	histories []historyModel.History
	writes    int
	failOn    string
}

func newWorld(rooms []roomModel.Room, bookings ...model.Booking) *world {
	w := &world{
		bookings: map[string]model.Booking{},
		rooms:    map[string]roomModel.Room{},
	}

	for _, room := range rooms {
		w.rooms[room.ID] = room
	}

	for i, booking := range bookings {
		booking.CreatedAt = at(0, i)
		w.bookings[booking.ID] = booking
	}

	return w
}

func (w *world) booking(id string) model.Booking {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.bookings[id]
}

func (w *world) roomStatus(id string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.rooms[id].Status
}

func (w *world) historyCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.histories)
}

func (w *world) writeCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.writes
}

func (w *world) snapshot() func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	bookings := maps.Clone(w.bookings)
	rooms := maps.Clone(w.rooms)
	histories := slices.Clone(w.histories)
	writes := w.writes

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		w.bookings, w.rooms, w.histories, w.writes = bookings, rooms, histories, writes
	}
}

func (w *world) due(status string, now time.Time, instant func(model.Booking) time.Time) []model.Booking {
	w.mu.Lock()
	defer w.mu.Unlock()

	var res []model.Booking

	for _, booking := range w.bookings {
		if booking.Status == status && !instant(booking).After(now) {
			res = append(res, booking)
		}
	}

	slices.SortFunc(res, func(a, b model.Booking) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return res
}

func (w *world) bind(f fixture) {
	f.tx.EXPECT().WithinTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, *sqlx.Tx) error) error {
			restore := w.snapshot()

			if err := fn(ctx, nil); err != nil {
				restore()

				return failure.Transaction(err)
			}

			return nil
		}).AnyTimes()

	f.tx.EXPECT().TryAdvisoryLock(gomock.Any(), gomock.Any(), testLockKey).Return(true, nil).AnyTimes()

	f.repo.EXPECT().GetDueForActivationTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, now time.Time) ([]model.Booking, error) {
			return w.due(constant.BookingStatusApproved, now, model.Booking.BorrowedAt), nil
		}).AnyTimes()

	f.repo.EXPECT().GetDueForCompletionTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, now time.Time) ([]model.Booking, error) {
			return w.due(constant.BookingStatusActive, now, model.Booking.PlannedReturnAt), nil
		}).AnyTimes()

	f.repo.EXPECT().GetForUpdateTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, id string) (model.Booking, error) {
			return w.booking(id), nil
		}).AnyTimes()

	f.repo.EXPECT().UpdateByIDTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, id string, fields map[string]any) error {
			w.mu.Lock()
			defer w.mu.Unlock()

			if id == w.failOn {
				return errWrite
			}

			booking := w.bookings[id]
			if status, ok := fields[model.FieldStatus].(string); ok {
				booking.Status = status
			}

			if returnedAt, ok := fields[model.FieldReturnedAt].(time.Time); ok {
				booking.ReturnedAt = &returnedAt
			}

			w.bookings[id] = booking
			w.writes++

			return nil
		}).AnyTimes()

	f.repo.EXPECT().CountActiveByRoomTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, room, exclude string) (int, error) {
			w.mu.Lock()
			defer w.mu.Unlock()

			count := 0

			for _, booking := range w.bookings {
				if booking.RoomID == room && booking.ID != exclude && booking.Status == constant.BookingStatusActive {
					count++
				}
			}

			return count, nil
		}).AnyTimes()

	f.rooms.EXPECT().GetForUpdateTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, id string) (roomModel.Room, error) {
			w.mu.Lock()
			defer w.mu.Unlock()

			return w.rooms[id], nil
		}).AnyTimes()

	f.rooms.EXPECT().UpdateStatusTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, id, status, _ string, _ time.Time) error {
			w.mu.Lock()
			defer w.mu.Unlock()

			room := w.rooms[id]
			room.Status = status
			w.rooms[id] = room
			w.writes++

			return nil
		}).AnyTimes()

	f.history.EXPECT().InsertBulkTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, entries []historyModel.History) error {
			w.mu.Lock()
			defer w.mu.Unlock()

			w.histories = append(w.histories, entries...)

			return nil
		}).AnyTimes()

	f.history.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, entry historyModel.History) error {
			w.mu.Lock()
			defer w.mu.Unlock()

			w.histories = append(w.histories, entry)

			return nil
		}).AnyTimes()
}
