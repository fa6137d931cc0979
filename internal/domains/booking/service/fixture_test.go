package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/mock/gomock"

	"roombook/config"
	otelMocks "roombook/infras/otel/mocks"
	bookingMocks "roombook/internal/domains/booking/mocks"
	"roombook/internal/domains/booking/model"
	"roombook/internal/domains/booking/service"
	historyMocks "roombook/internal/domains/history/mocks"
	roomMocks "roombook/internal/domains/room/mocks"
	roomModel "roombook/internal/domains/room/model"
	cacheMocks "roombook/shared/cache/mocks"
	"roombook/shared/clock"
	"roombook/shared/constant"
	"roombook/shared/event"
	eventMocks "roombook/shared/event/mocks"
	"roombook/shared/failure"
	txMocks "roombook/shared/transaction/mocks"
)

const (
	testTopic   = "booking.status_changed"
	testLockKey = int64(42)
	ownerID     = "user-1"
	adminID     = "admin-1"
	roomID      = "room-1"
)

type recorder struct {
	mu       sync.Mutex
	messages []event.Message
}

func (r *recorder) add(messages ...event.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, messages...)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.messages)
}

// storableBooking matches bookings the room_bookings table accepts: equipment
// is not NULL, at least one participant, the window ends after it starts and
// the return date is not before the borrow date.
type storableBooking struct{}

func storable() gomock.Matcher {
	return storableBooking{}
}

func (storableBooking) Matches(x any) bool {
	booking, ok := x.(model.Booking)
	if !ok {
		return false
	}

	if booking.Equipment == nil || booking.ParticipantCount < 1 {
		return false
	}

	if booking.ReturnDate != nil && booking.ReturnDate.Before(booking.BorrowDate) {
		return false
	}

	return booking.PlannedReturnAt().After(booking.BorrowedAt())
}

func (storableBooking) String() string {
	return "is a booking that satisfies the room_bookings constraints"
}

type fixture struct {
	repo      *bookingMocks.MockBooking
	rooms     *roomMocks.MockRoom
	history   *historyMocks.MockHistory
	tx        *txMocks.MockTransactor
	cache     *cacheMocks.MockRedisCache
	clock     *clock.Fixed
	published *recorder
	svc       service.Booking
	sync      service.StatusSync
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := fixture{
		repo:      bookingMocks.NewMockBooking(ctrl),
		rooms:     roomMocks.NewMockRoom(ctrl),
		history:   historyMocks.NewMockHistory(ctrl),
		tx:        txMocks.NewMockTransactor(ctrl),
		cache:     cacheMocks.NewMockRedisCache(ctrl),
		clock:     clock.NewFixed(at(8, 0)),
		published: &recorder{},
	}

	events := eventMocks.NewMockPublisher(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 60
	cfg.Event.Topic = testTopic
	cfg.Scheduler.LockKey = testLockKey

	ot := otelMocks.NewOtel()

	f.svc = service.New(f.repo, f.rooms, f.history, f.tx, events, cfg, f.cache, ot, f.clock)
	f.sync = service.NewStatusSync(f.repo, f.rooms, f.history, f.tx, events, cfg, f.cache, ot)

	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	events.EXPECT().Publish(gomock.Any(), testTopic, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, messages ...event.Message) error {
			f.published.add(messages...)

			return nil
		}).AnyTimes()

	return f
}

// runTx makes the mocked transactor call fn directly, the way WithinTx does
// once a transaction is open.
func (f fixture) runTx() {
	f.tx.EXPECT().WithinTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, *sqlx.Tx) error) error {
			return failure.Transaction(fn(ctx, nil))
		})
}

func ctxAs(userID, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, userID)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

// at is a wall-clock instant on the test day.
func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func clockTime(hour, minute int) time.Time {
	return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC)
}

func newBooking(id, status string, startHour, startMinute, endHour, endMinute int) model.Booking {
	return model.Booking{
		ID:         id,
		RoomID:     roomID,
		UserID:     ownerID,
		BorrowDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime:  clockTime(startHour, startMinute),
		EndTime:    clockTime(endHour, endMinute),
		Status:     status,
	}
}

func newRoom(status string) roomModel.Room {
	return roomModel.Room{ID: roomID, Code: "R1", Name: "Ruang Rapat 1", Capacity: 20, Status: status}
}
