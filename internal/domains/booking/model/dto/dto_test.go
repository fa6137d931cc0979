package dto_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roombook/internal/domains/booking/model"
	"roombook/internal/domains/booking/model/dto"
	"roombook/shared/constant"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		name       string
		borrowDate string
		start      string
		end        string
		returnDate string
		wantErr    error
	}{
		{name: "same day", borrowDate: "2026-03-02", start: "09:00", end: "10:00"},
		{name: "with seconds", borrowDate: "2026-03-02", start: "09:00:00", end: "10:00:30"},
		{name: "multi day still needs end after start", borrowDate: "2026-03-02", start: "09:00", end: "08:00", returnDate: "2026-03-03", wantErr: dto.ErrEndBeforeStart},
		{name: "return same day", borrowDate: "2026-03-02", start: "09:00", end: "10:00", returnDate: "2026-03-02"},
		{name: "end equals start", borrowDate: "2026-03-02", start: "09:00", end: "09:00", wantErr: dto.ErrEndBeforeStart},
		{name: "return before borrow", borrowDate: "2026-03-02", start: "09:00", end: "10:00", returnDate: "2026-03-01", wantErr: dto.ErrReturnBeforeStart},
		{name: "bad borrow date", borrowDate: "2026-13-02", start: "09:00", end: "10:00", wantErr: dto.ErrInvalidBorrowDate},
		{name: "bad return date", borrowDate: "2026-03-02", start: "09:00", end: "10:00", returnDate: "tomorrow", wantErr: dto.ErrInvalidReturnDate},
		{name: "bad time", borrowDate: "2026-03-02", start: "9am", end: "10:00", wantErr: dto.ErrInvalidTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sch, err := dto.ParseSchedule(tt.borrowDate, tt.start, tt.end, tt.returnDate)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), sch.BorrowDate)
			assert.Equal(t, 9, sch.StartTime.Hour())
			assert.Equal(t, tt.returnDate != "", sch.ReturnDate != nil)
		})
	}
}

func TestBookingResponse_FromModel(t *testing.T) {
	approvedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	approver := "admin-1"

	booking := model.Booking{
		ID:         "b1",
		RoomID:     "room-1",
		RoomName:   "Aula",
		UserID:     "user-1",
		ApprovedBy: &approver,
		ApprovedAt: &approvedAt,
		BorrowDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime:  time.Date(0, 1, 1, 9, 0, 0, 0, time.UTC),
		EndTime:    time.Date(0, 1, 1, 10, 30, 0, 0, time.UTC),
		Status:     constant.BookingStatusApproved,
	}

	var res dto.BookingResponse
	res.FromModel(booking)

	assert.Equal(t, "2026-03-02", res.BorrowDate)
	assert.Equal(t, "2026-03-02", res.ReturnDate)
	assert.Equal(t, "09:00", res.StartTime)
	assert.Equal(t, "10:30", res.EndTime)
	assert.Equal(t, "2026-03-02T09:00:00Z", res.BorrowedAt)
	assert.Equal(t, "2026-03-02T10:30:00Z", res.PlannedReturnAt)
	require.NotNil(t, res.ApprovedAt)
	assert.Equal(t, "2026-03-01T10:00:00Z", *res.ApprovedAt)
	assert.Nil(t, res.ReturnedAt)
	assert.Equal(t, []string{}, res.Equipment)
	assert.Equal(t, "Aula", res.RoomName)
}

func TestCreateBookingRequest_ToModel(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	sch, err := dto.ParseSchedule("2026-03-02", "09:00", "10:00", "")
	require.NoError(t, err)

	t.Run("optional fields omitted", func(t *testing.T) {
		req := dto.CreateBookingRequest{RoomID: "room-1", BorrowerName: "Sari", Purpose: "Rapat"}

		booking := req.ToModel(sch, "user-1", "user-1", now)

		require.NotNil(t, booking.Equipment)
		assert.Empty(t, booking.Equipment)
		assert.Equal(t, 1, booking.ParticipantCount)

		value, err := booking.Equipment.Value()
		require.NoError(t, err)
		assert.Equal(t, "{}", value)
	})

	t.Run("provided fields kept", func(t *testing.T) {
		req := dto.CreateBookingRequest{ParticipantCount: 12, Equipment: []string{"proyektor"}}

		booking := req.ToModel(sch, "user-1", "admin-1", now)

		assert.Equal(t, 12, booking.ParticipantCount)
		assert.Equal(t, []string{"proyektor"}, []string(booking.Equipment))
		assert.Equal(t, constant.BookingStatusPending, booking.Status)
		assert.Equal(t, "admin-1", booking.CreatedBy)
	})
}

func TestNewStatusChangedEvent(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 1, 0, 0, time.UTC)
	booking := model.Booking{ID: "b1", RoomID: "room-1", Status: constant.BookingStatusApproved}

	system := dto.NewStatusChangedEvent(booking, constant.HistoryActionActivated, constant.BookingStatusActive, "", now)
	assert.Equal(t, constant.BookingStatusApproved, system.OldStatus)
	assert.Equal(t, constant.BookingStatusActive, system.NewStatus)
	assert.Nil(t, system.PerformedBy)

	manual := dto.NewStatusChangedEvent(booking, constant.HistoryActionCancelled, constant.BookingStatusCancelled, "user-1", now)
	require.NotNil(t, manual.PerformedBy)
	assert.Equal(t, "user-1", *manual.PerformedBy)
}
