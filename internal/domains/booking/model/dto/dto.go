package dto

import (
	"errors"
	"strings"
	"time"

	"roombook/internal/domains/booking/model"
	"roombook/shared"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	gModel "roombook/shared/model"
	"roombook/shared/timezone"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrInvalidBorrowDate = errors.New("borrow_date must use the YYYY-MM-DD format")
	ErrInvalidReturnDate = errors.New("return_date must use the YYYY-MM-DD format")
	ErrInvalidTime       = errors.New("start_time and end_time must use the HH:MM format")
	ErrEndBeforeStart    = errors.New("end_time must be after start_time")
	ErrReturnBeforeStart = errors.New("return_date must not be before borrow_date")
)

// Schedule is the parsed form of the date and time fields of a request.
// Values are anchored to UTC so the wall-clock digits reach DATE and TIME
// columns unchanged.
type Schedule struct {
	BorrowDate time.Time
	StartTime  time.Time
	EndTime    time.Time
	ReturnDate *time.Time
}

// ParseSchedule parses and checks the time invariants of a booking.
func ParseSchedule(borrowDate, startTime, endTime, returnDate string) (Schedule, error) {
	var sch Schedule

	date, err := time.Parse(timezone.LayoutDate, borrowDate)
	if err != nil {
		return sch, ErrInvalidBorrowDate
	}

	start, err := parseClock(date, startTime)
	if err != nil {
		return sch, err
	}

	end, err := parseClock(date, endTime)
	if err != nil {
		return sch, err
	}

	if !end.After(start) {
		return sch, ErrEndBeforeStart
	}

	sch = Schedule{BorrowDate: date, StartTime: start, EndTime: end}

	if returnDate != constant.Empty {
		ret, err := time.Parse(timezone.LayoutDate, returnDate)
		if err != nil {
			return Schedule{}, ErrInvalidReturnDate
		}

		if ret.Before(date) {
			return Schedule{}, ErrReturnBeforeStart
		}

		sch.ReturnDate = &ret
	}

	return sch, nil
}

func parseClock(date time.Time, value string) (time.Time, error) {
	for _, layout := range []string{timezone.LayoutClock, timezone.LayoutClockSecs} {
		clock, err := time.Parse(layout, value)
		if err == nil {
			return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC), nil
		}
	}

	return time.Time{}, ErrInvalidTime
}

type CreateBookingRequest struct {
	RoomID           string   `json:"room_id"           validate:"required,uuid"`
	UserID           string   `json:"user_id"           validate:"omitempty,uuid"`
	BorrowerName     string   `json:"borrower_name"     validate:"required,max=100"`
	BorrowerEmail    string   `json:"borrower_email"    validate:"omitempty,email,max=100"`
	BorrowerPhone    string   `json:"borrower_phone"    validate:"omitempty,max=20"`
	BorrowDate       string   `json:"borrow_date"       validate:"required,date"`
	StartTime        string   `json:"start_time"        validate:"required,clock"`
	EndTime          string   `json:"end_time"          validate:"required,clock"`
	ReturnDate       string   `json:"return_date"       validate:"omitempty,date"`
	Purpose          string   `json:"purpose"           validate:"required,max=500"`
	ParticipantCount int      `json:"participant_count" validate:"omitempty,min=1"`
	Equipment        []string `json:"equipment"         validate:"omitempty,dive,max=50"`
	Notes            string   `json:"notes"             validate:"omitempty,max=1000"`
}

const defaultParticipantCount = 1

// ToModel builds a pending booking owned by owner and created by creator.
// Omitted participant count and equipment get the column defaults, since the
// insert names every column.
func (c *CreateBookingRequest) ToModel(sch Schedule, owner, creator string, now time.Time) model.Booking {
	participants := c.ParticipantCount
	if participants < defaultParticipantCount {
		participants = defaultParticipantCount
	}

	equipment := pq.StringArray{}
	if c.Equipment != nil {
		equipment = c.Equipment
	}

	return model.Booking{
		ID:               uuid.NewString(),
		RoomID:           c.RoomID,
		UserID:           owner,
		BorrowDate:       sch.BorrowDate,
		StartTime:        sch.StartTime,
		EndTime:          sch.EndTime,
		ReturnDate:       sch.ReturnDate,
		Status:           constant.BookingStatusPending,
		BorrowerName:     c.BorrowerName,
		BorrowerEmail:    c.BorrowerEmail,
		BorrowerPhone:    c.BorrowerPhone,
		Purpose:          c.Purpose,
		ParticipantCount: participants,
		Equipment:        equipment,
		Notes:            c.Notes,
		Metadata:         gModel.NewMetadata(creator, now),
	}
}

// UpdateBookingRequest edits a pending booking. Date and time fields are
// replaced together when any of them is present.
type UpdateBookingRequest struct {
	BorrowerName     string   `db:"borrower_name"     json:"borrower_name"     validate:"omitempty,max=100"`
	BorrowerEmail    string   `db:"borrower_email"    json:"borrower_email"    validate:"omitempty,email,max=100"`
	BorrowerPhone    string   `db:"borrower_phone"    json:"borrower_phone"    validate:"omitempty,max=20"`
	Purpose          string   `db:"purpose"           json:"purpose"           validate:"omitempty,max=500"`
	ParticipantCount *int     `db:"participant_count" json:"participant_count" validate:"omitempty,min=1"`
	Notes            string   `db:"notes"             json:"notes"             validate:"omitempty,max=1000"`
	Equipment        []string `json:"equipment"         validate:"omitempty,dive,max=50"`
	BorrowDate       string   `json:"borrow_date"       validate:"omitempty,date"`
	StartTime        string   `json:"start_time"        validate:"omitempty,clock"`
	EndTime          string   `json:"end_time"          validate:"omitempty,clock"`
	ReturnDate       string   `json:"return_date"       validate:"omitempty,date"`
}

func (u *UpdateBookingRequest) HasSchedule() bool {
	return u.BorrowDate != constant.Empty || u.StartTime != constant.Empty ||
		u.EndTime != constant.Empty || u.ReturnDate != constant.Empty
}

type ApproveBookingRequest struct {
	Note string `json:"note" validate:"omitempty,max=1000"`
}

type RejectBookingRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
	Note   string `json:"note"   validate:"omitempty,max=1000"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

func (r *RejectBookingRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
	r.Note = strings.TrimSpace(r.Note)
}

type BookingResponse struct {
	ID               string   `json:"id"`
	RoomID           string   `json:"room_id"`
	RoomCode         string   `json:"room_code"`
	RoomName         string   `json:"room_name"`
	UserID           string   `json:"user_id"`
	ApprovedBy       *string  `json:"approved_by"`
	ApprovedAt       *string  `json:"approved_at"`
	BorrowDate       string   `json:"borrow_date"`
	StartTime        string   `json:"start_time"`
	EndTime          string   `json:"end_time"`
	ReturnDate       string   `json:"return_date"`
	BorrowedAt       string   `json:"borrowed_at"`
	PlannedReturnAt  string   `json:"planned_return_at"`
	ReturnedAt       *string  `json:"returned_at"`
	Status           string   `json:"status"`
	BorrowerName     string   `json:"borrower_name"`
	BorrowerEmail    string   `json:"borrower_email"`
	BorrowerPhone    string   `json:"borrower_phone"`
	Purpose          string   `json:"purpose"`
	ParticipantCount int      `json:"participant_count"`
	Equipment        []string `json:"equipment"`
	Notes            string   `json:"notes"`
	RejectionReason  string   `json:"rejection_reason"`
	AdminNotes       string   `json:"admin_notes"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	returnDate := model.BorrowDate
	if model.ReturnDate != nil {
		returnDate = *model.ReturnDate
	}

	r.ID = model.ID
	r.RoomID = model.RoomID
	r.RoomCode = model.RoomCode
	r.RoomName = model.RoomName
	r.UserID = model.UserID
	r.ApprovedBy = model.ApprovedBy
	r.ApprovedAt = formatOptional(model.ApprovedAt)
	r.BorrowDate = model.BorrowDate.Format(timezone.LayoutDate)
	r.StartTime = model.StartTime.Format(timezone.LayoutClock)
	r.EndTime = model.EndTime.Format(timezone.LayoutClock)
	r.ReturnDate = returnDate.Format(timezone.LayoutDate)
	r.BorrowedAt = model.BorrowedAt().Format(constant.DateFormat)
	r.PlannedReturnAt = model.PlannedReturnAt().Format(constant.DateFormat)
	r.ReturnedAt = formatOptional(model.ReturnedAt)
	r.Status = model.Status
	r.BorrowerName = model.BorrowerName
	r.BorrowerEmail = model.BorrowerEmail
	r.BorrowerPhone = model.BorrowerPhone
	r.Purpose = model.Purpose
	r.ParticipantCount = model.ParticipantCount
	r.Equipment = []string(model.Equipment)
	r.Notes = model.Notes
	r.RejectionReason = model.RejectionReason
	r.AdminNotes = model.AdminNotes
	r.Metadata.FromModel(model.Metadata)

	if r.Equipment == nil {
		r.Equipment = []string{}
	}
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}

	formatted := timezone.Format(*t, constant.DateFormat)

	return &formatted
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

// SyncResult summarizes one status synchronization run.
type SyncResult struct {
	Activated     int  `json:"activated"`
	Completed     int  `json:"completed"`
	RoomsReleased int  `json:"rooms_released"`
	RoomsKept     int  `json:"rooms_kept"`
	Skipped       bool `json:"skipped"`
}

// StatusChangedEvent is published once per committed booking transition.
type StatusChangedEvent struct {
	BookingID   string    `json:"booking_id"`
	RoomID      string    `json:"room_id"`
	Action      string    `json:"action"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	PerformedBy *string   `json:"performed_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewStatusChangedEvent(booking model.Booking, action, newStatus, performer string, at time.Time) StatusChangedEvent {
	evt := StatusChangedEvent{
		BookingID:  booking.ID,
		RoomID:     booking.RoomID,
		Action:     action,
		OldStatus:  booking.Status,
		NewStatus:  newStatus,
		OccurredAt: at,
	}

	if performer != constant.Empty {
		evt.PerformedBy = &performer
	}

	return evt
}
