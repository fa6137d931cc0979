package model

import (
	"roombook/shared/model"
	"roombook/shared/timezone"
	"time"

	"github.com/lib/pq"
)

const (
	TableName  = "room_bookings"
	EntityName = "booking"

	FieldID               = "id"
	FieldRoomID           = "room_id"
	FieldUserID           = "user_id"
	FieldApprovedBy       = "approved_by"
	FieldApprovedAt       = "approved_at"
	FieldBorrowDate       = "borrow_date"
	FieldStartTime        = "start_time"
	FieldEndTime          = "end_time"
	FieldReturnDate       = "return_date"
	FieldReturnedAt       = "returned_at"
	FieldStatus           = "status"
	FieldRejectionReason  = "rejection_reason"
	FieldAdminNotes       = "admin_notes"
	FieldParticipantCount = "participant_count"
	FieldEquipment        = "equipment"

	// Generated columns holding borrow_date+start_time and
	// COALESCE(return_date, borrow_date)+end_time as timestamps without time
	// zone, read in the application timezone.
	FieldBorrowedAt      = "borrowed_at"
	FieldPlannedReturnAt = "planned_return_at"
)

type Booking struct {
	ID               string         `db:"id"`
	RoomID           string         `db:"room_id"`
	UserID           string         `db:"user_id"`
	ApprovedBy       *string        `db:"approved_by"`
	BorrowDate       time.Time      `db:"borrow_date"`
	StartTime        time.Time      `db:"start_time"`
	EndTime          time.Time      `db:"end_time"`
	ReturnDate       *time.Time     `db:"return_date"`
	ReturnedAt       *time.Time     `db:"returned_at"`
	ApprovedAt       *time.Time     `db:"approved_at"`
	Status           string         `db:"status"`
	BorrowerName     string         `db:"borrower_name"`
	BorrowerEmail    string         `db:"borrower_email"`
	BorrowerPhone    string         `db:"borrower_phone"`
	Purpose          string         `db:"purpose"`
	ParticipantCount int            `db:"participant_count"`
	Equipment        pq.StringArray `db:"equipment"`
	Notes            string         `db:"notes"`
	RejectionReason  string         `db:"rejection_reason"`
	AdminNotes       string         `db:"admin_notes"`
	RoomCode         string         `column:"code"              db:"room_code"  table:"rooms"`
	RoomName         string         `column:"name"              db:"room_name"  table:"rooms"`
	model.Metadata
}

func (Booking) GetJoinQuery() string {
	return "JOIN rooms ON rooms.id = room_bookings.room_id"
}

// BorrowedAt is the instant the booking window opens.
func (b Booking) BorrowedAt() time.Time {
	return timezone.Combine(b.BorrowDate, b.StartTime)
}

// PlannedReturnAt is the instant the booking window closes. The return date
// defaults to the borrow date.
func (b Booking) PlannedReturnAt() time.Time {
	returnDate := b.BorrowDate
	if b.ReturnDate != nil {
		returnDate = *b.ReturnDate
	}

	return timezone.Combine(returnDate, b.EndTime)
}
