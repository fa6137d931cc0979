package model

import (
	"roombook/shared/constant"
	"time"

	"github.com/google/uuid"
)

const (
	TableName  = "borrowing_histories"
	EntityName = "history"

	FieldID          = "id"
	FieldBookingID   = "booking_id"
	FieldAction      = "action"
	FieldPerformedBy = "performed_by"
	FieldCreatedAt   = "created_at"
)

// History is one append-only audit entry of a booking. A nil PerformedBy
// marks a transition made by the status sync job.
type History struct {
	ID            string    `db:"id"`
	BookingID     string    `db:"booking_id"`
	Action        string    `db:"action"`
	OldStatus     *string   `db:"old_status"`
	NewStatus     string    `db:"new_status"`
	Comment       string    `db:"comment"`
	PerformedBy   *string   `db:"performed_by"`
	PerformerName *string   `column:"name"            db:"performer_name" table:"users"`
	CreatedAt     time.Time `db:"created_at"`
}

func (History) GetJoinQuery() string {
	return "LEFT JOIN users ON users.id = borrowing_histories.performed_by"
}

// NewEntry builds an entry. Empty oldStatus and performer are stored as NULL.
func NewEntry(bookingID, action, oldStatus, newStatus, comment, performer string, at time.Time) History {
	entry := History{
		ID:        uuid.NewString(),
		BookingID: bookingID,
		Action:    action,
		NewStatus: newStatus,
		Comment:   comment,
		CreatedAt: at,
	}

	if oldStatus != constant.Empty {
		entry.OldStatus = &oldStatus
	}

	if performer != constant.Empty {
		entry.PerformedBy = &performer
	}

	return entry
}
