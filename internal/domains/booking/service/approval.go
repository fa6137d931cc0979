package service

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"unicode/utf8"

	"roombook/internal/domains/booking/model"
	"roombook/internal/domains/booking/model/dto"
	historyModel "roombook/internal/domains/history/model"
	"roombook/shared/constant"
	"roombook/shared/failure"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

type decision struct {
	status  string
	action  string
	comment string
	fields  map[string]any
}

func (s *serviceImpl) Approve(ctx context.Context, bookingID, approverID, note string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Approve")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	note = strings.TrimSpace(note)

	if err = validateDecision(approverID, note); err != nil {
		return err
	}

	comment := note
	if comment == constant.Empty {
		comment = "Booking approved"
	}

	return s.decide(ctx, bookingID, approverID, decision{
		status:  constant.BookingStatusApproved,
		action:  constant.HistoryActionApproved,
		comment: comment,
		fields: map[string]any{
			model.FieldAdminNotes: note,
		},
	})
}

func (s *serviceImpl) Reject(ctx context.Context, bookingID, approverID, reason, note string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reject")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	reason = strings.TrimSpace(reason)
	note = strings.TrimSpace(note)

	if reason == constant.Empty {
		return errReasonRequired
	}

	if utf8.RuneCountInString(reason) > constant.MaxRejectReasonLength {
		return errReasonTooLong
	}

	if err = validateDecision(approverID, note); err != nil {
		return err
	}

	comment := "Booking rejected: " + reason
	if note != constant.Empty {
		comment += ". " + note
	}

	return s.decide(ctx, bookingID, approverID, decision{
		status:  constant.BookingStatusRejected,
		action:  constant.HistoryActionRejected,
		comment: comment,
		fields: map[string]any{
			model.FieldRejectionReason: reason,
			model.FieldAdminNotes:      note,
		},
	})
}

func validateDecision(approverID, note string) error {
	if strings.TrimSpace(approverID) == constant.Empty {
		return errApproverRequired
	}

	if utf8.RuneCountInString(note) > constant.MaxAdminNoteLength {
		return errNoteTooLong
	}

	return nil
}

// decide applies an approval decision to a pending booking. The booking row
// is locked so a concurrent decision or sync run waits and then sees the new
// status.
func (s *serviceImpl) decide(ctx context.Context, bookingID, approverID string, d decision) error {
	now := s.clock.Now()

	var change dto.StatusChangedEvent

	err := s.tx.WithinTx(ctx, func(ctx context.Context, sqltx *sqlx.Tx) error {
		booking, err := s.repo.GetForUpdateTx(ctx, sqltx, bookingID)
		if err != nil {
			return fmt.Errorf("failed to get booking: %w", err)
		}

		if booking.ID == constant.Empty {
			return errBookingNotFound
		}

		if booking.Status != constant.BookingStatusPending {
			return failure.ErrAlreadyProcessed
		}

		fields := map[string]any{
			model.FieldStatus:        d.status,
			model.FieldApprovedBy:    approverID,
			model.FieldApprovedAt:    now,
			constant.FieldModifiedAt: now,
			constant.FieldModifiedBy: approverID,
		}
		maps.Copy(fields, d.fields)

		if err = s.repo.UpdateByIDTx(ctx, sqltx, booking.ID, fields); err != nil {
			return fmt.Errorf("failed to update booking status: %w", err)
		}

		entry := historyModel.NewEntry(booking.ID, d.action, booking.Status, d.status, d.comment, approverID, now)
		if err = s.history.InsertTx(ctx, sqltx, entry); err != nil {
			return fmt.Errorf("failed to write booking history: %w", err)
		}

		change = dto.NewStatusChangedEvent(booking, d.action, d.status, approverID, now)

		return nil
	})
	if err != nil {
		logIfUnexpected(err, "failed to "+d.action+" booking")

		return err //nolint:wrapcheck
	}

	log.Info().Str("booking", bookingID).Str("status", d.status).Str("by", approverID).Msg("booking decided")

	go s.afterCommit(context.WithoutCancel(ctx), []dto.StatusChangedEvent{change})

	return nil
}

func (s *serviceImpl) Cancel(ctx context.Context, bookingID, actorID, reason string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if actorID == constant.Empty {
		return errActorRequired
	}

	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > constant.MaxRejectReasonLength {
		return errCancelReasonTooLong
	}

	comment := "Booking cancelled"
	if reason != constant.Empty {
		comment += ": " + reason
	}

	_, role := currentActor(ctx)
	now := s.clock.Now()

	var (
		change  dto.StatusChangedEvent
		roomIDs []string
	)

	err = s.tx.WithinTx(ctx, func(ctx context.Context, sqltx *sqlx.Tx) error {
		booking, err := s.repo.GetForUpdateTx(ctx, sqltx, bookingID)
		if err != nil {
			return fmt.Errorf("failed to get booking: %w", err)
		}

		if booking.ID == constant.Empty {
			return errBookingNotFound
		}

		if booking.UserID != actorID && !isAdmin(role) {
			return errNotBookingOwner
		}

		if !cancellable(booking.Status) {
			return failure.ErrAlreadyProcessed
		}

		fields := map[string]any{
			model.FieldStatus:        constant.BookingStatusCancelled,
			constant.FieldModifiedAt: now,
			constant.FieldModifiedBy: actorID,
		}

		if booking.Status == constant.BookingStatusActive {
			fields[model.FieldReturnedAt] = now
		}

		if err = s.repo.UpdateByIDTx(ctx, sqltx, booking.ID, fields); err != nil {
			return fmt.Errorf("failed to cancel booking: %w", err)
		}

		if booking.Status == constant.BookingStatusActive {
			if _, err = s.releaseRoomTx(ctx, sqltx, booking, actorID, now); err != nil {
				return err
			}

			roomIDs = append(roomIDs, booking.RoomID)
		}

		entry := historyModel.NewEntry(booking.ID, constant.HistoryActionCancelled, booking.Status, constant.BookingStatusCancelled, comment, actorID, now)
		if err = s.history.InsertTx(ctx, sqltx, entry); err != nil {
			return fmt.Errorf("failed to write booking history: %w", err)
		}

		change = dto.NewStatusChangedEvent(booking, constant.HistoryActionCancelled, constant.BookingStatusCancelled, actorID, now)

		return nil
	})
	if err != nil {
		logIfUnexpected(err, "failed to cancel booking")

		return err //nolint:wrapcheck
	}

	go s.afterCommit(context.WithoutCancel(ctx), []dto.StatusChangedEvent{change}, roomIDs...)

	return nil
}

func cancellable(status string) bool {
	switch status {
	case constant.BookingStatusPending, constant.BookingStatusApproved, constant.BookingStatusActive:
		return true
	default:
		return false
	}
}
