package service

import (
	"context"
	"fmt"

	"roombook/config"
	"roombook/infras/otel"
	"roombook/internal/domains/booking/model"
	"roombook/internal/domains/booking/model/dto"
	"roombook/internal/domains/booking/repository"
	historyModel "roombook/internal/domains/history/model"
	historyRepo "roombook/internal/domains/history/repository"
	roomModel "roombook/internal/domains/room/model"
	roomRepo "roombook/internal/domains/room/repository"
	"roombook/shared"
	"roombook/shared/cache"
	"roombook/shared/clock"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	"roombook/shared/event"
	"roombook/shared/failure"
	"roombook/shared/timezone"
	"roombook/shared/transaction"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var (
	errBookingNotFound     = failure.NotFound("booking not found")
	errRoomNotFound        = failure.NotFound("room not found")
	errRoomInMaintenance   = failure.Conflict("room is under maintenance")
	errBookingInPast       = failure.BadRequestFromString("booking must start in the future")
	errOverCapacity        = failure.BadRequestFromString("participant count exceeds room capacity")
	errNotBookingOwner     = failure.Forbidden("you can only manage your own bookings")
	errEmptyUpdate         = failure.BadRequestFromString("update request cannot be empty")
	errDeleteActive        = failure.Conflict("an active booking cannot be deleted, cancel it first")
	errApproverRequired    = failure.BadRequestFromString("approver is required")
	errActorRequired       = failure.Unauthorized("actor is required")
	errReasonRequired      = failure.BadRequestFromString("rejection reason is required")
	errReasonTooLong       = failure.BadRequestFromString(fmt.Sprintf("rejection reason must be at most %d characters", constant.MaxRejectReasonLength))
	errNoteTooLong         = failure.BadRequestFromString(fmt.Sprintf("note must be at most %d characters", constant.MaxAdminNoteLength))
	errCancelReasonTooLong = failure.BadRequestFromString(fmt.Sprintf("cancel reason must be at most %d characters", constant.MaxRejectReasonLength))
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	Update(ctx context.Context, req dto.UpdateBookingRequest, id string) error
	Delete(ctx context.Context, id string) error
	// Approve moves a pending booking to approved. Room status is left to the
	// status sync job.
	Approve(ctx context.Context, bookingID, approverID, note string) error
	// Reject moves a pending booking to rejected. reason is required.
	Reject(ctx context.Context, bookingID, approverID, reason, note string) error
	// Cancel ends a pending, approved or active booking on behalf of its
	// owner or an administrator.
	Cancel(ctx context.Context, bookingID, actorID, reason string) error
}

type serviceImpl struct {
	reconciler
	effects
	history historyRepo.History
	tx      transaction.Transactor
	otel    otel.Otel
	clock   clock.Clock
}

func New(
	repo repository.Booking,
	roomRepo roomRepo.Room,
	history historyRepo.History,
	tx transaction.Transactor,
	events event.Publisher,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
	clock clock.Clock,
) Booking {
	return &serviceImpl{
		reconciler: reconciler{repo: repo, roomRepo: roomRepo},
		effects:    effects{cfg: cfg, cache: cache, events: events},
		history:    history,
		tx:         tx,
		otel:       otel,
		clock:      clock,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	actor, role := currentActor(ctx)
	now := s.clock.Now()

	sch, err := dto.ParseSchedule(req.BorrowDate, req.StartTime, req.EndTime, req.ReturnDate)
	if err != nil {
		return res, failure.BadRequest(err) //nolint:wrapcheck
	}

	owner := actor
	if req.UserID != constant.Empty && isAdmin(role) {
		owner = req.UserID
	}

	booking := req.ToModel(sch, owner, actor, now)

	if !booking.BorrowedAt().After(now) {
		return res, errBookingInPast
	}

	room, err := s.roomRepo.Get(ctx, shared.FilterByID(req.RoomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get room of booking")

		return res, fmt.Errorf("failed to get room: %w", err)
	}

	if err = checkRoom(room, booking.ParticipantCount); err != nil {
		return res, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, sqltx *sqlx.Tx) error {
		if err := s.repo.InsertTx(ctx, sqltx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		entry := historyModel.NewEntry(booking.ID, constant.HistoryActionCreated, constant.Empty, booking.Status, "Booking requested", actor, now)

		return s.history.InsertTx(ctx, sqltx, entry) //nolint:wrapcheck
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		return res, err //nolint:wrapcheck
	}

	booking.RoomCode = room.Code
	booking.RoomName = room.Name
	res.FromModel(booking)

	created := dto.NewStatusChangedEvent(booking, constant.HistoryActionCreated, booking.Status, actor, now)
	created.OldStatus = constant.Empty

	go s.afterCommit(context.WithoutCancel(ctx), []dto.StatusChangedEvent{created})

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(constant.CacheKeyBookingGetAll, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		return res, err
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go s.save(context.WithoutCancel(ctx), cacheKey, res)

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(constant.CacheKeyBookingCount, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go s.save(context.WithoutCancel(ctx), cacheKey, res)

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	actor, role := currentActor(ctx)
	cacheKey := shared.BuildCacheKey(constant.CacheKeyBookingGet, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err != nil {
		booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to get booking")

			return res, fmt.Errorf("failed to get booking: %w", err)
		}

		if booking.ID == constant.Empty {
			return res, errBookingNotFound
		}

		res.FromModel(booking)

		go s.save(context.WithoutCancel(ctx), cacheKey, res)
	}

	if !isAdmin(role) && res.UserID != actor {
		return dto.BookingResponse{}, errNotBookingOwner
	}

	return res, nil
}

// Update edits a pending booking. Date and time fields missing from req keep
// their current values before the schedule is checked again.
func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateBookingRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	fields := shared.TransformFields(req, constant.Empty)
	if len(fields) == 2 && req.Equipment == nil && !req.HasSchedule() {
		return errEmptyUpdate
	}

	actor, role := currentActor(ctx)
	now := s.clock.Now()

	var updated model.Booking

	err = s.tx.WithinTx(ctx, func(ctx context.Context, sqltx *sqlx.Tx) error {
		booking, err := s.repo.GetForUpdateTx(ctx, sqltx, id)
		if err != nil {
			return fmt.Errorf("failed to get booking: %w", err)
		}

		if booking.ID == constant.Empty {
			return errBookingNotFound
		}

		if !isAdmin(role) && booking.UserID != actor {
			return errNotBookingOwner
		}

		if booking.Status != constant.BookingStatusPending {
			return failure.ErrAlreadyProcessed
		}

		if req.HasSchedule() {
			sch, err := mergeSchedule(booking, req)
			if err != nil {
				return failure.BadRequest(err) //nolint:wrapcheck
			}

			fields[model.FieldBorrowDate] = sch.BorrowDate
			fields[model.FieldStartTime] = sch.StartTime
			fields[model.FieldEndTime] = sch.EndTime
			fields[model.FieldReturnDate] = sch.ReturnDate

			booking.BorrowDate, booking.StartTime, booking.EndTime, booking.ReturnDate = sch.BorrowDate, sch.StartTime, sch.EndTime, sch.ReturnDate
			if !booking.BorrowedAt().After(now) {
				return errBookingInPast
			}
		}

		if req.ParticipantCount != nil {
			room, err := s.roomRepo.Get(ctx, shared.FilterByID(booking.RoomID, roomModel.FieldID, roomModel.TableName))
			if err != nil {
				return fmt.Errorf("failed to get room: %w", err)
			}

			if room.Capacity > 0 && *req.ParticipantCount > room.Capacity {
				return errOverCapacity
			}
		}

		if req.Equipment != nil {
			fields[model.FieldEquipment] = pq.StringArray(req.Equipment)
		}

		fields[constant.FieldModifiedAt] = now
		fields[constant.FieldModifiedBy] = actor

		if err = s.repo.UpdateByIDTx(ctx, sqltx, booking.ID, fields); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}

		updated = booking
		entry := historyModel.NewEntry(booking.ID, constant.HistoryActionUpdated, booking.Status, booking.Status, "Booking details updated", actor, now)

		return s.history.InsertTx(ctx, sqltx, entry) //nolint:wrapcheck
	})
	if err != nil {
		logIfUnexpected(err, "failed to update booking")

		return err //nolint:wrapcheck
	}

	go s.invalidate(context.WithoutCancel(ctx), []string{updated.ID}, nil)

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	err = s.tx.WithinTx(ctx, func(ctx context.Context, sqltx *sqlx.Tx) error {
		booking, err := s.repo.GetForUpdateTx(ctx, sqltx, id)
		if err != nil {
			return fmt.Errorf("failed to get booking: %w", err)
		}

		if booking.ID == constant.Empty {
			return errBookingNotFound
		}

		if booking.Status == constant.BookingStatusActive {
			return errDeleteActive
		}

		if err = s.repo.DeleteTx(ctx, sqltx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
			return fmt.Errorf("failed to delete booking: %w", err)
		}

		return nil
	})
	if err != nil {
		logIfUnexpected(err, "failed to delete booking")

		return err //nolint:wrapcheck
	}

	go s.invalidate(context.WithoutCancel(ctx), []string{id}, nil)

	return nil
}

func checkRoom(room roomModel.Room, participants int) error {
	if room.ID == constant.Empty {
		return errRoomNotFound
	}

	if room.Status == constant.RoomStatusMaintenance {
		return errRoomInMaintenance
	}

	if room.Capacity > 0 && participants > room.Capacity {
		return errOverCapacity
	}

	return nil
}

func mergeSchedule(current model.Booking, req dto.UpdateBookingRequest) (dto.Schedule, error) {
	borrowDate := valueOr(req.BorrowDate, current.BorrowDate.Format(timezone.LayoutDate))
	startTime := valueOr(req.StartTime, current.StartTime.Format(timezone.LayoutClockSecs))
	endTime := valueOr(req.EndTime, current.EndTime.Format(timezone.LayoutClockSecs))

	returnDate := req.ReturnDate
	if returnDate == constant.Empty && current.ReturnDate != nil {
		returnDate = current.ReturnDate.Format(timezone.LayoutDate)
	}

	return dto.ParseSchedule(borrowDate, startTime, endTime, returnDate) //nolint:wrapcheck
}

func valueOr(value, fallback string) string {
	if value == constant.Empty {
		return fallback
	}

	return value
}

func currentActor(ctx context.Context) (id, role string) {
	id, _ = ctx.Value(constant.ContextKeyUserID).(string)
	role, _ = ctx.Value(constant.ContextKeyUserRole).(string)

	return id, role
}

func isAdmin(role string) bool {
	return role == constant.RoleAdmin || role == constant.RoleSuperAdmin
}

// logIfUnexpected logs errors that are not caller mistakes.
func logIfUnexpected(err error, msg string) {
	if failure.GetCode(err) >= 500 {
		log.Error().Err(err).Msg(msg)
	}
}
