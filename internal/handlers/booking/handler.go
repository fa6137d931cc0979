package booking

import (
	"context"
	"net/http"

	"roombook/infras/otel"
	"roombook/internal/domains/booking/model"
	"roombook/internal/domains/booking/model/dto"
	"roombook/internal/domains/booking/service"
	historyDto "roombook/internal/domains/history/model/dto"
	historyService "roombook/internal/domains/history/service"
	"roombook/shared/clock"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	"roombook/shared/failure"
	"roombook/shared/validator"
	"roombook/transport/http/response"

	"github.com/go-chi/chi/v5"
)

var errInvalidBorrowDate = failure.BadRequestFromString("borrow_date must use the YYYY-MM-DD format")

type Handler struct {
	service service.Booking
	history historyService.History
	sync    service.StatusSync
	clock   clock.Clock
	otel    otel.Otel
}

func New(service service.Booking, history historyService.History, sync service.StatusSync, clock clock.Clock, otel otel.Otel) Handler {
	return Handler{
		service: service,
		history: history,
		sync:    sync,
		clock:   clock,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateBooking)
		routerGroup.Get("/", handler.GetBookings)
		routerGroup.Get("/mybookings", handler.GetMyBookings)
		routerGroup.Post("/sync", handler.SyncStatuses)
		routerGroup.Get("/{id}", handler.GetBookingByID)
		routerGroup.Patch("/{id}", handler.UpdateBooking)
		routerGroup.Delete("/{id}", handler.DeleteBooking)
		routerGroup.Post("/{id}/approve", handler.ApproveBooking)
		routerGroup.Post("/{id}/reject", handler.RejectBooking)
		routerGroup.Post("/{id}/cancel", handler.CancelBooking)
		routerGroup.Get("/{id}/histories", handler.GetBookingHistories)
	})
}

// CreateBooking handles the creation of a new booking.
// @Summary Create a new booking
// @Description Create a pending room booking. Administrators may book on behalf of another user.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.BookingResponse] "Created booking"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [post]
// @Security BearerAuth
func (handler *Handler) CreateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		response.WithTracedError(writer, scope, err, "validate request body")

		return
	}

	booking, err := handler.service.Create(ctx, req)
	if err != nil {
		response.WithTracedError(writer, scope, err, "create booking")

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking created successfully by user " + user)

	response.WithJSON(writer, http.StatusCreated, booking)
}

// GetBookings retrieves all bookings based on query parameters.
// @Summary Get all bookings
// @Description Retrieve bookings with optional filtering and pagination.
// @Tags Booking
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param room_id query string false "Filter by room"
// @Param user_id query string false "Filter by requester"
// @Param status query string false "Filter by status" Enums(pending, approved, rejected, active, completed, cancelled)
// @Param borrow_date query string false "Filter by borrow date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [get]
// @Security BearerAuth
func (handler *Handler) GetBookings(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookings")
	defer scope.End()

	filterGroup, err := bookingFilters(request)
	if err != nil {
		response.WithTracedError(writer, scope, err, "parse booking filters")

		return
	}

	filterGroup.AppendIfNotEmpty(gDto.Filter{
		Field:    model.FieldUserID,
		Operator: gDto.FilterOperatorEq,
		Value:    request.URL.Query().Get(model.FieldUserID),
		Table:    model.TableName,
	})

	handler.list(ctx, writer, request, filterGroup)
}

// GetMyBookings retrieves the bookings of the current user.
// @Summary Get my bookings
// @Description Retrieve the bookings requested by the authenticated user.
// @Tags Booking
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param room_id query string false "Filter by room"
// @Param status query string false "Filter by status" Enums(pending, approved, rejected, active, completed, cancelled)
// @Param borrow_date query string false "Filter by borrow date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/mybookings [get]
// @Security BearerAuth
func (handler *Handler) GetMyBookings(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyBookings")
	defer scope.End()

	filterGroup, err := bookingFilters(request)
	if err != nil {
		response.WithTracedError(writer, scope, err, "parse booking filters")

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
		Field:    model.FieldUserID,
		Operator: gDto.FilterOperatorEq,
		Value:    user,
		Table:    model.TableName,
	})

	handler.list(ctx, writer, request, filterGroup)
}

func (handler *Handler) list(ctx context.Context, writer http.ResponseWriter, request *http.Request, filterGroup gDto.FilterGroup) {
	ctx, scope := handler.otel.NewScope(ctx, constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".list")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	bookings, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		response.WithTracedError(writer, scope, err, "get bookings")

		return
	}

	response.WithJSON(writer, http.StatusOK, bookings)
}

// GetBookingByID retrieves a booking by its ID.
// @Summary Get a booking by ID
// @Description Retrieve a booking. Users can only read their own bookings.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking details"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBookingByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	booking, err := handler.service.Get(ctx, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		response.WithTracedError(writer, scope, err, "get booking by ID")

		return
	}

	response.WithJSON(writer, http.StatusOK, booking)
}

// UpdateBooking updates a pending booking.
// @Summary Update a booking by ID
// @Description Update a booking while it is still pending.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.UpdateBookingRequest true "Update Booking Request"
// @Success 200 {object} response.Message "Booking updated successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateBooking")
	defer scope.End()

	req := dto.UpdateBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		response.WithTracedError(writer, scope, err, "validate request body")

		return
	}

	if err := handler.service.Update(ctx, req, chi.URLParam(request, constant.RequestParamID)); err != nil {
		response.WithTracedError(writer, scope, err, "update booking")

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking updated successfully by user " + user)

	response.WithMessage(writer, http.StatusOK, "Booking updated successfully")
}

// DeleteBooking deletes a booking by its ID.
// @Summary Delete a booking by ID
// @Description Delete a booking and its history. Active bookings must be cancelled first.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Message "Booking deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteBooking")
	defer scope.End()

	if err := handler.service.Delete(ctx, chi.URLParam(request, constant.RequestParamID)); err != nil {
		response.WithTracedError(writer, scope, err, "delete booking")

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking deleted successfully by user " + user)

	response.WithMessage(writer, http.StatusOK, "Booking deleted successfully")
}

// ApproveBooking approves a pending booking.
// @Summary Approve a booking
// @Description Approve a pending booking. The approver is the authenticated user.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.ApproveBookingRequest false "Approval note"
// @Success 200 {object} response.Message "Booking approved successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/approve [post]
// @Security BearerAuth
func (handler *Handler) ApproveBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ApproveBooking")
	defer scope.End()

	req := dto.ApproveBookingRequest{}

	if err := validator.ValidateOptional(request.Body, &req); err != nil {
		response.WithTracedError(writer, scope, err, "validate request body")

		return
	}

	approver, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if err := handler.service.Approve(ctx, chi.URLParam(request, constant.RequestParamID), approver, req.Note); err != nil {
		response.WithTracedError(writer, scope, err, "approve booking")

		return
	}

	response.WithMessage(writer, http.StatusOK, "Booking approved successfully")
}

// RejectBooking rejects a pending booking.
// @Summary Reject a booking
// @Description Reject a pending booking with a reason. The approver is the authenticated user.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.RejectBookingRequest true "Rejection reason"
// @Success 200 {object} response.Message "Booking rejected successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/reject [post]
// @Security BearerAuth
func (handler *Handler) RejectBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RejectBooking")
	defer scope.End()

	req := dto.RejectBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		response.WithTracedError(writer, scope, err, "validate request body")

		return
	}

	approver, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if err := handler.service.Reject(ctx, chi.URLParam(request, constant.RequestParamID), approver, req.Reason, req.Note); err != nil {
		response.WithTracedError(writer, scope, err, "reject booking")

		return
	}

	response.WithMessage(writer, http.StatusOK, "Booking rejected successfully")
}

// CancelBooking cancels a booking that has not ended yet.
// @Summary Cancel a booking
// @Description Cancel a pending, approved or active booking. Owners and administrators only.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.CancelBookingRequest false "Cancel reason"
// @Success 200 {object} response.Message "Booking cancelled successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/cancel [post]
// @Security BearerAuth
func (handler *Handler) CancelBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelBooking")
	defer scope.End()

	req := dto.CancelBookingRequest{}

	if err := validator.ValidateOptional(request.Body, &req); err != nil {
		response.WithTracedError(writer, scope, err, "validate request body")

		return
	}

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if err := handler.service.Cancel(ctx, chi.URLParam(request, constant.RequestParamID), actor, req.Reason); err != nil {
		response.WithTracedError(writer, scope, err, "cancel booking")

		return
	}

	response.WithMessage(writer, http.StatusOK, "Booking cancelled successfully")
}

// GetBookingHistories lists the audit trail of a booking.
// @Summary Get booking histories
// @Description Retrieve the status history of a booking, oldest first.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[historyDto.GetHistoriesResponse] "Booking histories"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/histories [get]
// @Security BearerAuth
func (handler *Handler) GetBookingHistories(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingHistories")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	// Get enforces ownership for plain users.
	if _, err := handler.service.Get(ctx, id); err != nil {
		response.WithTracedError(writer, scope, err, "load booking")

		return
	}

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	var histories historyDto.GetHistoriesResponse

	histories, err := handler.history.GetByBooking(ctx, id, queryParams)
	if err != nil {
		response.WithTracedError(writer, scope, err, "get booking histories")

		return
	}

	response.WithJSON(writer, http.StatusOK, histories)
}

// SyncStatuses runs one status synchronization with the server clock.
// @Summary Synchronize booking statuses
// @Description Activate approved bookings that have started and complete active bookings that have ended.
// @Tags Booking
// @Accept json
// @Produce json
// @Success 200 {object} response.Data[dto.SyncResult] "Synchronization result"
// @Failure 500 {object} response.Error
// @Router /v1/bookings/sync [post]
// @Security BearerAuth
// @Security ApiKeyAuth
func (handler *Handler) SyncStatuses(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SyncStatuses")
	defer scope.End()

	result, err := handler.sync.Run(ctx, handler.clock.Now())
	if err != nil {
		response.WithTracedError(writer, scope, err, "synchronize booking statuses")

		return
	}

	response.WithJSON(writer, http.StatusOK, result)
}

func bookingFilters(request *http.Request) (gDto.FilterGroup, error) {
	query := request.URL.Query()
	borrowDate := query.Get(model.FieldBorrowDate)

	if err := validator.ValidateVar(borrowDate, "omitempty,date"); err != nil {
		return gDto.FilterGroup{}, errInvalidBorrowDate
	}

	filterGroup := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}

	filterGroup.AppendIfNotEmpty(gDto.Filter{
		Field:    model.FieldRoomID,
		Operator: gDto.FilterOperatorEq,
		Value:    query.Get(model.FieldRoomID),
		Table:    model.TableName,
	})
	filterGroup.AppendIfNotEmpty(gDto.Filter{
		Field:    model.FieldStatus,
		Operator: gDto.FilterOperatorEq,
		Value:    query.Get(model.FieldStatus),
		Table:    model.TableName,
	})
	filterGroup.AppendIfNotEmpty(gDto.Filter{
		Field:    model.FieldBorrowDate,
		Operator: gDto.FilterOperatorEq,
		Value:    borrowDate,
		Table:    model.TableName,
	})

	return filterGroup, nil
}
