package room

import (
	"net/http"
	"strings"

	"roombook/infras/otel"
	"roombook/internal/domains/room/model"
	"roombook/internal/domains/room/model/dto"
	"roombook/internal/domains/room/service"
	"roombook/shared"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	"roombook/shared/failure"
	"roombook/shared/validator"
	"roombook/transport/http/response"

	"github.com/go-chi/chi/v5"
)

var errInvalidCapacity = failure.BadRequestFromString("capacity must be a number")

type Handler struct {
	service service.Room
	otel    otel.Otel
}

func New(service service.Room, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/rooms", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateRoom)
		routerGroup.Get("/", handler.GetRooms)
		routerGroup.Get("/{id}", handler.GetRoomByID)
		routerGroup.Patch("/{id}", handler.UpdateRoom)
		routerGroup.Patch("/{id}/status", handler.UpdateRoomStatus)
		routerGroup.Delete("/{id}", handler.DeleteRoom)
	})
}

// CreateRoom handles the creation of a new room.
// @Summary Create a new room
// @Description Create a new room. Status defaults to tersedia.
// @Tags Room
// @Accept multipart/form-data
// @Produce json
// @Param code formData string true "Room code"
// @Param name formData string true "Room name"
// @Param location formData string false "Room location"
// @Param capacity formData integer false "Room capacity"
// @Param facilities formData []string false "Room facilities" collectionFormat(multi)
// @Param description formData string false "Room description"
// @Param status formData string false "Initial status" Enums(tersedia, dipakai, pemeliharaan)
// @Param image formData file false "Room image"
// @Success 201 {object} response.Message "Room created successfully"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms [post]
// @Security BearerAuth
func (handler *Handler) CreateRoom(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateRoom")
	defer scope.End()

	if err := request.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		response.WithTracedError(writer, scope, failure.BadRequest(err), "parse multipart form")

		return
	}

	capacity, err := formInt(request, model.FieldCapacity)
	if err != nil {
		response.WithError(writer, err)

		return
	}

	req := dto.CreateRoomRequest{
		Code:        request.FormValue(model.FieldCode),
		Name:        strings.TrimSpace(request.FormValue(model.FieldName)),
		Location:    strings.TrimSpace(request.FormValue(model.FieldLocation)),
		Facilities:  request.Form[model.FieldFacilities],
		Description: request.FormValue(model.FieldDescription),
		Status:      request.FormValue(model.FieldStatus),
	}

	if capacity != nil {
		req.Capacity = *capacity
	}

	file, fileHeader, err := request.FormFile(model.FieldImage)
	if err == nil {
		req.Image = fileHeader
		req.ImageFile = file

		defer file.Close()
	}

	if err := validator.ValidateStruct(&req); err != nil {
		response.WithTracedError(writer, scope, err, "validate request")

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		response.WithTracedError(writer, scope, err, "create room")

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Room created successfully by user " + user)

	response.WithMessage(writer, http.StatusCreated, "Room created successfully")
}

// GetRooms retrieves rooms based on query parameters.
// @Summary Get all rooms
// @Description Retrieve rooms with optional filtering and pagination.
// @Tags Room
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param name query string false "Filter by name"
// @Param location query string false "Filter by location"
// @Param status query string false "Filter by status" Enums(tersedia, dipakai, pemeliharaan)
// @Success 200 {object} response.Data[dto.GetRoomsResponse] "List of rooms"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms [get]
// @Security BearerAuth
func (handler *Handler) GetRooms(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRooms")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	query := request.URL.Query()
	filterGroup := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}

	filterGroup.AppendIfNotEmpty(gDto.Filter{
		Field:    model.FieldName,
		Operator: gDto.FilterOperatorLike,
		Value:    query.Get(model.FieldName),
		Table:    model.TableName,
	})
	filterGroup.AppendIfNotEmpty(gDto.Filter{
		Field:    model.FieldLocation,
		Operator: gDto.FilterOperatorLike,
		Value:    query.Get(model.FieldLocation),
		Table:    model.TableName,
	})
	filterGroup.AppendIfNotEmpty(gDto.Filter{
		Field:    model.FieldStatus,
		Operator: gDto.FilterOperatorEq,
		Value:    query.Get(model.FieldStatus),
		Table:    model.TableName,
	})

	rooms, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		response.WithTracedError(writer, scope, err, "get rooms")

		return
	}

	scope.AddEvent("Rooms retrieved successfully")

	response.WithJSON(writer, http.StatusOK, rooms)
}

// GetRoomByID retrieves a room by its ID.
// @Summary Get a room by ID
// @Description Retrieve a room by its unique identifier.
// @Tags Room
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Data[dto.RoomResponse] "Room details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetRoomByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRoomByID")
	defer scope.End()

	room, err := handler.service.Get(ctx, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		response.WithTracedError(writer, scope, err, "get room by ID")

		return
	}

	response.WithJSON(writer, http.StatusOK, room)
}

// UpdateRoom updates the details of an existing room.
// @Summary Update a room by ID
// @Description Update room details. Status is changed through PATCH /v1/rooms/{id}/status.
// @Tags Room
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Room ID"
// @Param code formData string false "Room code"
// @Param name formData string false "Room name"
// @Param location formData string false "Room location"
// @Param capacity formData integer false "Room capacity"
// @Param facilities formData []string false "Room facilities, replaces the current list" collectionFormat(multi)
// @Param description formData string false "Room description"
// @Param image formData file false "Room image"
// @Success 200 {object} response.Message "Room updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateRoom(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateRoom")
	defer scope.End()

	if err := request.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		response.WithTracedError(writer, scope, failure.BadRequest(err), "parse multipart form")

		return
	}

	capacity, err := formInt(request, model.FieldCapacity)
	if err != nil {
		response.WithError(writer, err)

		return
	}

	req := dto.UpdateRoomRequest{
		Code:        request.FormValue(model.FieldCode),
		Name:        strings.TrimSpace(request.FormValue(model.FieldName)),
		Location:    strings.TrimSpace(request.FormValue(model.FieldLocation)),
		Capacity:    capacity,
		Facilities:  request.Form[model.FieldFacilities],
		Description: request.FormValue(model.FieldDescription),
	}

	file, fileHeader, err := request.FormFile(model.FieldImage)
	if err == nil {
		req.Image = fileHeader
		req.ImageFile = file

		defer file.Close()
	}

	if err := validator.ValidateStruct(&req); err != nil {
		response.WithTracedError(writer, scope, err, "validate request")

		return
	}

	if err := handler.service.Update(ctx, req, chi.URLParam(request, constant.RequestParamID)); err != nil {
		response.WithTracedError(writer, scope, err, "update room")

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Room updated successfully by user " + user)

	response.WithMessage(writer, http.StatusOK, "Room updated successfully")
}

// UpdateRoomStatus overrides the status of a room.
// @Summary Override room status
// @Description Set a room to tersedia, dipakai or pemeliharaan. The booking sync may change it again on the next activation.
// @Tags Room
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param request body dto.UpdateRoomStatusRequest true "Room status"
// @Success 200 {object} response.Message "Room status updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id}/status [patch]
// @Security BearerAuth
func (handler *Handler) UpdateRoomStatus(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateRoomStatus")
	defer scope.End()

	req := dto.UpdateRoomStatusRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		response.WithTracedError(writer, scope, err, "validate request body")

		return
	}

	if err := handler.service.UpdateStatus(ctx, req, chi.URLParam(request, constant.RequestParamID)); err != nil {
		response.WithTracedError(writer, scope, err, "update room status")

		return
	}

	response.WithMessage(writer, http.StatusOK, "Room status updated successfully")
}

// DeleteRoom deletes a room by its ID.
// @Summary Delete a room by ID
// @Description Delete a room. Rooms that still have bookings cannot be deleted.
// @Tags Room
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Message "Room deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteRoom(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteRoom")
	defer scope.End()

	if err := handler.service.Delete(ctx, chi.URLParam(request, constant.RequestParamID)); err != nil {
		response.WithTracedError(writer, scope, err, "delete room")

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Room deleted successfully by user " + user)

	response.WithMessage(writer, http.StatusOK, "Room deleted successfully")
}

func formInt(request *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(request.FormValue(key))
	if raw == constant.Empty {
		return nil, nil
	}

	value := shared.ConvertStringToInt(raw)
	if value == nil {
		return nil, errInvalidCapacity
	}

	return value, nil
}
