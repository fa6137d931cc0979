package user

import (
	"net/http"
	"net/url"
	"strings"

	"roombook/infras/otel"
	"roombook/internal/domains/user/model"
	"roombook/internal/domains/user/model/dto"
	"roombook/internal/domains/user/service"
	"roombook/shared"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	"roombook/shared/validator"
	"roombook/transport/http/response"

	"github.com/go-chi/chi/v5"
)

// Handler serves account administration and the caller's own profile.
type Handler struct {
	service service.User
	otel    otel.Otel
}

func New(service service.User, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/users", func(users chi.Router) {
		users.Get("/me", handler.GetMe)
		users.Post("/", handler.CreateUser)
		users.Get("/", handler.GetUsers)
		users.Get("/{id}", handler.GetUserByID)
		users.Patch("/{id}", handler.UpdateUser)
		users.Delete("/{id}", handler.DeleteUser)
	})
}

func (handler *Handler) scope(request *http.Request, name string) (*http.Request, otel.Scope) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+"."+name)

	return request.WithContext(ctx), scope
}

// GetMe returns the profile of the authenticated caller.
// @Summary Get own profile
// @Description Profile of the account behind the bearer token, including role and last sign in.
// @Tags User
// @Produce json
// @Success 200 {object} response.Data[dto.UserResponse] "Own profile"
// @Failure 401 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/users/me [get]
// @Security BearerAuth
func (handler *Handler) GetMe(writer http.ResponseWriter, request *http.Request) {
	request, scope := handler.scope(request, "GetMe")
	defer scope.End()

	caller, _ := request.Context().Value(constant.ContextKeyUserID).(string)

	profile, err := handler.service.Get(request.Context(), caller)
	if err != nil {
		response.WithTracedError(writer, scope, err, "get own profile")

		return
	}

	response.WithJSON(writer, http.StatusOK, profile)
}

// CreateUser registers an account on behalf of an administrator.
// @Summary Create a user
// @Description Administrators create accounts with any role; self sign up goes through /v1/auth/register.
// @Tags User
// @Accept json
// @Produce json
// @Param request body dto.CreateUserRequest true "New account"
// @Success 201 {object} response.Message "User created successfully"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/users [post]
// @Security BearerAuth
func (handler *Handler) CreateUser(writer http.ResponseWriter, request *http.Request) {
	request, scope := handler.scope(request, "CreateUser")
	defer scope.End()

	var req dto.CreateUserRequest
	if err := validator.Validate(request.Body, &req); err != nil {
		response.WithTracedError(writer, scope, err, "validate request body")

		return
	}

	if err := handler.service.Create(request.Context(), req); err != nil {
		response.WithTracedError(writer, scope, err, "create user")

		return
	}

	scope.AddEvent("user created")

	response.WithMessage(writer, http.StatusCreated, "User created successfully")
}

// GetUsers lists accounts.
// @Summary List users
// @Description Paginated account list filtered by email, name, role and active flag.
// @Tags User
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param email query string false "Exact email, case insensitive"
// @Param name query string false "Part of the name"
// @Param role query string false "Role" Enums(user, admin, superadmin)
// @Param active query boolean false "Active flag"
// @Success 200 {object} response.Data[dto.GetUsersResponse] "List of users"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/users [get]
// @Security BearerAuth
func (handler *Handler) GetUsers(writer http.ResponseWriter, request *http.Request) {
	request, scope := handler.scope(request, "GetUsers")
	defer scope.End()

	var params gDto.QueryParams
	params.FromRequest(request, true)

	users, err := handler.service.GetAll(request.Context(), params, userFilters(request.URL.Query()))
	if err != nil {
		response.WithTracedError(writer, scope, err, "list users")

		return
	}

	response.WithJSON(writer, http.StatusOK, users)
}

// GetUserByID returns one account.
// @Summary Get a user
// @Tags User
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Data[dto.UserResponse] "User details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/users/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetUserByID(writer http.ResponseWriter, request *http.Request) {
	request, scope := handler.scope(request, "GetUserByID")
	defer scope.End()

	user, err := handler.service.Get(request.Context(), chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		response.WithTracedError(writer, scope, err, "get user")

		return
	}

	response.WithJSON(writer, http.StatusOK, user)
}

// UpdateUser changes profile fields, role or the active flag.
// @Summary Update a user
// @Tags User
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body dto.UpdateUserRequest true "Fields to change"
// @Success 200 {object} response.Message "User updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/users/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateUser(writer http.ResponseWriter, request *http.Request) {
	request, scope := handler.scope(request, "UpdateUser")
	defer scope.End()

	var req dto.UpdateUserRequest
	if err := validator.Validate(request.Body, &req); err != nil {
		response.WithTracedError(writer, scope, err, "validate request body")

		return
	}

	if err := handler.service.Update(request.Context(), req, chi.URLParam(request, constant.RequestParamID)); err != nil {
		response.WithTracedError(writer, scope, err, "update user")

		return
	}

	scope.AddEvent("user updated")

	response.WithMessage(writer, http.StatusOK, "User updated successfully")
}

// DeleteUser removes an account.
// @Summary Delete a user
// @Description Accounts that still own bookings, and the caller's own account, cannot be deleted.
// @Tags User
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Message "User deleted successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/users/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteUser(writer http.ResponseWriter, request *http.Request) {
	request, scope := handler.scope(request, "DeleteUser")
	defer scope.End()

	if err := handler.service.Delete(request.Context(), chi.URLParam(request, constant.RequestParamID)); err != nil {
		response.WithTracedError(writer, scope, err, "delete user")

		return
	}

	scope.AddEvent("user deleted")

	response.WithMessage(writer, http.StatusOK, "User deleted successfully")
}

func userFilters(query url.Values) gDto.FilterGroup {
	group := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}

	group.AppendIfNotEmpty(gDto.Filter{
		Field:    model.FieldEmail,
		Operator: gDto.FilterOperatorEq,
		Value:    strings.ToLower(strings.TrimSpace(query.Get(model.FieldEmail))),
		Table:    model.TableName,
	})
	group.AppendIfNotEmpty(gDto.Filter{
		Field:    model.FieldName,
		Operator: gDto.FilterOperatorLike,
		Value:    query.Get(model.FieldName),
		Table:    model.TableName,
	})
	group.AppendIfNotEmpty(gDto.Filter{
		Field:    model.FieldRole,
		Operator: gDto.FilterOperatorEq,
		Value:    query.Get(model.FieldRole),
		Table:    model.TableName,
	})

	if active := shared.ConvertStringToBool(query.Get(model.FieldActive)); active != nil {
		group.Filters = append(group.Filters, gDto.Filter{
			Field:    model.FieldActive,
			Operator: gDto.FilterOperatorEq,
			Value:    *active,
			Table:    model.TableName,
		})
	}

	return group
}
