package auth

import (
	"net/http"

	"roombook/infras/otel"
	"roombook/internal/domains/auth/model/dto"
	"roombook/internal/domains/auth/service"
	"roombook/shared/constant"
	"roombook/shared/validator"
	"roombook/transport/http/response"

	"github.com/go-chi/chi/v5"
)

// Handler serves sign up, sign in and token rotation. Only ChangePassword
// needs a bearer token.
type Handler struct {
	service service.Auth
	otel    otel.Otel
}

func New(service service.Auth, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/auth", func(auth chi.Router) {
		auth.Post("/register", handler.Register)
		auth.Post("/login", handler.Login)
		auth.Post("/refresh", handler.RefreshToken)
		auth.Patch("/password", handler.ChangePassword)
	})
}

// bind decodes and validates the body into T. On failure the error response
// is already written and ok is false.
func bind[T any](writer http.ResponseWriter, request *http.Request, scope otel.Scope) (req T, ok bool) {
	if err := validator.Validate(request.Body, &req); err != nil {
		response.WithTracedError(writer, scope, err, "validate request body")

		return req, false
	}

	return req, true
}

// Register creates a plain user account.
// @Summary Sign up
// @Description Creates an account with the user role. Emails are unique, case insensitive.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "New account"
// @Success 201 {object} response.Message "User registered successfully"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/auth/register [post]
func (handler *Handler) Register(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Register")
	defer scope.End()

	req, ok := bind[dto.RegisterRequest](writer, request, scope)
	if !ok {
		return
	}

	if err := handler.service.Register(ctx, req); err != nil {
		response.WithTracedError(writer, scope, err, "register user")

		return
	}

	response.WithMessage(writer, http.StatusCreated, "User registered successfully")
}

// Login exchanges credentials for a token pair.
// @Summary Sign in
// @Description Returns an access and a refresh token. Inactive accounts are refused.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} response.Data[dto.LoginResponse] "Token pair"
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 403 {object} response.Error
// @Router /v1/auth/login [post]
func (handler *Handler) Login(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Login")
	defer scope.End()

	req, ok := bind[dto.LoginRequest](writer, request, scope)
	if !ok {
		return
	}

	tokens, err := handler.service.Login(ctx, req)
	if err != nil {
		response.WithTracedError(writer, scope, err, "login")

		return
	}

	response.WithJSON(writer, http.StatusOK, tokens)
}

// RefreshToken rotates a token pair.
// @Summary Refresh tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} response.Data[dto.LoginResponse] "New token pair"
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Router /v1/auth/refresh [post]
func (handler *Handler) RefreshToken(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RefreshToken")
	defer scope.End()

	req, ok := bind[dto.RefreshTokenRequest](writer, request, scope)
	if !ok {
		return
	}

	tokens, err := handler.service.RefreshToken(ctx, req)
	if err != nil {
		response.WithTracedError(writer, scope, err, "refresh token")

		return
	}

	response.WithJSON(writer, http.StatusOK, tokens)
}

// ChangePassword replaces the caller's password after checking the current one.
// @Summary Change password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} response.Message "Password changed successfully"
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/auth/password [patch]
// @Security BearerAuth
func (handler *Handler) ChangePassword(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ChangePassword")
	defer scope.End()

	req, ok := bind[dto.ChangePasswordRequest](writer, request, scope)
	if !ok {
		return
	}

	caller, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.SetAttribute("user_id", caller)

	if err := handler.service.ChangePassword(ctx, req, caller); err != nil {
		response.WithTracedError(writer, scope, err, "change password")

		return
	}

	response.WithMessage(writer, http.StatusOK, "Password changed successfully")
}
