package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"roombook/config"
	"roombook/infras/jwt"
	jwtMocks "roombook/infras/jwt/mocks"
	otelMocks "roombook/infras/otel/mocks"
	"roombook/permissions"
	"roombook/shared/constant"
	"roombook/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const apiKey = "internal-key"

func newMux(t *testing.T) (*chi.Mux, *jwtMocks.MockJWT) {
	t.Helper()

	perms, err := permissions.Get()
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.APIKey = apiKey

	jwtService := jwtMocks.NewMockJWT(gomock.NewController(t))
	mw := middleware.NewAuthRoleMiddleware(jwtService, otelMocks.NewOtel(), perms, cfg)

	mux := chi.NewRouter()
	mux.Use(mw.APIKey, mw.Auth, mw.RBAC)

	echo := func(w http.ResponseWriter, r *http.Request) {
		userID, _ := r.Context().Value(constant.ContextKeyUserID).(string)
		if middleware.IsInternalCall(r.Context()) {
			userID = "internal"
		}

		w.Header().Set("X-User", userID)
		w.WriteHeader(http.StatusOK)
	}

	mux.Post("/v1/auth/login", echo)
	mux.Post("/v1/bookings/sync", echo)
	mux.Post("/v1/bookings/{id}/approve", echo)
	mux.Post("/v1/bookings/{id}/cancel", echo)

	return mux, jwtService
}

func serve(mux http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	return rec
}

func TestAuth_SkippedEndpoint(t *testing.T) {
	mux, _ := newMux(t)

	rec := serve(mux, "/v1/auth/login", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_MissingHeader(t *testing.T) {
	mux, _ := newMux(t)

	rec := serve(mux, "/v1/bookings/b-1/cancel", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing authorization header")
}

func TestAuth_ExpiredToken(t *testing.T) {
	mux, jwtService := newMux(t)

	jwtService.EXPECT().ValidateToken("stale", jwt.AccessToken).Return(nil, jwt.ErrExpiredToken)

	rec := serve(mux, "/v1/bookings/b-1/cancel", map[string]string{"Authorization": "Bearer stale"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token has expired")
}

func TestRBAC(t *testing.T) {
	tests := []struct {
		name string
		role string
		path string
		code int
	}{
		{name: "user cancels", role: constant.RoleUser, path: "/v1/bookings/b-1/cancel", code: http.StatusOK},
		{name: "user cannot approve", role: constant.RoleUser, path: "/v1/bookings/b-1/approve", code: http.StatusForbidden},
		{name: "admin approves", role: constant.RoleAdmin, path: "/v1/bookings/b-1/approve", code: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, jwtService := newMux(t)

			jwtService.EXPECT().ValidateToken("token", jwt.AccessToken).
				Return(&jwt.Claims{UserID: "u-1", Email: "siti@example.com", Role: tt.role}, nil)

			rec := serve(mux, tt.path, map[string]string{"Authorization": "Bearer token"})

			assert.Equal(t, tt.code, rec.Code)

			if tt.code == http.StatusOK {
				assert.Equal(t, "u-1", rec.Header().Get("X-User"))
			}
		})
	}
}

func TestAPIKey(t *testing.T) {
	t.Run("valid key skips user auth", func(t *testing.T) {
		mux, _ := newMux(t)

		rec := serve(mux, "/v1/bookings/sync", map[string]string{constant.RequestHeaderAPIKey: apiKey})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "internal", rec.Header().Get("X-User"))
	})

	t.Run("wrong key", func(t *testing.T) {
		mux, _ := newMux(t)

		rec := serve(mux, "/v1/bookings/sync", map[string]string{constant.RequestHeaderAPIKey: "guess"})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
