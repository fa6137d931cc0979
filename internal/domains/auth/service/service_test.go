package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"roombook/config"
	"roombook/infras/jwt"
	jwtMocks "roombook/infras/jwt/mocks"
	"roombook/infras/otel/mocks"
	"roombook/internal/domains/auth/model/dto"
	"roombook/internal/domains/auth/service"
	userMocks "roombook/internal/domains/user/mocks"
	userModel "roombook/internal/domains/user/model"
	userRepo "roombook/internal/domains/user/repository"
	"roombook/shared/clock"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	"roombook/shared/failure"
	"roombook/shared/password"
)

type fixture struct {
	users *userMocks.MockUser
	jwt   *jwtMocks.MockJWT
	clock *clock.Fixed
	svc   service.Auth
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := fixture{
		users: userMocks.NewMockUser(ctrl),
		jwt:   jwtMocks.NewMockJWT(ctrl),
		clock: clock.NewFixed(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)),
	}

	f.svc = service.New(f.users, &config.Config{}, mocks.NewOtel(), f.jwt, f.clock)

	return f
}

func storedUser(t *testing.T, plain string) userModel.User {
	t.Helper()

	hash, err := password.Hash(plain)
	require.NoError(t, err)

	return userModel.User{
		ID:       "user-1",
		Email:    "siti@example.com",
		Password: hash,
		Name:     "Siti",
		Role:     constant.RoleUser,
		Active:   true,
	}
}

func TestRegister(t *testing.T) {
	t.Run("creates a plain user", func(t *testing.T) {
		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), userRepo.EmailFilter("siti@example.com")).Return(false, nil)
		f.users.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, user userModel.User) error {
			assert.Equal(t, constant.RoleUser, user.Role)
			assert.Equal(t, f.clock.Now(), user.CreatedAt)
			assert.NoError(t, password.Verify("rahasia123", user.Password))

			return nil
		})

		err := f.svc.Register(context.Background(), dto.RegisterRequest{Email: "Siti@example.com", Password: "rahasia123", Name: "Siti"})

		require.NoError(t, err)
	})

	t.Run("email taken", func(t *testing.T) {
		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)

		err := f.svc.Register(context.Background(), dto.RegisterRequest{Email: "siti@example.com", Password: "rahasia123", Name: "Siti"})

		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})
}

func TestLogin(t *testing.T) {
	t.Run("success records last login", func(t *testing.T) {
		f := newFixture(t)
		user := storedUser(t, "rahasia123")

		f.users.EXPECT().Get(gomock.Any(), userRepo.EmailFilter("siti@example.com")).Return(user, nil)
		f.jwt.EXPECT().GenerateTokenPair(user.ID, user.Email, user.Role).Return(&jwt.TokenPair{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			ExpiresIn:    900,
		}, nil)
		f.users.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, f.clock.Now(), fields[userModel.FieldLastLogin])

				return nil
			})

		res, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "siti@example.com", Password: "rahasia123"})

		require.NoError(t, err)
		assert.Equal(t, "access", res.AccessToken)
		assert.Equal(t, "refresh", res.RefreshToken)
		assert.Equal(t, int64(900), res.ExpiresIn)
	})

	t.Run("outdated hash is upgraded", func(t *testing.T) {
		f := newFixture(t)
		user := storedUser(t, "rahasia123")

		cheap, err := bcrypt.GenerateFromPassword([]byte("rahasia123"), bcrypt.MinCost)
		require.NoError(t, err)
		user.Password = string(cheap)

		f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
		f.jwt.EXPECT().GenerateTokenPair(gomock.Any(), gomock.Any(), gomock.Any()).Return(&jwt.TokenPair{AccessToken: "access"}, nil)
		f.users.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
				rehashed, ok := fields[userModel.FieldPassword].(string)
				require.True(t, ok)
				assert.False(t, password.NeedsRehash(rehashed))
				assert.NoError(t, password.Verify("rahasia123", rehashed))

				return nil
			})

		_, err = f.svc.Login(context.Background(), dto.LoginRequest{Email: "siti@example.com", Password: "rahasia123"})

		require.NoError(t, err)
	})

	t.Run("last login failure is tolerated", func(t *testing.T) {
		f := newFixture(t)
		user := storedUser(t, "rahasia123")

		f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
		f.jwt.EXPECT().GenerateTokenPair(gomock.Any(), gomock.Any(), gomock.Any()).Return(&jwt.TokenPair{AccessToken: "access"}, nil)
		f.users.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("timeout"))

		res, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "siti@example.com", Password: "rahasia123"})

		require.NoError(t, err)
		assert.Equal(t, "access", res.AccessToken)
	})

	tests := []struct {
		name     string
		user     func(t *testing.T) userModel.User
		password string
		code     int
	}{
		{name: "unknown email", user: func(*testing.T) userModel.User { return userModel.User{} }, password: "rahasia123", code: http.StatusUnauthorized},
		{name: "wrong password", user: func(t *testing.T) userModel.User { return storedUser(t, "rahasia123") }, password: "salah12345", code: http.StatusUnauthorized},
		{
			name: "inactive account",
			user: func(t *testing.T) userModel.User {
				u := storedUser(t, "rahasia123")
				u.Active = false

				return u
			},
			password: "rahasia123",
			code:     http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(tt.user(t), nil)

			_, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "siti@example.com", Password: tt.password})

			assert.Equal(t, tt.code, failure.GetCode(err))
		})
	}
}

func TestRefreshToken(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)

		f.jwt.EXPECT().RefreshTokens("refresh").Return(&jwt.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil)

		res, err := f.svc.RefreshToken(context.Background(), dto.RefreshTokenRequest{RefreshToken: "refresh"})

		require.NoError(t, err)
		assert.Equal(t, "new-access", res.AccessToken)
		assert.Equal(t, "new-refresh", res.RefreshToken)
	})

	t.Run("invalid", func(t *testing.T) {
		f := newFixture(t)

		f.jwt.EXPECT().RefreshTokens("expired").Return(nil, jwt.ErrExpiredToken)

		_, err := f.svc.RefreshToken(context.Background(), dto.RefreshTokenRequest{RefreshToken: "expired"})

		assert.Equal(t, http.StatusUnauthorized, failure.GetCode(err))
	})
}

func TestChangePassword(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)

		f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(storedUser(t, "rahasia123"), nil)
		f.users.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
				hash, ok := fields[userModel.FieldPassword].(string)
				require.True(t, ok)
				assert.NoError(t, password.Verify("barurahasia", hash))
				assert.Equal(t, "user-1", fields[constant.FieldModifiedBy])

				return nil
			})

		err := f.svc.ChangePassword(context.Background(), dto.ChangePasswordRequest{CurrentPassword: "rahasia123", NewPassword: "barurahasia"}, "user-1")

		require.NoError(t, err)
	})

	t.Run("wrong current password", func(t *testing.T) {
		f := newFixture(t)

		f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(storedUser(t, "rahasia123"), nil)

		err := f.svc.ChangePassword(context.Background(), dto.ChangePasswordRequest{CurrentPassword: "salah12345", NewPassword: "barurahasia"}, "user-1")

		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("user not found", func(t *testing.T) {
		f := newFixture(t)

		f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, nil)

		err := f.svc.ChangePassword(context.Background(), dto.ChangePasswordRequest{CurrentPassword: "rahasia123", NewPassword: "barurahasia"}, "ghost")

		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}
