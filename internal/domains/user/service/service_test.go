package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"roombook/config"
	"roombook/infras/otel/mocks"
	userMocks "roombook/internal/domains/user/mocks"
	"roombook/internal/domains/user/model"
	"roombook/internal/domains/user/model/dto"
	"roombook/internal/domains/user/repository"
	"roombook/internal/domains/user/service"
	"roombook/shared/cache"
	cacheMocks "roombook/shared/cache/mocks"
	"roombook/shared/clock"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	"roombook/shared/failure"
	"roombook/shared/password"
)

type fixture struct {
	repo  *userMocks.MockUser
	cache *cacheMocks.MockRedisCache
	clock *clock.Fixed
	svc   service.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := fixture{
		repo:  userMocks.NewMockUser(ctrl),
		cache: cacheMocks.NewMockRedisCache(ctrl),
		clock: clock.NewFixed(time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 60

	f.svc = service.New(f.repo, cfg, f.cache, mocks.NewOtel(), f.clock)

	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return f
}

func asAdmin() context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")
}

func TestCreate(t *testing.T) {
	t.Run("hashes the password and defaults the role", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Exist(gomock.Any(), repository.EmailFilter("siti@example.com")).Return(false, nil)
		f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, user model.User) error {
			assert.Equal(t, "siti@example.com", user.Email)
			assert.Equal(t, "Siti Aminah", user.Name)
			assert.Equal(t, constant.RoleUser, user.Role)
			assert.True(t, user.Active)
			assert.Equal(t, "admin-1", user.CreatedBy)
			assert.Equal(t, f.clock.Now(), user.CreatedAt)
			assert.NoError(t, password.Verify("rahasia123", user.Password))

			return nil
		})

		err := f.svc.Create(asAdmin(), dto.CreateUserRequest{
			Email:    " Siti@Example.com ",
			Password: "rahasia123",
			Name:     " Siti Aminah ",
		})

		require.NoError(t, err)
	})

	t.Run("email taken", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)

		err := f.svc.Create(asAdmin(), dto.CreateUserRequest{Email: "siti@example.com", Password: "rahasia123", Name: "Siti"})

		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("repository failure", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, errors.New("connection reset"))

		err := f.svc.Create(asAdmin(), dto.CreateUserRequest{Email: "siti@example.com", Password: "rahasia123", Name: "Siti"})

		assert.Equal(t, http.StatusInternalServerError, failure.GetCode(err))
		assert.ErrorContains(t, err, "connection reset")
	})
}

func TestGet(t *testing.T) {
	t.Run("from repository", func(t *testing.T) {
		f := newFixture(t)
		lastLogin := time.Date(2026, 1, 4, 7, 30, 0, 0, time.UTC)

		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.User{
			ID: "user-1", Email: "siti@example.com", Name: "Siti", Role: constant.RoleAdmin, Active: true, LastLogin: &lastLogin,
		}, nil)

		res, err := f.svc.Get(context.Background(), "user-1")

		require.NoError(t, err)
		assert.Equal(t, "siti@example.com", res.Email)
		assert.Equal(t, constant.RoleAdmin, res.Role)
		require.NotNil(t, res.LastLogin)
		assert.Equal(t, "2026-01-04T07:30:00Z", *res.LastLogin)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)

		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.User{}, nil)

		_, err := f.svc.Get(context.Background(), "missing")

		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestGetAll(t *testing.T) {
	f := newFixture(t)

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil).Times(2)
	f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(3, nil)
	f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]model.User{{ID: "a"}, {ID: "b"}}, nil)

	res, err := f.svc.GetAll(context.Background(), gDto.QueryParams{Page: 1, Limit: 2}, gDto.FilterGroup{})

	require.NoError(t, err)
	assert.Len(t, res.Users, 2)
	assert.Equal(t, 3, res.TotalData)
	assert.Equal(t, 2, res.TotalPage)
}

func TestUpdate(t *testing.T) {
	t.Run("deactivate", func(t *testing.T) {
		f := newFixture(t)
		inactive := false

		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, false, fields[model.FieldActive])
				assert.Equal(t, "admin-1", fields[constant.FieldModifiedBy])
				assert.Equal(t, f.clock.Now(), fields[constant.FieldModifiedAt])
				assert.NotContains(t, fields, model.FieldName)

				return nil
			})

		err := f.svc.Update(asAdmin(), dto.UpdateUserRequest{Active: &inactive}, "user-1")

		require.NoError(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		f := newFixture(t)

		err := f.svc.Update(asAdmin(), dto.UpdateUserRequest{Name: "   "}, "user-1")

		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		err := f.svc.Update(asAdmin(), dto.UpdateUserRequest{Role: constant.RoleAdmin}, "user-1")

		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestDelete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.repo.EXPECT().HasBookings(gomock.Any(), "user-1").Return(false, nil)
		f.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

		assert.NoError(t, f.svc.Delete(asAdmin(), "user-1"))
	})

	t.Run("self", func(t *testing.T) {
		f := newFixture(t)

		err := f.svc.Delete(asAdmin(), "admin-1")

		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("still has bookings", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.repo.EXPECT().HasBookings(gomock.Any(), "user-1").Return(true, nil)

		err := f.svc.Delete(asAdmin(), "user-1")

		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("booking created concurrently", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.repo.EXPECT().HasBookings(gomock.Any(), "user-1").Return(false, nil)
		f.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(&pq.Error{Code: constant.PqErrorCodeFkViolation})

		err := f.svc.Delete(asAdmin(), "user-1")

		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})
}
