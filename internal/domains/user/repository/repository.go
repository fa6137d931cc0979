package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"roombook/infras/otel"
	"roombook/infras/postgres"
	"roombook/internal/domains/user/model"
	"roombook/shared"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	gRepo "roombook/shared/repository"
	"strings"
)

// bookingsOfUser is checked before a delete so the caller gets a conflict
// instead of a foreign key violation.
const bookingsOfUser = `SELECT EXISTS (SELECT 1 FROM room_bookings WHERE user_id = $1)`

type User interface {
	Insert(ctx context.Context, model model.User) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.User, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.User, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	HasBookings(ctx context.Context, id string) (bool, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.User]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) User {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.User](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (r *repositoryImpl) HasBookings(ctx context.Context, id string) (exists bool, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".user.HasBookings")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = r.db.Read.GetContext(ctx, &exists, bookingsOfUser, id); err != nil {
		return false, fmt.Errorf("failed to check bookings of user %s: %w", id, err)
	}

	return exists, nil
}

// EmailFilter matches a user by normalized email.
func EmailFilter(email string) gDto.FilterGroup {
	return shared.FilterByID(strings.ToLower(strings.TrimSpace(email)), model.FieldEmail, model.TableName)
}
