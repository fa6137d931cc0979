package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"roombook/infras/otel"
	"roombook/infras/postgres"
	"roombook/internal/domains/room/model"
	"roombook/shared"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	gRepo "roombook/shared/repository"
	"time"

	"github.com/jmoiron/sqlx"
)

type Room interface {
	Insert(ctx context.Context, model model.Room) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Room, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Room, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	// GetForUpdateTx locks the room row for the rest of sqltx.
	GetForUpdateTx(ctx context.Context, sqltx *sqlx.Tx, id string) (model.Room, error)
	UpdateStatusTx(ctx context.Context, sqltx *sqlx.Tx, id, status, actor string, at time.Time) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Room]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Room {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Room](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (r *repositoryImpl) GetForUpdateTx(ctx context.Context, sqltx *sqlx.Tx, id string) (model.Room, error) {
	return r.Repository.GetForUpdateTx(ctx, sqltx, shared.FilterByID(id, model.FieldID, model.TableName)) //nolint:wrapcheck
}

func (r *repositoryImpl) UpdateStatusTx(ctx context.Context, sqltx *sqlx.Tx, id, status, actor string, at time.Time) error {
	fields := map[string]any{
		model.FieldStatus:        status,
		constant.FieldModifiedAt: at,
		constant.FieldModifiedBy: actor,
	}

	return r.UpdateTx(ctx, sqltx, fields, shared.FilterByID(id, model.FieldID, model.TableName)) //nolint:wrapcheck
}
