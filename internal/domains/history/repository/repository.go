package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"roombook/infras/otel"
	"roombook/infras/postgres"
	"roombook/internal/domains/history/model"
	gDto "roombook/shared/dto"
	gRepo "roombook/shared/repository"

	"github.com/jmoiron/sqlx"
)

// History is append-only: entries are written inside the transaction of the
// change they describe and never updated or deleted.
type History interface {
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, model model.History) error
	InsertBulkTx(ctx context.Context, sqltx *sqlx.Tx, models []model.History) error
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.History, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.History]
}

func New(db *postgres.Connection, otel otel.Otel) History {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.History](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}
