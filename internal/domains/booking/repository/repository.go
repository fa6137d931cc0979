package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"roombook/infras/otel"
	"roombook/infras/postgres"
	"roombook/internal/domains/booking/model"
	"roombook/shared"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	gRepo "roombook/shared/repository"
	"roombook/shared/timezone"
	"time"

	"github.com/jmoiron/sqlx"
)

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	DeleteTx(ctx context.Context, sqltx *sqlx.Tx, filter gDto.FilterGroup) error
	GetForUpdateTx(ctx context.Context, sqltx *sqlx.Tx, id string) (model.Booking, error)
	UpdateByIDTx(ctx context.Context, sqltx *sqlx.Tx, id string, fields map[string]any) error
	// GetDueForActivationTx locks approved bookings whose window opened at or before now.
	GetDueForActivationTx(ctx context.Context, sqltx *sqlx.Tx, now time.Time) ([]model.Booking, error)
	// GetDueForCompletionTx locks active bookings whose planned return is at or before now.
	GetDueForCompletionTx(ctx context.Context, sqltx *sqlx.Tx, now time.Time) ([]model.Booking, error)
	// CountActiveByRoomTx counts active bookings of a room other than excludeID.
	CountActiveByRoomTx(ctx context.Context, sqltx *sqlx.Tx, roomID, excludeID string) (int, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (r *repositoryImpl) GetForUpdateTx(ctx context.Context, sqltx *sqlx.Tx, id string) (model.Booking, error) {
	return r.Repository.GetForUpdateTx(ctx, sqltx, shared.FilterByID(id, model.FieldID, model.TableName)) //nolint:wrapcheck
}

func (r *repositoryImpl) UpdateByIDTx(ctx context.Context, sqltx *sqlx.Tx, id string, fields map[string]any) error {
	return r.UpdateTx(ctx, sqltx, fields, shared.FilterByID(id, model.FieldID, model.TableName)) //nolint:wrapcheck
}

func (r *repositoryImpl) GetDueForActivationTx(ctx context.Context, sqltx *sqlx.Tx, now time.Time) ([]model.Booking, error) {
	return r.GetAllForUpdateTx(ctx, sqltx, dueParams(), DueFilter(constant.BookingStatusApproved, model.FieldBorrowedAt, now)) //nolint:wrapcheck
}

func (r *repositoryImpl) GetDueForCompletionTx(ctx context.Context, sqltx *sqlx.Tx, now time.Time) ([]model.Booking, error) {
	return r.GetAllForUpdateTx(ctx, sqltx, dueParams(), DueFilter(constant.BookingStatusActive, model.FieldPlannedReturnAt, now)) //nolint:wrapcheck
}

func (r *repositoryImpl) CountActiveByRoomTx(ctx context.Context, sqltx *sqlx.Tx, roomID, excludeID string) (int, error) {
	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldRoomID, Value: roomID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldStatus, Value: constant.BookingStatusActive, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldID, Value: excludeID, Operator: gDto.FilterOperatorNotEq, Table: model.TableName, ArgName: "exclude_id"},
		},
	}

	return r.CountTx(ctx, sqltx, filter) //nolint:wrapcheck
}

func dueParams() gDto.QueryParams {
	return gDto.QueryParams{SortBy: constant.FieldCreatedAt, SortDir: gDto.SortDirAsc}
}

// DueFilter matches bookings in status whose timestamp column is at or before now.
func DueFilter(status, column string, now time.Time) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldStatus, Value: status, Operator: gDto.FilterOperatorEq, Table: model.TableName, ArgName: "due_status"},
			gDto.Filter{Field: column, Value: timezone.SQLTimestamp(now), Operator: gDto.FilterOperatorLessEq, Table: model.TableName, ArgName: "due_at"},
		},
	}
}
