package repository

import (
	"context"
	"reflect"
	"roombook/infras/otel/mocks"
	"roombook/infras/postgres"
	"roombook/shared/dto"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRoom struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Status   string `db:"status"`
	Computed string `db:"computed" insert:"-"`
}

type testBooking struct {
	ID       string `db:"id"`
	RoomID   string `db:"room_id"`
	RoomName string `column:"name"    db:"room_name" table:"test_rooms"`
}

func newTestRepository(t *testing.T) (Repository[testRoom], sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	conn := &postgres.Connection{Read: sqlxDB, Write: sqlxDB}

	return NewRepository[testRoom]("room", "test_rooms", "id", conn, mocks.NewOtel()), mock
}

func TestGetColumns(t *testing.T) {
	columns, insertColumns := getColumns("test_rooms", reflect.TypeOf(testRoom{}))

	assert.Len(t, columns, 4)
	assert.Equal(t, []string{"id", "name", "status"}, insertColumns)
}

func TestGetColumns_JoinedField(t *testing.T) {
	columns, insertColumns := getColumns("test_bookings", reflect.TypeOf(testBooking{}))

	assert.Equal(t, []string{"id", "room_id"}, insertColumns)
	assert.Contains(t, columns, column{name: "name", table: "test_rooms", alias: "room_name"})
}

func TestOrderClause(t *testing.T) {
	repo, _ := newTestRepository(t)

	tests := []struct {
		name     string
		params   dto.QueryParams
		expected string
	}{
		{name: "no sort", params: dto.QueryParams{}, expected: ""},
		{name: "known column", params: dto.QueryParams{SortBy: "name", SortDir: "desc"}, expected: "ORDER BY test_rooms.name DESC"},
		{name: "default direction", params: dto.QueryParams{SortBy: "status"}, expected: "ORDER BY test_rooms.status ASC"},
		{name: "unknown column is ignored", params: dto.QueryParams{SortBy: "name; DROP TABLE x"}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, repo.orderClause(tt.params))
		})
	}
}

func TestLockClause(t *testing.T) {
	repo, _ := newTestRepository(t)

	assert.Empty(t, repo.lockClause(false))
	assert.Equal(t, "FOR UPDATE OF test_rooms", repo.lockClause(true))
}

func TestGetForUpdateTx(t *testing.T) {
	repo, mock := newTestRepository(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectPrepare(`SELECT (.+) FROM test_rooms (.+) FOR UPDATE OF test_rooms`).
		ExpectQuery().
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "computed"}).AddRow("r-1", "Aula", "tersedia", ""))

	tx, err := repo.db.Write.Beginx()
	require.NoError(t, err)

	room, err := repo.GetForUpdateTx(ctx, tx, dto.FilterGroup{
		Filters: []any{dto.Filter{Field: "id", Value: "r-1", Operator: dto.FilterOperatorEq, Table: "test_rooms"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "Aula", room.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_RequiresFilter(t *testing.T) {
	repo, _ := newTestRepository(t)

	err := repo.Update(context.Background(), map[string]any{"status": "dipakai"}, dto.FilterGroup{})

	assert.ErrorIs(t, err, errRequiredFilter)
}

func TestInsertBulkTx_Empty(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectBegin()

	tx, err := repo.db.Write.Beginx()
	require.NoError(t, err)

	assert.NoError(t, repo.InsertBulkTx(context.Background(), tx, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
