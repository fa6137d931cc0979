package repository

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"roombook/infras/otel"
	"roombook/infras/postgres"
	"roombook/shared/constant"
	"roombook/shared/dto"
	"roombook/shared/logger"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"
)

var (
	errRequiredFilter = errors.New("required filter")
)

type column struct {
	name  string
	table string
	alias string
}

func (c column) selectExpr() string {
	switch {
	case c.table == "":
		return c.name
	case c.alias != "":
		return fmt.Sprintf("%s.%s AS %s", c.table, c.name, c.alias)
	default:
		return c.table + "." + c.name
	}
}

type execer interface {
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// preparer is satisfied by both *sqlx.DB and *sqlx.Tx.
type preparer interface {
	PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error)
}

// joiner is implemented by models that select columns of other tables.
type joiner interface {
	GetJoinQuery() string
}

// Repository maps T onto a table through its db, table and column tags.
// Fields read from another table or tagged insert:"-" are never written.
type Repository[T any] struct {
	db            *postgres.Connection
	otel          otel.Otel
	table         string
	entity        string
	primaryColumn string
	columns       []column
	join          string
	InsertColumns []string
	insertQuery   string
	selectAll     string
}

func NewRepository[T any](entityName, tableName, primaryColumn string, dbConnection *postgres.Connection, otl otel.Otel) Repository[T] {
	var zero T

	columns, insertColumns := getColumns(tableName, reflect.TypeOf(zero))

	var join string
	if j, ok := any(zero).(joiner); ok {
		join = j.GetJoinQuery()
	}

	placeholders := make([]string, len(insertColumns))
	for i, col := range insertColumns {
		placeholders[i] = ":" + col
	}

	repo := Repository[T]{
		db:            dbConnection,
		otel:          otl,
		table:         tableName,
		entity:        entityName,
		primaryColumn: primaryColumn,
		columns:       columns,
		join:          join,
		InsertColumns: insertColumns,
		insertQuery: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			tableName, strings.Join(insertColumns, ", "), strings.Join(placeholders, ", ")),
	}
	repo.selectAll = repo.selectList(nil)

	return repo
}

func (repo *Repository[T]) Insert(ctx context.Context, model T) error {
	ctx, scope := repo.span(ctx, "Insert")
	defer scope.End()

	return repo.exec(ctx, scope, repo.db.Write, "insert data", repo.insertQuery, model)
}

func (repo *Repository[T]) InsertTx(ctx context.Context, sqltx *sqlx.Tx, model T) error {
	ctx, scope := repo.span(ctx, "InsertTx")
	defer scope.End()

	return repo.exec(ctx, scope, sqltx, "insert data", repo.insertQuery, model)
}

func (repo *Repository[T]) InsertBulkTx(ctx context.Context, sqltx *sqlx.Tx, models []T) error {
	if len(models) == 0 {
		return nil
	}

	ctx, scope := repo.span(ctx, "InsertBulkTx")
	defer scope.End()

	return repo.exec(ctx, scope, sqltx, "bulk insert data", repo.insertQuery, models)
}

func (repo *Repository[T]) Exist(ctx context.Context, filter dto.FilterGroup) (bool, error) {
	ctx, scope := repo.span(ctx, "Exist")
	defer scope.End()

	where, args := repo.whereClause(filter)
	if where == "" {
		return false, errRequiredFilter
	}

	exist := false
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s %s)", repo.table, where)

	err := repo.prepared(ctx, scope, repo.db.Read, "check exist data", query, func(stmt *sqlx.NamedStmt) error {
		return stmt.GetContext(ctx, &exist, args)
	})

	return exist, err
}

// Get returns the zero value and no error when nothing matches.
func (repo *Repository[T]) Get(ctx context.Context, filter dto.FilterGroup, columns ...string) (T, error) {
	ctx, scope := repo.span(ctx, "Get")
	defer scope.End()

	return repo.get(ctx, scope, repo.db.Read, filter, false, columns...)
}

// GetForUpdateTx is Get with the row locked until sqltx ends.
func (repo *Repository[T]) GetForUpdateTx(ctx context.Context, sqltx *sqlx.Tx, filter dto.FilterGroup) (T, error) {
	ctx, scope := repo.span(ctx, "GetForUpdateTx")
	defer scope.End()

	return repo.get(ctx, scope, sqltx, filter, true)
}

func (repo *Repository[T]) GetAll(ctx context.Context, params dto.QueryParams, filter dto.FilterGroup, columns ...string) ([]T, error) {
	ctx, scope := repo.span(ctx, "GetAll")
	defer scope.End()

	return repo.getAll(ctx, scope, repo.db.Read, params, filter, false, columns...)
}

// GetAllForUpdateTx reads every matching row in params order and locks them
// until sqltx ends.
func (repo *Repository[T]) GetAllForUpdateTx(ctx context.Context, sqltx *sqlx.Tx, params dto.QueryParams, filter dto.FilterGroup) ([]T, error) {
	ctx, scope := repo.span(ctx, "GetAllForUpdateTx")
	defer scope.End()

	return repo.getAll(ctx, scope, sqltx, params, filter, true)
}

func (repo *Repository[T]) Count(ctx context.Context, filter dto.FilterGroup) (int, error) {
	ctx, scope := repo.span(ctx, "Count")
	defer scope.End()

	return repo.count(ctx, scope, repo.db.Read, filter)
}

// CountTx counts inside sqltx, so rows written earlier in it are visible.
func (repo *Repository[T]) CountTx(ctx context.Context, sqltx *sqlx.Tx, filter dto.FilterGroup) (int, error) {
	ctx, scope := repo.span(ctx, "CountTx")
	defer scope.End()

	return repo.count(ctx, scope, sqltx, filter)
}

func (repo *Repository[T]) Update(ctx context.Context, mod map[string]any, filter dto.FilterGroup) error {
	ctx, scope := repo.span(ctx, "Update")
	defer scope.End()

	return repo.update(ctx, scope, repo.db.Write, mod, filter)
}

func (repo *Repository[T]) UpdateTx(ctx context.Context, sqltx *sqlx.Tx, mod map[string]any, filter dto.FilterGroup) error {
	ctx, scope := repo.span(ctx, "UpdateTx")
	defer scope.End()

	return repo.update(ctx, scope, sqltx, mod, filter)
}

func (repo *Repository[T]) Delete(ctx context.Context, filter dto.FilterGroup) error {
	ctx, scope := repo.span(ctx, "Delete")
	defer scope.End()

	return repo.delete(ctx, scope, repo.db.Write, filter)
}

func (repo *Repository[T]) DeleteTx(ctx context.Context, sqltx *sqlx.Tx, filter dto.FilterGroup) error {
	ctx, scope := repo.span(ctx, "DeleteTx")
	defer scope.End()

	return repo.delete(ctx, scope, sqltx, filter)
}

func (repo *Repository[T]) get(ctx context.Context, scope otel.Scope, prep preparer, filter dto.FilterGroup, lock bool, columns ...string) (T, error) {
	var model T

	where, args := repo.whereClause(filter)
	query := fmt.Sprintf("SELECT %s FROM %s %s %s %s", repo.selectList(columns), repo.table, repo.join, where, repo.lockClause(lock))

	err := repo.prepared(ctx, scope, prep, "get data", query, func(stmt *sqlx.NamedStmt) error {
		return stmt.GetContext(ctx, &model, args)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model, nil
	}

	return model, err
}

func (repo *Repository[T]) getAll(ctx context.Context, scope otel.Scope, prep preparer, params dto.QueryParams, filter dto.FilterGroup, lock bool, columns ...string) ([]T, error) {
	var models []T

	where, args := repo.whereClause(filter)
	query := fmt.Sprintf("SELECT %s FROM %s %s %s %s %s %s",
		repo.selectList(columns), repo.table, repo.join, where, repo.orderClause(params), paginate(params, args), repo.lockClause(lock))

	err := repo.prepared(ctx, scope, prep, "get all data", query, func(stmt *sqlx.NamedStmt) error {
		return stmt.SelectContext(ctx, &models, args)
	})

	return models, err
}

func (repo *Repository[T]) count(ctx context.Context, scope otel.Scope, prep preparer, filter dto.FilterGroup) (int, error) {
	var total int

	where, args := repo.whereClause(filter)
	query := fmt.Sprintf("SELECT COUNT(%s.%s) FROM %s %s %s", repo.table, repo.primaryColumn, repo.table, repo.join, where)

	err := repo.prepared(ctx, scope, prep, "count data", query, func(stmt *sqlx.NamedStmt) error {
		return stmt.GetContext(ctx, &total, args)
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (repo *Repository[T]) update(ctx context.Context, scope otel.Scope, ex execer, mod map[string]any, filter dto.FilterGroup) error {
	where, args := repo.whereClause(filter)
	if where == "" {
		return errRequiredFilter
	}

	assignments := make([]string, 0, len(mod))
	for col := range maps.Keys(mod) {
		assignments = append(assignments, fmt.Sprintf("%s = :%s", col, col))
	}

	slices.Sort(assignments)
	maps.Copy(args, mod)

	query := fmt.Sprintf("UPDATE %s SET %s %s", repo.table, strings.Join(assignments, ", "), where)

	return repo.exec(ctx, scope, ex, "update data", query, args)
}

func (repo *Repository[T]) delete(ctx context.Context, scope otel.Scope, ex execer, filter dto.FilterGroup) error {
	where, args := repo.whereClause(filter)
	if where == "" {
		return errRequiredFilter
	}

	return repo.exec(ctx, scope, ex, "delete data", fmt.Sprintf("DELETE FROM %s %s", repo.table, where), args)
}

func (repo *Repository[T]) span(ctx context.Context, op string) (context.Context, otel.Scope) {
	return repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName,
		fmt.Sprintf("%s.%s.%s", constant.OtelRepositoryScopeName, repo.entity, op))
}

func (repo *Repository[T]) fail(scope otel.Scope, action string, err error) error {
	logger.ErrorWithStack(err)
	scope.TraceError(err)

	return fmt.Errorf("failed to %s (%s): %w", action, repo.entity, err)
}

func (repo *Repository[T]) exec(ctx context.Context, scope otel.Scope, ex execer, action, query string, arg any) error {
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if _, err := ex.NamedExecContext(ctx, query, arg); err != nil {
		return repo.fail(scope, action, err)
	}

	return nil
}

// prepared runs fn on query prepared against prep. sql.ErrNoRows from fn is
// passed through untouched.
func (repo *Repository[T]) prepared(ctx context.Context, scope otel.Scope, prep preparer, action, query string, fn func(*sqlx.NamedStmt) error) error {
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	stmt, err := prep.PrepareNamedContext(ctx, query)
	if err != nil {
		return repo.fail(scope, "prepare statement", err)
	}
	defer stmt.Close()

	err = fn(stmt)
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}

	return repo.fail(scope, action, err)
}

// orderClause only accepts columns the entity maps, which keeps user supplied
// sort fields out of the SQL text.
func (repo *Repository[T]) orderClause(params dto.QueryParams) string {
	if params.SortBy == "" {
		return ""
	}

	idx := slices.IndexFunc(repo.columns, func(col column) bool {
		return col.name == params.SortBy && col.alias == ""
	})
	if idx < 0 {
		return ""
	}

	dir := dto.SortDirAsc
	if strings.EqualFold(params.SortDir, dto.SortDirDesc) {
		dir = dto.SortDirDesc
	}

	return fmt.Sprintf("ORDER BY %s.%s %s", repo.columns[idx].table, repo.columns[idx].name, dir)
}

func (repo *Repository[T]) lockClause(lock bool) string {
	if !lock {
		return ""
	}

	return "FOR UPDATE OF " + repo.table
}

// selectList renders the projection. Only is matched against column names, an
// empty only selects every mapped column.
func (repo *Repository[T]) selectList(only []string) string {
	if len(only) == 0 && repo.selectAll != "" {
		return repo.selectAll
	}

	exprs := make([]string, 0, len(repo.columns))

	for _, col := range repo.columns {
		if len(only) > 0 && !slices.Contains(only, col.name) {
			continue
		}

		exprs = append(exprs, col.selectExpr())
	}

	return strings.Join(exprs, ", ")
}

func (repo *Repository[T]) whereClause(filter dto.FilterGroup) (string, map[string]any) {
	where, args := filter.GetWhereClause()
	if where == "" {
		return "", map[string]any{}
	}

	return fmt.Sprintf(" WHERE %s ", where), args
}

func paginate(params dto.QueryParams, args map[string]any) string {
	switch {
	case params.Limit <= 0:
		return ""
	case params.Page > 0:
		args["limit"] = params.Limit
		args["offset"] = (params.Page - 1) * params.Limit

		return "LIMIT :limit OFFSET :offset"
	default:
		args["limit"] = params.Limit

		return "LIMIT :limit"
	}
}

func getColumns(table string, reflectType reflect.Type) (columns []column, insertColumns []string) {
	for i := range reflectType.NumField() {
		field := reflectType.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			embedded, embeddedInsert := getColumns(table, field.Type)
			columns = append(columns, embedded...)
			insertColumns = append(insertColumns, embeddedInsert...)

			continue
		}

		name := field.Tag.Get("db")
		if name == "" {
			continue
		}

		owner := cmp.Or(field.Tag.Get("table"), table)

		if owner == table && field.Tag.Get("insert") != "-" {
			insertColumns = append(insertColumns, name)
		}

		if source := field.Tag.Get("column"); source != "" {
			columns = append(columns, column{name: source, table: owner, alias: name})
		} else {
			columns = append(columns, column{name: name, table: owner})
		}
	}

	return columns, insertColumns
}
