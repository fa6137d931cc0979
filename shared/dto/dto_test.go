package dto_test

import (
	"net/http/httptest"
	"roombook/shared/constant"
	"roombook/shared/dto"
	"roombook/shared/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetadata_FromModel(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	modifiedAt := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	var metadata dto.Metadata
	metadata.FromModel(model.Metadata{
		CreatedAt:  createdAt,
		ModifiedAt: modifiedAt,
		CreatedBy:  "u-admin",
		ModifiedBy: constant.ActorSystem,
	})

	assert.NotEmpty(t, metadata.CreatedAt)
	assert.NotEmpty(t, metadata.ModifiedAt)
	assert.Equal(t, "u-admin", metadata.CreatedBy)
	assert.Equal(t, constant.ActorSystem, metadata.ModifiedBy)
}

func TestQueryParams_FromRequest(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		withDefaults bool
		expected     dto.QueryParams
	}{
		{
			name:     "all parameters",
			query:    "page=2&limit=20&sort_by=borrow_date&sort_dir=asc",
			expected: dto.QueryParams{Page: 2, Limit: 20, SortBy: "borrow_date", SortDir: dto.SortDirAsc},
		},
		{
			name:         "defaults",
			withDefaults: true,
			expected:     dto.QueryParams{Page: constant.DefaultValuePage, Limit: constant.DefaultValueLimit},
		},
		{
			name:     "no defaults",
			expected: dto.QueryParams{},
		},
		{
			name:         "malformed page and limit",
			query:        "page=abc&limit=-3",
			withDefaults: true,
			expected:     dto.QueryParams{Page: constant.DefaultValuePage, Limit: constant.DefaultValueLimit},
		},
		{
			name:         "zero page",
			query:        "page=0",
			withDefaults: true,
			expected:     dto.QueryParams{Page: constant.DefaultValuePage, Limit: constant.DefaultValueLimit},
		},
		{
			name:     "limit is capped",
			query:    "limit=5000",
			expected: dto.QueryParams{Limit: constant.MaxValueLimit},
		},
		{
			name:     "unknown sort direction ignored",
			query:    "sort_by=name&sort_dir=sideways",
			expected: dto.QueryParams{SortBy: "name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/bookings?"+tt.query, nil)

			var params dto.QueryParams
			params.FromRequest(req, tt.withDefaults)

			assert.Equal(t, tt.expected, params)
		})
	}
}

func TestFilter_GetWhereClause(t *testing.T) {
	tests := []struct {
		name   string
		filter dto.Filter
		where  string
		args   map[string]any
	}{
		{
			name:   "eq with table",
			filter: dto.Filter{Field: "status", Value: "approved", Operator: dto.FilterOperatorEq, Table: "room_bookings"},
			where:  "room_bookings.status = :status",
			args:   map[string]any{"status": "approved"},
		},
		{
			name:   "less_eq with arg name",
			filter: dto.Filter{Field: "borrowed_at", Value: "2026-03-02 09:00:00", Operator: dto.FilterOperatorLessEq, ArgName: "due_at"},
			where:  "borrowed_at <= :due_at",
			args:   map[string]any{"due_at": "2026-03-02 09:00:00"},
		},
		{
			name:   "like escapes wildcards",
			filter: dto.Filter{Field: "name", Value: "Lab_1 100%", Operator: dto.FilterOperatorLike},
			where:  "LOWER(name) LIKE LOWER(:name)",
			args:   map[string]any{"name": `%Lab\_1 100\%%`},
		},
		{
			name:   "in",
			filter: dto.Filter{Field: "status", Value: []string{"pending", "approved"}, Operator: dto.FilterOperatorIn},
			where:  "status IN (:status_0, :status_1)",
			args:   map[string]any{"status_0": "pending", "status_1": "approved"},
		},
		{
			name:   "empty in matches nothing",
			filter: dto.Filter{Field: "status", Value: []string{}, Operator: dto.FilterOperatorIn},
			where:  "FALSE",
			args:   map[string]any{},
		},
		{
			name:   "is null",
			filter: dto.Filter{Field: "return_date", Operator: dto.FilterIsNull},
			where:  "return_date IS NULL",
			args:   map[string]any{},
		},
		{
			name:   "unknown operator",
			filter: dto.Filter{Field: "id", Value: "1", Operator: "between"},
			where:  "",
			args:   map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.GetWhereClause()

			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestFilterGroup_Nested(t *testing.T) {
	group := dto.FilterGroup{
		Operator: dto.FilterGroupOperatorAnd,
		Filters: []any{
			dto.Filter{Field: "room_id", Value: "r-1", Operator: dto.FilterOperatorEq},
			dto.FilterGroup{
				Operator: dto.FilterGroupOperatorOr,
				Filters: []any{
					dto.Filter{Field: "status", Value: "approved", Operator: dto.FilterOperatorEq, ArgName: "s1"},
					dto.Filter{Field: "status", Value: "active", Operator: dto.FilterOperatorEq, ArgName: "s2"},
				},
			},
		},
	}

	where, args := group.GetWhereClause()

	assert.Equal(t, "(room_id = :room_id AND (status = :s1 OR status = :s2))", where)
	assert.Equal(t, map[string]any{"room_id": "r-1", "s1": "approved", "s2": "active"}, args)
}

func TestFilterGroup_AppendIfNotEmpty(t *testing.T) {
	group := dto.FilterGroup{Operator: dto.FilterGroupOperatorAnd}

	group.AppendIfNotEmpty(dto.Filter{Field: "status", Value: "", Operator: dto.FilterOperatorEq})
	group.AppendIfNotEmpty(dto.Filter{Field: "name", Value: "   ", Operator: dto.FilterOperatorLike})
	group.AppendIfNotEmpty(dto.Filter{Field: "status", Value: "approved", Operator: dto.FilterOperatorEq, Table: "room_bookings"})
	group.AppendIfNotEmpty(dto.Filter{Field: "active", Value: false, Operator: dto.FilterOperatorEq})

	assert.Len(t, group.Filters, 2)

	where, args := group.GetWhereClause()

	assert.Equal(t, "(room_bookings.status = :status AND active = :active)", where)
	assert.Equal(t, map[string]any{"status": "approved", "active": false}, args)
}

func TestFilterGroup_EmptyWhereClause(t *testing.T) {
	group := dto.FilterGroup{Operator: dto.FilterGroupOperatorAnd}
	group.AppendIfNotEmpty(dto.Filter{Field: "status", Value: "", Operator: dto.FilterOperatorEq})

	where, args := group.GetWhereClause()

	assert.Empty(t, where)
	assert.Empty(t, args)
}
