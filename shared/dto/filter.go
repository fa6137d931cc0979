package dto

import (
	"fmt"
	"maps"
	"reflect"
	"strings"
)

const (
	FilterOperatorEq        = "eq"
	FilterOperatorLike      = "like"
	FilterOperatorIn        = "in"
	FilterOperatorNotEq     = "not_eq"
	FilterOperatorLessEq    = "less_eq"
	FilterOperatorGreaterEq = "greater_eq"
	FilterIsNotNull         = "is_not_null"
	FilterIsNull            = "is_null"
)

const (
	FilterGroupOperatorAnd = "AND"
	FilterGroupOperatorOr  = "OR"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// renderer turns one filter into SQL with named parameters and fills args.
type renderer func(column, arg string, value any, args map[string]any) string

func compare(op string) renderer {
	return func(column, arg string, value any, args map[string]any) string {
		args[arg] = value

		return fmt.Sprintf("%s %s :%s", column, op, arg)
	}
}

var renderers = map[string]renderer{
	FilterOperatorEq:        compare("="),
	FilterOperatorNotEq:     compare("!="),
	FilterOperatorLessEq:    compare("<="),
	FilterOperatorGreaterEq: compare(">="),
	FilterOperatorLike: func(column, arg string, value any, args map[string]any) string {
		args[arg] = "%" + likeEscaper.Replace(fmt.Sprint(value)) + "%"

		return fmt.Sprintf("LOWER(%s) LIKE LOWER(:%s)", column, arg)
	},
	FilterOperatorIn: func(column, arg string, value any, args map[string]any) string {
		list := reflect.ValueOf(value)
		if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
			args[arg] = value

			return fmt.Sprintf("%s = :%s", column, arg)
		}

		if list.Len() == 0 {
			return "FALSE"
		}

		named := make([]string, list.Len())

		for idx := range list.Len() {
			name := fmt.Sprintf("%s_%d", arg, idx)
			args[name] = list.Index(idx).Interface()
			named[idx] = ":" + name
		}

		return fmt.Sprintf("%s IN (%s)", column, strings.Join(named, ", "))
	},
	FilterIsNull: func(column, _ string, _ any, _ map[string]any) string {
		return column + " IS NULL"
	},
	FilterIsNotNull: func(column, _ string, _ any, _ map[string]any) string {
		return column + " IS NOT NULL"
	},
}

// Filter is one condition. ArgName defaults to Field and must be unique
// within a FilterGroup.
type Filter struct {
	ArgName  string
	Field    string
	Value    any
	Operator string `validate:"required,oneof=eq like in not_eq less_eq greater_eq is_null is_not_null"`
	Table    string
}

// GetWhereClause renders the condition. An unknown operator renders nothing.
func (f *Filter) GetWhereClause() (string, map[string]any) {
	args := map[string]any{}

	render, ok := renderers[f.Operator]
	if !ok {
		return "", args
	}

	column := f.Field
	if f.Table != "" {
		column = f.Table + "." + f.Field
	}

	arg := f.ArgName
	if arg == "" {
		arg = f.Field
	}

	return render(column, arg, f.Value, args), args
}

// FilterGroup joins Filters, which hold Filter or nested FilterGroup values,
// with Operator.
type FilterGroup struct {
	Filters  []any
	Operator string
}

func (f *FilterGroup) GetWhereClause() (string, map[string]any) {
	args := map[string]any{}
	clauses := make([]string, 0, len(f.Filters))

	for _, item := range f.Filters {
		var (
			where string
			arg   map[string]any
		)

		switch fill := item.(type) {
		case Filter:
			where, arg = fill.GetWhereClause()
		case FilterGroup:
			where, arg = fill.GetWhereClause()
		default:
			continue
		}

		if where == "" {
			continue
		}

		clauses = append(clauses, where)
		maps.Copy(args, arg)
	}

	if len(clauses) == 0 {
		return "", args
	}

	return "(" + strings.Join(clauses, " "+f.Operator+" ") + ")", args
}

// AppendIfNotEmpty adds filter unless its value is a blank string, so optional
// query parameters can be appended unconditionally.
func (f *FilterGroup) AppendIfNotEmpty(filter Filter) {
	if value, ok := filter.Value.(string); ok && strings.TrimSpace(value) == "" {
		return
	}

	f.Filters = append(f.Filters, filter)
}
