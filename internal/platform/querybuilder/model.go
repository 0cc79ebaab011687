package querybuilder

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// InsertModel builds a single-row insert from a struct with `db` tags; suffix usually carries
// the ON CONFLICT clause.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	return InsertInto(table).Model(model).Suffix(suffix).ToSQL()
}

// Model appends one row read from a struct with `db` tags. The first model fixes the column
// list and every later model must tag the same columns in the same order.
func (b *InsertBuilder) Model(model any) *InsertBuilder {
	if b.err != nil {
		return b
	}
	cols, vals, err := taggedFields(model)
	if err != nil {
		b.err = fmt.Errorf("insert into %s: %w", b.table, err)
		return b
	}
	switch {
	case len(b.columns) == 0:
		b.columns = cols
	case !slices.Equal(b.columns, cols):
		b.err = fmt.Errorf("insert into %s: model columns %v do not match %v", b.table, cols, b.columns)
		return b
	}
	b.rows = append(b.rows, vals)
	return b
}

// taggedFields returns the exported fields tagged `db:"col"` in declaration order; "-" and
// untagged fields are skipped, options after a comma are ignored.
func taggedFields(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("nil %T model", model)
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be a struct, got %T", model)
	}

	typ := value.Type()
	var (
		cols []string
		vals []any
	)
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("%s has no db-tagged fields", typ.Name())
	}
	return cols, vals, nil
}
