// Package sqlgen renders the SQL statements of generated table accessors.
package sqlgen

import (
	"strings"

	"github.com/m4gshm/gollections/slice"

	"github.com/Plato-solutions/cherry/backend"
	"github.com/Plato-solutions/cherry/entity"
)

// Column renders a column reference of the field.
func Column(t *entity.Table, f *entity.Field) string {
	return backend.Ident(t.Backend, f.Column)
}

// SelectColumn renders the select list entry of the field.
// A renamed column is aliased by the field key, a custom typed one by the quoted key.
func SelectColumn(t *entity.Table, f *entity.Field) string {
	col := Column(t, f)
	switch {
	case f.CustomType:
		return col + " AS " + backend.QuoteIdent(t.Backend, f.Key)
	case f.Column != f.Key:
		return col + " AS " + backend.Ident(t.Backend, f.Key)
	default:
		return col
	}
}

// Columns is the select list of the mapped fields.
func Columns(t *entity.Table) string {
	return strings.Join(slice.Convert(t.MappedFields(), func(f *entity.Field) string { return SelectColumn(t, f) }), ", ")
}

func columnList(t *entity.Table, fields []*entity.Field) string {
	return strings.Join(slice.Convert(fields, func(f *entity.Field) string { return Column(t, f) }), ", ")
}

func assignments(t *entity.Table, fields []*entity.Field, b *backend.Bindings) string {
	return strings.Join(slice.Convert(fields, func(f *entity.Field) string { return Column(t, f) + "=" + b.Next() }), ", ")
}

func selectFrom(t *entity.Table) string {
	return "SELECT " + Columns(t) + " FROM " + t.Name
}

func whereID(t *entity.Table, b *backend.Bindings) string {
	return " WHERE " + Column(t, t.ID) + " = " + b.Next()
}

// Get selects a row by id.
func Get(t *entity.Table) string {
	return selectFrom(t) + whereID(t, t.Backend.Bindings())
}

// Reload selects the persisted state of a row by id.
func Reload(t *entity.Table) string {
	return Get(t)
}

// All selects every row.
func All(t *entity.Table) string {
	return selectFrom(t)
}

// Paginated selects a page of rows, bound by limit then offset.
func Paginated(t *entity.Table) string {
	b := t.Backend.Bindings()
	limit := b.Next()
	return selectFrom(t) + " LIMIT " + limit + " OFFSET " + b.Next()
}

// Getter selects rows by the field value.
func Getter(t *entity.Table, f *entity.Field) string {
	return selectFrom(t) + " WHERE " + Column(t, f) + " = " + t.Backend.Bindings().Next()
}

// Setter updates one column by id, bound by the value then the id.
func Setter(t *entity.Table, f *entity.Field) string {
	b := t.Backend.Bindings()
	set := assignments(t, []*entity.Field{f}, b)
	return "UPDATE " + t.Name + " SET " + set + whereID(t, b)
}

// Update updates every mapped field except the id, bound in field order with the id last.
func Update(t *entity.Table) string {
	return updateFields(t, t.FieldsExceptID())
}

// Patch updates the patch fields, bound in field order with the id last.
func Patch(p *entity.Patch) string {
	return updateFields(p.Table, p.Fields)
}

func updateFields(t *entity.Table, fields []*entity.Field) string {
	b := t.Backend.Bindings()
	set := assignments(t, fields, b)
	return "UPDATE " + t.Name + " SET " + set + whereID(t, b)
}

// Delete deletes a row by id.
func Delete(t *entity.Table) string {
	return "DELETE FROM " + t.Name + whereID(t, t.Backend.Bindings())
}

// Insert inserts the insertable fields.
// The returning strategy appends the default fields when there are any.
func Insert(t *entity.Table) string {
	fields := t.InsertableFields()
	b := t.Backend.Bindings()
	sql := "INSERT INTO " + t.Name + " (" + columnList(t, fields) + ") VALUES (" + strings.Join(b.Take(len(fields)), ", ") + ")"
	if returning := Returning(t); len(returning) > 0 {
		sql += " RETURNING " + returning
	}
	return sql
}

// Returning is the list of the columns fetched by the insert statement, empty when the
// dialect fetches them by follow-up queries.
func Returning(t *entity.Table) string {
	defaults := t.DefaultFields()
	if t.Backend.Strategy() != backend.Returning || len(defaults) == 0 {
		return ""
	}
	return columnList(t, defaults)
}

// SelectDefaultFields are the fields fetched by id after an insert, the id excluded.
func SelectDefaultFields(t *entity.Table) []*entity.Field {
	return slice.Filter(t.DefaultFields(), func(f *entity.Field) bool { return !f.PrimaryKey })
}

// SelectDefaults selects the database populated fields of an inserted row by id.
// Empty when there is nothing to fetch besides the id.
func SelectDefaults(t *entity.Table) string {
	fields := SelectDefaultFields(t)
	if len(fields) == 0 || t.ID == nil {
		return ""
	}
	return "SELECT " + columnList(t, fields) + " FROM " + t.Name + whereID(t, t.Backend.Bindings())
}
