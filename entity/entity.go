// Package entity builds validated table descriptors from annotated struct models.
package entity

import (
	"go/types"

	"github.com/Plato-solutions/cherry/backend"
)

func init() {
	// longer acronyms go first, UUID must not be split by ID
	for _, acronym := range []string{"UUID", "HTTP", "JSON", "URL", "URI", "API", "SQL", "ID"} {
		inflectAcronym(acronym)
	}
}

type GetterKind int

const (
	GetOne GetterKind = iota
	GetOptional
	GetMany
)

func (k GetterKind) String() string {
	switch k {
	case GetOne:
		return "get_one"
	case GetOptional:
		return "get_optional"
	case GetMany:
		return "get_many"
	default:
		return "get"
	}
}

// Getter is a generated select by a field value.
type Getter struct {
	Kind    GetterKind
	Func    string
	ArgType string
}

// Setter is a generated single column update.
type Setter struct {
	Func string
}

// Field describes a struct field and its column.
type Field struct {
	// Name is the Go field name.
	Name string
	// Key is the SQL side name of the field, the alias used when Column differs.
	Key    string
	Column string
	Type   types.Type
	// TypeName is the type source relative to the output package.
	TypeName   string
	Reserved   bool
	PrimaryKey bool
	Default    bool
	Unmapped   bool
	CustomType bool
	// StorageType is the Go type a custom typed value is converted to for binding and scanning.
	StorageType string
	Getters     []*Getter
	Set         *Setter
}

// Aliased reports whether the select list renames the column.
func (f *Field) Aliased() bool {
	return f.CustomType || f.Column != f.Key
}

// Table describes a persisted struct.
type Table struct {
	Type       string
	PkgPath    string
	Name       string
	Datasource string
	Fields     []*Field
	ID         *Field
	// Insertable is the name of the insert companion, empty when not generated.
	Insertable string
	Queryable  bool
	Backend    backend.Backend
}

func (t *Table) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (t *Table) filter(p func(*Field) bool) []*Field {
	var result []*Field
	for _, f := range t.Fields {
		if p(f) {
			result = append(result, f)
		}
	}
	return result
}

// MappedFields are the persisted fields.
func (t *Table) MappedFields() []*Field {
	return t.filter(func(f *Field) bool { return !f.Unmapped })
}

// InsertableFields are the persisted fields without a database default.
func (t *Table) InsertableFields() []*Field {
	return t.filter(func(f *Field) bool { return !f.Unmapped && !f.Default })
}

// DefaultFields are the fields populated by the database.
func (t *Table) DefaultFields() []*Field {
	return t.filter(func(f *Field) bool { return f.Default })
}

// FieldsExceptID are the persisted fields without the primary key.
func (t *Table) FieldsExceptID() []*Field {
	return t.filter(func(f *Field) bool { return !f.Unmapped && !f.PrimaryKey })
}

func (t *Table) UnmappedFields() []*Field {
	return t.filter(func(f *Field) bool { return f.Unmapped })
}

// IDAble reports whether id based operations can be generated.
func (t *Table) IDAble() bool {
	return t.ID != nil
}

// Patch describes a partial update of a table.
type Patch struct {
	Type   string
	Table  *Table
	Fields []*Field
}
