package entity

import (
	"go/types"

	"github.com/go-openapi/inflect"
	"github.com/m4gshm/gollections/op"
	"github.com/pkg/errors"

	"github.com/Plato-solutions/cherry/attrs"
	"github.com/Plato-solutions/cherry/backend"
	"github.com/Plato-solutions/cherry/logger"
	"github.com/Plato-solutions/cherry/model/struc"
	"github.com/Plato-solutions/cherry/model/util"
)

var (
	ErrIDNotFound               = errors.New("id does not refer to a field")
	ErrDefaultWithoutInsertable = errors.New("default field requires an insertable declaration")
	ErrNotEntity                = errors.New("not an entity declaration")
	ErrNotPatch                 = errors.New("not a patch declaration")
)

const (
	GetterPrefix     = "By"
	SetterPrefix     = "Set"
	InsertablePrefix = "Insert"
)

func inflectAcronym(acronym string) { inflect.AddAcronym(acronym) }

// Key converts a Go field name to its snake case SQL name.
func Key(fieldName string) string {
	return inflect.Underscore(fieldName)
}

// Decl parses the declaration attributes of a struct model.
func Decl(model *struc.Model) (*attrs.Decl, error) {
	items, err := attrs.ParseAll(attrs.Directives(model.Doc)...)
	if err != nil {
		return nil, err
	}
	return attrs.ParseDecl(items)
}

// New builds the table descriptor of an annotated struct model.
func New(model *struc.Model, b backend.Backend) (*Table, error) {
	typeName := model.TypeName()
	decl, err := Decl(model)
	if err != nil {
		return nil, errors.Wrapf(err, "type %s", typeName)
	} else if decl.Has(attrs.KeyPatch) {
		return nil, errors.Wrapf(ErrNotEntity, "type %s is a patch of %s", typeName, decl.Patch)
	} else if err = decl.Require(attrs.KeyTable, attrs.KeyDatasource); err != nil {
		return nil, errors.Wrapf(err, "type %s", typeName)
	}

	table := &Table{
		Type:       typeName,
		PkgPath:    model.Package().Path(),
		Name:       decl.Table,
		Datasource: decl.Datasource,
		Queryable:  decl.Queryable,
		Backend:    b,
	}
	if decl.HasInsertable {
		table.Insertable = op.IfElse(len(decl.Insertable) > 0, decl.Insertable, InsertablePrefix+typeName)
	}

	for fieldName, fieldType := range model.FieldsNameAndType {
		field, err := newField(model, fieldName, fieldType, b)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s.%s", typeName, fieldName)
		}
		table.Fields = append(table.Fields, field)
	}

	if len(decl.ID) > 0 {
		id := table.Field(decl.ID)
		if id == nil {
			return nil, errors.Wrapf(ErrIDNotFound, "type %s, id %s", typeName, decl.ID)
		} else if id.Unmapped {
			return nil, errors.Errorf("type %s: id %s can not be unmapped", typeName, decl.ID)
		}
		id.PrimaryKey = true
		table.ID = id
	}
	return table, validate(table)
}

func validate(table *Table) error {
	defaults := table.DefaultFields()
	if len(defaults) > 0 && len(table.Insertable) == 0 {
		return errors.Wrapf(ErrDefaultWithoutInsertable, "type %s, field %s", table.Type, defaults[0].Name)
	}
	if len(defaults) > 0 && table.ID == nil && table.Backend.Strategy() == backend.LastInsertID {
		return errors.Errorf("type %s: default fields of a %s table require an id to be fetched after insert", table.Type, table.Backend.Name())
	}
	if len(table.Insertable) > 0 && table.Insertable == table.Type {
		return errors.Errorf("type %s: insertable companion can not have the same name", table.Type)
	}
	for _, f := range table.Fields {
		if f.Set != nil && table.ID == nil {
			return errors.Errorf("type %s: setter of %s requires an id", table.Type, f.Name)
		} else if f.Set != nil && f.PrimaryKey {
			return errors.Errorf("type %s: id %s can not have a setter", table.Type, f.Name)
		}
	}
	if len(table.MappedFields()) == 0 {
		return errors.Errorf("type %s: no mapped fields", table.Type)
	}
	return nil
}

func newField(model *struc.Model, name string, fieldType struc.FieldType, b backend.Backend) (*Field, error) {
	var items []attrs.Item
	if tag, ok := model.Tag(name, attrs.TagName); ok {
		var err error
		if items, err = attrs.Parse(tag); err != nil {
			return nil, err
		}
	}
	fa, err := attrs.ParseField(items, util.IsOptional(fieldType.Type))
	if err != nil {
		return nil, err
	}

	key := Key(name)
	field := &Field{
		Name:       name,
		Key:        key,
		Column:     op.IfElse(len(fa.Column) > 0, fa.Column, key),
		Type:       fieldType.Type,
		TypeName:   fieldType.FullName(model.OutPkgPath),
		Default:    fa.Default,
		Unmapped:   fa.Unmapped,
		CustomType: fa.CustomType,
	}

	if field.Unmapped {
		if len(fa.Column) > 0 || fa.CustomType || fa.Default || fa.Set != nil || fa.GetOne != nil || fa.GetOptional != nil || fa.GetMany != nil {
			return nil, errors.New("unmapped field can not have column attributes")
		}
		return field, nil
	}

	if field.Reserved = b.IsReserved(field.Column); field.Reserved {
		logger.Warnf("%s.%s: column '%s' is a reserved word of %s, consider choosing a different name", model.TypeName(), name, field.Column, b.Name())
	}

	if field.CustomType {
		field.StorageType = fa.StorageType
		if len(field.StorageType) == 0 {
			if basic, ref := util.GetTypeBasic(fieldType.Type); basic != nil && ref == 0 && basic != fieldType.Type {
				field.StorageType = basic.Name()
			}
		}
	}

	field.Getters = appendGetter(field.Getters, fa.GetOne, GetOne, field)
	field.Getters = appendGetter(field.Getters, fa.GetOptional, GetOptional, field)
	field.Getters = appendGetter(field.Getters, fa.GetMany, GetMany, field)
	if fa.Set != nil {
		field.Set = &Setter{Func: op.IfElse(len(fa.Set.Func) > 0, fa.Set.Func, SetterPrefix+name)}
	}
	return field, nil
}

func appendGetter(getters []*Getter, g *attrs.Getter, kind GetterKind, field *Field) []*Getter {
	if g == nil {
		return getters
	}
	return append(getters, &Getter{
		Kind:    kind,
		Func:    op.IfElse(len(g.Func) > 0, g.Func, GetterPrefix+field.Name),
		ArgType: op.IfElse(len(g.ArgType) > 0, g.ArgType, field.TypeName),
	})
}

// NewPatch builds the patch descriptor of an annotated struct model against the table it updates.
func NewPatch(model *struc.Model, table *Table) (*Patch, error) {
	typeName := model.TypeName()
	decl, err := Decl(model)
	if err != nil {
		return nil, errors.Wrapf(err, "type %s", typeName)
	} else if !decl.Has(attrs.KeyPatch) {
		return nil, errors.Wrapf(ErrNotPatch, "type %s", typeName)
	} else if decl.Patch != table.Type {
		return nil, errors.Errorf("patch %s refers to %s, not to %s", typeName, decl.Patch, table.Type)
	} else if table.ID == nil {
		return nil, errors.Errorf("patch %s: table %s has no id", typeName, table.Type)
	}

	patch := &Patch{Type: typeName, Table: table}
	for fieldName, fieldType := range model.FieldsNameAndType {
		field := table.Field(fieldName)
		if field == nil {
			return nil, errors.Errorf("patch %s: field %s does not refer to a field of %s", typeName, fieldName, table.Type)
		} else if field.Unmapped {
			return nil, errors.Errorf("patch %s: field %s is unmapped", typeName, fieldName)
		} else if field.PrimaryKey {
			return nil, errors.Errorf("patch %s: field %s is the id", typeName, fieldName)
		} else if !types.Identical(field.Type, fieldType.Type) {
			return nil, errors.Errorf("patch %s: field %s type %s differs from %s", typeName, fieldName,
				fieldType.FullName(model.OutPkgPath), field.TypeName)
		}
		patch.Fields = append(patch.Fields, field)
	}
	if len(patch.Fields) == 0 {
		return nil, errors.Errorf("patch %s: no fields", typeName)
	}
	return patch, nil
}
