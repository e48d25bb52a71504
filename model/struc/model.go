package struc

import (
	"go/ast"
	"go/types"
	"strconv"

	"github.com/pkg/errors"

	"github.com/Plato-solutions/cherry/model/util"
)

type (
	TagName   = string
	TagValue  = string
	FieldName = string
	FieldType struct {
		Embedded bool
		Exported bool
		Type     types.Type
	}

	//Model struct type model.
	Model struct {
		Typ            util.TypeNamedOrAlias
		TypFile        *ast.File
		Doc            *ast.CommentGroup
		OutPkgPath     string
		FieldsTagValue map[FieldName]map[TagName]TagValue
		FieldNames     []FieldName
		FieldsType     map[FieldName]FieldType
	}
)

func (f *FieldType) FullName(outPkgPath string) string {
	return util.TypeString(f.Type, outPkgPath)
}

func (m *Model) FieldsNameAndType(yield func(FieldName, FieldType) bool) {
	if m != nil {
		for _, fn := range m.FieldNames {
			if !yield(fn, m.FieldsType[fn]) {
				break
			}
		}
	}
}

// Tag returns the value of the tag of a field.
func (m *Model) Tag(field FieldName, tag TagName) (TagValue, bool) {
	v, ok := m.FieldsTagValue[field][tag]
	return v, ok
}

func (m *Model) Package() *types.Package {
	return m.Typ.Obj().Pkg()
}

func (m *Model) TypeName() string {
	return m.Typ.Obj().Name()
}

// New - Model's default constructor.
func New(outPkgPath string, typ util.TypeNamedOrAlias, typFile *ast.File) (*Model, error) {
	structModel, err := newBuilder(outPkgPath).newModel(typ, typFile)
	if err != nil {
		return nil, errors.Wrapf(err, "new model of %s", typ.Obj().Name())
	} else if structModel == nil {
		return nil, errors.Errorf("nil model for type %s", typ.Obj().Name())
	}
	return structModel, nil
}

// FindDoc returns the doc comment of the type declaration typeName in file.
// A doc comment of a single-spec declaration group is attached to the group.
func FindDoc(file *ast.File, typeName string) *ast.CommentGroup {
	if file == nil {
		return nil
	}
	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range genDecl.Specs {
			if typeSpec, ok := spec.(*ast.TypeSpec); ok && typeSpec.Name.Name == typeName {
				if typeSpec.Doc != nil {
					return typeSpec.Doc
				}
				return genDecl.Doc
			}
		}
	}
	return nil
}

// parseTagValues splits a struct tag into tag name / value pairs in the order of declaration.
func parseTagValues(tags string) (map[TagName]TagValue, []TagName) {
	tagNames := make([]TagName, 0)
	tagValues := make(map[TagName]TagValue)

	for tags != "" {
		i := 0
		for i < len(tags) && tags[i] == ' ' {
			i++
		}
		tags = tags[i:]
		if tags == "" {
			break
		}
		i = 0
		for i < len(tags) && tags[i] > ' ' && tags[i] != ':' && tags[i] != '"' && tags[i] != 0x7f {
			i++
		}
		if i == 0 || i+1 >= len(tags) || tags[i] != ':' || tags[i+1] != '"' {
			break
		}
		name := tags[:i]
		tags = tags[i+1:]

		i = 1
		for i < len(tags) && tags[i] != '"' {
			if tags[i] == '\\' {
				i++
			}
			i++
		}
		if i >= len(tags) {
			break
		}
		quoted := tags[:i+1]
		tags = tags[i+1:]

		value, err := strconv.Unquote(quoted)
		if err != nil {
			break
		}
		if _, ok := tagValues[name]; !ok {
			tagNames = append(tagNames, name)
		}
		tagValues[name] = value
	}
	return tagValues, tagNames
}
