package struc

import (
	"go/ast"
	"go/types"
	"reflect"

	"github.com/pkg/errors"

	"github.com/Plato-solutions/cherry/logger"
	"github.com/Plato-solutions/cherry/model/util"
)

type structModelBuilder struct {
	model      *Model
	outPkgPath string
}

func newBuilder(outPkgPath string) *structModelBuilder {
	return &structModelBuilder{outPkgPath: outPkgPath}
}

func (b *structModelBuilder) populateFields(fldName FieldName, fieldTagNames []TagName, tagValues map[TagName]TagValue) {
	if len(fieldTagNames) > 0 {
		b.model.FieldsTagValue[fldName] = tagValues
	}
}

func (b *structModelBuilder) populateByStruct(typ *types.Struct) error {
	numFields := typ.NumFields()
	for i := 0; i < numFields; i++ {
		fieldVar := typ.Field(i)
		if !fieldVar.IsField() {
			return errors.Errorf("unexpected struct element, must be field, value %v, type %v", fieldVar, reflect.TypeOf(fieldVar))
		}
		fldName := fieldVar.Name()
		if fldName == "_" {
			continue
		} else if _, ok := b.model.FieldsType[fldName]; ok {
			logger.Infof("duplicated field '%s'", fldName)
			continue
		}
		b.model.FieldNames = append(b.model.FieldNames, fldName)

		tagValues, fieldTagNames := parseTagValues(typ.Tag(i))
		b.populateFields(fldName, fieldTagNames, tagValues)

		b.model.FieldsType[fldName] = FieldType{
			Embedded: fieldVar.Embedded(),
			Exported: fieldVar.Exported(),
			Type:     fieldVar.Type(),
		}
	}
	return nil
}

func (b *structModelBuilder) newModel(typ util.TypeNamedOrAlias, typFile *ast.File) (*Model, error) {
	typName := typ.Obj().Name()
	typStruct, rc := util.GetTypeStruct(typ)
	if typStruct == nil {
		return nil, errors.Errorf("'%s' is not a struct type", typName)
	} else if rc > 0 {
		return nil, errors.Errorf("'%s' is a pointer type, struct expected", typName)
	} else if typ.TypeParams().Len() > 0 {
		return nil, errors.Errorf("'%s' is a generic type, not supported", typName)
	}

	b.model = &Model{
		Typ:            typ,
		TypFile:        typFile,
		Doc:            FindDoc(typFile, typName),
		OutPkgPath:     b.outPkgPath,
		FieldsTagValue: map[FieldName]map[TagName]TagValue{},
		FieldNames:     []FieldName{},
		FieldsType:     map[FieldName]FieldType{},
	}
	if err := b.populateByStruct(typStruct); err != nil {
		return nil, err
	}
	logger.Debugw("struct model", "type", typName, "fields", b.model.FieldNames)
	return b.model, nil
}
