package command

import (
	"fmt"
	"go/token"

	"github.com/m4gshm/gollections/c"
	"golang.org/x/tools/go/packages"

	"github.com/Plato-solutions/cherry/backend"
	"github.com/Plato-solutions/cherry/generator"
	"github.com/Plato-solutions/cherry/model/struc"
	"github.com/Plato-solutions/cherry/model/util"
	"github.com/Plato-solutions/cherry/params"
	"github.com/Plato-solutions/cherry/use"
)

type Context struct {
	Config     *params.Config
	Generator  *generator.Generator
	Backend    backend.Backend
	Packages   c.Range[*packages.Package]
	FileSet    *token.FileSet
	OutPkgPath string
	models     map[string]*struc.Model
}

// StructModel is the model of the configured type.
func (c *Context) StructModel() (*struc.Model, error) {
	typ := *c.Config.Type
	if len(typ) == 0 {
		return nil, use.Err("no type arg")
	}
	return c.Model(typ)
}

// Model loads the struct model of a type of the loaded packages.
func (c *Context) Model(typeName string) (*struc.Model, error) {
	if m, ok := c.models[typeName]; ok {
		return m, nil
	}
	typ, _, _, file, err := util.FindTypePackageFile(typeName, c.FileSet, c.Packages)
	if err != nil {
		return nil, err
	} else if typ == nil {
		return nil, use.Err(fmt.Sprintf("type not found, %s", typeName))
	}
	model, err := struc.New(c.OutPkgPath, typ, file)
	if err != nil {
		return nil, err
	}
	if c.models == nil {
		c.models = map[string]*struc.Model{}
	}
	c.models[typeName] = model
	return model, nil
}
