package command

import (
	"flag"

	"github.com/pkg/errors"

	"github.com/Plato-solutions/cherry/entity"
)

const PatchName = "patch"

func NewPatch() *Command {
	flagSet := flag.NewFlagSet(PatchName, flag.ExitOnError)
	return New(
		PatchName, "generates the methods applying a patch type to its entity",
		flagSet,
		func(context *Context) error {
			model, err := context.StructModel()
			if err != nil {
				return err
			}
			decl, err := entity.Decl(model)
			if err != nil {
				return err
			} else if len(decl.Patch) == 0 {
				return errors.Wrapf(entity.ErrNotPatch, "type %s", model.TypeName())
			}
			entityModel, err := context.Model(decl.Patch)
			if err != nil {
				return errors.Wrapf(err, "patch %s", model.TypeName())
			}
			table, err := entity.New(entityModel, context.Backend)
			if err != nil {
				return err
			}
			patch, err := entity.NewPatch(model, table)
			if err != nil {
				return err
			}
			return context.Generator.GeneratePatch(patch)
		},
	)
}
