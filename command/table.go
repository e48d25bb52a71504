package command

import (
	"flag"

	"github.com/m4gshm/flag/flagenum"

	"github.com/Plato-solutions/cherry/entity"
	"github.com/Plato-solutions/cherry/generator"
)

func toString[F ~string](from F) string { return string(from) }
func fromString[F ~string](s string) F  { return F(s) }

const TableName = "table"

func NewTable() *Command {
	var (
		flagSet = flag.NewFlagSet(TableName, flag.ExitOnError)
		all     = generator.APIs()
	)
	apis, err := flagenum.Multiple(flagSet, "api", all, all, fromString[generator.API], toString[generator.API], "generated operation groups")
	if err != nil {
		panic(err)
	}
	return New(
		TableName, "generates the table accessor, the insert companion and the schema methods of an entity",
		flagSet,
		func(context *Context) error {
			model, err := context.StructModel()
			if err != nil {
				return err
			}
			table, err := entity.New(model, context.Backend)
			if err != nil {
				return err
			}
			return context.Generator.GenerateTable(table, *apis)
		},
	)
}

func NewSchema() *Command {
	const name = "schema"
	flagSet := flag.NewFlagSet(name, flag.ExitOnError)
	return New(
		name, "generates the schema methods of a queryable entity only",
		flagSet,
		func(context *Context) error {
			model, err := context.StructModel()
			if err != nil {
				return err
			}
			table, err := entity.New(model, context.Backend)
			if err != nil {
				return err
			}
			return context.Generator.GenerateSchema(table)
		},
	)
}
