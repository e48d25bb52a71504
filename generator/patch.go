package generator

import (
	"github.com/pkg/errors"

	"github.com/Plato-solutions/cherry/entity"
	"github.com/Plato-solutions/cherry/sqlgen"
)

// GeneratePatch generates the methods applying a patch type to its table row.
func (g *Generator) GeneratePatch(p *entity.Patch) error {
	w, err := g.newTableWriter(p.Table)
	if err != nil {
		return err
	}
	t := p.Table
	patchSQL := ArgName(p.Type) + ConstSuffix
	if err := g.AddConst(patchSQL, quote(sqlgen.Patch(p))); err != nil {
		return err
	}
	idType := w.fieldType(t.ID)
	if err := g.addDecl("var _ "+p.Type+" patch", "var _ "+w.tbl+"Patch["+t.Type+", "+idType+"] = "+p.Type+"{}\n"); err != nil {
		return err
	}

	var assigns string
	for _, f := range p.Fields {
		assigns += w.recv + "." + f.Name + " = p." + f.Name + "\n"
	}
	if err := g.AddMethod(p.Type, "ApplyTo", "// ApplyTo copies the patch fields to "+w.recv+".\n"+
		MethodBody("p", p.Type, "ApplyTo", w.recv+" *"+t.Type, "", g.nolint, assigns)); err != nil {
		return errors.Wrapf(err, "patch %s", p.Type)
	}

	args := w.fieldArgs(p.Fields, "p") + ", " + bind(t.ID, "id")
	return g.AddMethod(p.Type, "PatchRow", "// PatchRow updates the patch columns of the row identified by id.\n"+
		MethodBody("p", p.Type, "PatchRow", "ctx context.Context, ex "+w.ds+"Executor, id "+idType, "error", g.nolint,
			"return "+w.tbl+"Exec(ctx, "+w.tbl+"Use(ex), "+patchSQL+", "+args+")"))
}
