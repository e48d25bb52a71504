package generator

import (
	"slices"
	"strconv"
	"strings"

	"github.com/m4gshm/gollections/op"
	"github.com/m4gshm/gollections/slice"
	"github.com/pkg/errors"

	"github.com/Plato-solutions/cherry/backend"
	"github.com/Plato-solutions/cherry/entity"
	"github.com/Plato-solutions/cherry/sqlgen"
)

// API is a group of generated table operations.
type API string

const (
	APIGet     API = "get"
	APIStream  API = "stream"
	APIGetters API = "getters"
	APISetters API = "setters"
	APIUpdate  API = "update"
	APIDelete  API = "delete"
	APIReload  API = "reload"
	APIInsert  API = "insert"
	APIPatch   API = "patch"
	APISchema  API = "schema"
)

func APIs() []API {
	return slice.Of(APIGet, APIStream, APIGetters, APISetters, APIUpdate, APIDelete, APIReload, APIInsert, APIPatch, APISchema)
}

const (
	DatasourcePkg = "github.com/Plato-solutions/cherry/datasource"
	TablePkg      = "github.com/Plato-solutions/cherry/table"
	TableSuffix   = "Table"
	ScanPrefix    = "scan"
	ConstSuffix   = "SQL"
)

// reserved are the names generated code uses besides the field arguments.
var reserved = []string{"t", "ctx", "in", "ex", "err", "id", "row", "p", "result", "fetched", "offset", "limit",
	"table", "datasource", "context", "iter"}

type tableWriter struct {
	g      *Generator
	t      *entity.Table
	nolint bool
	ds     string
	tbl    string
	recv   string
}

func (g *Generator) newTableWriter(t *entity.Table) (*tableWriter, error) {
	if t.PkgPath != g.outPkgPath {
		return nil, errors.Errorf("type %s: generated code must be placed in the package %s", t.Type, t.PkgPath)
	}
	ds, err := g.Qualifier(DatasourcePkg)
	if err != nil {
		return nil, err
	}
	tbl, err := g.Qualifier(TablePkg)
	if err != nil {
		return nil, err
	}
	for _, std := range []string{"context", "iter"} {
		if _, err := g.AddImport(std, ""); err != nil {
			return nil, err
		}
	}
	recv := NewUniqueShortVarGenerator(reserved...).Get(TypeReceiverVar(t.Type))
	return &tableWriter{g: g, t: t, nolint: g.nolint, ds: ds, tbl: tbl, recv: recv}, nil
}

func (w *tableWriter) tableType() string { return w.t.Type + TableSuffix }
func (w *tableWriter) scanFunc() string  { return ScanPrefix + w.t.Type }

func (w *tableWriter) constName(suffix string) string {
	return ArgName(w.t.Type) + suffix + ConstSuffix
}

func (w *tableWriter) addConst(suffix, sql string) (string, error) {
	name := w.constName(suffix)
	return name, w.g.AddConst(name, quote(sql))
}

func (w *tableWriter) method(name, args, returnType, content string) error {
	return w.g.AddMethod(w.tableType(), name, MethodBody("t", w.tableType(), name, args, returnType, w.nolint, content))
}

func (w *tableWriter) fieldType(f *entity.Field) string {
	return w.g.TypeString(f.Type)
}

// bind renders a value bound to a statement, a custom typed one converted to its storage type.
func bind(f *entity.Field, expr string) string {
	if f.CustomType && len(f.StorageType) > 0 {
		return f.StorageType + "(" + expr + ")"
	}
	return expr
}

func convert(typ, expr string) string {
	return op.IfElse(strings.HasPrefix(typ, "*"), "("+typ+")", typ) + "(" + expr + ")"
}

func (w *tableWriter) fieldArgs(fields []*entity.Field, recv string) string {
	return strings.Join(slice.Convert(fields, func(f *entity.Field) string { return bind(f, recv+"."+f.Name) }), ", ")
}

func (w *tableWriter) idArg() string {
	return "id " + w.fieldType(w.t.ID)
}

// scanTargets renders the scan destinations of fields into the target variable,
// custom typed fields are scanned into storage typed variables and converted afterwards.
func (w *tableWriter) scanTargets(fields []*entity.Field, target string, vars *UniqueShortVarGenerator) (decls, dests, assigns []string) {
	for _, f := range fields {
		if f.CustomType && len(f.StorageType) > 0 {
			v := vars.Get(ArgName(f.Name) + "Value")
			decls = append(decls, "var "+v+" "+f.StorageType)
			dests = append(dests, "&"+v)
			assigns = append(assigns, target+"."+f.Name+" = "+convert(w.fieldType(f), v))
		} else {
			dests = append(dests, "&"+target+"."+f.Name)
		}
	}
	return decls, dests, assigns
}

func lines(parts ...[]string) string {
	var all []string
	for _, p := range parts {
		all = append(all, p...)
	}
	return strings.Join(all, "\n")
}

// GenerateSchema generates the schema methods making the entity a query builder record.
func (g *Generator) GenerateSchema(t *entity.Table) error {
	w, err := g.newTableWriter(t)
	if err != nil {
		return err
	} else if err := w.generateScan(); err != nil {
		return err
	}
	return w.generateSchema()
}

// GenerateTable generates the accessor of a table restricted to the api groups.
func (g *Generator) GenerateTable(t *entity.Table, apis []API) error {
	w, err := g.newTableWriter(t)
	if err != nil {
		return err
	}
	if err := w.generateAccessor(); err != nil {
		return err
	} else if err := w.generateScan(); err != nil {
		return err
	}
	for _, api := range apis {
		if err := w.generate(api); err != nil {
			return errors.Wrapf(err, "type %s, api %s", t.Type, api)
		}
	}
	return nil
}

func (w *tableWriter) generate(api API) error {
	idAPI := func(generate func() error) error {
		if !w.t.IDAble() {
			return nil
		}
		return generate()
	}
	switch api {
	case APIGet:
		return idAPI(w.generateGet)
	case APIStream:
		return w.generateStream()
	case APIGetters:
		return w.generateGetters()
	case APISetters:
		return w.generateSetters()
	case APIUpdate:
		return idAPI(w.generateUpdate)
	case APIDelete:
		return idAPI(w.generateDelete)
	case APIReload:
		return idAPI(w.generateReload)
	case APIInsert:
		if len(w.t.Insertable) == 0 {
			return nil
		}
		return w.generateInsert()
	case APIPatch:
		return idAPI(w.generatePatchMethod)
	case APISchema:
		if !w.t.Queryable {
			return nil
		}
		return w.generateSchema()
	default:
		return errors.Errorf("unknown api %s", api)
	}
}

func (w *tableWriter) generateAccessor() error {
	t := w.t
	typeName := w.tableType()
	body := "// " + typeName + " accesses the " + t.Name + " table of the " + t.Datasource + " datasource.\n" +
		"type " + typeName + " struct {\n" +
		"reg *" + w.ds + "Registry\n" +
		"ex " + w.ds + "Executor\n" +
		"}\n"
	if err := w.g.AddType(typeName, body); err != nil {
		return err
	}
	constructor := "New" + typeName
	if err := w.g.AddFunc(constructor, FuncBody(constructor, "reg *"+w.ds+"Registry", typeName, w.nolint,
		"return "+typeName+"{reg: reg}")); err != nil {
		return err
	}
	if err := w.method("WithExecutor", "ex "+w.ds+"Executor", typeName,
		"t.ex = ex\nreturn t"); err != nil {
		return err
	}
	return w.method("executor", "", "("+w.ds+"Executor, error)",
		"if t.ex != nil {\nreturn t.ex, nil\n}\nreturn t.reg.Executor("+strconv.Quote(t.Datasource)+")")
}

func (w *tableWriter) generateScan() error {
	vars := NewUniqueShortVarGenerator("row", "err", w.recv)
	decls, dests, assigns := w.scanTargets(w.t.MappedFields(), w.recv, vars)
	name := w.scanFunc()
	content := lines(
		[]string{"var " + w.recv + " " + w.t.Type},
		decls,
		[]string{"if err := row.Scan(" + strings.Join(dests, ", ") + "); err != nil {\nreturn nil, err\n}"},
		assigns,
		[]string{"return &" + w.recv + ", nil"},
	)
	return w.g.AddFunc(name, FuncBody(name, "row "+w.tbl+"Scanner", "(*"+w.t.Type+", error)", w.nolint, content))
}

func (w *tableWriter) generateGet() error {
	getSQL, err := w.addConst("Get", sqlgen.Get(w.t))
	if err != nil {
		return err
	}
	return w.method("Get", "ctx context.Context, "+w.idArg(), "(*"+w.t.Type+", error)",
		"return "+w.tbl+"One(ctx, t.executor, "+w.scanFunc()+", "+getSQL+", "+bind(w.t.ID, "id")+")")
}

func (w *tableWriter) generateStream() error {
	allSQL, err := w.addConst("All", sqlgen.All(w.t))
	if err != nil {
		return err
	}
	pageSQL, err := w.addConst("Paginated", sqlgen.Paginated(w.t))
	if err != nil {
		return err
	}
	typ := w.t.Type
	seq := "iter.Seq2[*" + typ + ", error]"
	page := "ctx context.Context, offset, limit int64"
	scan := w.scanFunc()
	if err := w.method("StreamAll", "ctx context.Context", seq,
		"return "+w.tbl+"Stream(ctx, t.executor, "+scan+", "+allSQL+")"); err != nil {
		return err
	}
	if err := w.method("StreamAllPaginated", page, seq,
		"return "+w.tbl+"Stream(ctx, t.executor, "+scan+", "+pageSQL+", limit, offset)"); err != nil {
		return err
	}
	if err := w.method("All", "ctx context.Context", "([]*"+typ+", error)",
		"return "+w.tbl+"Many(ctx, t.executor, "+scan+", "+allSQL+")"); err != nil {
		return err
	}
	return w.method("AllPaginated", page, "([]*"+typ+", error)",
		"return "+w.tbl+"Many(ctx, t.executor, "+scan+", "+pageSQL+", limit, offset)")
}

func (w *tableWriter) generateGetters() error {
	for _, f := range w.t.MappedFields() {
		for _, getter := range f.Getters {
			if err := w.generateGetter(f, getter); err != nil {
				return errors.Wrapf(err, "getter %s", getter.Func)
			}
		}
	}
	return nil
}

func (w *tableWriter) generateGetter(f *entity.Field, getter *entity.Getter) error {
	getterSQL, err := w.addConst(getter.Func, sqlgen.Getter(w.t, f))
	if err != nil {
		return err
	}
	arg := NewUniqueShortVarGenerator(reserved...).Get(LegalIdentName(ArgName(f.Name)))
	argType, value := getter.ArgType, arg
	if argType == f.TypeName {
		argType, value = w.fieldType(f), bind(f, arg)
	}
	var call, result string
	switch getter.Kind {
	case entity.GetOne:
		call, result = "One", "(*"+w.t.Type+", error)"
	case entity.GetOptional:
		call, result = "Optional", "(*"+w.t.Type+", error)"
	default:
		call, result = "Many", "([]*"+w.t.Type+", error)"
	}
	return w.method(getter.Func, "ctx context.Context, "+arg+" "+argType, result,
		"return "+w.tbl+call+"(ctx, t.executor, "+w.scanFunc()+", "+getterSQL+", "+value+")")
}

func (w *tableWriter) generateSetters() error {
	for _, f := range w.t.MappedFields() {
		if f.Set == nil {
			continue
		}
		setterSQL, err := w.addConst(f.Set.Func, sqlgen.Setter(w.t, f))
		if err != nil {
			return err
		}
		arg := NewUniqueShortVarGenerator(slices.Concat(reserved, []string{w.recv})...).Get(LegalIdentName(ArgName(f.Name)))
		content := "if err := " + w.tbl + "Exec(ctx, t.executor, " + setterSQL + ", " + bind(f, arg) + ", " +
			bind(w.t.ID, w.recv+"."+w.t.ID.Name) + "); err != nil {\nreturn err\n}\n" +
			w.recv + "." + f.Name + " = " + arg + "\nreturn nil"
		if err := w.method(f.Set.Func, "ctx context.Context, "+w.recv+" *"+w.t.Type+", "+arg+" "+w.fieldType(f), "error", content); err != nil {
			return errors.Wrapf(err, "setter %s", f.Set.Func)
		}
	}
	return nil
}

func (w *tableWriter) generateUpdate() error {
	updateSQL, err := w.addConst("Update", sqlgen.Update(w.t))
	if err != nil {
		return err
	}
	fields := append(w.t.FieldsExceptID(), w.t.ID)
	return w.method("Update", "ctx context.Context, "+w.recv+" *"+w.t.Type, "error",
		"return "+w.tbl+"Exec(ctx, t.executor, "+updateSQL+", "+w.fieldArgs(fields, w.recv)+")")
}

func (w *tableWriter) generateDelete() error {
	deleteSQL, err := w.addConst("Delete", sqlgen.Delete(w.t))
	if err != nil {
		return err
	}
	if err := w.method("Delete", "ctx context.Context, "+w.recv+" *"+w.t.Type, "error",
		"return t.DeleteRow(ctx, "+w.recv+"."+w.t.ID.Name+")"); err != nil {
		return err
	}
	return w.method("DeleteRow", "ctx context.Context, "+w.idArg(), "error",
		"return "+w.tbl+"ExecOne(ctx, t.executor, "+deleteSQL+", "+bind(w.t.ID, "id")+")")
}

// generateReload refreshes the mapped fields only, unmapped ones keep their values.
func (w *tableWriter) generateReload() error {
	reloadSQL, err := w.addConst("Get", sqlgen.Reload(w.t))
	if err != nil {
		return err
	}
	assigns := slice.Convert(w.t.MappedFields(), func(f *entity.Field) string {
		return w.recv + "." + f.Name + " = fetched." + f.Name
	})
	content := "fetched, err := " + w.tbl + "One(ctx, t.executor, " + w.scanFunc() + ", " + reloadSQL + ", " +
		bind(w.t.ID, w.recv+"."+w.t.ID.Name) + ")\nif err != nil {\nreturn err\n}\n" +
		strings.Join(assigns, "\n") + "\nreturn nil"
	return w.method("Reload", "ctx context.Context, "+w.recv+" *"+w.t.Type, "error", content)
}

func (w *tableWriter) generatePatchMethod() error {
	content := "ex, err := t.executor()\nif err != nil {\nreturn err\n}\n" +
		"if err := p.PatchRow(ctx, ex, " + w.recv + "." + w.t.ID.Name + "); err != nil {\nreturn err\n}\n" +
		"p.ApplyTo(" + w.recv + ")\nreturn nil"
	return w.method("Patch", "ctx context.Context, "+w.recv+" *"+w.t.Type+", p "+w.tbl+"Patch["+w.t.Type+", "+w.fieldType(w.t.ID)+"]",
		"error", content)
}

func (w *tableWriter) generateInsert() error {
	t := w.t
	insertSQL, err := w.addConst("Insert", sqlgen.Insert(t))
	if err != nil {
		return err
	}
	companion := t.Insertable
	fields := t.InsertableFields()

	body := "// " + companion + " is a " + t.Type + " to insert, without the database populated fields.\n" +
		"type " + companion + " struct {\n" +
		strings.Join(slice.Convert(fields, func(f *entity.Field) string { return f.Name + " " + w.fieldType(f) }), "\n") +
		"\n}\n"
	if err := w.g.AddType(companion, body); err != nil {
		return err
	}

	copyFields := func(from string) string {
		return strings.Join(slice.Convert(fields, func(f *entity.Field) string { return f.Name + ": " + from + "." + f.Name }), ", ")
	}
	constructor := "New" + companion
	if err := w.g.AddFunc(constructor, FuncBody(constructor, w.recv+" *"+t.Type, "*"+companion, w.nolint,
		"return &"+companion+"{"+copyFields(w.recv)+"}")); err != nil {
		return err
	}

	content, err := w.insertWith(insertSQL, copyFields("in"))
	if err != nil {
		return err
	}
	if err := w.g.AddMethod(companion, "InsertWith", "// InsertWith inserts the row by ex and returns it with the database populated fields.\n"+
		MethodBody("in", "*"+companion, "InsertWith", "ctx context.Context, ex "+w.ds+"Executor", "(*"+t.Type+", error)", w.nolint, content)); err != nil {
		return err
	}

	var insert string
	if t.Backend.Strategy() == backend.LastInsertID {
		insert = "var " + w.recv + " *" + t.Type + "\n" +
			"err := " + w.tbl + "Pin(ctx, t.executor, func(ex " + w.ds + "Executor) (err error) {\n" +
			w.recv + ", err = in.InsertWith(ctx, ex)\nreturn err\n})\n" +
			"return " + w.recv + ", err"
	} else {
		insert = "ex, err := t.executor()\nif err != nil {\nreturn nil, err\n}\nreturn in.InsertWith(ctx, ex)"
	}
	return w.method("Insert", "ctx context.Context, in *"+companion, "(*"+t.Type+", error)", insert)
}

func (w *tableWriter) insertWith(insertSQL, copied string) (string, error) {
	t := w.t
	args := w.fieldArgs(t.InsertableFields(), "in")
	args = op.IfElse(len(args) > 0, ", "+args, "")
	followUp := func(err string) string {
		return "return nil, " + w.tbl + "NewInsertFollowUpError(" + strconv.Quote(t.Name) + ", " + err + ")"
	}
	content := w.recv + " := &" + t.Type + "{" + copied + "}\n"
	defaults := t.DefaultFields()
	vars := NewUniqueShortVarGenerator(slices.Concat(reserved, []string{w.recv})...)

	if t.Backend.Strategy() == backend.Returning {
		if len(defaults) == 0 {
			return content + "if _, err := ex.ExecContext(ctx, " + insertSQL + args + "); err != nil {\nreturn nil, err\n}\n" +
				"return " + w.recv + ", nil", nil
		}
		decls, dests, assigns := w.scanTargets(defaults, w.recv, vars)
		return content + lines(decls, []string{
			"if err := " + w.tbl + "QueryRow(ctx, ex, []any{" + strings.Join(dests, ", ") + "}, " + insertSQL + args + "); err != nil {\nreturn nil, err\n}",
		}, assigns, []string{"return " + w.recv + ", nil"}), nil
	}

	idDefault := t.ID != nil && t.ID.Default
	if idDefault {
		content += "result, err := ex.ExecContext(ctx, " + insertSQL + args + ")\nif err != nil {\nreturn nil, err\n}\n" +
			"id, err := " + w.tbl + "LastInsertID(ctx, ex, result, " + strconv.Quote(t.Backend.LastInsertIDQuery()) + ")\n" +
			"if err != nil {\n" + followUp("err") + "\n}\n" +
			w.recv + "." + t.ID.Name + " = " + convert(w.fieldType(t.ID), "id") + "\n"
	} else {
		content += "if _, err := ex.ExecContext(ctx, " + insertSQL + args + "); err != nil {\nreturn nil, err\n}\n"
	}
	if selectDefaults := sqlgen.SelectDefaults(t); len(selectDefaults) > 0 {
		defaultsSQL, err := w.addConst("SelectDefaults", selectDefaults)
		if err != nil {
			return "", err
		}
		decls, dests, assigns := w.scanTargets(sqlgen.SelectDefaultFields(t), w.recv, vars)
		content += lines(decls, []string{
			"if err := " + w.tbl + "QueryRow(ctx, ex, []any{" + strings.Join(dests, ", ") + "}, " + defaultsSQL + ", " +
				bind(t.ID, w.recv+"."+t.ID.Name) + "); err != nil {\n" + followUp("err") + "\n}",
		}, assigns) + "\n"
	}
	return content + "return " + w.recv + ", nil", nil
}

func (w *tableWriter) schemaMethod(recv, name, returnType, content string) error {
	return w.g.AddMethod(w.t.Type, name, MethodBody(recv, "*"+w.t.Type, name, "", returnType, w.nolint, content))
}

func quoteAll(values []string) string {
	return strings.Join(slice.Convert(values, strconv.Quote), ", ")
}

func (w *tableWriter) generateSchema() error {
	t := w.t
	mapped := t.MappedFields()
	if err := w.g.addDecl("var _ "+t.Type+" record", "var _ "+w.tbl+"Record = (*"+t.Type+")(nil)\n"); err != nil {
		return err
	}
	if err := w.schemaMethod("", "TableName", "string", "return "+strconv.Quote(t.Name)); err != nil {
		return err
	}
	if err := w.schemaMethod("", "Datasource", "string", "return "+strconv.Quote(t.Datasource)); err != nil {
		return err
	}
	columns := slice.Convert(mapped, func(f *entity.Field) string { return sqlgen.Column(t, f) })
	if err := w.schemaMethod("", "Columns", "[]string", "return []string{"+quoteAll(columns)+"}"); err != nil {
		return err
	}
	selectColumns := slice.Convert(mapped, func(f *entity.Field) string { return sqlgen.SelectColumn(t, f) })
	if err := w.schemaMethod("", "SelectColumns", "[]string", "return []string{"+quoteAll(selectColumns)+"}"); err != nil {
		return err
	}
	if err := w.schemaMethod(w.recv, "Arguments", "[]any", "return []any{"+w.fieldArgs(mapped, w.recv)+"}"); err != nil {
		return err
	}
	return w.g.AddMethod(t.Type, "ScanRow", MethodBody(w.recv, "*"+t.Type, "ScanRow", "row "+w.tbl+"Scanner", "error", w.nolint,
		"scanned, err := "+w.scanFunc()+"(row)\nif err != nil {\nreturn err\n}\n*"+w.recv+" = *scanned\nreturn nil"))
}

func quote(sql string) string {
	if strconv.CanBackquote(sql) {
		return "`" + sql + "`"
	}
	return strconv.Quote(sql)
}
