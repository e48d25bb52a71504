// Package generator assembles and formats the Go source of a generated file.
package generator

import (
	"bytes"
	"fmt"
	"go/types"
	"sort"
	"strconv"

	"github.com/m4gshm/gollections/op"
	"github.com/pkg/errors"
	"golang.org/x/tools/imports"
	"mvdan.cc/gofumpt/format"

	"github.com/Plato-solutions/cherry/model/util"
)

const langVersion = "go1.23"

type importDecl struct {
	path, name, alias string
}

// Generator collects the constants, types, functions and methods of a file and
// the imports they need.
type Generator struct {
	name         string
	outBuildTags string
	outPkgName   string
	outPkgPath   string
	nolint       bool

	imports   []*importDecl
	byPath    map[string]*importDecl
	usedNames map[string]string

	consts     []string
	constValue map[string]string
	decls      []string
	declared   map[string]struct{}
}

func New(name, outBuildTags, outPkgName, outPkgPath string, nolint bool) *Generator {
	return &Generator{
		name:         name,
		outBuildTags: outBuildTags,
		outPkgName:   outPkgName,
		outPkgPath:   outPkgPath,
		nolint:       nolint,
		byPath:       map[string]*importDecl{},
		usedNames:    map[string]string{},
		constValue:   map[string]string{},
		declared:     map[string]struct{}{},
	}
}

func (g *Generator) OutPkgPath() string { return g.outPkgPath }

// AddImport registers an import and returns its alias, empty when the package name is used as is.
// An already imported path keeps its first alias.
func (g *Generator) AddImport(pkgPath, alias string) (string, error) {
	return g.addImport(pkgPath, util.GetPackageName(pkgPath), alias)
}

func (g *Generator) addImport(pkgPath, pkgName, alias string) (string, error) {
	if len(pkgPath) == 0 {
		return "", errors.New("empty import path")
	} else if pkgPath == g.outPkgPath {
		return "", nil
	} else if imp, ok := g.byPath[pkgPath]; ok {
		return imp.alias, nil
	}
	base := op.IfElse(len(alias) > 0, alias, pkgName)
	name := base
	for i := 1; g.nameUsed(name); i++ {
		name = base + strconv.Itoa(i)
	}
	imp := &importDecl{path: pkgPath, name: name, alias: op.IfElse(name == pkgName, "", name)}
	g.imports = append(g.imports, imp)
	g.byPath[pkgPath] = imp
	g.usedNames[name] = pkgPath
	return imp.alias, nil
}

func (g *Generator) nameUsed(name string) bool {
	_, ok := g.usedNames[name]
	return ok || name == g.outPkgName
}

// Qualifier returns the selector prefix of a package, like "datasource.", empty for the output package.
func (g *Generator) Qualifier(pkgPath string) (string, error) {
	if pkgPath == g.outPkgPath {
		return "", nil
	} else if _, err := g.AddImport(pkgPath, ""); err != nil {
		return "", err
	}
	return g.byPath[pkgPath].name + ".", nil
}

// TypeString renders typ relative to the output package and imports the packages it refers to.
func (g *Generator) TypeString(typ types.Type) string {
	return types.TypeString(typ, func(p *types.Package) string {
		if p.Path() == g.outPkgPath {
			return ""
		}
		if _, err := g.addImport(p.Path(), p.Name(), ""); err != nil {
			return p.Name()
		}
		return g.byPath[p.Path()].name
	})
}

// AddConst registers a constant; a redeclaration must have the same value.
func (g *Generator) AddConst(name, value string) error {
	if existed, ok := g.constValue[name]; ok {
		if existed != value {
			return errors.Errorf("constant %s already declared with a different value", name)
		}
		return nil
	}
	g.consts = append(g.consts, name)
	g.constValue[name] = value
	return nil
}

func (g *Generator) AddType(name, body string) error {
	return g.addDecl("type "+name, body)
}

func (g *Generator) AddFunc(name, body string) error {
	return g.addDecl("func "+name, body)
}

func (g *Generator) AddMethod(typ, name, body string) error {
	return g.addDecl("method "+MethodName(typ, name), body)
}

func (g *Generator) addDecl(key, body string) error {
	if _, ok := g.declared[key]; ok {
		return errors.Errorf("duplicated %s", key)
	}
	g.declared[key] = struct{}{}
	g.decls = append(g.decls, body)
	return nil
}

// Src renders the unformatted file.
func (g *Generator) Src() []byte {
	var b bytes.Buffer
	w := newWriter(&b)
	w("// Code generated by %s; DO NOT EDIT.\n", g.name)
	if len(g.outBuildTags) > 0 {
		w("//go:build %s\n", g.outBuildTags)
	}
	w("\npackage %s\n", g.outPkgName)
	if len(g.imports) > 0 {
		imps := append([]*importDecl(nil), g.imports...)
		sort.Slice(imps, func(i, j int) bool { return imps[i].path < imps[j].path })
		w("\nimport (\n")
		for _, imp := range imps {
			w("%s%q\n", op.IfElse(len(imp.alias) > 0, imp.alias+" ", ""), imp.path)
		}
		w(")\n")
	}
	if len(g.consts) > 0 {
		w("\nconst (\n")
		for _, name := range g.consts {
			w("%s = %s\n", name, g.constValue[name])
		}
		w(")\n")
	}
	for _, decl := range g.decls {
		w("\n%s", decl)
	}
	return b.Bytes()
}

// FormatSrc renders the file, removes unused imports and formats it by gofumpt.
// The unformatted source is returned along with a formatting error.
func (g *Generator) FormatSrc(filename string) ([]byte, error) {
	src := g.Src()
	processed, err := imports.Process(filename, src, nil)
	if err != nil {
		return src, errors.Wrap(err, "imports")
	}
	formatted, err := format.Source(processed, format.Options{LangVersion: langVersion, ExtraRules: true})
	if err != nil {
		return processed, errors.Wrap(err, "gofumpt")
	}
	return formatted, nil
}

func newWriter(buffer *bytes.Buffer) func(format string, args ...any) {
	return func(format string, args ...any) {
		_, _ = fmt.Fprintf(buffer, format, args...)
	}
}
