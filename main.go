package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/token"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/m4gshm/gollections/collection/mutable/ordered/set"
	"golang.org/x/tools/go/packages"

	"github.com/Plato-solutions/cherry/attrs"
	"github.com/Plato-solutions/cherry/command"
	"github.com/Plato-solutions/cherry/entity"
	"github.com/Plato-solutions/cherry/generator"
	"github.com/Plato-solutions/cherry/logger"
	"github.com/Plato-solutions/cherry/model/util"
	"github.com/Plato-solutions/cherry/params"
	"github.com/Plato-solutions/cherry/use"
)

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, "Usage of "+params.Name+":\n")
	_, _ = fmt.Fprintf(os.Stderr, "\t"+params.Name+" [flags] -type T [command [command flags]] [directory]\n")
	_, _ = fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
	command.PrintUsage()
}

func main() {
	log.SetPrefix(params.Name + ": ")

	config := params.NewConfig(flag.CommandLine)

	flag.Usage = usage
	flag.Parse()

	logger.Init(*config.Debug)

	args := flag.Args()
	if outputDir := outDir(args); len(outputDir) > 0 {
		args = args[:len(args)-1]
		if err := os.Chdir(outputDir); err != nil {
			log.Fatalf("out dir error: %v", err)
		}
	}

	fileSet := token.NewFileSet()
	buildTags := *config.BuildTags
	pkgs, err := util.ExtractPackages(fileSet, buildTags, *config.PackagePattern)
	if err != nil {
		log.Fatal(err)
	}

	commentConfig, err := NewFilesCommentsConfig(syntax(pkgs.All))
	if err != nil {
		log.Fatal(err)
	}
	config = config.MergeWith(commentConfig)

	all := set.Of[*packages.Package]()
	for p := range pkgs.All {
		all.Add(p)
	}
	for _, input := range *config.Input {
		inputPkgs, err := util.ExtractPackages(fileSet, buildTags, input)
		if err != nil {
			log.Fatal(err)
		}
		for p := range inputPkgs.All {
			all.Add(p)
		}
	}

	logger.Debugw("using", "config", config)

	typeName := *config.Type
	if len(typeName) == 0 {
		log.Print("no type arg")
		flag.Usage()
		os.Exit(2)
	}

	dialect, err := config.Dialect()
	if err != nil {
		log.Fatal(err)
	}

	typ, pkg, typeFile, _, err := util.FindTypePackageFile(typeName, fileSet, all)
	if err != nil {
		log.Fatal(err)
	} else if typ == nil {
		log.Fatalf("type not found, %s", typeName)
	}

	outputName := *config.Output
	if outputName == "" {
		outputName = filepath.Join(filepath.Dir(typeFile), entity.Key(typeName)+params.DefaultFileSuffix)
	}
	if outputName, err = filepath.Abs(outputName); err != nil {
		log.Fatal(err)
	}

	g := generator.New(params.Name, *config.OutBuildTags, pkg.Name, pkg.PkgPath, *config.Nolint)
	ctx := &command.Context{
		Config:     config,
		Generator:  g,
		Backend:    dialect,
		Packages:   all,
		FileSet:    fileSet,
		OutPkgPath: pkg.PkgPath,
	}

	commands, err := parseCommands(args, ctx)
	if err != nil {
		log.Fatal(err)
	}
	for _, cmd := range commands {
		if err := cmd.Run(ctx); err != nil {
			log.Fatalf("%s: %v", cmd.Name(), err)
		}
	}

	src, fmtErr := g.FormatSrc(outputName)

	const userWriteOtherRead = fs.FileMode(0644)
	if writeErr := os.WriteFile(outputName, src, userWriteOtherRead); writeErr != nil {
		log.Fatalf("writing output: %s", writeErr)
	} else if fmtErr != nil {
		log.Fatalf("go src code formatting error: %s", fmtErr)
	}
	logger.Sync()
}

// parseCommands reads the command sequence; without one the type declaration selects
// the patch command for a patch and the table command otherwise.
func parseCommands(args []string, ctx *command.Context) ([]*command.Command, error) {
	var commands []*command.Command
	for len(args) > 0 {
		cmd := command.Get(args[0])
		if cmd == nil {
			return nil, use.Err(fmt.Sprintf("unknown command '%s', supported %s", args[0], strings.Join(command.Supported(), ", ")))
		}
		rest, err := cmd.Parse(args[1:])
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
		args = rest
	}
	if len(commands) > 0 {
		return commands, nil
	}
	model, err := ctx.StructModel()
	if err != nil {
		return nil, err
	}
	decl, err := entity.Decl(model)
	if err != nil {
		return nil, err
	} else if decl.Has(attrs.KeyPatch) {
		return []*command.Command{command.Get(command.PatchName)}, nil
	}
	return []*command.Command{command.Get(command.TableName)}, nil
}

func syntax(pkgs func(func(*packages.Package) bool)) []*ast.File {
	var files []*ast.File
	for p := range pkgs {
		files = append(files, p.Syntax...)
	}
	return files
}

func NewFilesCommentsConfig(files []*ast.File) (config *params.Config, err error) {
	for _, file := range files {
		if config, err = NewFileCommentConfig(file, config); err != nil {
			return nil, err
		}
	}
	return config, err
}

func NewFileCommentConfig(file *ast.File, sharedConfig *params.Config) (*params.Config, error) {
	for _, commentGroup := range file.Comments {
		for _, comment := range commentGroup.List {
			commentConfig, err := NewConfigComment(comment.Text)
			if err != nil {
				return nil, use.FileCommentErr(err.Error(), file, comment)
			} else if commentConfig == nil {
				continue
			} else if sharedConfig == nil {
				sharedConfig = commentConfig
			} else {
				sharedConfig = sharedConfig.MergeWith(commentConfig)
			}
		}
	}
	return sharedConfig, nil
}

// NewConfigComment parses a "//go:cherry -flag value" file comment, nil for other comments.
func NewConfigComment(text string) (*params.Config, error) {
	prefix := "//" + params.CommentConfigPrefix
	if !strings.HasPrefix(text, prefix+" ") {
		return nil, nil
	}
	configComment := strings.TrimSpace(text[len(prefix):])
	if len(configComment) == 0 {
		return nil, nil
	}
	flagSet := flag.NewFlagSet(params.CommentConfigPrefix, flag.ContinueOnError)
	commentConfig := params.NewConfig(flagSet)
	if err := flagSet.Parse(strings.Fields(configComment)); err != nil {
		return nil, fmt.Errorf("parsing config comment %v: %w", text, err)
	}
	return commentConfig, nil
}

func outDir(args []string) string {
	if len(args) > 0 && isDir(args[len(args)-1]) {
		return args[len(args)-1]
	}
	return ""
}

func isDir(name string) bool {
	info, err := os.Stat(name)
	return err == nil && info.IsDir()
}
