package params

import (
	"flag"
	"strings"

	"github.com/Plato-solutions/cherry/backend"
	"github.com/Plato-solutions/cherry/logger"
)

const (
	Name                = "cherry"
	DefaultFileSuffix   = "_" + Name + ".go"
	CommentConfigPrefix = "go:" + Name
)

func NewConfig(flagSet *flag.FlagSet) *Config {
	return &Config{
		Type:           flagSet.String("type", "", "type name; must be set"),
		BuildTags:      multiVal(flagSet, "buildTag", []string{Name}, "include build tag"),
		Output:         flagSet.String("out", "", "output file name; default srcdir/<type>"+DefaultFileSuffix),
		Input:          inFlag(flagSet),
		PackagePattern: flagSet.String("package", ".", "used package"),
		OutBuildTags:   flagSet.String("outBuildTag", "", "add build tag to generated file"),
		Backend:        flagSet.String("backend", "", "SQL dialect of the generated code, one of "+strings.Join(backend.Names(), ", ")+"; default is the compiled in dialect"),
		Nolint:         Nolint(flagSet),
		Debug:          flagSet.Bool("debug", false, "enable debug logging"),
	}
}

func inFlag(flagSet *flag.FlagSet) *[]string {
	return multiVal(flagSet, "in", []string{}, "go source file")
}

func Nolint(flagSet *flag.FlagSet) *bool {
	return flagSet.Bool("nolint", false, "add //nolint comment")
}

type Config struct {
	Type           *string
	BuildTags      *[]string
	Output         *string
	Input          *[]string
	PackagePattern *string
	OutBuildTags   *string
	Backend        *string
	Nolint         *bool
	Debug          *bool
}

// Dialect resolves the configured backend.
func (c *Config) Dialect() (backend.Backend, error) {
	if len(*c.Backend) == 0 {
		return backend.Active, nil
	}
	return backend.Lookup(*c.Backend)
}

// MergeWith fills the unset values from src; inputs are united.
func (c *Config) MergeWith(src *Config) *Config {
	logger.Debugw("config merging", "dest", c, "src", src)

	if src == nil {
		return c
	}
	if len(*c.Type) == 0 {
		c.Type = src.Type
	}
	if len(*c.Output) == 0 {
		c.Output = src.Output
	}
	if len(*c.OutBuildTags) == 0 {
		c.OutBuildTags = src.OutBuildTags
	}
	if len(*c.Backend) == 0 {
		c.Backend = src.Backend
	}
	if !*c.Nolint {
		c.Nolint = src.Nolint
	}
	if srcInput := *src.Input; len(srcInput) > 0 {
		input := append(append([]string{}, *c.Input...), srcInput...)
		c.Input = &input
	}
	logger.Debugw("config merged", "dest", c)
	return c
}
