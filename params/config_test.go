package params

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plato-solutions/cherry/backend"
)

func parse(t *testing.T, args ...string) *Config {
	t.Helper()
	flagSet := flag.NewFlagSet("test", flag.ContinueOnError)
	config := NewConfig(flagSet)
	require.NoError(t, flagSet.Parse(args))
	return config
}

func Test_MultiVal(t *testing.T) {
	config := parse(t)
	assert.Equal(t, []string{Name}, *config.BuildTags)

	config = parse(t, "-buildTag", "a", "-buildTag", "b", "-in", "x.go")
	assert.Equal(t, []string{"a", "b"}, *config.BuildTags)
	assert.Equal(t, []string{"x.go"}, *config.Input)

	flagSet := flag.NewFlagSet("test", flag.ContinueOnError)
	NewConfig(flagSet)
	assert.Error(t, flagSet.Parse([]string{"-in", "x.go", "-in", "x.go"}))
}

func Test_MergeWith(t *testing.T) {
	cmd := parse(t, "-type", "User", "-in", "a.go")
	comment := parse(t, "-type", "Order", "-out", "gen.go", "-backend", "postgres", "-nolint", "-in", "b.go")

	merged := cmd.MergeWith(comment)
	assert.Equal(t, "User", *merged.Type)
	assert.Equal(t, "gen.go", *merged.Output)
	assert.True(t, *merged.Nolint)
	assert.Equal(t, []string{"a.go", "b.go"}, *merged.Input)

	dialect, err := merged.Dialect()
	require.NoError(t, err)
	assert.Equal(t, backend.Postgres{}, dialect)

	assert.Same(t, cmd, cmd.MergeWith(nil))
}

func Test_Dialect(t *testing.T) {
	dialect, err := parse(t).Dialect()
	require.NoError(t, err)
	assert.Equal(t, backend.Active, dialect)

	_, err = parse(t, "-backend", "oracle").Dialect()
	assert.ErrorIs(t, err, backend.ErrUnknown)
}
