package util

import (
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func named(pkgPath, pkgName, name string, underlying types.Type) *types.Named {
	pkg := types.NewPackage(pkgPath, pkgName)
	return types.NewNamed(types.NewTypeName(token.NoPos, pkg, name, nil), underlying, nil)
}

func TestGetPackageName(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"github.com/Plato-solutions/cherry/table", "table"},
		{"github.com/jackc/pgx/v5", "pgx"},
		{"gopkg.in/yaml.v3", "yaml.v3"},
		{"time", "time"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, GetPackageName(tc.input), tc.input)
	}
}

func TestIsOptional(t *testing.T) {
	nullString := named("database/sql", "sql", "NullString", types.NewStruct(nil, nil))
	status := named("example.com/users", "users", "Status", types.Typ[types.String])

	assert.True(t, IsOptional(types.NewPointer(types.Typ[types.String])))
	assert.True(t, IsOptional(nullString))
	assert.False(t, IsOptional(types.Typ[types.Int64]))
	assert.False(t, IsOptional(status))
}

func TestGetTypeBasic(t *testing.T) {
	status := named("example.com/users", "users", "Status", types.Typ[types.String])

	basic, ref := GetTypeBasic(status)
	assert.Equal(t, types.Typ[types.String], basic)
	assert.Equal(t, 0, ref)

	basic, ref = GetTypeBasic(types.NewPointer(status))
	assert.Equal(t, types.Typ[types.String], basic)
	assert.Equal(t, 1, ref)

	strct, _ := GetTypeStruct(types.Typ[types.Int])
	assert.Nil(t, strct)
}

func TestTypeString(t *testing.T) {
	timeType := named("time", "time", "Time", types.NewStruct(nil, nil))
	local := named("example.com/users", "users", "Status", types.Typ[types.String])

	assert.Equal(t, "*time.Time", TypeString(types.NewPointer(timeType), "example.com/users"))
	assert.Equal(t, "Status", TypeString(local, "example.com/users"))
}
