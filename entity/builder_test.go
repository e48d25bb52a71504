package entity

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plato-solutions/cherry/attrs"
	"github.com/Plato-solutions/cherry/backend"
	"github.com/Plato-solutions/cherry/model/struc"
	"github.com/Plato-solutions/cherry/model/util"
)

const pkgPath = "example.com/users"

func loadModel(t *testing.T, src, typeName string) *struc.Model {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "users.go", "package users\n\n"+src, parser.ParseComments)
	require.NoError(t, err)
	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	pkg, err := conf.Check(pkgPath, fset, []*ast.File{file}, nil)
	require.NoError(t, err)

	typ, _ := util.GetTypeNamed(pkg.Scope().Lookup(typeName).Type())
	require.NotNil(t, typ)
	model, err := struc.New(pkgPath, typ, file)
	require.NoError(t, err)
	return model
}

func build(t *testing.T, src, typeName string, b backend.Backend) (*Table, error) {
	return New(loadModel(t, src, typeName), b)
}

const usersSrc = `
import "time"

type Role string

//cherry:table=users,datasource=main,id=ID,insertable,queryable
type User struct {
	ID        int64     ` + "`cherry:\"default\"`" + `
	Email     string    ` + "`cherry:\"column=mail,get_one,get_optional(FindByEmail),set\"`" + `
	Role      Role      ` + "`cherry:\"custom_type,get_many(ListByRole, string)\"`" + `
	Order     int       ` + "`cherry:\"set(Reorder)\"`" + `
	Token     *string   ` + "`cherry:\"unmapped\"`" + `
	CreatedAt time.Time ` + "`cherry:\"default\"`" + `
}
`

func Test_Key(t *testing.T) {
	assert.Equal(t, "email", Key("Email"))
	assert.Equal(t, "created_at", Key("CreatedAt"))
	assert.Equal(t, "id", Key("ID"))
	assert.Equal(t, "user_id", Key("UserID"))
}

func Test_New(t *testing.T) {
	table, err := build(t, usersSrc, "User", backend.MySQL{})
	require.NoError(t, err)

	assert.Equal(t, "User", table.Type)
	assert.Equal(t, "users", table.Name)
	assert.Equal(t, "main", table.Datasource)
	assert.Equal(t, "InsertUser", table.Insertable)
	assert.True(t, table.Queryable)
	require.NotNil(t, table.ID)
	assert.Equal(t, "ID", table.ID.Name)
	assert.True(t, table.ID.PrimaryKey)

	names := func(fields []*Field) []string {
		var result []string
		for _, f := range fields {
			result = append(result, f.Name)
		}
		return result
	}
	assert.Equal(t, []string{"ID", "Email", "Role", "Order", "Token", "CreatedAt"}, names(table.Fields))
	assert.Equal(t, []string{"ID", "Email", "Role", "Order", "CreatedAt"}, names(table.MappedFields()))
	assert.Equal(t, []string{"Email", "Role", "Order"}, names(table.InsertableFields()))
	assert.Equal(t, []string{"ID", "CreatedAt"}, names(table.DefaultFields()))
	assert.Equal(t, []string{"Email", "Role", "Order", "CreatedAt"}, names(table.FieldsExceptID()))
	assert.Equal(t, []string{"Token"}, names(table.UnmappedFields()))

	email := table.Field("Email")
	assert.Equal(t, "email", email.Key)
	assert.Equal(t, "mail", email.Column)
	assert.True(t, email.Aliased())
	assert.Equal(t, []*Getter{
		{Kind: GetOne, Func: "ByEmail", ArgType: "string"},
		{Kind: GetOptional, Func: "FindByEmail", ArgType: "string"},
	}, email.Getters)
	assert.Equal(t, &Setter{Func: "SetEmail"}, email.Set)

	role := table.Field("Role")
	assert.True(t, role.CustomType)
	assert.True(t, role.Aliased())
	assert.Equal(t, "string", role.StorageType)
	assert.Equal(t, "Role", role.TypeName)
	assert.Equal(t, []*Getter{{Kind: GetMany, Func: "ListByRole", ArgType: "string"}}, role.Getters)

	order := table.Field("Order")
	assert.True(t, order.Reserved)
	assert.False(t, order.Aliased())
	assert.Equal(t, &Setter{Func: "Reorder"}, order.Set)

	created := table.Field("CreatedAt")
	assert.Equal(t, "created_at", created.Column)
	assert.Equal(t, "time.Time", created.TypeName)
	assert.False(t, created.Reserved)
}

func Test_InsertOnly(t *testing.T) {
	table, err := build(t, `
//cherry:table=events,datasource=log,insertable=NewEvent
type Event struct {
	Name string
	Payload []byte
}`, "Event", backend.MySQL{})
	require.NoError(t, err)
	assert.False(t, table.IDAble())
	assert.Equal(t, "NewEvent", table.Insertable)
}

func Test_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		backend backend.Backend
		target  error
	}{
		{
			name: "duplicate field attribute",
			src: `
//cherry:table=users,datasource=main
type User struct {
	Email string ` + "`cherry:\"set,set\"`" + `
}`,
			target: attrs.ErrDuplicate,
		},
		{
			name: "duplicate declaration attribute",
			src: `
//cherry:table=users,datasource=main
//cherry:datasource=other
type User struct {
	Email string
}`,
			target: attrs.ErrDuplicate,
		},
		{
			name: "missing table",
			src: `
//cherry:datasource=main
type User struct {
	Email string
}`,
			target: &attrs.Error{Kind: attrs.Missing, Key: attrs.KeyTable},
		},
		{
			name: "missing datasource",
			src: `
//cherry:table=users
type User struct {
	Email string
}`,
			target: &attrs.Error{Kind: attrs.Missing, Key: attrs.KeyDatasource},
		},
		{
			name: "id not found",
			src: `
//cherry:table=users,datasource=main,id=UUID
type User struct {
	ID int64
}`,
			target: ErrIDNotFound,
		},
		{
			name: "default without insertable",
			src: `
//cherry:table=users,datasource=main,id=ID
type User struct {
	ID int64 ` + "`cherry:\"default\"`" + `
}`,
			target: ErrDefaultWithoutInsertable,
		},
		{
			name: "unmapped non optional",
			src: `
//cherry:table=users,datasource=main
type User struct {
	Email string
	Token string ` + "`cherry:\"unmapped\"`" + `
}`,
			target: attrs.ErrInvalid,
		},
		{
			name: "patch is not an entity",
			src: `
//cherry:patch=User
type Rename struct {
	Email string
}`,
			target: ErrNotEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typeName := "User"
			if tt.target == ErrNotEntity {
				typeName = "Rename"
			}
			b := tt.backend
			if b == nil {
				b = backend.Postgres{}
			}
			_, err := build(t, tt.src, typeName, b)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), err.Error())
		})
	}
}

func Test_DefaultsWithoutID(t *testing.T) {
	src := `
import "time"

//cherry:table=events,datasource=log,insertable
type Event struct {
	Name string
	At   time.Time ` + "`cherry:\"default\"`" + `
}`
	_, err := build(t, src, "Event", backend.MySQL{})
	assert.Error(t, err)

	table, err := build(t, src, "Event", backend.Postgres{})
	require.NoError(t, err)
	assert.Len(t, table.DefaultFields(), 1)
}

func Test_SetterRequiresID(t *testing.T) {
	_, err := build(t, `
//cherry:table=users,datasource=main
type User struct {
	Email string `+"`cherry:\"set\"`"+`
}`, "User", backend.MySQL{})
	assert.Error(t, err)
}

func Test_NewPatch(t *testing.T) {
	src := usersSrc + `
//cherry:patch=User
type ChangeContacts struct {
	Email string
	Order int
}

//cherry:patch=User
type ChangeID struct {
	ID int64
}

//cherry:patch=User
type ChangeToken struct {
	Token *string
}

//cherry:patch=User
type ChangeMissing struct {
	Phone string
}

//cherry:patch=User
type ChangeType struct {
	Order int64
}

type NotPatch struct {
	Email string
}
`
	table, err := build(t, src, "User", backend.Postgres{})
	require.NoError(t, err)

	patch, err := NewPatch(loadModel(t, src, "ChangeContacts"), table)
	require.NoError(t, err)
	assert.Equal(t, "ChangeContacts", patch.Type)
	assert.Equal(t, []*Field{table.Field("Email"), table.Field("Order")}, patch.Fields)

	for _, name := range []string{"ChangeID", "ChangeToken", "ChangeMissing", "ChangeType"} {
		_, err = NewPatch(loadModel(t, src, name), table)
		assert.Error(t, err, name)
	}
	_, err = NewPatch(loadModel(t, src, "NotPatch"), table)
	assert.True(t, errors.Is(err, ErrNotPatch))
}
