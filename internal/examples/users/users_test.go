package users

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Plato-solutions/cherry/datasource"
	"github.com/Plato-solutions/cherry/query"
	"github.com/Plato-solutions/cherry/table"
)

var created = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTable(t *testing.T) (UserTable, *datasource.Registry, sqlmock.Sqlmock) {
	t.Helper()
	return newLoggedTable(t, zap.NewNop())
}

func newLoggedTable(t *testing.T, log *zap.Logger) (UserTable, *datasource.Registry, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })

	pool, err := datasource.OpenDB("main", db, datasource.Config{SlowStatementThreshold: time.Hour}, datasource.WithLogger(log))
	require.NoError(t, err)
	reg := datasource.NewRegistry()
	require.NoError(t, reg.Install(pool))
	return NewUserTable(reg), reg, mock
}

func userRows(rows ...[]driver.Value) *sqlmock.Rows {
	result := sqlmock.NewRows([]string{"id", "email", "role", "created_at"})
	for _, row := range rows {
		result.AddRow(row...)
	}
	return result
}

func Test_InsertGet(t *testing.T) {
	users, _, mock := newTable(t)
	ctx := context.Background()

	mock.ExpectExec(userInsertSQL).WithArgs("a@b.com", "admin").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(userSelectDefaultsSQL).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	inserted, err := users.Insert(ctx, NewInsertUser(&User{Email: "a@b.com", Role: RoleAdmin}))
	require.NoError(t, err)
	assert.Equal(t, &User{ID: 7, Email: "a@b.com", Role: RoleAdmin, CreatedAt: created}, inserted)

	mock.ExpectQuery(userGetSQL).WithArgs(int64(7)).
		WillReturnRows(userRows([]driver.Value{7, "a@b.com", "admin", created}))

	fetched, err := users.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, inserted, fetched)
}

func Test_InsertStatementsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	users, _, mock := newLoggedTable(t, zap.New(core))

	mock.ExpectExec(userInsertSQL).WithArgs("a@b.com", "admin").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(userSelectDefaultsSQL).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	_, err := users.Insert(context.Background(), &InsertUser{Email: "a@b.com", Role: RoleAdmin})
	require.NoError(t, err)

	entries := logs.FilterMessage("statement").All()
	require.Len(t, entries, 2)
	assert.Equal(t, userInsertSQL, entries[0].ContextMap()["sql"])
	assert.Equal(t, userSelectDefaultsSQL, entries[1].ContextMap()["sql"])
}

func Test_InsertFollowUpFailure(t *testing.T) {
	users, _, mock := newTable(t)

	mock.ExpectExec(userInsertSQL).WithArgs("a@b.com", "member").WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectQuery(userSelectDefaultsSQL).WithArgs(int64(8)).WillReturnError(errors.New("connection reset"))

	_, err := users.Insert(context.Background(), &InsertUser{Email: "a@b.com", Role: RoleMember})
	var followUp *table.InsertFollowUpError
	require.ErrorAs(t, err, &followUp)
	assert.Equal(t, "users", followUp.Table)
}

func Test_GetNotFound(t *testing.T) {
	users, _, mock := newTable(t)
	mock.ExpectQuery(userGetSQL).WithArgs(int64(1)).WillReturnRows(userRows())

	_, err := users.Get(context.Background(), 1)
	assert.ErrorIs(t, err, table.ErrRowNotFound)
}

func Test_Getters(t *testing.T) {
	users, _, mock := newTable(t)
	ctx := context.Background()

	mock.ExpectQuery(userByEmailSQL).WithArgs("a@b.com").WillReturnRows(userRows(
		[]driver.Value{1, "a@b.com", "admin", created},
		[]driver.Value{2, "a@b.com", "member", created},
	))
	_, err := users.ByEmail(ctx, "a@b.com")
	assert.ErrorIs(t, err, table.ErrMultipleRows)

	mock.ExpectQuery(userListByRoleSQL).WithArgs("member").WillReturnRows(userRows(
		[]driver.Value{2, "b@b.com", "member", created},
		[]driver.Value{3, "c@b.com", "member", created},
	))
	members, err := users.ListByRole(ctx, RoleMember)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, RoleMember, members[1].Role)
}

func Test_SetEmail(t *testing.T) {
	users, _, mock := newTable(t)
	ctx := context.Background()
	u := &User{ID: 3, Email: "old@b.com"}

	mock.ExpectExec(userSetEmailSQL).WithArgs("new@b.com", int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, users.SetEmail(ctx, u, "new@b.com"))
	assert.Equal(t, "new@b.com", u.Email)

	mock.ExpectExec(userSetEmailSQL).WithArgs("new@b.com", int64(3)).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, users.SetEmail(ctx, u, "new@b.com"))

	mock.ExpectExec(userSetEmailSQL).WithArgs("next@b.com", int64(3)).WillReturnError(errors.New("deadlock"))
	assert.Error(t, users.SetEmail(ctx, u, "next@b.com"))
	assert.Equal(t, "new@b.com", u.Email)
}

func Test_UpdateDelete(t *testing.T) {
	users, _, mock := newTable(t)
	ctx := context.Background()
	u := &User{ID: 4, Email: "a@b.com", Role: RoleAdmin, CreatedAt: created}

	mock.ExpectExec(userUpdateSQL).WithArgs("a@b.com", "admin", created, int64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, users.Update(ctx, u))

	mock.ExpectExec(userDeleteSQL).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, users.Delete(ctx, u))

	mock.ExpectExec(userDeleteSQL).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, users.DeleteRow(ctx, 4), table.ErrRowNotFound)
}

func Test_Reload(t *testing.T) {
	users, _, mock := newTable(t)
	session := "s1"
	u := &User{ID: 5, Email: "stale@b.com", Session: &session}

	mock.ExpectQuery(userGetSQL).WithArgs(int64(5)).
		WillReturnRows(userRows([]driver.Value{5, "fresh@b.com", "member", created}))

	require.NoError(t, users.Reload(context.Background(), u))
	assert.Equal(t, &User{ID: 5, Email: "fresh@b.com", Role: RoleMember, Session: &session, CreatedAt: created}, u)
}

func Test_StreamAllPaginated(t *testing.T) {
	users, _, mock := newTable(t)

	mock.ExpectQuery(userPaginatedSQL).WithArgs(int64(10), int64(20)).WillReturnRows(userRows(
		[]driver.Value{21, "a@b.com", "admin", created},
		[]driver.Value{22, "b@b.com", "member", created},
	))

	var ids []int64
	for u, err := range users.StreamAllPaginated(context.Background(), 20, 10) {
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []int64{21, 22}, ids)
}

func Test_Patch(t *testing.T) {
	users, _, mock := newTable(t)
	u := &User{ID: 6, Email: "a@b.com", Role: RoleMember}

	mock.ExpectExec(profilePatchSQL).WithArgs("c@b.com", "admin", int64(6)).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, users.Patch(context.Background(), u, ProfilePatch{Email: "c@b.com", Role: RoleAdmin}))
	assert.Equal(t, "c@b.com", u.Email)
	assert.Equal(t, RoleAdmin, u.Role)
}

func Test_Transaction(t *testing.T) {
	users, reg, mock := newTable(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(userDeleteSQL).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := reg.Begin(ctx, "main")
	require.NoError(t, err)
	require.NoError(t, users.WithExecutor(tx).DeleteRow(ctx, 9))
	require.NoError(t, tx.Commit())
}

func Test_Query(t *testing.T) {
	_, reg, mock := newTable(t)

	mock.ExpectQuery("SELECT id, email, role AS `role`, created_at FROM users WHERE role = ? ORDER BY id DESC LIMIT 1").
		WithArgs("admin").
		WillReturnRows(userRows([]driver.Value{1, "a@b.com", "admin", created}))

	found, err := query.NewSelect[User](reg).And(query.Eq("role", string(RoleAdmin))).OrderDesc("id").Limit(1).
		Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.ID)
	assert.Equal(t, RoleAdmin, found.Role)
}
