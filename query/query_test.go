package query

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Plato-solutions/cherry/backend"
	"github.com/Plato-solutions/cherry/datasource"
	"github.com/Plato-solutions/cherry/table"
)

type role string

type user struct {
	ID    int64
	Email string
	Role  role
}

var _ table.Record = (*user)(nil)

func (*user) TableName() string  { return "users" }
func (*user) Datasource() string { return "main" }
func (*user) Columns() []string  { return []string{"id", "email", "role"} }
func (*user) SelectColumns() []string {
	return []string{"id", "email", "role AS `role`"}
}
func (u *user) Arguments() []any { return []any{u.ID, u.Email, string(u.Role)} }

func (u *user) ScanRow(row table.Scanner) error {
	var r string
	if err := row.Scan(&u.ID, &u.Email, &r); err != nil {
		return err
	}
	u.Role = role(r)
	return nil
}

const selectUsers = "SELECT id, email, role AS `role` FROM users"

func newRegistry(t *testing.T) (*datasource.Registry, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })

	pool, err := datasource.OpenDB("main", db, datasource.Config{}, datasource.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	reg := datasource.NewRegistry()
	require.NoError(t, reg.Install(pool))
	return reg, mock
}

var placeholder = regexp.MustCompile(`\?|\$\d+`)

func assertLockStep(t *testing.T, query string, args []any) {
	t.Helper()
	assert.Len(t, placeholder.FindAllString(query, -1), len(args), query)
}

func Test_Predicates(t *testing.T) {
	from, to := 10, 20
	tests := []struct {
		name string
		p    Predicate
		sql  string
		args []any
	}{
		{"eq", Eq("email", "a@b.com"), "email = ?", []any{"a@b.com"}},
		{"ne", Ne("id", 1), "id <> ?", []any{1}},
		{"like", NotLike("email", "%@b.com"), "email NOT LIKE ?", []any{"%@b.com"}},
		{"null", IsNull("role"), "role IS NULL", nil},
		{"between", Between("id", 1, 2), "id BETWEEN ? AND ?", []any{1, 2}},
		{"between options", BetweenOptions("id", &from, &to), "id BETWEEN ? AND ?", []any{10, 20}},
		{"from only", BetweenOptions("id", &from, nil), "id >= ?", []any{10}},
		{"to only", BetweenOptions[int]("id", nil, &to), "id <= ?", []any{20}},
		{"in", In("id", 1, 2, 3), "id IN (?, ?, ?)", []any{1, 2, 3}},
		{"empty in", In[int]("id"), "1 = 0", nil},
		{"empty not in", NotIn[int]("id"), "1 = 1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sql, tt.p.String())
			assert.Equal(t, tt.args, tt.p.Args())
			assertLockStep(t, tt.p.String(), tt.p.Args())
		})
	}
	assert.True(t, BetweenOptions[int]("id", nil, nil).Empty())
}

func Test_SelectToSQL(t *testing.T) {
	from := 5
	query, args, err := NewSelect[user](nil).Backend(backend.MySQL{}).
		And(Eq("email", "a@b.com")).
		Or(In("id", 1, 2)).
		And(BetweenOptions[int]("id", &from, nil)).
		And(BetweenOptions[int]("id", nil, nil)).
		OrderDesc("id").
		Limit(10).
		Offset(20).
		ToSQL()
	require.NoError(t, err)
	assert.Equal(t, selectUsers+" WHERE email = ? OR id IN (?, ?) AND id >= ? ORDER BY id DESC LIMIT 10 OFFSET 20", query)
	assert.Equal(t, []any{"a@b.com", 1, 2, 5}, args)
	assertLockStep(t, query, args)
}

func Test_SelectGroupByPostgres(t *testing.T) {
	query, args, err := NewSelect[user](nil).Backend(backend.Postgres{}).
		Fields("role").
		CountAs("*", "total").
		And(Like("email", "%@b.com")).
		GroupBy("role").
		Having(Gt("COUNT(*)", 1)).
		ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT role, COUNT(*) AS total FROM users WHERE email LIKE $1 GROUP BY role HAVING COUNT(*) > $2", query)
	assert.Equal(t, []any{"%@b.com", 1}, args)
	assertLockStep(t, query, args)
}

func Test_SelectFields(t *testing.T) {
	query, _, err := NewSelect[user](nil).Backend(backend.MySQL{}).Field("id").Field("email").ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, email FROM users", query)

	query, _, err = NewSelect[user](nil).Backend(backend.MySQL{}).
		Fields("role", "email").
		Fields("created_at").
		CountAs("id", "n").
		ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT role, email, created_at, COUNT(id) AS n FROM users", query)

	query, _, err = NewSelect[user](nil).Backend(backend.MySQL{}).Fields("id").FieldsAll().ToSQL()
	require.NoError(t, err)
	assert.Equal(t, selectUsers, query)
}

func Test_Consumed(t *testing.T) {
	s := NewSelect[user](nil).Backend(backend.MySQL{})
	_, _, err := s.ToSQL()
	require.NoError(t, err)

	_, _, err = s.ToSQL()
	assert.ErrorIs(t, err, ErrConsumed)
	assert.PanicsWithValue(t, ErrConsumed, func() { s.And(Eq("id", 1)) })
}

func Test_Fetch(t *testing.T) {
	reg, mock := newRegistry(t)
	ctx := context.Background()
	rows := func() *sqlmock.Rows { return sqlmock.NewRows([]string{"id", "email", "role"}) }

	mock.ExpectQuery(selectUsers+" WHERE role = ?").WithArgs("admin").
		WillReturnRows(rows().AddRow(1, "a@b.com", "admin").AddRow(2, "c@d.com", "admin"))
	all, err := NewSelect[user](reg).Backend(backend.MySQL{}).And(Eq("role", "admin")).FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*user{{ID: 1, Email: "a@b.com", Role: "admin"}, {ID: 2, Email: "c@d.com", Role: "admin"}}, all)

	mock.ExpectQuery(selectUsers+" WHERE id = ?").WithArgs(3).WillReturnRows(rows())
	one, err := NewSelect[user](reg).Backend(backend.MySQL{}).And(Eq("id", 3)).Fetch(ctx)
	require.NoError(t, err)
	assert.Nil(t, one)

	_, err = NewSelect[user](reg).Fields("id").Fetch(ctx)
	assert.Error(t, err)
}

func Test_FetchNotInitialized(t *testing.T) {
	_, err := NewSelect[user](datasource.NewRegistry()).FetchAll(context.Background())
	assert.ErrorIs(t, err, datasource.ErrNotInitialized)
}

func Test_Update(t *testing.T) {
	query, args, err := NewUpdate[user](nil).Backend(backend.Postgres{}).
		Set("email", "new@b.com").
		Set("role", "user").
		And(Eq("id", 7)).
		ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET email = $1, role = $2 WHERE id = $3", query)
	assert.Equal(t, []any{"new@b.com", "user", 7}, args)
	assertLockStep(t, query, args)
}

func Test_UpdateEmptyFields(t *testing.T) {
	reg, _ := newRegistry(t)
	_, err := NewUpdate[user](reg).And(Eq("id", 1)).Execute(context.Background())
	assert.ErrorIs(t, err, ErrEmptyUpdateFields)

	_, err = NewInsertUpdate[user](reg, &user{ID: 1}).OnConflict("id").Execute(context.Background())
	assert.ErrorIs(t, err, ErrEmptyUpdateFields)
}

func Test_FailedCompileConsumes(t *testing.T) {
	insert := NewInsert[user](nil)
	_, _, err := insert.ToSQL()
	assert.ErrorIs(t, err, ErrNoRows)
	_, _, err = insert.ToSQL()
	assert.ErrorIs(t, err, ErrConsumed)
	assert.PanicsWithValue(t, ErrConsumed, func() { insert.Rows(&user{ID: 1}) })

	replace := NewReplace[user](nil, &user{ID: 1}).Backend(backend.Postgres{})
	_, _, err = replace.ToSQL()
	assert.ErrorIs(t, err, ErrReplaceUnsupported)
	_, _, err = replace.ToSQL()
	assert.ErrorIs(t, err, ErrConsumed)

	upsert := NewInsertUpdate[user](nil, &user{ID: 1}).OnConflict("id")
	_, _, err = upsert.ToSQL()
	assert.ErrorIs(t, err, ErrEmptyUpdateFields)
	assert.PanicsWithValue(t, ErrConsumed, func() { upsert.Field("email") })

	noRows := NewInsertUpdate[user](nil).Field("email")
	_, _, err = noRows.ToSQL()
	assert.ErrorIs(t, err, ErrNoRows)
	_, _, err = noRows.ToSQL()
	assert.ErrorIs(t, err, ErrConsumed)

	update := NewUpdate[user](nil)
	_, _, err = update.ToSQL()
	assert.ErrorIs(t, err, ErrEmptyUpdateFields)
	_, _, err = update.ToSQL()
	assert.ErrorIs(t, err, ErrConsumed)
}

func Test_UpdateExecuteTx(t *testing.T) {
	reg, mock := newRegistry(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET role = ? WHERE role = ?").WithArgs("user", "guest").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	affected, err := NewUpdate[user](reg).Backend(backend.MySQL{}).Set("role", "user").And(Eq("role", "guest")).ExecuteTx(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET role = ?").WithArgs("user").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err = NewUpdate[user](reg).Backend(backend.MySQL{}).Set("role", "user").ExecuteTx(ctx)
	assert.ErrorIs(t, err, assert.AnError)
}

func Test_Delete(t *testing.T) {
	reg, mock := newRegistry(t)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM users WHERE id IN (?, ?)").WithArgs(1, 2).WillReturnResult(sqlmock.NewResult(0, 2))
	affected, err := NewDelete[user](reg).Backend(backend.MySQL{}).And(In("id", 1, 2)).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	mock.ExpectBegin()
	tx, err := reg.Begin(ctx, "main")
	require.NoError(t, err)
	mock.ExpectExec("DELETE FROM users WHERE 1 = 0").WillReturnResult(sqlmock.NewResult(0, 0))
	affected, err = NewDelete[user](reg).Backend(backend.MySQL{}).And(In[int]("id")).ExecuteInTransaction(ctx, tx)
	require.NoError(t, err)
	assert.Zero(t, affected)
	mock.ExpectCommit()
	require.NoError(t, tx.Commit())
}

func Test_Insert(t *testing.T) {
	rows := []*user{{ID: 1, Email: "a@b.com", Role: "admin"}, {ID: 2, Email: "c@d.com", Role: "user"}}

	query, args, err := NewInsert[user](nil, rows...).Backend(backend.Postgres{}).ToSQL()
	require.NoError(t, err)
	assert.Regexp(t, `^INSERT INTO users \(id,\s?email,\s?role\) VALUES`, query)
	assert.Equal(t, []any{int64(1), "a@b.com", "admin", int64(2), "c@d.com", "user"}, args)
	assert.Contains(t, query, "$6")
	assertLockStep(t, query, args)

	_, _, err = NewInsert[user](nil).ToSQL()
	assert.ErrorIs(t, err, ErrNoRows)
}

func Test_InsertIgnore(t *testing.T) {
	row := &user{ID: 1, Email: "a@b.com"}

	query, _, err := NewInsertIgnore[user](nil, row).Backend(backend.MySQL{}).ToSQL()
	require.NoError(t, err)
	assert.Regexp(t, `^INSERT IGNORE INTO users`, query)

	query, _, err = NewInsertIgnore[user](nil, row).Backend(backend.SQLite{}).ToSQL()
	require.NoError(t, err)
	assert.Regexp(t, `^INSERT OR IGNORE INTO users`, query)

	query, _, err = NewInsertIgnore[user](nil, row).Backend(backend.Postgres{}).ToSQL()
	require.NoError(t, err)
	assert.Regexp(t, `ON CONFLICT DO NOTHING$`, query)
}

func Test_Replace(t *testing.T) {
	row := &user{ID: 1, Email: "a@b.com"}

	query, _, err := NewReplace[user](nil, row).Backend(backend.MySQL{}).ToSQL()
	require.NoError(t, err)
	assert.Regexp(t, `^REPLACE INTO users`, query)

	_, _, err = NewReplace[user](nil, row).Backend(backend.Postgres{}).ToSQL()
	assert.ErrorIs(t, err, ErrReplaceUnsupported)
}

func Test_InsertUpdate(t *testing.T) {
	row := &user{ID: 1, Email: "a@b.com", Role: "admin"}

	query, args, err := NewInsertUpdate[user](nil, row).Backend(backend.Postgres{}).
		OnConflict("id").
		Fields("email", "role").
		ToSQL()
	require.NoError(t, err)
	assert.Regexp(t, `ON CONFLICT \(id\) DO UPDATE SET email = EXCLUDED.email, role = EXCLUDED.role$`, query)
	assertLockStep(t, query, args)

	query, _, err = NewInsertUpdate[user](nil, row).Backend(backend.MySQL{}).Field("email").ToSQL()
	require.NoError(t, err)
	assert.Regexp(t, "AS new ON DUPLICATE KEY UPDATE email = new.email$", query)
}

func Test_InsertExecute(t *testing.T) {
	reg, mock := newRegistry(t)
	mock.ExpectExec("INSERT INTO users (id,email,role) VALUES (?,?,?)").
		WithArgs(int64(0), "a@b.com", "admin").
		WillReturnResult(sqlmock.NewResult(1, 1))

	affected, err := NewInsert[user](reg).Backend(backend.MySQL{}).Rows(&user{Email: "a@b.com", Role: "admin"}).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}
