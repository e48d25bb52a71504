package backend

import (
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
)

// Postgres quotes by double quotes, binds by $n and completes inserts by RETURNING.
type Postgres struct{}

var _ Backend = Postgres{}

func (Postgres) Name() string                 { return "postgres" }
func (Postgres) Quote() byte                  { return '"' }
func (Postgres) IsReserved(ident string) bool { return postgresKeywords.contains(ident) }
func (Postgres) Bindings() *Bindings          { return newBindings(dollar) }
func (Postgres) Strategy() InsertStrategy     { return Returning }
func (Postgres) LastInsertIDQuery() string    { return "SELECT lastval()" }
func (Postgres) DriverName() string           { return "postgres" }

func (Postgres) InsertIgnore() (string, string) { return "", "ON CONFLICT DO NOTHING" }
func (Postgres) SupportsReplace() bool          { return false }

func (Postgres) PlaceholderFormat() sq.PlaceholderFormat { return sq.Dollar }

func (Postgres) Upsert(conflict, update []string) (string, error) {
	return onConflict(conflict, update)
}

func dollar(n int) string { return "$" + strconv.Itoa(n) }

func onConflict(conflict, update []string) (string, error) {
	if len(update) == 0 {
		return "", errors.New("empty update fields")
	} else if len(conflict) == 0 {
		return "", errors.New("empty conflict target")
	}
	return "ON CONFLICT (" + strings.Join(conflict, ", ") + ") DO UPDATE SET " +
		assignments(update, func(col string) string { return "EXCLUDED." + col }), nil
}
