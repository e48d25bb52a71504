package backend

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
)

// MySQL quotes by backticks, binds by '?' and fetches generated ids with LAST_INSERT_ID.
type MySQL struct{}

var _ Backend = MySQL{}

func (MySQL) Name() string                 { return "mysql" }
func (MySQL) Quote() byte                  { return '`' }
func (MySQL) IsReserved(ident string) bool { return mysqlKeywords.contains(ident) }
func (MySQL) Bindings() *Bindings          { return newBindings(question) }
func (MySQL) Strategy() InsertStrategy     { return LastInsertID }
func (MySQL) LastInsertIDQuery() string    { return "SELECT LAST_INSERT_ID()" }
func (MySQL) DriverName() string           { return "mysql" }

func (MySQL) InsertIgnore() (string, string) { return "IGNORE", "" }
func (MySQL) SupportsReplace() bool          { return true }

func (MySQL) PlaceholderFormat() sq.PlaceholderFormat { return sq.Question }

func (MySQL) Upsert(_, update []string) (string, error) {
	if len(update) == 0 {
		return "", errors.New("empty update fields")
	}
	return "AS new ON DUPLICATE KEY UPDATE " + assignments(update, func(col string) string { return "new." + col }), nil
}
