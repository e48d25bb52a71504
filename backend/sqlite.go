package backend

import (
	sq "github.com/Masterminds/squirrel"
)

// SQLite binds by '?' and completes inserts by RETURNING (SQLite 3.35+).
type SQLite struct{}

var _ Backend = SQLite{}

func (SQLite) Name() string                 { return "sqlite" }
func (SQLite) Quote() byte                  { return '"' }
func (SQLite) IsReserved(ident string) bool { return sqliteKeywords.contains(ident) }
func (SQLite) Bindings() *Bindings          { return newBindings(question) }
func (SQLite) Strategy() InsertStrategy     { return Returning }
func (SQLite) LastInsertIDQuery() string    { return "SELECT last_insert_rowid()" }
func (SQLite) DriverName() string           { return "sqlite" }

func (SQLite) InsertIgnore() (string, string) { return "OR IGNORE", "" }
func (SQLite) SupportsReplace() bool          { return true }

func (SQLite) PlaceholderFormat() sq.PlaceholderFormat { return sq.Question }

func (SQLite) Upsert(conflict, update []string) (string, error) {
	return onConflict(conflict, update)
}
