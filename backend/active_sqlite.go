//go:build cherry_sqlite && !cherry_postgres

package backend

import (
	_ "modernc.org/sqlite"
)

// Active is the dialect compiled into the program, selected by the cherry_postgres and cherry_sqlite build tags.
var Active Backend = SQLite{}
