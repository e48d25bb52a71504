//go:build cherry_postgres

package backend

import (
	_ "github.com/lib/pq"
)

// Active is the dialect compiled into the program, selected by the cherry_postgres and cherry_sqlite build tags.
var Active Backend = Postgres{}
