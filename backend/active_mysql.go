//go:build !cherry_postgres && !cherry_sqlite

package backend

import (
	_ "github.com/go-sql-driver/mysql"
)

// Active is the dialect compiled into the program, selected by the cherry_postgres and cherry_sqlite build tags.
var Active Backend = MySQL{}
