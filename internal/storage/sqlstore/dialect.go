package sqlstore

import (
	"context"
	"database/sql"
)

const (
	driverSQLite = "sqlite"
	driverMySQL  = "mysql"
)

// dialect confines everything that differs between the registered drivers.
// The queries themselves are shared; both drivers take ? placeholders and
// backtick-quoted identifiers.
type dialect struct {
	name string

	// begin is the raw statement starting a transaction. sqlite uses
	// BEGIN IMMEDIATE to take the write lock up front, which database/sql's
	// BeginTx cannot express.
	begin string

	open func(ctx context.Context, url string) (db *sql.DB, memory bool, err error)

	hasColumn func(ctx context.Context, db *sql.DB, table, column string) (bool, error)
}

var dialects = map[string]dialect{
	driverSQLite: sqliteDialect,
	driverMySQL:  mysqlDialect,
}
