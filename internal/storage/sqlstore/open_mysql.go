package sqlstore

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	name:      driverMySQL,
	begin:     "BEGIN",
	open:      openMySQL,
	hasColumn: mysqlHasColumn,
}

// openMySQL opens a server database from a go-sql-driver DSN, e.g.
// "stickfix:secret@tcp(db:3306)/stickfix".
func openMySQL(ctx context.Context, dsn string) (*sql.DB, bool, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, false, err
	}
	// Bounded lifetime so rotated connections respect server-side timeouts,
	// per the driver's own guidance.
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, false, err
	}
	return db, false, nil
}

func mysqlHasColumn(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?
	`, table, column).Scan(&n)
	return n > 0, err
}
