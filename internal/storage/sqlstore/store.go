// Package sqlstore implements the persistent store on database/sql.
//
// The same store core serves two registered drivers: sqlite (the default;
// file-backed or in-memory) and mysql (server deployments). Driver
// divergences are confined to the dialect type. Every public operation runs
// inside exactly one transaction; precondition checks share the transaction
// with the write they guard, so a failed operation leaves the store
// unchanged.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/stickfixbot/stickfix/internal/storage"
	"github.com/stickfixbot/stickfix/internal/types"
)

// Verify Store satisfies the full persistent contract at compile time.
var _ storage.Store = (*Store)(nil)

// Store is the SQL-backed persistent store.
type Store struct {
	db      *sql.DB
	dialect dialect
	url     string
	memory  bool        // sqlite :memory: database
	closed  atomic.Bool // tracks whether Close() has been called
	now     func() time.Time
}

// Open initializes a store for the given driver name and connection URL.
// It creates the schema, runs migrations, and inserts the default user if
// absent, so opening the same database twice is safe.
func Open(ctx context.Context, driver, url string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unknown driver %q (want sqlite or mysql)", driver)
	}

	db, memory, err := d.open(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	s := &Store{
		db:      db,
		dialect: d,
		url:     url,
		memory:  memory,
		now:     time.Now,
	}

	// Statements run one at a time; the mysql driver rejects multi-statement
	// Exec unless the DSN opts in.
	for _, stmt := range splitStatements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create tables: %v: %w", err, storage.ErrSchema)
		}
	}
	if err := s.runMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %v: %w", err, storage.ErrSchema)
	}
	if err := s.ensureDefaultUser(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed default user: %v: %w", err, storage.ErrSchema)
	}

	return s, nil
}

// ensureDefaultUser inserts the protected default user row when missing.
// Check and insert share one transaction, so concurrent opens cannot race
// into a duplicate.
func (s *Store) ensureDefaultUser(ctx context.Context) error {
	return s.withTx(ctx, func(conn *sql.Conn) error {
		n, err := countUsers(ctx, conn, types.DefaultUserID)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		_, err = conn.ExecContext(ctx, `
			INSERT INTO users (chat_id, username, state, is_admin, private_mode, shuffle, created)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, types.DefaultUserID, types.DefaultUsername, string(types.StateIdle),
			false, false, false, formatTime(s.now()))
		return wrapDBError("insert default user", err)
	})
}

// URL returns the connection URL the store was opened with.
func (s *Store) URL() string {
	return s.url
}

// Driver returns the driver name the store was opened with.
func (s *Store) Driver() string {
	return s.dialect.name
}

// DB exposes the underlying handle for migrations and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the database handle. For file-backed sqlite databases the
// WAL is checkpointed first so the .db file is complete on disk.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.dialect.name == driverSQLite && !s.memory {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.db.Close()
}

// splitStatements breaks a multi-statement SQL script into individual
// statements, dropping empty fragments.
func splitStatements(script string) []string {
	var stmts []string
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}

// formatTime renders a timestamp the way both dialects store it.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// parseTime accepts the layouts the drivers hand back for TIMESTAMP columns.
func parseTime(s string) (time.Time, error) {
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		time.RFC3339,
		time.RFC3339Nano,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q", s)
}
