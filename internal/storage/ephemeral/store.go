// Package ephemeral provides an in-memory SQLite store for users who have
// started registration but not yet answered the consent prompt.
//
// Pending registrants are transient. Either the user confirms within the
// eviction threshold or the row is garbage; keeping them out of the
// persistent store means an abandoned /start never leaves a trace, and a
// restart simply forgets everyone mid-registration. The eviction loop reaps
// rows the confirmation callbacks never claimed.
package ephemeral

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stickfixbot/stickfix/internal/storage"
)

// The ephemeral store is swappable with the persistent one wherever only
// user CRUD is needed.
var _ storage.UserStore = (*Store)(nil)

// schema is the users table only. No meta, no stickers, no default user:
// pending registrants are the sole tenants.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    chat_id      BIGINT PRIMARY KEY UNIQUE,
    username     VARCHAR(50) NOT NULL,
    state        VARCHAR(50) NOT NULL,
    is_admin     BOOLEAN NOT NULL DEFAULT FALSE,
    private_mode BOOLEAN NOT NULL DEFAULT FALSE,
    shuffle      BOOLEAN NOT NULL DEFAULT FALSE,
    created      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// memdbSeq distinguishes the named in-memory databases of separate stores.
var memdbSeq atomic.Int64

// Store keeps pending registrations in an in-memory SQLite database.
type Store struct {
	db     *sql.DB
	closed atomic.Bool
	now    func() time.Time
}

// New creates an empty ephemeral store.
func New(ctx context.Context) (*Store, error) {
	// Each store gets its own named in-memory database. A bare :memory: DSN
	// would hand every pooled connection a private database, and a fixed
	// name would make separate stores share rows.
	dsn := fmt.Sprintf("file:pending%d?mode=memory&cache=shared&_pragma=journal_mode(DELETE)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)&_time_format=sqlite", memdbSeq.Add(1))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ephemeral db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping ephemeral db: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init ephemeral schema: %v: %w", err, storage.ErrSchema)
	}
	return s, nil
}

// initSchema creates the users table inside one transaction.
func (s *Store) initSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return tx.Commit()
}

// Close releases the database. All pending registrations are lost.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// Count returns the number of pending registrations.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// formatTime renders timestamps the same way the persistent store does, so
// lexicographic comparison against a cutoff works.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// parseTime accepts the layouts the driver hands back for TIMESTAMP columns.
// Unparseable values become the zero time.
func parseTime(s string) time.Time {
	layouts := []string{
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
		time.RFC3339,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
