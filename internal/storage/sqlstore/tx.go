package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// withTx runs fn inside one transaction on a dedicated connection.
//
// Lifecycle:
//  1. Pin a connection from the pool; raw BEGIN/COMMIT/ROLLBACK must all
//     hit the same connection.
//  2. Issue the dialect's begin statement, retrying sqlite busy errors.
//  3. Run fn; any error (or panic) rolls back.
//  4. COMMIT.
//
// Rollback happens on a background context so cleanup still runs when the
// caller's context is already canceled.
func (s *Store) withTx(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := beginWithRetry(ctx, conn, s.dialect.begin, 5, 10*time.Millisecond); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	if err := fn(conn); err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// beginWithRetry issues the begin statement, backing off exponentially on
// sqlite lock contention. Other errors fail immediately.
func beginWithRetry(ctx context.Context, conn *sql.Conn, begin string, attempts int, baseDelay time.Duration) error {
	var err error
	delay := baseDelay
	for i := 0; i < attempts; i++ {
		_, err = conn.ExecContext(ctx, begin)
		if err == nil {
			return nil
		}
		if !isBusyError(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}

// isBusyError matches sqlite lock contention, which is safe to retry.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
