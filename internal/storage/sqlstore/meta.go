package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stickfixbot/stickfix/internal/storage"
)

// apiKeyName is the meta row the bot token lives under. The token is read
// from the database at startup, never from the environment.
const apiKeyName = "API_KEY"

// APIKey returns the Telegram bot token from the meta table.
func (s *Store) APIKey(ctx context.Context) (string, error) {
	var key string
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, "SELECT value FROM meta WHERE `key` = ?", apiKeyName).Scan(&key)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("query api key: %w", storage.ErrNoAPIKey)
		case err != nil:
			return wrapDBError("query api key", err)
		}
		if key == "" {
			return fmt.Errorf("query api key: empty value: %w", storage.ErrNoAPIKey)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// PutAPIKey upserts the bot token.
func (s *Store) PutAPIKey(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("put api key: empty value: %w", storage.ErrNoAPIKey)
	}
	return s.putMeta(ctx, apiKeyName, key)
}

// putMeta writes one meta row. Check-then-write shares a transaction, which
// keeps the upsert portable across both dialects.
func (s *Store) putMeta(ctx context.Context, name, value string) error {
	return s.withTx(ctx, func(conn *sql.Conn) error {
		var n int
		if err := conn.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM meta WHERE `key` = ?", name).Scan(&n); err != nil {
			return wrapDBError("count meta", err)
		}
		var err error
		if n == 0 {
			_, err = conn.ExecContext(ctx,
				"INSERT INTO meta (`key`, value) VALUES (?, ?)", name, value)
		} else {
			_, err = conn.ExecContext(ctx,
				"UPDATE meta SET value = ? WHERE `key` = ?", value, name)
		}
		return wrapDBError("write meta", err)
	})
}

// getMeta reads one meta row outside the public API; missing rows return
// sql.ErrNoRows wrapped with context.
func (s *Store) getMeta(ctx context.Context, name string) (string, error) {
	var value string
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx,
			"SELECT value FROM meta WHERE `key` = ?", name).Scan(&value)
		return wrapDBError("read meta "+name, err)
	})
	if err != nil {
		return "", err
	}
	return value, nil
}
