package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stickfixbot/stickfix/internal/storage"
	"github.com/stickfixbot/stickfix/internal/types"
)

const userColumns = "chat_id, username, state, is_admin, private_mode, shuffle, created"

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanUser reads one users row. NOT NULL columns are still scanned through
// Null types so a corrupt row surfaces as an error instead of a zero value,
// and the persisted state tag is resolved case-insensitively.
func scanUser(sc scanner) (*types.User, error) {
	var (
		id                       int64
		username, state, created sql.NullString
		isAdmin, private, shuf   sql.NullInt64
	)
	if err := sc.Scan(&id, &username, &state, &isAdmin, &private, &shuf, &created); err != nil {
		return nil, err
	}
	if !username.Valid || !state.Valid || !isAdmin.Valid || !private.Valid || !shuf.Valid || !created.Valid {
		return nil, fmt.Errorf("user %d: row has null columns", id)
	}

	st, err := types.ResolveState(state.String)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", id, err)
	}
	when, err := parseTime(created.String)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", id, err)
	}

	return &types.User{
		ID:          id,
		Username:    username.String,
		State:       st,
		IsAdmin:     isAdmin.Int64 != 0,
		PrivateMode: private.Int64 != 0,
		Shuffle:     shuf.Int64 != 0,
		Created:     when,
	}, nil
}

func countUsers(ctx context.Context, conn *sql.Conn, id int64) (int, error) {
	var n int
	err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE chat_id = ?`, id).Scan(&n)
	return n, wrapDBError("count users", err)
}

// mutableUser asserts the row exists and is not the protected default user.
// Runs inside the caller's transaction so the check and the write cannot be
// interleaved.
func mutableUser(ctx context.Context, conn *sql.Conn, id int64, op string) error {
	if id == types.DefaultUserID {
		return fmt.Errorf("%s for user %d: %w", op, id, storage.ErrDefaultUser)
	}
	n, err := countUsers(ctx, conn, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s for user %d: %w", op, id, storage.ErrUserNotFound)
	}
	return nil
}

// GetUser loads a user by chat id.
func (s *Store) GetUser(ctx context.Context, id int64) (*types.User, error) {
	var u *types.User
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE chat_id = ?`, id)
		got, err := scanUser(row)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("get user %d: %w", id, storage.ErrUserNotFound)
		case err != nil:
			return err
		}
		u = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// AddUser inserts a new user. The stored state is always Idle, whatever the
// caller carries; the returned user is the row as persisted.
func (s *Store) AddUser(ctx context.Context, u *types.User) (*types.User, error) {
	var stored *types.User
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		n, err := countUsers(ctx, conn, u.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("add user %d: %w", u.ID, storage.ErrUserExists)
		}

		if _, err := conn.ExecContext(ctx, `
			INSERT INTO users (chat_id, username, state, is_admin, private_mode, shuffle, created)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, u.ID, u.Username, string(types.StateIdle), u.IsAdmin, u.PrivateMode, u.Shuffle,
			formatTime(s.now())); err != nil {
			return wrapDBError("insert user", err)
		}

		// Read-your-writes inside the transaction.
		row := conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE chat_id = ?`, u.ID)
		stored, err = scanUser(row)
		if err != nil {
			return fmt.Errorf("read back user %d: %w", u.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// SetUserState updates the persisted state tag.
func (s *Store) SetUserState(ctx context.Context, id int64, state types.State) (types.State, error) {
	if !state.IsValid() {
		return "", fmt.Errorf("set state for user %d: state %q: %w", id, state, types.ErrStateResolution)
	}
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		if err := mutableUser(ctx, conn, id, "set state"); err != nil {
			return err
		}
		_, err := conn.ExecContext(ctx, `UPDATE users SET state = ? WHERE chat_id = ?`, string(state), id)
		return wrapDBError("update user state", err)
	})
	if err != nil {
		return "", err
	}
	return state, nil
}

// DeleteUser removes a user and returns the deleted row. Stickers the user
// owned are handed to the default user so the public pool survives a
// revocation.
func (s *Store) DeleteUser(ctx context.Context, id int64) (*types.User, error) {
	var deleted *types.User
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		if id == types.DefaultUserID {
			return fmt.Errorf("delete user %d: %w", id, storage.ErrDefaultUser)
		}

		row := conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE chat_id = ?`, id)
		got, err := scanUser(row)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("delete user %d: %w", id, storage.ErrUserNotFound)
		case err != nil:
			return err
		}

		if _, err := conn.ExecContext(ctx, `UPDATE stickers SET user_id = ? WHERE user_id = ?`,
			types.DefaultUserID, id); err != nil {
			return wrapDBError("reassign stickers", err)
		}
		if _, err := conn.ExecContext(ctx, `DELETE FROM users WHERE chat_id = ?`, id); err != nil {
			return wrapDBError("delete user", err)
		}
		deleted = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// SetPrivateMode toggles private mode.
func (s *Store) SetPrivateMode(ctx context.Context, id int64, enabled bool) (bool, error) {
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		if err := mutableUser(ctx, conn, id, "set private mode"); err != nil {
			return err
		}
		_, err := conn.ExecContext(ctx, `UPDATE users SET private_mode = ? WHERE chat_id = ?`, enabled, id)
		return wrapDBError("update private mode", err)
	})
	if err != nil {
		return false, err
	}
	return enabled, nil
}

// SetShuffleMode toggles shuffle mode.
func (s *Store) SetShuffleMode(ctx context.Context, id int64, enabled bool) (bool, error) {
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		if err := mutableUser(ctx, conn, id, "set shuffle mode"); err != nil {
			return err
		}
		_, err := conn.ExecContext(ctx, `UPDATE users SET shuffle = ? WHERE chat_id = ?`, enabled, id)
		return wrapDBError("update shuffle mode", err)
	})
	if err != nil {
		return false, err
	}
	return enabled, nil
}
