package ephemeral

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stickfixbot/stickfix/internal/storage"
	"github.com/stickfixbot/stickfix/internal/types"
)

const userColumns = "chat_id, username, state, is_admin, private_mode, shuffle, created"

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*types.User, error) {
	var (
		u                         types.User
		state                     string
		isAdmin, private, shuffle int64
		created                   string
	)
	if err := row.Scan(&u.ID, &u.Username, &state, &isAdmin, &private, &shuffle, &created); err != nil {
		return nil, err
	}
	st, err := types.ResolveState(state)
	if err != nil {
		return nil, err
	}
	u.State = st
	u.IsAdmin = isAdmin != 0
	u.PrivateMode = private != 0
	u.Shuffle = shuffle != 0
	u.Created = parseTime(created)
	return &u, nil
}

// countUsers reports how many rows carry the given chat id (0 or 1).
func countUsers(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, id int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE chat_id = ?`, id).Scan(&n)
	return n, err
}

// GetUser loads a pending registration by chat id.
func (s *Store) GetUser(ctx context.Context, id int64) (*types.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE chat_id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get pending user %d: %w", id, storage.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get pending user %d: %w", id, err)
	}
	return u, nil
}

// AddUser inserts a pending registration. Unlike the persistent store it
// keeps the caller's state: registrants arrive already tagged Start.
func (s *Store) AddUser(ctx context.Context, u *types.User) (*types.User, error) {
	if u.ID == types.DefaultUserID {
		return nil, fmt.Errorf("add pending user %d: %w", u.ID, storage.ErrDefaultUser)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("add pending user %d: %w", u.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	n, err := countUsers(ctx, tx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("add pending user %d: %w", u.ID, err)
	}
	if n > 0 {
		return nil, fmt.Errorf("add pending user %d: %w", u.ID, storage.ErrUserExists)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (chat_id, username, state, is_admin, private_mode, shuffle, created)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Username, string(u.State), u.IsAdmin, u.PrivateMode, u.Shuffle,
		formatTime(s.now())); err != nil {
		return nil, fmt.Errorf("add pending user %d: %w", u.ID, err)
	}

	stored, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE chat_id = ?`, u.ID))
	if err != nil {
		return nil, fmt.Errorf("add pending user %d: read back: %w", u.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("add pending user %d: %w", u.ID, err)
	}
	return stored, nil
}

// SetUserState updates the persisted state tag of a pending registration.
func (s *Store) SetUserState(ctx context.Context, id int64, state types.State) (types.State, error) {
	if !state.IsValid() {
		return "", fmt.Errorf("set pending state %q: %w", state, types.ErrStateResolution)
	}
	err := s.mutate(ctx, id, "set pending state", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE users SET state = ? WHERE chat_id = ?`, string(state), id)
		return err
	})
	if err != nil {
		return "", err
	}
	return state, nil
}

// DeleteUser removes a pending registration and returns the removed row.
// The confirmation and rejection transitions both end here.
func (s *Store) DeleteUser(ctx context.Context, id int64) (*types.User, error) {
	if id == types.DefaultUserID {
		return nil, fmt.Errorf("delete pending user %d: %w", id, storage.ErrDefaultUser)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("delete pending user %d: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	u, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE chat_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("delete pending user %d: %w", id, storage.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("delete pending user %d: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE chat_id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete pending user %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("delete pending user %d: %w", id, err)
	}
	return u, nil
}

// SetPrivateMode toggles private mode on a pending registration.
func (s *Store) SetPrivateMode(ctx context.Context, id int64, enabled bool) (bool, error) {
	err := s.mutate(ctx, id, "set pending private mode", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE users SET private_mode = ? WHERE chat_id = ?`, enabled, id)
		return err
	})
	return enabled, err
}

// SetShuffleMode toggles shuffle mode on a pending registration.
func (s *Store) SetShuffleMode(ctx context.Context, id int64, enabled bool) (bool, error) {
	err := s.mutate(ctx, id, "set pending shuffle mode", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE users SET shuffle = ? WHERE chat_id = ?`, enabled, id)
		return err
	})
	return enabled, err
}

// mutate runs an update against an existing non-default user in one
// transaction: default-user guard, existence check, then fn.
func (s *Store) mutate(ctx context.Context, id int64, op string, fn func(tx *sql.Tx) error) error {
	if id == types.DefaultUserID {
		return fmt.Errorf("%s %d: %w", op, id, storage.ErrDefaultUser)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s %d: %w", op, id, err)
	}
	defer func() { _ = tx.Rollback() }()

	n, err := countUsers(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("%s %d: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", op, id, storage.ErrUserNotFound)
	}
	if err := fn(tx); err != nil {
		return fmt.Errorf("%s %d: %w", op, id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s %d: %w", op, id, err)
	}
	return nil
}
