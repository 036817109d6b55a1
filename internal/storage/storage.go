// Package storage defines the store contracts and error kinds shared by the
// persistent SQL backend and the ephemeral pre-registration store.
//
// The concrete implementations live in the sqlstore and ephemeral
// sub-packages. Consumers depend on these interfaces rather than on the
// concrete types so that backends (and test fakes) can be substituted.
package storage

import (
	"context"
	"errors"

	"github.com/stickfixbot/stickfix/internal/types"
)

// ErrUserNotFound is returned when an operation requires a user row that
// does not exist.
var ErrUserNotFound = errors.New("user must exist")

// ErrUserExists is returned when adding a user whose id is already taken.
var ErrUserExists = errors.New("user must not exist")

// ErrDefaultUser is returned by mutating operations aimed at the default
// user. That row is a schema invariant and never changes after init.
var ErrDefaultUser = errors.New("default user cannot be modified")

// ErrNoAPIKey is returned when the meta table carries no usable API key.
var ErrNoAPIKey = errors.New("API key must be present")

// ErrTagExists is returned when a sticker tag is already bound.
var ErrTagExists = errors.New("sticker tag already taken")

// ErrStickerNotFound is returned when no sticker is bound to a tag.
var ErrStickerNotFound = errors.New("sticker must exist")

// ErrSchema is returned (wrapped) when schema creation or migration fails
// at store initialization. Fatal; there is no recovery path.
var ErrSchema = errors.New("schema initialization failed")

// IsConstraint reports whether err is a precondition violation (existence,
// uniqueness, default-user protection, missing API key) as opposed to a
// backend failure. Handlers use this to pick user-facing messages.
func IsConstraint(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrUserExists) ||
		errors.Is(err, ErrDefaultUser) ||
		errors.Is(err, ErrNoAPIKey) ||
		errors.Is(err, ErrTagExists) ||
		errors.Is(err, ErrStickerNotFound)
}

// UserStore is the user CRUD contract. Both the persistent store and the
// ephemeral store satisfy it. Every method runs in exactly one transaction;
// a failed call leaves the store unchanged.
type UserStore interface {
	// GetUser loads a user by chat id. Fails with ErrUserNotFound when the
	// row is absent and with types.ErrStateResolution when the persisted
	// state tag is unknown.
	GetUser(ctx context.Context, id int64) (*types.User, error)

	// AddUser inserts a new user and returns the stored row. Fails with
	// ErrUserExists when the id is taken.
	AddUser(ctx context.Context, u *types.User) (*types.User, error)

	// SetUserState updates the persisted state tag. Fails for the default
	// user and for missing users.
	SetUserState(ctx context.Context, id int64, state types.State) (types.State, error)

	// DeleteUser removes a user and returns the deleted row. Fails for the
	// default user and for missing users.
	DeleteUser(ctx context.Context, id int64) (*types.User, error)

	// SetPrivateMode and SetShuffleMode toggle the user's modes. Both fail
	// for the default user and for missing users.
	SetPrivateMode(ctx context.Context, id int64, enabled bool) (bool, error)
	SetShuffleMode(ctx context.Context, id int64, enabled bool) (bool, error)
}

// StickerStore persists tag -> sticker bindings.
type StickerStore interface {
	// AddSticker binds every tag to the sticker, all in one transaction.
	// Fails with ErrTagExists when any tag is already bound (no partial
	// insert survives).
	AddSticker(ctx context.Context, ownerID int64, stickerID string, tags []string) error

	// GetSticker looks a binding up by tag. Fails with ErrStickerNotFound
	// when the tag is unbound.
	GetSticker(ctx context.Context, tag string) (*types.Sticker, error)
}

// MetaStore reads and writes bot-level settings kept in the meta table.
type MetaStore interface {
	// APIKey returns meta['API_KEY']. Fails with ErrNoAPIKey when the row
	// is missing or empty. The key lives in the database, not in the
	// environment.
	APIKey(ctx context.Context) (string, error)

	// PutAPIKey upserts meta['API_KEY'].
	PutAPIKey(ctx context.Context, key string) error
}

// Store is the full persistent contract.
type Store interface {
	UserStore
	StickerStore
	MetaStore
	Close() error
}
