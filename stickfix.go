// Package stickfix provides a minimal public API for embedding the bot's
// storage layer in other Go programs.
//
// Most automation should go through the stickfix CLI. This package exports
// only the core types and open helpers needed to read or seed a StickFix
// database programmatically.
package stickfix

import (
	"context"

	"github.com/stickfixbot/stickfix/internal/storage"
	"github.com/stickfixbot/stickfix/internal/storage/sqlstore"
	"github.com/stickfixbot/stickfix/internal/types"
)

// Core types for working with users and stickers
type (
	User    = types.User
	State   = types.State
	Sticker = types.Sticker
)

// State constants
const (
	StateIdle              = types.StateIdle
	StateStart             = types.StateStart
	StateStartConfirmation = types.StateStartConfirmation
	StateStartRejection    = types.StateStartRejection
	StateRevoke            = types.StateRevoke
	StatePrivateMode       = types.StatePrivateMode
	StateShuffle           = types.StateShuffle
)

// The default user owns public stickers added from unregistered chats.
const (
	DefaultUserID   = types.DefaultUserID
	DefaultUsername = types.DefaultUsername
)

// Store is the persistent contract: users, stickers, and bot meta.
type Store = storage.Store

// Open opens (or creates) a StickFix SQLite database at path. The schema,
// migrations, and default user are applied on open, so pointing this at a
// fresh path yields a ready database.
func Open(ctx context.Context, path string) (Store, error) {
	return sqlstore.Open(ctx, "sqlite", path)
}

// OpenMemory opens a fresh in-memory store. Useful for tests and tooling.
func OpenMemory(ctx context.Context) (Store, error) {
	return sqlstore.Open(ctx, "sqlite", ":memory:")
}
