// Package types defines core data structures for the stickfix bot.
package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// The default user owns public stickers added by unregistered chats.
// It is created when the store is initialized and can never be mutated
// or deleted.
const (
	DefaultUserID   int64 = 0
	DefaultUsername       = "STICKFIX_PUBLIC"
)

// State is the conversational state of a user. The tag string is what the
// store persists; resolution is case-insensitive but always canonicalizes
// back to one of these values.
type State string

const (
	StateIdle              State = "Idle"
	StateStart             State = "Start"
	StateStartConfirmation State = "StartConfirmation"
	StateStartRejection    State = "StartRejection"
	StateRevoke            State = "Revoke"
	StatePrivateMode       State = "PrivateMode"
	StateShuffle           State = "Shuffle"
)

// States enumerates every valid state tag.
var States = []State{
	StateIdle,
	StateStart,
	StateStartConfirmation,
	StateStartRejection,
	StateRevoke,
	StatePrivateMode,
	StateShuffle,
}

// IsValid returns true if the state is a known tag.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateStart, StateStartConfirmation, StateStartRejection,
		StateRevoke, StatePrivateMode, StateShuffle:
		return true
	}
	return false
}

// ErrStateResolution reports a persisted state tag that matches no known
// state. A row carrying one is unreadable; callers must not swallow this.
var ErrStateResolution = errors.New("cannot resolve user state")

// ResolveState maps a persisted tag to its State, ignoring case.
func ResolveState(tag string) (State, error) {
	for _, s := range States {
		if strings.EqualFold(tag, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("state %q: %w", tag, ErrStateResolution)
}

// User is a chat user known to stickfix. ID is the Telegram chat id, which
// doubles as the primary key everywhere.
type User struct {
	ID          int64
	Username    string // may be empty; Telegram does not require one
	State       State
	IsAdmin     bool
	PrivateMode bool
	Shuffle     bool
	Created     time.Time
}

// NewUser returns a user in the Idle state. Created is left zero; the store
// stamps it on insert.
func NewUser(id int64, username string) *User {
	return &User{
		ID:       id,
		Username: username,
		State:    StateIdle,
	}
}

// IsDefault reports whether this is the protected default user.
func (u *User) IsDefault() bool {
	return u.ID == DefaultUserID
}

// DisplayName returns the username, or the id when Telegram supplied none.
func (u *User) DisplayName() string {
	if u.Username == "" {
		return fmt.Sprintf("id:%d", u.ID)
	}
	return u.Username
}

// Sticker is one tag -> sticker binding. Tags are globally unique; the
// owner is the user who added the tag (or the default user for public
// stickers added from unregistered chats).
type Sticker struct {
	Tag       string
	UserID    int64
	StickerID string
}

// Validate checks structural validity before insert.
func (s *Sticker) Validate() error {
	if s.Tag == "" {
		return errors.New("sticker tag cannot be empty")
	}
	if strings.ContainsAny(s.Tag, " \t\n") {
		return fmt.Errorf("sticker tag %q cannot contain whitespace", s.Tag)
	}
	if s.StickerID == "" {
		return errors.New("sticker id cannot be empty")
	}
	return nil
}
