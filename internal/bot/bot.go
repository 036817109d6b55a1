// Package bot implements the command and callback handlers.
//
// Handlers speak the chat port vocabulary and return explicit results; the
// transport binding logs those results but never re-raises them. All state
// lives in the stores, so every handler is safe to run concurrently.
package bot

import (
	"log/slog"

	"github.com/stickfixbot/stickfix/internal/chat"
	"github.com/stickfixbot/stickfix/internal/fsm"
	"github.com/stickfixbot/stickfix/internal/storage"
	"github.com/stickfixbot/stickfix/internal/types"
)

// Bot holds the handler dependencies: the persistent store, the ephemeral
// pre-registration store, the state machine over both, and the outbound
// sender.
type Bot struct {
	store   storage.Store
	pending storage.UserStore
	machine *fsm.Machine
	sender  chat.Sender
	log     *slog.Logger
}

// New wires the handlers. The state machine is built here, over the same
// two stores the handlers read from.
func New(store storage.Store, pending storage.UserStore, sender chat.Sender, log *slog.Logger) *Bot {
	return &Bot{
		store:   store,
		pending: pending,
		machine: fsm.New(store, pending, log),
		sender:  sender,
		log:     log,
	}
}

// Result is the outcome of one command or callback. It exists for logging
// and tests; the dispatcher never re-raises it.
type Result struct {
	User    *types.User
	Message string
	OK      bool
}

// Success builds a successful result.
func Success(u *types.User, message string) Result {
	return Result{User: u, Message: message, OK: true}
}

// Failure builds a failed result.
func Failure(u *types.User, message string) Result {
	return Result{User: u, Message: message, OK: false}
}
