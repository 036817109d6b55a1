// Package fsm implements the user state machine.
//
// Users sit in Idle until a command moves them into a question state
// (Start, Revoke, PrivateMode, Shuffle); the matching callback answer moves
// them back, running the store side effects on the way. The full behavior
// is one closed table: anything outside it is a failed transition, reported
// in the result and logged, never an error the caller must handle.
package fsm

import (
	"context"
	"log/slog"

	"github.com/stickfixbot/stickfix/internal/storage"
	"github.com/stickfixbot/stickfix/internal/types"
)

// Machine dispatches events against the transition table.
type Machine struct {
	users   storage.UserStore // persistent registrations
	pending storage.UserStore // ephemeral pre-confirmation registrants
	log     *slog.Logger
}

// New builds a machine over the persistent and pending user stores.
func New(users, pending storage.UserStore, log *slog.Logger) *Machine {
	return &Machine{users: users, pending: pending, log: log}
}

// Result reports the outcome of one event. State carries the new state on
// success and the unchanged current state on failure.
type Result struct {
	OK    bool
	State types.State
}

// Fire feeds one event to the machine for the given user. On success the
// user is updated in place to reflect the transition; on failure it is left
// untouched. Store errors inside a transition are logged and reported as a
// failed result, never returned.
func (m *Machine) Fire(ctx context.Context, u *types.User, ev Event) Result {
	from := u.State
	t, ok := transitions[from][ev]
	if !ok {
		m.log.Warn("unhandled transition",
			"user", u.DisplayName(), "state", from, "event", ev)
		return Result{OK: false, State: from}
	}

	cp := *u
	cp.State = t.to
	if err := t.effect(ctx, m, &cp); err != nil {
		m.log.Error("transition failed",
			"user", u.DisplayName(), "state", from, "event", ev, "error", err)
		return Result{OK: false, State: from}
	}

	*u = cp
	m.log.Debug("transition",
		"user", u.DisplayName(), "from", from, "event", ev, "to", t.to)
	return Result{OK: true, State: t.to}
}

func (m *Machine) OnStart(ctx context.Context, u *types.User) Result {
	return m.Fire(ctx, u, EventStart)
}

func (m *Machine) OnIdle(ctx context.Context, u *types.User) Result {
	return m.Fire(ctx, u, EventIdle)
}

func (m *Machine) OnRevoke(ctx context.Context, u *types.User) Result {
	return m.Fire(ctx, u, EventRevoke)
}

func (m *Machine) OnPrivateMode(ctx context.Context, u *types.User) Result {
	return m.Fire(ctx, u, EventPrivateMode)
}

func (m *Machine) OnShuffle(ctx context.Context, u *types.User) Result {
	return m.Fire(ctx, u, EventShuffle)
}

func (m *Machine) OnStartConfirmation(ctx context.Context, u *types.User) Result {
	return m.Fire(ctx, u, EventStartConfirmation)
}

func (m *Machine) OnStartRejection(ctx context.Context, u *types.User) Result {
	return m.Fire(ctx, u, EventStartRejection)
}

func (m *Machine) OnRevokeConfirmation(ctx context.Context, u *types.User) Result {
	return m.Fire(ctx, u, EventRevokeConfirmation)
}

func (m *Machine) OnRevokeRejection(ctx context.Context, u *types.User) Result {
	return m.Fire(ctx, u, EventRevokeRejection)
}

func (m *Machine) OnPrivateModeEnabled(ctx context.Context, u *types.User) Result {
	return m.Fire(ctx, u, EventPrivateModeEnabled)
}

func (m *Machine) OnPrivateModeDisabled(ctx context.Context, u *types.User) Result {
	return m.Fire(ctx, u, EventPrivateModeDisabled)
}

func (m *Machine) OnShuffleEnabled(ctx context.Context, u *types.User) Result {
	return m.Fire(ctx, u, EventShuffleEnabled)
}

func (m *Machine) OnShuffleDisabled(ctx context.Context, u *types.User) Result {
	return m.Fire(ctx, u, EventShuffleDisabled)
}
