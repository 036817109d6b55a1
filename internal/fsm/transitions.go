package fsm

import (
	"context"

	"github.com/stickfixbot/stickfix/internal/types"
)

// effect runs the store side effects of a transition. It receives the user
// copy already carrying the target state; mutations to the copy become
// visible to the caller only when the whole transition succeeds.
type effect func(ctx context.Context, m *Machine, u *types.User) error

type transition struct {
	to     types.State
	effect effect
}

// transitions is the closed (state, event) table. Pairs without a cell
// fail; there is deliberately no cell for EventIdle anywhere.
var transitions = map[types.State]map[Event]transition{
	types.StateIdle: {
		EventStart:       {to: types.StateStart, effect: addPending},
		EventRevoke:      {to: types.StateRevoke, effect: persistState},
		EventPrivateMode: {to: types.StatePrivateMode, effect: persistState},
		EventShuffle:     {to: types.StateShuffle, effect: persistState},
	},
	types.StateStart: {
		EventStartConfirmation: {to: types.StateIdle, effect: promote},
		EventStartRejection:    {to: types.StateIdle, effect: dropPending},
	},
	types.StateRevoke: {
		EventRevokeConfirmation: {to: types.StateIdle, effect: removeRegistration},
		EventRevokeRejection:    {to: types.StateIdle, effect: persistState},
	},
	types.StatePrivateMode: {
		EventPrivateModeEnabled:  {to: types.StateIdle, effect: setPrivateMode(true)},
		EventPrivateModeDisabled: {to: types.StateIdle, effect: setPrivateMode(false)},
	},
	types.StateShuffle: {
		EventShuffleEnabled:  {to: types.StateIdle, effect: setShuffleMode(true)},
		EventShuffleDisabled: {to: types.StateIdle, effect: setShuffleMode(false)},
	},
}

// addPending parks the registrant in the ephemeral store, tagged Start,
// until a confirmation callback claims it.
func addPending(ctx context.Context, m *Machine, u *types.User) error {
	_, err := m.pending.AddUser(ctx, u)
	return err
}

// persistState writes the copy's state tag to the persistent store. Serves
// every cell whose only side effect is the state column itself.
func persistState(ctx context.Context, m *Machine, u *types.User) error {
	_, err := m.users.SetUserState(ctx, u.ID, u.State)
	return err
}

// promote turns a pending registration into a persistent user: insert,
// clear the ephemeral row, settle the state column on Idle.
func promote(ctx context.Context, m *Machine, u *types.User) error {
	if _, err := m.users.AddUser(ctx, u); err != nil {
		return err
	}
	if _, err := m.pending.DeleteUser(ctx, u.ID); err != nil {
		return err
	}
	_, err := m.users.SetUserState(ctx, u.ID, u.State)
	return err
}

// dropPending discards a registration the user rejected.
func dropPending(ctx context.Context, m *Machine, u *types.User) error {
	_, err := m.pending.DeleteUser(ctx, u.ID)
	return err
}

// removeRegistration deletes the persistent user row.
func removeRegistration(ctx context.Context, m *Machine, u *types.User) error {
	_, err := m.users.DeleteUser(ctx, u.ID)
	return err
}

func setPrivateMode(enabled bool) effect {
	return func(ctx context.Context, m *Machine, u *types.User) error {
		if _, err := m.users.SetPrivateMode(ctx, u.ID, enabled); err != nil {
			return err
		}
		u.PrivateMode = enabled
		_, err := m.users.SetUserState(ctx, u.ID, u.State)
		return err
	}
}

func setShuffleMode(enabled bool) effect {
	return func(ctx context.Context, m *Machine, u *types.User) error {
		if _, err := m.users.SetShuffleMode(ctx, u.ID, enabled); err != nil {
			return err
		}
		u.Shuffle = enabled
		_, err := m.users.SetUserState(ctx, u.ID, u.State)
		return err
	}
}
