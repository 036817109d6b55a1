package bot

import (
	"context"

	"github.com/stickfixbot/stickfix/internal/chat"
	"github.com/stickfixbot/stickfix/internal/fsm"
	"github.com/stickfixbot/stickfix/internal/storage"
	"github.com/stickfixbot/stickfix/internal/types"
)

// Callback wire identifiers. The transport echoes these names back when a
// button is pressed; they are stable and must match the keyboards.
const (
	CallbackStartYes       = "StartConfirmationYes"
	CallbackStartNo        = "StartConfirmationNo"
	CallbackRevokeYes      = "RevokeConfirmationYes"
	CallbackRevokeNo       = "RevokeConfirmationNo"
	CallbackPrivateEnable  = "PrivateModeEnabledCallback"
	CallbackPrivateDisable = "PrivateModeDisabledCallback"
	CallbackShuffleEnable  = "ShuffleEnabledCallback"
	CallbackShuffleDisable = "ShuffleDisabledCallback"
)

// Callback binds a wire identifier to a handler.
type Callback struct {
	Name    string
	Handler func(ctx context.Context, from chat.User) Result
}

// Callbacks returns the full callback surface, handlers bound to b.
//
// The two registration callbacks look the user up in the ephemeral store;
// the registrant is not persistent until the confirmation lands. Every
// other callback answers a question asked of a persistent user.
func (b *Bot) Callbacks() []Callback {
	return []Callback{
		{Name: CallbackStartYes, Handler: b.callback(b.pending, msgRegistrationConfirmed, b.machine.OnStartConfirmation)},
		{Name: CallbackStartNo, Handler: b.callback(b.pending, msgRegistrationRejected, b.machine.OnStartRejection)},
		{Name: CallbackRevokeYes, Handler: b.callback(b.store, msgRevoked, b.machine.OnRevokeConfirmation)},
		{Name: CallbackRevokeNo, Handler: b.callback(b.store, msgRevokeCancelled, b.machine.OnRevokeRejection)},
		{Name: CallbackPrivateEnable, Handler: b.callback(b.store, msgPrivateEnabled, b.machine.OnPrivateModeEnabled)},
		{Name: CallbackPrivateDisable, Handler: b.callback(b.store, msgPrivateDisabled, b.machine.OnPrivateModeDisabled)},
		{Name: CallbackShuffleEnable, Handler: b.callback(b.store, msgShuffleEnabled, b.machine.OnShuffleEnabled)},
		{Name: CallbackShuffleDisable, Handler: b.callback(b.store, msgShuffleDisabled, b.machine.OnShuffleDisabled)},
	}
}

// callback builds the shared answer-handling shape: load the user from the
// right store, run the transition, confirm to the user. A transition
// failure produces no user-visible message; the machine already logged it.
func (b *Bot) callback(lookup storage.UserStore, confirmation string,
	transition func(context.Context, *types.User) fsm.Result) func(ctx context.Context, from chat.User) Result {
	return func(ctx context.Context, from chat.User) Result {
		u, err := lookup.GetUser(ctx, from.ID)
		if err != nil {
			return Failure(nil, msgNotRegistered)
		}
		if res := transition(ctx, u); !res.OK {
			return Failure(u, "")
		}
		if err := b.send(ctx, u.ID, confirmation, nil); err != nil {
			return Failure(u, confirmation)
		}
		return Success(u, confirmation)
	}
}
