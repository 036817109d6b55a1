package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stickfixbot/stickfix/internal/chat"
	"github.com/stickfixbot/stickfix/internal/fsm"
	"github.com/stickfixbot/stickfix/internal/storage"
	"github.com/stickfixbot/stickfix/internal/types"
)

// Command binds a case-sensitive name to a handler.
type Command struct {
	Name        string
	Description string
	Handler     func(ctx context.Context, msg chat.Message) Result
}

// Commands returns the full command surface, handlers bound to b.
func (b *Bot) Commands() []Command {
	return []Command{
		{Name: "start", Description: "register with the bot", Handler: b.handleStart},
		{Name: "revoke", Description: "delete your registration", Handler: b.handleRevoke},
		{Name: "private", Description: "toggle private mode", Handler: b.handlePrivate},
		{Name: "shuffle", Description: "toggle shuffle mode", Handler: b.handleShuffle},
		{Name: "add", Description: "tag the sticker you are replying to", Handler: b.handleAdd},
		{Name: "help", Description: "list the available commands", Handler: b.handleHelp},
	}
}

// handleStart registers new users. Not-registered is the happy path: the
// consent prompt goes out and the registrant is parked in the ephemeral
// store until a confirmation callback picks them up.
func (b *Bot) handleStart(ctx context.Context, msg chat.Message) Result {
	if u, err := b.store.GetUser(ctx, msg.From.ID); err == nil {
		if sendErr := b.send(ctx, u.ID, msgWelcomeBack, nil); sendErr != nil {
			return Failure(u, msgWelcomeBack)
		}
		return Success(u, msgWelcomeBack)
	}

	u := types.NewUser(msg.From.ID, msg.From.Username)
	b.log.Info("user is starting registration", "user", u.DisplayName())

	kb := yesNo(CallbackStartYes, CallbackStartNo)
	if err := b.send(ctx, u.ID, msgStartPrompt, kb); err != nil {
		return Failure(u, msgStartPrompt)
	}
	if res := b.machine.OnStart(ctx, u); !res.OK {
		return Failure(u, msgStartPrompt)
	}
	return Success(u, msgStartPrompt)
}

func (b *Bot) handleRevoke(ctx context.Context, msg chat.Message) Result {
	return b.userScoped(ctx, msg, msgNotRegisteredRevoke,
		func(ctx context.Context, u *types.User) Result {
			b.log.Info("user is revoking their registration", "user", u.DisplayName())
			kb := yesNo(CallbackRevokeYes, CallbackRevokeNo)
			return b.prompt(ctx, u, msgRevokePrompt, kb, b.machine.OnRevoke)
		})
}

func (b *Bot) handlePrivate(ctx context.Context, msg chat.Message) Result {
	return b.userScoped(ctx, msg, msgNotRegisteredPrivate,
		func(ctx context.Context, u *types.User) Result {
			b.log.Info("user is toggling private mode", "user", u.DisplayName())
			kb := enableDisable(CallbackPrivateEnable, CallbackPrivateDisable)
			return b.prompt(ctx, u, msgPrivatePrompt, kb, b.machine.OnPrivateMode)
		})
}

func (b *Bot) handleShuffle(ctx context.Context, msg chat.Message) Result {
	return b.userScoped(ctx, msg, msgNotRegisteredShuffle,
		func(ctx context.Context, u *types.User) Result {
			b.log.Info("user is toggling shuffle mode", "user", u.DisplayName())
			kb := enableDisable(CallbackShuffleEnable, CallbackShuffleDisable)
			return b.prompt(ctx, u, msgShufflePrompt, kb, b.machine.OnShuffle)
		})
}

// handleAdd is chat-scoped: it works for unregistered senders too, whose
// stickers land on the public default user.
func (b *Bot) handleAdd(ctx context.Context, msg chat.Message) Result {
	if msg.StickerID == "" {
		_ = b.send(ctx, msg.From.ID, msgAddReplyToSticker, nil)
		return Failure(nil, msgAddReplyToSticker)
	}
	tags := msg.Args
	if len(tags) == 0 {
		_ = b.send(ctx, msg.From.ID, msgAddUsage, nil)
		return Failure(nil, msgAddUsage)
	}

	owner := types.DefaultUserID
	var u *types.User
	if loaded, err := b.store.GetUser(ctx, msg.From.ID); err == nil {
		u = loaded
		owner = u.ID
	}

	if err := b.store.AddSticker(ctx, owner, msg.StickerID, tags); err != nil {
		if errors.Is(err, storage.ErrTagExists) {
			_ = b.send(ctx, msg.From.ID, msgAddDuplicateTag, nil)
			return Failure(u, msgAddDuplicateTag)
		}
		b.log.Error("add sticker failed", "owner", owner, "error", err)
		_ = b.send(ctx, msg.From.ID, msgAddFailed, nil)
		return Failure(u, msgAddFailed)
	}

	confirmation := fmt.Sprintf(msgAddSavedFmt, strings.Join(tags, ", "))
	if err := b.send(ctx, msg.From.ID, confirmation, nil); err != nil {
		return Failure(u, confirmation)
	}
	return Success(u, confirmation)
}

// handleHelp answers registered and unregistered users alike.
func (b *Bot) handleHelp(ctx context.Context, msg chat.Message) Result {
	if err := b.send(ctx, msg.From.ID, msgHelp, nil); err != nil {
		return Failure(nil, msgHelp)
	}
	return Success(nil, msgHelp)
}

// userScoped runs the registered branch only for persistent users; everyone
// else gets the command's not-registered message and a failure.
func (b *Bot) userScoped(ctx context.Context, msg chat.Message, notRegistered string,
	registered func(ctx context.Context, u *types.User) Result) Result {
	u, err := b.store.GetUser(ctx, msg.From.ID)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			b.log.Error("user lookup failed", "user", msg.From.ID, "error", err)
		}
		_ = b.send(ctx, msg.From.ID, notRegistered, nil)
		return Failure(nil, notRegistered)
	}
	return registered(ctx, u)
}

// prompt sends a question with its two-button keyboard, then moves the user
// into the matching question state. A failed send leaves the user where
// they were.
func (b *Bot) prompt(ctx context.Context, u *types.User, text string, kb *chat.Keyboard,
	transition func(context.Context, *types.User) fsm.Result) Result {
	if err := b.send(ctx, u.ID, text, kb); err != nil {
		return Failure(u, text)
	}
	if res := transition(ctx, u); !res.OK {
		return Failure(u, text)
	}
	return Success(u, text)
}

// send forwards to the transport and logs failures once, here.
func (b *Bot) send(ctx context.Context, userID int64, text string, kb *chat.Keyboard) error {
	if err := b.sender.Send(ctx, userID, text, kb); err != nil {
		b.log.Error("send failed", "user", userID, "error", err)
		return err
	}
	return nil
}
