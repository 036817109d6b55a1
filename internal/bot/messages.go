package bot

import "github.com/stickfixbot/stickfix/internal/chat"

// User-visible texts. The confirmation texts and the private-mode
// not-registered text are load-bearing: tests pin them.
const (
	msgStartPrompt = "Welcome to StickFix! Registering lets you tag stickers " +
		"and keep a private collection. Do you want to register?"
	msgWelcomeBack           = "Welcome back to StickFix!"
	msgRegistrationConfirmed = "You are now registered. Happy tagging!"
	msgRegistrationRejected  = "Registration cancelled."

	msgRevokePrompt = "This deletes your registration and hands your stickers " +
		"to the public pool. Are you sure?"
	msgRevoked         = "Your registration has been revoked."
	msgRevokeCancelled = "Revocation cancelled."

	msgPrivatePrompt   = "Private mode keeps your stickers visible to you alone."
	msgPrivateEnabled  = "Private mode enabled."
	msgPrivateDisabled = "Private mode disabled."

	msgShufflePrompt   = "Shuffle mode returns your stickers in random order."
	msgShuffleEnabled  = "Shuffle mode enabled."
	msgShuffleDisabled = "Shuffle mode disabled."

	msgNotRegisteredRevoke  = "You are not registered in the database, cannot revoke your registration"
	msgNotRegisteredPrivate = "You are not registered in the database, cannot enable private mode"
	msgNotRegisteredShuffle = "You are not registered in the database, cannot enable shuffle mode"
	msgNotRegistered        = "not registered"

	msgAddReplyToSticker = "Reply to a sticker with /add <tag> to save it."
	msgAddUsage          = "At least one tag is needed: /add <tag> [more tags]"
	msgAddDuplicateTag   = "One of those tags is already taken, sticker not saved."
	msgAddFailed         = "Could not save the sticker, try again later."
	msgAddSavedFmt       = "Sticker saved under: %s"

	msgHelp = `StickFix keeps your stickers one tag away.

/start - register with the bot
/revoke - delete your registration
/private - toggle private mode
/shuffle - toggle shuffle mode
/add <tag> ... - tag the sticker you are replying to
/help - this message`
)

// yesNo is the two-button consent keyboard used by start and revoke.
func yesNo(yesCallback, noCallback string) *chat.Keyboard {
	return &chat.Keyboard{Rows: [][]chat.Button{{
		{Label: "Yes", Callback: yesCallback},
		{Label: "No", Callback: noCallback},
	}}}
}

// enableDisable is the two-button keyboard used by the mode commands.
func enableDisable(enableCallback, disableCallback string) *chat.Keyboard {
	return &chat.Keyboard{Rows: [][]chat.Button{{
		{Label: "Enable", Callback: enableCallback},
		{Label: "Disable", Callback: disableCallback},
	}}}
}
