package telegram

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/stickfixbot/stickfix/internal/bot"
	"github.com/stickfixbot/stickfix/internal/chat"
)

// Bind attaches every command and callback to the dispatcher. Messages
// without a sender are logged and dropped; handler results are logged and
// never re-raised into telebot.
func (t *Transport) Bind(app *bot.Bot) {
	for _, cmd := range app.Commands() {
		cmd := cmd
		t.tb.Handle("/"+cmd.Name, func(c tele.Context) error {
			if c.Sender() == nil {
				t.log.Warn("command without sender dropped", "command", cmd.Name)
				return nil
			}
			msg := adaptMessage(c)
			t.log.Info("received command",
				"command", cmd.Name, "user", msg.From.Username, "id", msg.From.ID)
			t.logResult("command "+cmd.Name, cmd.Handler(context.Background(), msg))
			return nil
		})
	}

	for _, cb := range app.Callbacks() {
		cb := cb
		btn := tele.Btn{Unique: cb.Name}
		t.tb.Handle(&btn, func(c tele.Context) error {
			if c.Sender() == nil {
				t.log.Warn("callback without sender dropped", "callback", cb.Name)
				return nil
			}
			from := adaptUser(c.Sender())
			t.log.Info("received callback",
				"callback", cb.Name, "user", from.Username, "id", from.ID)
			t.logResult("callback "+cb.Name, cb.Handler(context.Background(), from))
			// Clear the client-side spinner regardless of outcome.
			return c.Respond(&tele.CallbackResponse{})
		})
	}
}

func (t *Transport) logResult(what string, res bot.Result) {
	if res.OK {
		t.log.Info(what+" handled", "user", resultUser(res))
		return
	}
	t.log.Warn(what+" failed", "user", resultUser(res), "reason", res.Message)
}

func resultUser(res bot.Result) string {
	if res.User == nil {
		return "unknown"
	}
	return res.User.DisplayName()
}

// adaptUser maps a telebot sender onto the port type. Telegram users
// without a public username get the "unknown" placeholder the core
// accepts.
func adaptUser(sender *tele.User) chat.User {
	username := sender.Username
	if username == "" {
		username = "unknown"
	}
	return chat.User{ID: sender.ID, Username: username}
}

// adaptMessage tokenizes a command message and carries along the
// replied-to sticker, when there is one.
func adaptMessage(c tele.Context) chat.Message {
	msg := chat.Message{
		From: adaptUser(c.Sender()),
		Text: c.Text(),
		Args: c.Args(),
	}
	if m := c.Message(); m != nil && m.ReplyTo != nil && m.ReplyTo.Sticker != nil {
		msg.StickerID = m.ReplyTo.Sticker.FileID
	}
	return msg
}
