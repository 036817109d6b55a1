// Package telegram binds the chat port to the Telegram Bot API via
// telebot. Nothing outside this package speaks the wire vocabulary.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	tele "gopkg.in/telebot.v4"

	"github.com/stickfixbot/stickfix/internal/chat"
)

var _ chat.Sender = (*Transport)(nil)

// Options tunes the connection.
type Options struct {
	PollTimeout    time.Duration // long poll timeout (default 10s)
	ConnectTimeout time.Duration // give up connecting after this (default 1m)
}

// Transport wraps a connected telebot instance.
type Transport struct {
	tb  *tele.Bot
	log *slog.Logger
}

const defaultConnectTimeout = time.Minute

func newConnectBackoff(maxElapsed time.Duration) backoff.BackOff {
	// BackOff implementations are stateful; always build a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = maxElapsed
	return bo
}

// isAuthError reports whether the connect error means the token was
// rejected. Those never heal, unlike network blips.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "not found")
}

// Connect builds the long-polling bot. Telegram being briefly unreachable
// at startup is retried with exponential backoff; a rejected token fails
// immediately.
func Connect(ctx context.Context, token string, opts Options, log *slog.Logger) (*Transport, error) {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 10 * time.Second
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}

	settings := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: opts.PollTimeout},
		OnError: func(err error, _ tele.Context) {
			log.Error("telegram handler error", "error", err)
		},
	}

	var tb *tele.Bot
	bo := newConnectBackoff(opts.ConnectTimeout)
	err := backoff.Retry(func() error {
		var err error
		tb, err = tele.NewBot(settings)
		if err == nil {
			return nil
		}
		if isAuthError(err) {
			return backoff.Permanent(err)
		}
		log.Warn("telegram connect failed, retrying", "error", err)
		return err
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}

	log.Info("connected to telegram", "bot", tb.Me.Username)
	return &Transport{tb: tb, log: log}, nil
}

// Send implements chat.Sender. Telegram direct chats share the user's id.
func (t *Transport) Send(_ context.Context, userID int64, text string, kb *chat.Keyboard) error {
	var opts []interface{}
	if kb != nil {
		opts = append(opts, toReplyMarkup(kb))
	}
	_, err := t.tb.Send(tele.ChatID(userID), text, opts...)
	return err
}

// Run long polls until ctx is done, then stops the poller.
func (t *Transport) Run(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		<-ctx.Done()
		t.tb.Stop()
		close(stopped)
	}()
	t.log.Info("polling for updates")
	t.tb.Start()
	<-stopped
	return ctx.Err()
}

// toReplyMarkup converts the port keyboard into telebot inline markup. The
// callback name doubles as the telebot unique, so a button press comes
// back as that callback.
func toReplyMarkup(kb *chat.Keyboard) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		btns := make([]tele.Btn, 0, len(row))
		for _, b := range row {
			btns = append(btns, markup.Data(b.Label, b.Callback))
		}
		rows = append(rows, markup.Row(btns...))
	}
	markup.Inline(rows...)
	return markup
}
