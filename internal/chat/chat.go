// Package chat is the transport port. Handlers speak these types only;
// the telegram package adapts them to the wire. Keeping the vocabulary
// this small is what lets the end-to-end tests run against a recording
// fake instead of a live bot API.
package chat

import "context"

// Sender delivers a message to a user, optionally with an inline keyboard.
type Sender interface {
	Send(ctx context.Context, userID int64, text string, kb *Keyboard) error
}

// Keyboard is an inline keyboard layout.
type Keyboard struct {
	Rows [][]Button
}

// Button is one inline keyboard button. Callback is the wire identifier
// the transport reports back when the button is pressed.
type Button struct {
	Label    string
	Callback string
}

// User identifies the sender of an incoming message.
type User struct {
	ID       int64
	Username string
}

// Message is an incoming command message, already tokenized. StickerID is
// the file id of the replied-to sticker, when there is one.
type Message struct {
	From      User
	Text      string
	Args      []string
	StickerID string
}
