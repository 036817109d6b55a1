package telegram

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/stickfixbot/stickfix/internal/chat"
)

func TestToReplyMarkup(t *testing.T) {
	kb := &chat.Keyboard{Rows: [][]chat.Button{
		{
			{Label: "Yes", Callback: "StartConfirmationYes"},
			{Label: "No", Callback: "StartConfirmationNo"},
		},
	}}

	markup := toReplyMarkup(kb)
	if len(markup.InlineKeyboard) != 1 {
		t.Fatalf("rows = %d, want 1", len(markup.InlineKeyboard))
	}
	row := markup.InlineKeyboard[0]
	if len(row) != 2 {
		t.Fatalf("buttons = %d, want 2", len(row))
	}
	if row[0].Text != "Yes" || row[0].Unique != "StartConfirmationYes" {
		t.Errorf("first button = %+v", row[0])
	}
	if row[1].Text != "No" || row[1].Unique != "StartConfirmationNo" {
		t.Errorf("second button = %+v", row[1])
	}
}

func TestAdaptUserFallsBackToUnknown(t *testing.T) {
	got := adaptUser(&tele.User{ID: 7})
	if got.ID != 7 || got.Username != "unknown" {
		t.Errorf("adaptUser = %+v, want id=7 username=unknown", got)
	}

	got = adaptUser(&tele.User{ID: 42, Username: "alice"})
	if got.Username != "alice" {
		t.Errorf("username = %q, want alice", got.Username)
	}
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("telegram: Unauthorized (401)"), true},
		{errors.New("telegram: Not Found (404)"), true},
		{errors.New("dial tcp: connection refused"), false},
		{errors.New("context deadline exceeded"), false},
	}
	for _, tt := range tests {
		if got := isAuthError(tt.err); got != tt.want {
			t.Errorf("isAuthError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
