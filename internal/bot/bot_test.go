package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stickfixbot/stickfix/internal/chat"
	"github.com/stickfixbot/stickfix/internal/storage"
	"github.com/stickfixbot/stickfix/internal/storage/ephemeral"
	"github.com/stickfixbot/stickfix/internal/storage/sqlstore"
	"github.com/stickfixbot/stickfix/internal/types"
)

// fakeSender records outbound messages and can be told to fail.
type fakeSender struct {
	mu    sync.Mutex
	fail  error
	sends []sent
}

type sent struct {
	UserID   int64
	Text     string
	Keyboard *chat.Keyboard
}

func (f *fakeSender) Send(_ context.Context, userID int64, text string, kb *chat.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sends = append(f.sends, sent{UserID: userID, Text: text, Keyboard: kb})
	return nil
}

func (f *fakeSender) last(t *testing.T) sent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sends) == 0 {
		t.Fatal("no message was sent")
	}
	return f.sends[len(f.sends)-1]
}

type harness struct {
	bot     *Bot
	store   *sqlstore.Store
	pending *ephemeral.Store
	sender  *fakeSender
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	store, err := sqlstore.Open(ctx, "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open persistent store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	pending, err := ephemeral.New(ctx)
	if err != nil {
		t.Fatalf("open ephemeral store: %v", err)
	}
	t.Cleanup(func() { _ = pending.Close() })

	sender := &fakeSender{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &harness{
		bot:     New(store, pending, sender, log),
		store:   store,
		pending: pending,
		sender:  sender,
	}
}

func (h *harness) command(t *testing.T, name string, msg chat.Message) Result {
	t.Helper()
	for _, c := range h.bot.Commands() {
		if c.Name == name {
			return c.Handler(context.Background(), msg)
		}
	}
	t.Fatalf("command %q not registered", name)
	return Result{}
}

func (h *harness) callback(t *testing.T, name string, from chat.User) Result {
	t.Helper()
	for _, cb := range h.bot.Callbacks() {
		if cb.Name == name {
			return cb.Handler(context.Background(), from)
		}
	}
	t.Fatalf("callback %q not registered", name)
	return Result{}
}

func (h *harness) register(t *testing.T, id int64, username string) *types.User {
	t.Helper()
	u, err := h.store.AddUser(context.Background(), types.NewUser(id, username))
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func alice() chat.Message {
	return chat.Message{From: chat.User{ID: 42, Username: "alice"}}
}

// Scenario: a fresh /start parks the registrant and asks for consent.
func TestStartFreshUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.command(t, "start", alice())
	if !res.OK {
		t.Fatalf("start failed: %+v", res)
	}

	parked, err := h.pending.GetUser(ctx, 42)
	if err != nil {
		t.Fatalf("registrant not parked: %v", err)
	}
	if parked.State != types.StateStart {
		t.Errorf("parked state = %q, want Start", parked.State)
	}
	if _, err := h.store.GetUser(ctx, 42); !errors.Is(err, storage.ErrUserNotFound) {
		t.Errorf("registrant already persistent: %v", err)
	}

	out := h.sender.last(t)
	if out.UserID != 42 || out.Text != msgStartPrompt {
		t.Errorf("prompt = %+v, want start prompt to 42", out)
	}
	if out.Keyboard == nil || len(out.Keyboard.Rows) != 1 || len(out.Keyboard.Rows[0]) != 2 {
		t.Fatalf("keyboard = %+v, want one row of two buttons", out.Keyboard)
	}
	yes, no := out.Keyboard.Rows[0][0], out.Keyboard.Rows[0][1]
	if yes.Label != "Yes" || yes.Callback != CallbackStartYes {
		t.Errorf("yes button = %+v", yes)
	}
	if no.Label != "No" || no.Callback != CallbackStartNo {
		t.Errorf("no button = %+v", no)
	}
}

// Scenario: confirming moves the registrant into the persistent store.
func TestStartConfirmation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.command(t, "start", alice())
	res := h.callback(t, CallbackStartYes, chat.User{ID: 42, Username: "alice"})
	if !res.OK {
		t.Fatalf("confirmation failed: %+v", res)
	}

	u, err := h.store.GetUser(ctx, 42)
	if err != nil {
		t.Fatalf("confirmed user not persistent: %v", err)
	}
	if u.Username != "alice" || u.State != types.StateIdle {
		t.Errorf("stored user = %+v, want alice in Idle", u)
	}

	if n, _ := h.pending.Count(ctx); n != 0 {
		t.Errorf("ephemeral store still holds %d users", n)
	}
	if got := h.sender.last(t); got.Text != msgRegistrationConfirmed {
		t.Errorf("confirmation text = %q", got.Text)
	}
}

// Scenario: rejecting leaves no trace in either store.
func TestStartRejection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.command(t, "start", alice())
	res := h.callback(t, CallbackStartNo, chat.User{ID: 42, Username: "alice"})
	if !res.OK {
		t.Fatalf("rejection failed: %+v", res)
	}

	if _, err := h.store.GetUser(ctx, 42); !errors.Is(err, storage.ErrUserNotFound) {
		t.Errorf("rejected user is persistent: %v", err)
	}
	if n, _ := h.pending.Count(ctx); n != 0 {
		t.Errorf("ephemeral store still holds %d users", n)
	}
}

// Scenario: /revoke asks, yes deletes.
func TestRevokeConfirmed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, 42, "alice")

	res := h.command(t, "revoke", alice())
	if !res.OK {
		t.Fatalf("revoke failed: %+v", res)
	}
	u, err := h.store.GetUser(ctx, 42)
	if err != nil {
		t.Fatalf("get after prompt: %v", err)
	}
	if u.State != types.StateRevoke {
		t.Errorf("state after prompt = %q, want Revoke", u.State)
	}

	res = h.callback(t, CallbackRevokeYes, chat.User{ID: 42, Username: "alice"})
	if !res.OK {
		t.Fatalf("revoke confirmation failed: %+v", res)
	}
	if _, err := h.store.GetUser(ctx, 42); !errors.Is(err, storage.ErrUserNotFound) {
		t.Errorf("revoked user still present: %v", err)
	}
	if got := h.sender.last(t); got.Text != msgRevoked {
		t.Errorf("confirmation text = %q, want %q", got.Text, msgRevoked)
	}
}

// Scenario: answering no keeps the registration, settled back on Idle.
func TestRevokeAborted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, 42, "alice")

	h.command(t, "revoke", alice())
	res := h.callback(t, CallbackRevokeNo, chat.User{ID: 42, Username: "alice"})
	if !res.OK {
		t.Fatalf("revoke rejection failed: %+v", res)
	}

	u, err := h.store.GetUser(ctx, 42)
	if err != nil {
		t.Fatalf("user gone after aborted revoke: %v", err)
	}
	if u.State != types.StateIdle {
		t.Errorf("state = %q, want Idle", u.State)
	}
}

// Scenario: /private then enable flips the bit and settles on Idle.
func TestPrivateModeEnabled(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, 42, "alice")

	res := h.command(t, "private", alice())
	if !res.OK {
		t.Fatalf("private failed: %+v", res)
	}
	out := h.sender.last(t)
	if out.Keyboard == nil || out.Keyboard.Rows[0][0].Callback != CallbackPrivateEnable ||
		out.Keyboard.Rows[0][1].Callback != CallbackPrivateDisable {
		t.Errorf("keyboard = %+v, want Enable/Disable callbacks", out.Keyboard)
	}

	res = h.callback(t, CallbackPrivateEnable, chat.User{ID: 42, Username: "alice"})
	if !res.OK {
		t.Fatalf("enable callback failed: %+v", res)
	}

	u, err := h.store.GetUser(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !u.PrivateMode || u.State != types.StateIdle {
		t.Errorf("user = %+v, want privateMode=true state=Idle", u)
	}
	if got := h.sender.last(t); got.Text != msgPrivateEnabled {
		t.Errorf("confirmation text = %q, want %q", got.Text, msgPrivateEnabled)
	}
}

func TestShuffleModeRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, 42, "alice")

	h.command(t, "shuffle", alice())
	res := h.callback(t, CallbackShuffleEnable, chat.User{ID: 42, Username: "alice"})
	if !res.OK {
		t.Fatalf("shuffle enable failed: %+v", res)
	}
	u, _ := h.store.GetUser(ctx, 42)
	if !u.Shuffle {
		t.Error("shuffle bit not set")
	}

	h.command(t, "shuffle", alice())
	res = h.callback(t, CallbackShuffleDisable, chat.User{ID: 42, Username: "alice"})
	if !res.OK {
		t.Fatalf("shuffle disable failed: %+v", res)
	}
	u, _ = h.store.GetUser(ctx, 42)
	if u.Shuffle {
		t.Error("shuffle bit not cleared")
	}
	if got := h.sender.last(t); got.Text != msgShuffleDisabled {
		t.Errorf("confirmation text = %q", got.Text)
	}
}

func TestStartWelcomesBack(t *testing.T) {
	h := newHarness(t)
	h.register(t, 42, "alice")

	res := h.command(t, "start", alice())
	if !res.OK {
		t.Fatalf("start for registered user failed: %+v", res)
	}
	if got := h.sender.last(t); got.Text != msgWelcomeBack {
		t.Errorf("text = %q, want welcome back", got.Text)
	}
	if got := h.sender.last(t); got.Keyboard != nil {
		t.Error("welcome back should carry no keyboard")
	}
	if n, _ := h.pending.Count(context.Background()); n != 0 {
		t.Error("registered user must not be parked again")
	}
}

func TestUserScopedCommandsRejectUnregistered(t *testing.T) {
	tests := []struct {
		command string
		text    string
	}{
		{"revoke", msgNotRegisteredRevoke},
		{"private", msgNotRegisteredPrivate},
		{"shuffle", msgNotRegisteredShuffle},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			h := newHarness(t)
			res := h.command(t, tt.command, alice())
			if res.OK {
				t.Fatalf("%s succeeded for unregistered user", tt.command)
			}
			if got := h.sender.last(t); got.Text != tt.text {
				t.Errorf("text = %q, want %q", got.Text, tt.text)
			}
		})
	}
}

func TestCallbacksRejectUnknownUser(t *testing.T) {
	h := newHarness(t)
	for _, cb := range h.bot.Callbacks() {
		res := cb.Handler(context.Background(), chat.User{ID: 99, Username: "ghost"})
		if res.OK {
			t.Errorf("callback %s succeeded for unknown user", cb.Name)
		}
		if res.Message != msgNotRegistered {
			t.Errorf("callback %s message = %q, want %q", cb.Name, res.Message, msgNotRegistered)
		}
	}
	if len(h.sender.sends) != 0 {
		t.Errorf("unknown-user callbacks sent %d messages, want none", len(h.sender.sends))
	}
}

func TestSendFailureLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, 42, "alice")
	h.sender.fail = errors.New("transport down")

	res := h.command(t, "revoke", alice())
	if res.OK {
		t.Fatal("revoke succeeded despite send failure")
	}
	u, err := h.store.GetUser(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.State != types.StateIdle {
		t.Errorf("state = %q, want Idle (send failed before transition)", u.State)
	}

	// Same for a fresh start: nothing may be parked.
	res = h.command(t, "start", chat.Message{From: chat.User{ID: 7, Username: "bob"}})
	if res.OK {
		t.Fatal("start succeeded despite send failure")
	}
	if n, _ := h.pending.Count(ctx); n != 0 {
		t.Errorf("ephemeral store holds %d users after failed send", n)
	}
}

func TestCrossedCallbackFails(t *testing.T) {
	h := newHarness(t)
	h.register(t, 42, "alice")

	// Answering a question that was never asked.
	res := h.callback(t, CallbackRevokeYes, chat.User{ID: 42, Username: "alice"})
	if res.OK {
		t.Fatal("revoke confirmation succeeded from Idle")
	}
	u, err := h.store.GetUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("user disappeared: %v", err)
	}
	if u.State != types.StateIdle {
		t.Errorf("state = %q, want Idle", u.State)
	}
	if len(h.sender.sends) != 0 {
		t.Error("failed transition must not produce a user-visible message")
	}
}

func TestAddRequiresStickerReply(t *testing.T) {
	h := newHarness(t)
	msg := alice()
	msg.Args = []string{"cat"}

	res := h.command(t, "add", msg)
	if res.OK {
		t.Fatal("add succeeded without a sticker reply")
	}
	if got := h.sender.last(t); got.Text != msgAddReplyToSticker {
		t.Errorf("text = %q", got.Text)
	}
}

func TestAddRequiresTags(t *testing.T) {
	h := newHarness(t)
	msg := alice()
	msg.StickerID = "sticker-file-1"

	res := h.command(t, "add", msg)
	if res.OK {
		t.Fatal("add succeeded without tags")
	}
	if got := h.sender.last(t); got.Text != msgAddUsage {
		t.Errorf("text = %q", got.Text)
	}
}

func TestAddFromUnregisteredGoesPublic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	msg := alice()
	msg.StickerID = "sticker-file-1"
	msg.Args = []string{"cat", "grumpy"}

	res := h.command(t, "add", msg)
	if !res.OK {
		t.Fatalf("add failed: %+v", res)
	}

	st, err := h.store.GetSticker(ctx, "cat")
	if err != nil {
		t.Fatalf("get sticker: %v", err)
	}
	if st.UserID != types.DefaultUserID {
		t.Errorf("owner = %d, want default user", st.UserID)
	}
	if st.StickerID != "sticker-file-1" {
		t.Errorf("sticker id = %q", st.StickerID)
	}
	if _, err := h.store.GetSticker(ctx, "grumpy"); err != nil {
		t.Errorf("second tag missing: %v", err)
	}
}

func TestAddFromRegisteredOwnsSticker(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, 42, "alice")

	msg := alice()
	msg.StickerID = "sticker-file-2"
	msg.Args = []string{"dog"}

	if res := h.command(t, "add", msg); !res.OK {
		t.Fatalf("add failed: %+v", res)
	}
	st, err := h.store.GetSticker(ctx, "dog")
	if err != nil {
		t.Fatalf("get sticker: %v", err)
	}
	if st.UserID != 42 {
		t.Errorf("owner = %d, want 42", st.UserID)
	}
}

func TestAddDuplicateTag(t *testing.T) {
	h := newHarness(t)
	msg := alice()
	msg.StickerID = "sticker-file-1"
	msg.Args = []string{"cat"}
	if res := h.command(t, "add", msg); !res.OK {
		t.Fatalf("first add failed: %+v", res)
	}

	msg.StickerID = "sticker-file-2"
	res := h.command(t, "add", msg)
	if res.OK {
		t.Fatal("duplicate tag add succeeded")
	}
	if got := h.sender.last(t); got.Text != msgAddDuplicateTag {
		t.Errorf("text = %q, want duplicate-tag message", got.Text)
	}
}

func TestHelp(t *testing.T) {
	h := newHarness(t)
	res := h.command(t, "help", alice())
	if !res.OK {
		t.Fatalf("help failed: %+v", res)
	}
	if got := h.sender.last(t); got.Text != msgHelp {
		t.Errorf("help text = %q", got.Text)
	}
}
