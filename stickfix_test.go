package stickfix_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stickfixbot/stickfix"
)

func TestOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stickfix.db")

	ctx := context.Background()
	store, err := stickfix.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	// A fresh database carries the default user.
	u, err := store.GetUser(ctx, stickfix.DefaultUserID)
	if err != nil {
		t.Fatalf("GetUser(default): %v", err)
	}
	if u.Username != stickfix.DefaultUsername {
		t.Errorf("default username = %q, want %q", u.Username, stickfix.DefaultUsername)
	}
}

func TestOpenMemory(t *testing.T) {
	ctx := context.Background()
	store, err := stickfix.OpenMemory(ctx)
	if err != nil {
		t.Fatalf("OpenMemory failed: %v", err)
	}
	defer store.Close()

	if err := store.AddSticker(ctx, stickfix.DefaultUserID, "sticker-file-id", []string{"wave"}); err != nil {
		t.Fatalf("AddSticker: %v", err)
	}
	st, err := store.GetSticker(ctx, "wave")
	if err != nil {
		t.Fatalf("GetSticker: %v", err)
	}
	if st.StickerID != "sticker-file-id" {
		t.Errorf("sticker id = %q, want sticker-file-id", st.StickerID)
	}
}

// Test that exported constants have correct values
func TestConstants(t *testing.T) {
	if stickfix.StateIdle != "Idle" {
		t.Errorf("StateIdle = %q, want %q", stickfix.StateIdle, "Idle")
	}
	if stickfix.StateStartConfirmation != "StartConfirmation" {
		t.Errorf("StateStartConfirmation = %q, want %q", stickfix.StateStartConfirmation, "StartConfirmation")
	}
	if stickfix.DefaultUserID != 0 {
		t.Errorf("DefaultUserID = %d, want 0", stickfix.DefaultUserID)
	}
	if stickfix.DefaultUsername != "STICKFIX_PUBLIC" {
		t.Errorf("DefaultUsername = %q, want %q", stickfix.DefaultUsername, "STICKFIX_PUBLIC")
	}
}
