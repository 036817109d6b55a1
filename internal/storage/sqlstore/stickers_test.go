package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stickfixbot/stickfix/internal/storage"
	"github.com/stickfixbot/stickfix/internal/types"
)

func TestAddAndGetSticker(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.AddUser(ctx, types.NewUser(42, "bobby")); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	if err := s.AddSticker(ctx, 42, "file-abc", []string{"cat", "grumpy"}); err != nil {
		t.Fatalf("AddSticker failed: %v", err)
	}

	for _, tag := range []string{"cat", "grumpy"} {
		st, err := s.GetSticker(ctx, tag)
		if err != nil {
			t.Fatalf("GetSticker(%q) failed: %v", tag, err)
		}
		if st.UserID != 42 || st.StickerID != "file-abc" {
			t.Errorf("GetSticker(%q) = %+v, want owner 42 sticker file-abc", tag, st)
		}
	}
}

func TestAddStickerToDefaultUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Unregistered chats add public stickers owned by the default user.
	if err := s.AddSticker(ctx, types.DefaultUserID, "file-abc", []string{"public"}); err != nil {
		t.Fatalf("AddSticker(default) failed: %v", err)
	}
	st, err := s.GetSticker(ctx, "public")
	if err != nil {
		t.Fatalf("GetSticker failed: %v", err)
	}
	if st.UserID != types.DefaultUserID {
		t.Errorf("owner = %d, want default user", st.UserID)
	}
}

func TestAddStickerDuplicateTagRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.AddUser(ctx, types.NewUser(42, "bobby")); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	if err := s.AddSticker(ctx, 42, "file-abc", []string{"cat"}); err != nil {
		t.Fatalf("AddSticker failed: %v", err)
	}

	// One taken tag fails the whole batch; the fresh tag must not survive.
	err := s.AddSticker(ctx, 42, "file-def", []string{"fresh", "cat"})
	if !errors.Is(err, storage.ErrTagExists) {
		t.Fatalf("error = %v, want ErrTagExists", err)
	}
	if _, err := s.GetSticker(ctx, "fresh"); !errors.Is(err, storage.ErrStickerNotFound) {
		t.Errorf("tag fresh should have been rolled back, got %v", err)
	}

	// The original binding is untouched.
	st, err := s.GetSticker(ctx, "cat")
	if err != nil {
		t.Fatalf("GetSticker failed: %v", err)
	}
	if st.StickerID != "file-abc" {
		t.Errorf("sticker id = %q, want file-abc", st.StickerID)
	}
}

func TestAddStickerDuplicateWithinBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.AddUser(ctx, types.NewUser(42, "bobby")); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	err := s.AddSticker(ctx, 42, "file-abc", []string{"twice", "twice"})
	if !errors.Is(err, storage.ErrTagExists) {
		t.Fatalf("error = %v, want ErrTagExists", err)
	}
	if _, err := s.GetSticker(ctx, "twice"); !errors.Is(err, storage.ErrStickerNotFound) {
		t.Errorf("no row should survive the rollback, got %v", err)
	}
}

func TestAddStickerValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.AddUser(ctx, types.NewUser(42, "bobby")); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	if err := s.AddSticker(ctx, 42, "file-abc", nil); err == nil {
		t.Error("empty tag list should fail")
	}
	if err := s.AddSticker(ctx, 42, "", []string{"cat"}); err == nil {
		t.Error("empty sticker id should fail")
	}
	if err := s.AddSticker(ctx, 999, "file-abc", []string{"cat"}); !errors.Is(err, storage.ErrUserNotFound) {
		t.Errorf("unknown owner error = %v, want ErrUserNotFound", err)
	}
}

func TestDeleteUserReassignsStickers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.AddUser(ctx, types.NewUser(42, "bobby")); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	if err := s.AddSticker(ctx, 42, "file-abc", []string{"cat"}); err != nil {
		t.Fatalf("AddSticker failed: %v", err)
	}

	if _, err := s.DeleteUser(ctx, 42); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	st, err := s.GetSticker(ctx, "cat")
	if err != nil {
		t.Fatalf("GetSticker after revoke failed: %v", err)
	}
	if st.UserID != types.DefaultUserID {
		t.Errorf("owner = %d, want default user after revoke", st.UserID)
	}
}
