package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stickfixbot/stickfix/internal/storage"
	"github.com/stickfixbot/stickfix/internal/types"
)

// AddSticker binds every tag to the sticker in one transaction. Any taken
// tag (including a duplicate within tags itself) rolls the whole call back.
func (s *Store) AddSticker(ctx context.Context, ownerID int64, stickerID string, tags []string) error {
	if len(tags) == 0 {
		return errors.New("add sticker: at least one tag required")
	}
	for _, tag := range tags {
		st := types.Sticker{Tag: tag, UserID: ownerID, StickerID: stickerID}
		if err := st.Validate(); err != nil {
			return fmt.Errorf("add sticker: %w", err)
		}
	}

	return s.withTx(ctx, func(conn *sql.Conn) error {
		n, err := countUsers(ctx, conn, ownerID)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("add sticker for user %d: %w", ownerID, storage.ErrUserNotFound)
		}

		for _, tag := range tags {
			var taken int
			if err := conn.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM stickers WHERE tag = ?`, tag).Scan(&taken); err != nil {
				return wrapDBError("count sticker tags", err)
			}
			if taken > 0 {
				return fmt.Errorf("tag %q: %w", tag, storage.ErrTagExists)
			}
			if _, err := conn.ExecContext(ctx,
				`INSERT INTO stickers (tag, user_id, sticker_id) VALUES (?, ?, ?)`,
				tag, ownerID, stickerID); err != nil {
				return wrapDBError("insert sticker", err)
			}
		}
		return nil
	})
}

// GetSticker looks a binding up by tag.
func (s *Store) GetSticker(ctx context.Context, tag string) (*types.Sticker, error) {
	var sticker *types.Sticker
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		var st types.Sticker
		err := conn.QueryRowContext(ctx,
			`SELECT tag, user_id, sticker_id FROM stickers WHERE tag = ?`, tag).
			Scan(&st.Tag, &st.UserID, &st.StickerID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("get sticker %q: %w", tag, storage.ErrStickerNotFound)
		case err != nil:
			return wrapDBError("get sticker", err)
		}
		sticker = &st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sticker, nil
}
