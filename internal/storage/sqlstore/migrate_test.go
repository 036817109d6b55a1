package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stickfixbot/stickfix/internal/types"
)

// legacySchema is the users table as it existed before is_admin.
const legacySchema = `
CREATE TABLE meta (
    ` + "`key`" + ` VARCHAR(50) PRIMARY KEY,
    value   VARCHAR(50) NOT NULL
);
CREATE TABLE users (
    chat_id      BIGINT PRIMARY KEY UNIQUE,
    username     VARCHAR(50) NOT NULL,
    state        VARCHAR(50) NOT NULL,
    private_mode BOOLEAN NOT NULL DEFAULT FALSE,
    shuffle      BOOLEAN NOT NULL DEFAULT FALSE,
    created      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE stickers (
    tag        VARCHAR(50) PRIMARY KEY,
    user_id    BIGINT NOT NULL REFERENCES users(chat_id),
    sticker_id VARCHAR(50) NOT NULL
);
`

func TestMigrationBackfillsIsAdmin(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.db")

	db, _, err := openSQLite(ctx, path)
	if err != nil {
		t.Fatalf("openSQLite failed: %v", err)
	}
	for _, stmt := range splitStatements(legacySchema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("create legacy schema: %v", err)
		}
	}
	if _, err := db.ExecContext(ctx, `
		INSERT INTO users (chat_id, username, state, private_mode, shuffle, created)
		VALUES (42, 'bobby', 'Idle', 0, 0, '2020-01-01 00:00:00')
	`); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close legacy db: %v", err)
	}

	s, err := Open(ctx, "sqlite", path)
	if err != nil {
		t.Fatalf("Open over legacy database failed: %v", err)
	}
	defer func() { _ = s.Close() }()

	u, err := s.GetUser(ctx, 42)
	if err != nil {
		t.Fatalf("GetUser after migration failed: %v", err)
	}
	if u.IsAdmin {
		t.Error("backfilled is_admin should default to false")
	}

	v, err := s.schemaVersion(ctx)
	if err != nil {
		t.Fatalf("schemaVersion failed: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("schema version = %d, want %d", v, len(migrations))
	}

	// The default user was seeded even though the tables already existed.
	if _, err := s.GetUser(ctx, types.DefaultUserID); err != nil {
		t.Errorf("default user missing after migrating legacy database: %v", err)
	}
}

func TestMigrationsNoopOnFreshDatabase(t *testing.T) {
	s := newTestStore(t)
	v, err := s.schemaVersion(context.Background())
	if err != nil {
		t.Fatalf("schemaVersion failed: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("schema version = %d, want %d", v, len(migrations))
	}
}
