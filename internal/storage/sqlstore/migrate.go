package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

const schemaVersionKey = "schema_version"

// migrations run in order at open. Completed versions are recorded in
// meta['schema_version'], so re-opening an up-to-date database does nothing.
var migrations = []struct {
	version int
	name    string
	run     func(ctx context.Context, s *Store) error
}{
	{1, "users.is_admin column", migrateIsAdminColumn},
}

func (s *Store) runMigrations(ctx context.Context) error {
	current, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := m.run(ctx, s); err != nil {
			return fmt.Errorf("migration %03d (%s): %w", m.version, m.name, err)
		}
		if err := s.putMeta(ctx, schemaVersionKey, strconv.Itoa(m.version)); err != nil {
			return fmt.Errorf("record migration %03d: %w", m.version, err)
		}
	}
	return nil
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	raw, err := s.getMeta(ctx, schemaVersionKey)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("schema version %q: %w", raw, err)
	}
	return v, nil
}

// migrateIsAdminColumn backfills is_admin on databases created before the
// column existed. Fresh databases already have it from the schema DDL.
func migrateIsAdminColumn(ctx context.Context, s *Store) error {
	ok, err := s.dialect.hasColumn(ctx, s.db, "users", "is_admin")
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	_, err = s.db.ExecContext(ctx,
		`ALTER TABLE users ADD COLUMN is_admin BOOLEAN NOT NULL DEFAULT FALSE`)
	return err
}
