package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	sqlite3 "github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/tetratelabs/wazero"
)

var sqliteDialect = dialect{
	name:      driverSQLite,
	begin:     "BEGIN IMMEDIATE",
	open:      openSQLite,
	hasColumn: sqliteHasColumn,
}

func init() {
	// Cache compiled WASM so the embedded sqlite build is not re-JITed on
	// every process start (~200ms saved after the first run).
	setupWASMCache()
}

// setupWASMCache points go-sqlite3's wazero runtime at a persistent
// compilation cache under the user cache dir, falling back to an in-memory
// cache when the directory cannot be created.
func setupWASMCache() {
	var cache wazero.CompilationCache
	if userCache, err := os.UserCacheDir(); err == nil {
		dir := filepath.Join(userCache, "stickfix", "wasm")
		if c, err := wazero.NewCompilationCacheWithDir(dir); err == nil {
			cache = c
		}
	}
	if cache == nil {
		cache = wazero.NewCompilationCache()
	}
	sqlite3.RuntimeConfig = wazero.NewRuntimeConfig().WithCompilationCache(cache)
}

// openSQLite opens a sqlite database from a path, a file: URI, or the
// literal ":memory:".
func openSQLite(ctx context.Context, path string) (*sql.DB, bool, error) {
	memory := path == ":memory:" ||
		(strings.HasPrefix(path, "file:") && strings.Contains(path, "mode=memory"))

	var connStr string
	switch {
	case path == ":memory:":
		// Shared cache with a named identifier, so every pooled connection
		// sees the same data. WAL does not work in memory; use DELETE.
		connStr = "file:memdb?mode=memory&cache=shared&_pragma=journal_mode(DELETE)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)&_time_format=sqlite"
	case strings.HasPrefix(path, "file:"):
		connStr = path
		if !strings.Contains(path, "_pragma=foreign_keys") {
			connStr += "&_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)&_time_format=sqlite"
		}
	default:
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, false, fmt.Errorf("create database directory: %w", err)
		}
		connStr = "file:" + path + "?_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)&_time_format=sqlite"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, false, err
	}

	if memory {
		// In-memory databases are per-connection unless everything shares
		// one; the pool must never rotate it away.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		// WAL supports one writer plus concurrent readers.
		db.SetMaxOpenConns(runtime.NumCPU() + 1)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(0)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, false, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	return db, memory, nil
}

func sqliteHasColumn(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("inspect %s schema: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	found := false
	for rows.Next() {
		var (
			cid, notnull, pk int
			name, typ        string
			dflt             *string
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			return false, fmt.Errorf("scan column info: %w", err)
		}
		if name == column {
			found = true
		}
	}
	return found, rows.Err()
}
