package factory

import (
	"context"

	"github.com/stickfixbot/stickfix/internal/storage"
	"github.com/stickfixbot/stickfix/internal/storage/sqlstore"
)

// DefaultDriver is used when the config leaves database.driver empty.
const DefaultDriver = "sqlite"

// Both drivers are served by the same sqlstore core; the dialect handles
// their divergences.
func init() {
	RegisterBackend("sqlite", func(ctx context.Context, url string) (storage.Store, error) {
		return sqlstore.Open(ctx, "sqlite", url)
	})
	RegisterBackend("mysql", func(ctx context.Context, url string) (storage.Store, error) {
		return sqlstore.Open(ctx, "mysql", url)
	})
}
