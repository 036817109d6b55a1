// Package factory creates storage backends by driver name.
package factory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/stickfixbot/stickfix/internal/storage"
)

// Backend is a constructor for a named storage backend.
type Backend func(ctx context.Context, url string) (storage.Store, error)

// registry holds the registered backend constructors.
var registry = make(map[string]Backend)

// RegisterBackend makes a backend constructor available under a driver name.
func RegisterBackend(name string, b Backend) {
	registry[name] = b
}

// New opens the backend registered under the given driver name. An empty
// name selects the default driver.
func New(ctx context.Context, driver, url string) (storage.Store, error) {
	if driver == "" {
		driver = DefaultDriver
	}
	b, ok := registry[driver]
	if !ok {
		return nil, fmt.Errorf("unknown storage driver: %s (supported: %s)",
			driver, strings.Join(Drivers(), ", "))
	}
	return b(ctx, url)
}

// Drivers lists the registered driver names, sorted.
func Drivers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
