package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stickfixbot/stickfix/internal/config"
	"github.com/stickfixbot/stickfix/internal/storage"
	"github.com/stickfixbot/stickfix/internal/storage/factory"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage the Telegram API key stored in the database",
}

var apikeySetCmd = &cobra.Command{
	Use:   "set <key>",
	Short: "Store the Telegram API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIKeySet,
}

var apikeyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored Telegram API key",
	RunE:  runAPIKeyShow,
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeySetCmd)
	apikeyCmd.AddCommand(apikeyShowCmd)
}

// openConfiguredStore opens the persistent store named by the config file.
func openConfiguredStore(cmd *cobra.Command) (storage.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return factory.New(cmd.Context(), cfg.Database.Driver, cfg.Database.URL)
}

func runAPIKeySet(cmd *cobra.Command, args []string) error {
	store, err := openConfiguredStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.PutAPIKey(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("store API key: %w", err)
	}
	fmt.Println("API key stored.")
	return nil
}

func runAPIKeyShow(cmd *cobra.Command, args []string) error {
	store, err := openConfiguredStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	key, err := store.APIKey(cmd.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNoAPIKey) {
			return fmt.Errorf("no API key stored (run 'stickfix apikey set <key>')")
		}
		return err
	}
	fmt.Println(key)
	return nil
}
