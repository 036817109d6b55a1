package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stickfixbot/stickfix/internal/config"
	"github.com/stickfixbot/stickfix/internal/storage/factory"
)

var initAPIKey string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the database and config file",
	Long: `Creates the database (schema plus the shared public user), writes a
starter stickfix.yaml when none exists, and optionally stores the Telegram
API key.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initAPIKey, "api-key", "", "Telegram bot API key to store in the database")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	path := configPath
	if path == "" {
		path = config.DefaultPath
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	store, err := factory.New(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if initAPIKey != "" {
		if err := store.PutAPIKey(ctx, initAPIKey); err != nil {
			return fmt.Errorf("store API key: %w", err)
		}
	}

	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Printf("\n%s stickfix initialized successfully!\n\n", green("✓"))
	fmt.Printf("  Config:   %s\n", cyan(path))
	fmt.Printf("  Database: %s (%s)\n", cyan(cfg.Database.URL), cfg.Database.Driver)
	if initAPIKey != "" {
		fmt.Printf("  API key:  stored\n")
	} else {
		fmt.Printf("  API key:  not set (run %s)\n", cyan("stickfix apikey set <key>"))
	}
	fmt.Printf("\nRun %s to start the bot.\n\n", cyan("stickfix serve"))
	return nil
}
