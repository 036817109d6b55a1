package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stickfixbot/stickfix/internal/bot"
	"github.com/stickfixbot/stickfix/internal/config"
	"github.com/stickfixbot/stickfix/internal/storage"
	"github.com/stickfixbot/stickfix/internal/storage/ephemeral"
	"github.com/stickfixbot/stickfix/internal/storage/factory"
	"github.com/stickfixbot/stickfix/internal/telegram"
	"github.com/stickfixbot/stickfix/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot (foreground)",
	Long: `Connects to Telegram with the API key stored in the database and serves
updates until SIGINT or SIGTERM.

Run 'stickfix init' once before the first start, and store an API key with
'stickfix apikey set <key>' or 'stickfix init --api-key <key>'.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Set up context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	tel, err := telemetry.Init(ctx, telemetry.ServiceInfo{Name: "stickfix", Version: Version})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tel.Shutdown(flushCtx)
	}()

	store, err := factory.New(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = store.Close() }()
	persistent := telemetry.WrapStore(store)

	key, err := persistent.APIKey(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNoAPIKey) {
			return fmt.Errorf("telegram API key required (store one with 'stickfix apikey set <key>')")
		}
		return fmt.Errorf("read API key: %w", err)
	}

	pending, err := ephemeral.New(ctx)
	if err != nil {
		return fmt.Errorf("open pending store: %w", err)
	}
	defer func() { _ = pending.Close() }()

	transport, err := telegram.Connect(ctx, key, telegram.Options{PollTimeout: cfg.Telegram.PollTimeout}, log)
	if err != nil {
		return err
	}
	transport.Bind(bot.New(persistent, pending, transport, log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return transport.Run(ctx)
	})
	g.Go(func() error {
		return pending.RunEvictor(ctx, cfg.Eviction.Interval, cfg.Eviction.Threshold, log)
	})

	log.Info("stickfix is running",
		"driver", cfg.Database.Driver,
		"database", cfg.Database.URL)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("stickfix stopped")
	return nil
}
