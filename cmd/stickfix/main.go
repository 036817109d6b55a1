// Command stickfix runs the StickFix Telegram sticker bot.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/stickfixbot/stickfix/internal/config"
)

var (
	configPath  string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "stickfix",
	Short: "stickfix - Telegram sticker tagging bot",
	Long: `StickFix lets Telegram users save stickers under text tags and recall
them later. Users register through a /start dialog, manage private and
shuffle modes, and tag stickers by replying to them with /add.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Handle --version flag on root command
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("stickfix version %s (%s)\n", Version, Build)
			return
		}
		// No subcommand - show help
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: stickfix.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")

	// Add --version flag to root command (same behavior as version subcommand)
	rootCmd.Flags().BoolP("version", "V", false, "Print version information")
}

// newLogger builds the process logger. --verbose wins over the configured
// level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.LogLevel()
	if verboseFlag {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
