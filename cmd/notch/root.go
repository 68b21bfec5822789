// Package main provides the notch CLI for controlling a running notchd.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notchd/internal/dbus"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global options and state
var (
	globalOpts struct {
		verbose    bool
		configPath string
		statePath  string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "notch",
	Short: "Control the notchd overlay daemon",
	Long: `notch controls a running notchd daemon over the session bus.

It toggles surfaces, drives peeks and the expanded overlay, switches
tabs, selects the preferred display and edits the daemon configuration.

Running notch without a subcommand launches the live status view.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
	// Default to the watch view when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd, args)
	},
}

func main() {
	Execute()
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, dbus.ErrDaemonNotRunning) {
			fmt.Fprintln(os.Stderr, "notchd is not running")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/notchd/notchd.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.statePath, "state-file", "",
		"Path to state file (default: ~/.local/share/notchd/state.json)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// client connects to the daemon's control service.
func client() (*dbus.Client, error) {
	c, err := dbus.NewClient()
	if err != nil {
		return nil, err
	}
	logger.Debug("connected to session bus")
	return c, nil
}
