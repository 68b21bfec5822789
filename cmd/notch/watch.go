package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notchd/internal/tui"
)

var watchOpts struct {
	interval time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Launch the live status view",
	Long: `Launch the interactive terminal view of the running daemon.

Key bindings:
  t, enter    Toggle the surface under the pointer
  tab, l      Next tab
  shift+tab   Previous tab
  p           Toggle the music peek
  c           Clear the peek
  r           Reconcile displays
  y           Copy the status as YAML
  ?           Show help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchOpts.interval, "interval", tui.DefaultRefreshInterval,
		"Status refresh interval")
}

func runWatch(cmd *cobra.Command, args []string) error {
	c, err := client()
	if err != nil {
		return err
	}
	return tui.Run(c, watchOpts.interval)
}
