package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notchd/internal/adapter/output"
	"github.com/jmylchreest/notchd/internal/dbus"
)

var statusOpts struct {
	format   string
	template string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon status",
	Long: `Show the daemon status: session lock, peek, expanded overlay, tab and
every live surface.

Formats:
  text    Human readable summary (default)
  json    The raw status document
  yaml    The status document as YAML
  waybar  A Waybar custom module object

Waybar module:

  "custom/notch": {
    "exec": "notch status --format waybar",
    "interval": 1,
    "return-type": "json",
    "on-click": "notch toggle"
  }`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var displaysCmd = &cobra.Command{
	Use:   "displays",
	Short: "List the displays of the current topology",
	Long: `List the displays the daemon currently sees, with their stable
identities.

Formats:
  text   One line per display (default)
  json   The display array
  yaml   The display list as YAML
  ids    Identities only, one per line
  dmenu  Picker lines for fuzzel, rofi or dmenu

Examples:
  # Pick the preferred display interactively
  notch displays --format dmenu | fuzzel --dmenu | notch display use -

  # Custom line format
  notch displays --template '{{.Index}} {{.Display.Handle}} {{.Marks}}'`,
	Args: cobra.NoArgs,
	RunE: runDisplays,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(displaysCmd)

	for _, cmd := range []*cobra.Command{statusCmd, displaysCmd} {
		cmd.Flags().StringVarP(&statusOpts.format, "format", "f", string(output.FormatText),
			"Output format")
	}
	displaysCmd.Flags().StringVar(&statusOpts.template, "template", "",
		"Go template for text and dmenu lines")
}

func fetchStatus() (*dbus.StatusReply, error) {
	c, err := client()
	if err != nil {
		return nil, err
	}
	return c.Status()
}

func runStatus(cmd *cobra.Command, args []string) error {
	return printStatus(output.DefaultFormatterOptions())
}

func runDisplays(cmd *cobra.Command, args []string) error {
	opts := output.DefaultFormatterOptions()
	opts.Displays = true
	opts.Template = statusOpts.template
	return printStatus(opts)
}

func printStatus(opts output.FormatterOptions) error {
	formatter, err := output.NewFormatter(output.FormatType(statusOpts.format), opts)
	if err != nil {
		return err
	}
	st, err := fetchStatus()
	if err != nil {
		return err
	}
	return formatter.Format(os.Stdout, st)
}
