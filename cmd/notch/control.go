package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notchd/internal/model"
)

var toggleOpts struct {
	x, y int
}

var peekOpts struct {
	icon     string
	duration time.Duration
}

var expandOpts struct {
	hide   bool
	value  float64
	source string
	toggle bool
}

// toggleCmd toggles a surface.
var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle the surface under the pointer",
	Long: `Toggle the surface on the display under the pointer.

When the backend cannot report the pointer position, the surface on the
preferred display is toggled. Use --x and --y to toggle the surface at a global position.`,
	Args: cobra.NoArgs,
	RunE: runToggle,
}

// peekCmd shows a peek.
var peekCmd = &cobra.Command{
	Use:   "peek <kind> [value]",
	Short: "Show a short-lived peek",
	Long: `Show a short-lived peek on every surface.

Kinds: music, brightness, volume, backlight, mic, battery, download.
Values are fractions between 0 and 1, or percentages with a trailing %.

Examples:
  notch peek volume 0.45
  notch peek brightness 80%
  notch peek music --icon audio-x-generic --duration 3s`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPeek,
}

var peekClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Hide the current peek",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		return c.ClearPeek()
	},
}

var peekToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle the music peek",
	Long:  `Hide the peek if one is visible, otherwise show the music peek.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		return c.TogglePeek()
	},
}

var peekPayloadCmd = &cobra.Command{
	Use:   "payload [json]",
	Short: "Send a raw JSON peek payload",
	Long: `Send a raw JSON payload such as {"type":"volume","value":0.4}.

With no argument the payload is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPeekPayload,
}

// expandCmd drives the expanded overlay.
var expandCmd = &cobra.Command{
	Use:   "expand <kind>",
	Short: "Show or hide the expanded overlay",
	Long: `Show or hide the expanded overlay. It stays until hidden.

Examples:
  notch expand download --value 0.3 --source firefox
  notch expand download --hide
  notch expand music --toggle`,
	Args: cobra.ExactArgs(1),
	RunE: runExpand,
}

// tabCmd selects the open surface tab.
var tabCmd = &cobra.Command{
	Use:       "tab <home|calendar|shelf|next|prev>",
	Short:     "Select the tab shown by open surfaces",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"home", "calendar", "shelf", "next", "prev"},
	RunE:      runTab,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Re-read the display topology",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		return c.Reconcile()
	},
}

func init() {
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(peekCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(tabCmd)
	rootCmd.AddCommand(reconcileCmd)

	peekCmd.AddCommand(peekClearCmd)
	peekCmd.AddCommand(peekToggleCmd)
	peekCmd.AddCommand(peekPayloadCmd)

	toggleCmd.Flags().IntVar(&toggleOpts.x, "x", 0, "Global X position")
	toggleCmd.Flags().IntVar(&toggleOpts.y, "y", 0, "Global Y position")

	peekCmd.Flags().StringVar(&peekOpts.icon, "icon", "", "Icon name")
	peekCmd.Flags().DurationVar(&peekOpts.duration, "duration", 0,
		"How long the peek stays visible (default: daemon setting)")

	expandCmd.Flags().BoolVar(&expandOpts.hide, "hide", false, "Hide the expanded overlay")
	expandCmd.Flags().Float64Var(&expandOpts.value, "value", 0, "Progress value between 0 and 1")
	expandCmd.Flags().StringVar(&expandOpts.source, "source", "", "Source label")
	expandCmd.Flags().BoolVar(&expandOpts.toggle, "toggle", false, "Flip the expanded overlay")
	expandCmd.MarkFlagsMutuallyExclusive("hide", "toggle")
}

func runToggle(cmd *cobra.Command, args []string) error {
	c, err := client()
	if err != nil {
		return err
	}

	var id model.DisplayIdentity
	if cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
		id, err = c.ToggleAt(model.Point{X: toggleOpts.x, Y: toggleOpts.y})
	} else {
		id, err = c.Toggle()
	}
	if err != nil {
		return err
	}
	if id == "" {
		fmt.Println("No surface toggled")
		return nil
	}
	fmt.Println(id)
	return nil
}

func runPeek(cmd *cobra.Command, args []string) error {
	kind, ok := model.ParsePeekKind(args[0])
	if !ok {
		return fmt.Errorf("unknown peek kind %q", args[0])
	}

	var value float64
	if len(args) > 1 {
		v, err := parseLevel(args[1])
		if err != nil {
			return err
		}
		value = v
	}

	c, err := client()
	if err != nil {
		return err
	}
	shown, err := c.Peek(kind, value, peekOpts.icon, peekOpts.duration)
	if err != nil {
		return err
	}
	if !shown {
		fmt.Fprintln(os.Stderr, "Peek suppressed")
	}
	return nil
}

func runPeekPayload(cmd *cobra.Command, args []string) error {
	var payload string
	if len(args) == 1 {
		payload = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		payload = string(data)
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return errors.New("empty payload")
	}

	c, err := client()
	if err != nil {
		return err
	}
	applied, err := c.PeekPayload(payload)
	if err != nil {
		return err
	}
	if !applied {
		fmt.Fprintln(os.Stderr, "Payload ignored")
	}
	return nil
}

func runExpand(cmd *cobra.Command, args []string) error {
	kind, ok := model.ParsePeekKind(args[0])
	if !ok {
		return fmt.Errorf("unknown kind %q", args[0])
	}

	c, err := client()
	if err != nil {
		return err
	}
	if expandOpts.toggle {
		return c.ToggleExpanded(kind)
	}
	return c.Expand(kind, !expandOpts.hide, expandOpts.value, expandOpts.source)
}

func runTab(cmd *cobra.Command, args []string) error {
	c, err := client()
	if err != nil {
		return err
	}

	arg := strings.ToLower(args[0])
	tab, ok := model.ParseTab(arg)
	if !ok {
		if arg != "next" && arg != "prev" {
			return fmt.Errorf("unknown tab %q", args[0])
		}
		status, err := c.Status()
		if err != nil {
			return err
		}
		tab = status.Tab.Next()
		if arg == "prev" {
			tab = status.Tab.Prev()
		}
	}
	if err := c.SetTab(tab); err != nil {
		return err
	}
	fmt.Println(tab)
	return nil
}

// parseLevel parses "0.4", "40%" or "40" into a fraction clamped to [0, 1].
func parseLevel(s string) (float64, error) {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	if percent || v > 1 {
		v /= 100
	}
	return min(max(v, 0), 1), nil
}
