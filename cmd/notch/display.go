package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/core"
	"github.com/jmylchreest/notchd/internal/store"
)

// displayCmd represents the display command group.
var displayCmd = &cobra.Command{
	Use:   "display",
	Short: "Manage the preferred display",
	Long: `Manage the display that hosts the surface when it is not shown on
every display.

The preference is stored by stable identity, so it follows the monitor
across connectors and reboots. notchd picks up changes immediately.

Use 'notch display' to show the current preference.
Use 'notch display use <identity|index|connector|name>' to change it.
Use 'notch display reset' to fall back to the primary display.`,
	Args: cobra.NoArgs,
	RunE: displayShowRun,
}

var displayUseCmd = &cobra.Command{
	Use:   "use <identity|index|connector|name|->",
	Short: "Set the preferred display",
	Long: `Set the preferred display.

An identity is used as is. An index from 'notch displays --format dmenu',
a connector (DP-1) or a display name is resolved against the running
daemon's topology. With "-" the selection is read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: displayUseRun,
}

var displayResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the preferred display",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := stateStore().SetPreferredDisplay(""); err != nil {
			return err
		}
		fmt.Println("Preferred display: primary")
		return nil
	},
}

func init() {
	displayCmd.AddCommand(displayUseCmd)
	displayCmd.AddCommand(displayResetCmd)
	rootCmd.AddCommand(displayCmd)
}

func stateStore() *store.StateStore {
	path := globalOpts.statePath
	if path == "" {
		path = config.StatePath()
	}
	return store.NewStateStore(path)
}

func displayShowRun(cmd *cobra.Command, args []string) error {
	id, legacy, err := stateStore().PreferredDisplay()
	if err != nil {
		return err
	}
	switch {
	case id != "":
		fmt.Println("Preferred display:", id)
	case legacy != "":
		fmt.Printf("Preferred display: %s (not yet migrated)\n", legacy)
	default:
		fmt.Println("Preferred display: primary")
	}
	return nil
}

func displayUseRun(cmd *cobra.Command, args []string) error {
	query := args[0]
	if query == "-" {
		line, err := readLine(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		query = line
	}

	// Identities are stored as is so a disconnected display can be selected.
	id := core.ExtractIdentity(query)
	if id == "" {
		st, err := fetchStatus()
		if err != nil {
			return fmt.Errorf("%q is not an identity and the daemon could not resolve it: %w", query, err)
		}
		d, err := core.LookupDisplay(st.Displays, query)
		if err != nil {
			return err
		}
		id = d.Identity
	}

	if err := config.EnsureDataDir(); err != nil {
		return err
	}
	if err := stateStore().SetPreferredDisplay(id); err != nil {
		return err
	}
	fmt.Println("Preferred display:", id)
	return nil
}

// readLine returns the first non-empty line of r.
func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errors.New("no selection")
}
