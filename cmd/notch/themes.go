package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/theme"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List available surface themes",
	Long: `List the bundled themes and the user themes in ~/.config/notchd/themes.

A user theme with the same name as a bundled theme overrides it. Select a
theme with 'notch config set theme.name <name>'.`,
	Args: cobra.NoArgs,
	RunE: runThemes,
}

func init() {
	rootCmd.AddCommand(themesCmd)
}

func runThemes(cmd *cobra.Command, args []string) error {
	dir, err := theme.ThemesDir()
	if err != nil {
		dir = ""
	}
	themes, err := theme.List(dir)
	if err != nil {
		return err
	}

	current := theme.DefaultThemeName
	if cfg, err := config.LoadDaemonConfig(configPath()); err == nil && cfg.Theme.Name != "" {
		current = cfg.Theme.Name
	}

	for _, t := range themes {
		mark := " "
		if t.Name == current {
			mark = "*"
		}
		source := t.Path
		if t.Bundled() {
			source = "bundled"
		}
		fmt.Printf("%s %-16s %s\n", mark, t.Name, source)
	}
	return nil
}
