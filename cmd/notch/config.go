package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notchd/internal/config"
)

// configCmd represents the config command group.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and change the daemon configuration",
	Long: `Read and change ~/.config/notchd/notchd.toml.

Keys use "section.key" form, for example display.show_on_all_displays
or timing.auto_close. notchd reloads the file when it changes; backend
and peek.osd_capture take effect after a restart.`,
	Args: cobra.NoArgs,
	RunE: configListRun,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadDaemonConfig(configPath())
		if err != nil {
			return err
		}
		v, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a configuration value",
	Long: `Change a configuration value. Values are parsed as TOML, falling back
to a plain string, and the resulting configuration is validated before it
is written.

Examples:
  notch config set display.show_on_all_displays true
  notch config set timing.auto_close 5s
  notch config set peek.style inline`,
	Args: cobra.ExactArgs(2),
	RunE: configSetRun,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(configPath())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func configPath() string {
	if globalOpts.configPath != "" {
		return globalOpts.configPath
	}
	return config.ConfigPath()
}

func configListRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDaemonConfig(configPath())
	if err != nil {
		return err
	}
	keys, err := cfg.Keys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", key, v)
	}
	return nil
}

func configSetRun(cmd *cobra.Command, args []string) error {
	path := configPath()
	cfg, err := config.LoadDaemonConfig(path)
	if err != nil {
		return err
	}
	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := config.SaveDaemonConfig(cfg, path); err != nil {
		return err
	}
	logger.Debug("config updated", "key", args[0], "path", path)
	return nil
}
