// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"os"

	"enginebridge/cli/internal/config"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var configForce bool

// configCmd groups access to the config file.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the config file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective settings, flags included, to the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveConfigPath()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := writeConfig(p, cfg, configForce); err != nil {
			return err
		}
		pterm.Fprintln(cmd.ErrOrStderr(), pterm.Success.Sprintf("Wrote %s", p))
		return nil
	},
}

// resolveConfigPath honours --config before the XDG default.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.Path()
}

// writeConfig saves cfg to p. An existing file is kept unless force is set.
func writeConfig(p string, cfg config.Config, force bool) error {
	if !force {
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", p)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return config.Save(p, cfg)
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configPathCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
