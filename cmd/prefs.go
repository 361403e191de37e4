// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"enginebridge/cli/internal/prefs"

	"github.com/spf13/cobra"
)

// prefsCmd groups access to the stored preferences record.
var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change stored preferences",
}

var prefsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the preferences record as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := prefs.Open()
		if err != nil {
			return err
		}
		r, err := store.Get()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set key=value...",
	Short: "Set preference fields; values are parsed as JSON when possible",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := prefs.Open()
		if err != nil {
			return err
		}
		r, err := store.Get()
		if err != nil {
			return err
		}
		for _, kv := range args {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || strings.TrimSpace(k) == "" {
				return fmt.Errorf("invalid argument %q, want key=value", kv)
			}
			r[strings.TrimSpace(k)] = prefValue(v)
		}
		return store.Set(r)
	},
}

// prefValue keeps numbers, booleans and objects typed; anything else is a string.
func prefValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

func init() {
	prefsCmd.AddCommand(prefsGetCmd, prefsSetCmd)
	rootCmd.AddCommand(prefsCmd)
}
