// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the Enginebridge CLI.
// It implements subcommands that drive the external engine through the
// command gateway, either locally or via a remote `enginebridge serve`,
// using the Cobra CLI framework. The package renders the live engine log
// with a spinner and reports outcomes and failures in the terminal.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"enginebridge/cli/internal/config"
	"enginebridge/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	showVersion bool

	configPath string
	modeFlag   string
	engineDir  string
	pythonPath string
	remoteAddr string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "enginebridge",
	Short: "Run engine actions from the command line",
	Long: `Enginebridge launches the external engine for one action at a time, streams its
log while it runs and prints the structured result it reports.

Actions run locally by default. With --addr they are sent to a bridge started
elsewhere with 'enginebridge serve'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("enginebridge %s\n", Version)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application. Interrupts cancel the running action,
// which stops the engine process.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		reportError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// presentedError marks a failure that a command already explained in full.
type presentedError struct{ err error }

func (e *presentedError) Error() string { return e.err.Error() }
func (e *presentedError) Unwrap() error { return e.err }

// presented wraps err so that Execute does not print it again.
func presented(err error) error {
	if err == nil {
		return nil
	}
	return &presentedError{err: err}
}

// reportError prints err unless a command already presented it.
func reportError(w io.Writer, err error) {
	var p *presentedError
	if errors.As(err, &p) {
		return
	}
	fmt.Fprintln(w, logging.PresentError("", err))
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to config.yaml (default: XDG config dir)")
	pf.StringVar(&modeFlag, "mode", "", "Engine launch mode: packaged or development")
	pf.StringVar(&engineDir, "engine-dir", "", "Directory of the packaged engine")
	pf.StringVar(&pythonPath, "python", "", "Python interpreter for development mode")
	pf.StringVar(&remoteAddr, "addr", "", "Send actions to a remote 'enginebridge serve' at this address")
	pf.BoolVar(&verbose, "verbose", false, "Enable debug logging to stderr")
}

// loadConfig reads the config file, then applies flag overrides.
func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}
	if modeFlag != "" {
		cfg.Mode = config.Mode(modeFlag)
	}
	if engineDir != "" {
		cfg.Engine.Dir = engineDir
	}
	if pythonPath != "" {
		cfg.Engine.Python = pythonPath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

// newLogger returns the diagnostic logger; stdout stays free for results.
func newLogger(cfg config.Config) *pterm.Logger {
	return logging.New(cfg.LogLevel, os.Stderr)
}
