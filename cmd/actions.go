// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"

	"enginebridge/cli/internal/bridge/model"
	"enginebridge/cli/internal/logging"
	"enginebridge/cli/internal/prefs"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	verifyPayload   payloadFlags
	generatePayload payloadFlags
	printResultJSON bool
)

// verifyCmd runs the verify action with a form payload.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run the verify action with a form payload",
	Long: `The verify command passes the payload to the engine's verify action unchanged,
streams the engine log while it runs and reports the result the engine prints.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := verifyPayload.build(cmd.InOrStdin())
		if err != nil {
			return err
		}
		return runFormAction(cmd, model.ActionVerify, payload)
	},
}

// generateCmd runs the generate_docs action with a form payload.
var generateCmd = &cobra.Command{
	Use:     "generate-docs",
	Aliases: []string{"generate"},
	Short:   "Run the generate_docs action with a form payload",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := generatePayload.build(cmd.InOrStdin())
		if err != nil {
			return err
		}
		return runFormAction(cmd, model.ActionGenerateDocs, payload)
	},
}

// runFormAction drives one payload-carrying action and reports its outcome
// through the same log feed the engine writes to.
func runFormAction(cmd *cobra.Command, action model.Action, payload map[string]any) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	// Log lines go to stderr so that stdout carries only the result.
	session := newLogSession(cmd.ErrOrStderr(), "Running "+string(action))
	gw, closeGW, err := openGateway(cfg, session)
	if err != nil {
		return err
	}
	defer closeGW()

	session.Start()
	session.Push("Starting...")

	var out *model.Outcome
	switch action {
	case model.ActionVerify:
		out, err = gw.StartVerify(cmd.Context(), payload)
	default:
		out, err = gw.GenerateDocs(cmd.Context(), payload)
	}

	if err != nil {
		session.Push("SYS ERROR: " + logging.Mask(err.Error()))
		session.Stop()
		logging.PresentInvocationError(cmd.ErrOrStderr(), string(action), err)
		return presented(err)
	}

	bumpUsage(log)
	session.Push(summary(action, out))
	session.Stop()

	if printResultJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out.Raw); err != nil {
			return err
		}
	} else {
		for _, f := range out.Files() {
			pterm.Fprintln(cmd.OutOrStdout(), pterm.NewStyle(pterm.FgLightCyan).Sprint("→ ")+f)
		}
	}
	if !out.Success() {
		return fmt.Errorf("%s reported failure: %s", action, out.Message())
	}
	return nil
}

// summary is the closing log line for a finished action.
func summary(action model.Action, out *model.Outcome) string {
	if action == model.ActionGenerateDocs {
		if out.Success() {
			return fmt.Sprintf("SUCCESS! Saved %d files", len(out.Files()))
		}
		return "FAILED: " + out.Message()
	}
	if out.Success() {
		return "SUCCESS! Verif Pending."
	}
	return "FAILED: " + out.Message()
}

// bumpUsage counts a completed action. Failures only warn.
func bumpUsage(log *pterm.Logger) {
	store, err := prefs.Open()
	if err == nil {
		_, err = store.IncrementUsage()
	}
	if err != nil {
		log.Warn("could not update preferences", log.Args("error", err))
	}
}

func init() {
	verifyPayload.register(verifyCmd)
	generatePayload.register(generateCmd)
	for _, c := range []*cobra.Command{verifyCmd, generateCmd} {
		c.Flags().BoolVar(&printResultJSON, "json", false, "Print the engine result as JSON")
		rootCmd.AddCommand(c)
	}
}
