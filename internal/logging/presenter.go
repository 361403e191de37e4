// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"io"
	"strings"

	bridgeerrors "enginebridge/cli/internal/errors"

	"github.com/pterm/pterm"
)

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Mask(err.Error())
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// FormatInvocationError renders a failed invocation as a titled explanation
// keyed on the error kind, followed by the masked technical details.
func FormatInvocationError(action string, err error) string {
	if bridgeerrors.KindOf(err) == bridgeerrors.TransportFailed {
		return FormatTransportError(err.Error())
	}

	var builder strings.Builder

	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Engine Failed"))
	builder.WriteString("\n\n")

	switch bridgeerrors.KindOf(err) {
	case bridgeerrors.SpawnFailed:
		builder.WriteString("The engine could not be started.\n")
		builder.WriteString("Check that:\n")
		builder.WriteString("  • the engine directory or Python script path in config.yaml is correct\n")
		builder.WriteString("  • the interpreter or packaged binary is installed and executable\n")
	case bridgeerrors.NonZeroExit:
		var e *bridgeerrors.E
		bridgeerrors.As(err, &e)
		builder.WriteString(fmt.Sprintf("The engine exited with code %d while running %s.\n", e.ExitCode, action))
		if tail := lastLines(e.Stderr, 5); tail != "" {
			builder.WriteString("Last engine output:\n")
			builder.WriteString(Mask(tail))
			builder.WriteString("\n")
		}
	case bridgeerrors.UnparseableResult:
		builder.WriteString("The engine finished but did not print a readable result.\n")
	case bridgeerrors.Canceled:
		builder.WriteString("The engine run was canceled before it finished.\n")
	case bridgeerrors.InvalidRequest:
		builder.WriteString("The request was rejected before the engine was started.\n")
	default:
		builder.WriteString("The engine run was interrupted.\n")
	}

	builder.WriteString("\n")
	builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))
	return builder.String()
}

// PresentInvocationError prints a formatted invocation failure to w.
func PresentInvocationError(w io.Writer, action string, err error) {
	pterm.Fprintln(w)
	pterm.Fprintln(w, FormatInvocationError(action, err))
	pterm.Fprintln(w)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\r\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
