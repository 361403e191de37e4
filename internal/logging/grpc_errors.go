// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"strings"

	"github.com/pterm/pterm"
)

// GRPCErrorType represents the category of a remote gateway failure
type GRPCErrorType int

const (
	GRPCErrorUnknown GRPCErrorType = iota
	GRPCErrorNetwork
	GRPCErrorTimeout
	GRPCErrorInternal
	GRPCErrorUnavailable
)

// ParseGRPCError categorizes a gRPC error message
func ParseGRPCError(errMsg string) GRPCErrorType {
	lower := strings.ToLower(errMsg)

	if strings.Contains(lower, "rst_stream") || strings.Contains(lower, "connection reset") {
		return GRPCErrorNetwork
	}
	if strings.Contains(lower, "internal_error") || strings.Contains(lower, "code = internal") {
		return GRPCErrorInternal
	}
	if strings.Contains(lower, "unavailable") || strings.Contains(lower, "connection refused") {
		return GRPCErrorUnavailable
	}
	if strings.Contains(lower, "deadline") || strings.Contains(lower, "timeout") {
		return GRPCErrorTimeout
	}

	return GRPCErrorUnknown
}

// FormatTransportError explains a failed connection to `enginebridge serve`.
func FormatTransportError(errMsg string) string {
	var builder strings.Builder

	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Connection Lost"))
	builder.WriteString("\n\n")

	switch ParseGRPCError(errMsg) {
	case GRPCErrorNetwork:
		builder.WriteString("The connection to the bridge server was interrupted unexpectedly.\n")
		builder.WriteString("This usually happens when the server was restarted or a proxy closed the connection.\n")
	case GRPCErrorInternal:
		builder.WriteString("The bridge server hit an internal error while handling the request.\n")
	case GRPCErrorUnavailable:
		builder.WriteString("The bridge server is not reachable.\n")
		builder.WriteString("Start it with 'enginebridge serve' or check the --addr value.\n")
	case GRPCErrorTimeout:
		builder.WriteString("The bridge server did not answer in time.\n")
	default:
		builder.WriteString("The remote invocation was interrupted.\n")
	}

	builder.WriteString("\n")
	builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please try the command again"))
	builder.WriteString("\n")

	if strings.TrimSpace(errMsg) != "" {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(errMsg)))
	}

	return builder.String()
}
