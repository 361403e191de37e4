// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides the bridge's diagnostic logger and utilities for
// secure logging and error presentation. It masks sensitive values such as
// tokens, passwords and e-mail addresses before they reach a log line or the
// terminal, and formats invocation failures for user-friendly display.
package logging

import (
	"regexp"
	"strings"
)

var (
	rePassword = regexp.MustCompile(`(?i)(password=)([^\s;]+)`)
	reToken    = regexp.MustCompile(`(?i)(token=|bearer\s+)([A-Za-z0-9._-]+)`)
	reAPIKey   = regexp.MustCompile(`(?i)(apikey=|api_key=)([^\s;]+)`)
	reEmail    = regexp.MustCompile(`([A-Za-z0-9._%+-])[A-Za-z0-9._%+-]*(@[A-Za-z0-9.-]+\.[A-Za-z]{2,})`)
	reJSONKey  = regexp.MustCompile(`(?i)("(?:password|token|apikey|api_key|birthDate)"\s*:\s*")([^"]*)(")`)
)

// Mask replaces sensitive values in the input string with "*".
// E-mail local parts keep their first character.
func Mask(s string) string {
	out := s
	out = rePassword.ReplaceAllString(out, "$1***")
	out = reToken.ReplaceAllString(out, "$1***")
	out = reAPIKey.ReplaceAllString(out, "$1***")
	out = reJSONKey.ReplaceAllString(out, "$1***$3")
	out = reEmail.ReplaceAllString(out, "$1***$2")
	for _, k := range []string{"ACCESS_TOKEN", "API_KEY"} {
		out = strings.ReplaceAll(out, k+"=", k+"=***")
	}
	return out
}

// MaskArgs masks each element of a command line.
func MaskArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = Mask(a)
	}
	return out
}
