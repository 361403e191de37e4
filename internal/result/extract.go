// Package result recovers the single structured value a worker prints on stdout.
//
// The worker is expected to log progress on stderr and print exactly one JSON
// line on stdout as its last act. It is not fully under our control, so
// extraction runs an ordered chain of parsers with decreasing confidence:
//
//  1. LastLine: the last non-empty line parsed as JSON.
//  2. SuccessObject: the first {"success": true ...} object found in the text.
//  3. SuccessFallback: a synthetic success carrying the raw text.
//
// The first parser that succeeds wins. When none does, Extract fails with an
// UnparseableResult error that quotes a bounded excerpt of the output.
package result

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	bridgeerrors "enginebridge/cli/internal/errors"
)

// SuccessMarker is the substring that identifies a successful result object.
const SuccessMarker = `"success": true`

// excerptLimit bounds the output quoted in parse-failure errors, in runes.
const excerptLimit = 200

var reSuccessObject = regexp.MustCompile(`\{"success": true.*\}`)

// Extract returns the worker's result value from its accumulated stdout.
func Extract(stdout string) (any, error) {
	v, err := LastLine(stdout)
	if err == nil {
		return v, nil
	}
	if v, ok := SuccessObject(stdout); ok {
		return v, nil
	}
	if v, ok := SuccessFallback(stdout); ok {
		return v, nil
	}
	return nil, bridgeerrors.Wrap(bridgeerrors.UnparseableResult,
		fmt.Sprintf("failed to parse result from %q", Excerpt(stdout, excerptLimit)), err)
}

// LastLine parses the last non-empty line of text as JSON.
func LastLine(text string) (any, error) {
	last := ""
	for _, line := range strings.Split(text, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			last = l
		}
	}
	var v any
	if err := json.Unmarshal([]byte(last), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// SuccessObject looks for the first {"success": true ...} object in text.
// The match is greedy to the last closing brace on the same line.
func SuccessObject(text string) (map[string]any, bool) {
	if !strings.Contains(text, SuccessMarker) {
		return nil, false
	}
	m := reSuccessObject.FindString(text)
	if m == "" {
		return nil, false
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(m), &v); err != nil {
		return nil, false
	}
	return v, true
}

// SuccessFallback reports a degraded success when the marker is present but no
// object could be decoded. The whole text becomes the message.
func SuccessFallback(text string) (map[string]any, bool) {
	if !strings.Contains(text, SuccessMarker) {
		return nil, false
	}
	return map[string]any{"success": true, "message": text}, true
}

// Excerpt returns at most limit runes from the end of the trimmed text, since
// noise usually trails the output.
func Excerpt(text string, limit int) string {
	t := strings.TrimSpace(text)
	if utf8.RuneCountInString(t) <= limit {
		return t
	}
	r := []rune(t)
	return "..." + string(r[len(r)-limit:])
}
