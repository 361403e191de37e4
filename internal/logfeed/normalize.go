// Package logfeed turns raw worker output lines into the log history shown to
// the user. Normalize rewrites or suppresses a single line; Feed keeps the
// ordered, append-only entry sequence for one invocation and drops lines that
// repeat the previous entry; Renderer prints entries to the console.
//
// Normalization never fails. A line that claims to carry structured detail
// but cannot be decoded degrades to a shortened raw message.
package logfeed

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var severityTags = []*regexp.Regexp{
	regexp.MustCompile(`^\[INFO\]\s*`),
	regexp.MustCompile(`^\[ERROR\]\s*`),
	regexp.MustCompile(`^\[WARNING\]\s*`),
}

// Markers that drop a line entirely.
const (
	bulkDataPrefix      = `[{"id":`
	httpClientMarker    = "HTTP Request"
	autoExtractedMarker = "Auto-extracted"
	successMarker       = `"success": true`
	filesMarker         = `"files":`
	startingMarker      = "Starting verification for"
	failedStatusMarker  = "Failed (Status"
)

// prefixLabels relabels known worker prefixes, checked in order.
var prefixLabels = []struct{ from, to string }{
	{"Teacher Info:", "Name:"},
	{"Email:", "Email:"},
	{"School:", "School:"},
	{"DOB:", "DOB:"},
	{"Verification ID:", "ID:"},
	{"Backup:", "Saved:"},
}

// stepLabels replaces worker step markers with fixed phase descriptions.
var stepLabels = []struct{ marker, label string }{
	{"Step 1/4", "Generating PDF..."},
	{"Step 2/4", "Submitting Info..."},
	{"Step 3/4", "Skipping SSO..."},
	{"Step 4/4", "Uploading Doc..."},
}

var symbolReplacer = strings.NewReplacer("✗", "❌", `\u2717`, "")

// Normalize converts one raw line into display text.
// It returns false when the line must not produce a log entry.
func Normalize(raw string) (string, bool) {
	s := unescape(strings.TrimSpace(raw))
	for _, re := range severityTags {
		s = re.ReplaceAllString(s, "")
	}
	if strings.Contains(s, failedStatusMarker) && strings.Contains(s, "{") {
		s = describeFailure(s)
	}
	s = symbolReplacer.Replace(s)

	if suppressed(s) {
		return "", false
	}
	return rewrite(s)
}

// Next applies Normalize and then suppresses the result when it equals the
// text of the previously emitted entry. previous is "" for the first line.
func Next(raw, previous string) (string, bool) {
	text, ok := Normalize(raw)
	if !ok || text == previous {
		return "", false
	}
	return text, true
}

// unescape decodes lines that arrive as the body of a JSON string literal,
// such as `caf\u00e9` or `a\tb`. Anything that is not valid stays untouched.
func unescape(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

// describeFailure extracts a message from lines like
// `Failed (Status 400): {'systemErrorMessage': 'Bad', 'x': None}`.
// The embedded object uses Python literal notation, so quotes and None are
// rewritten before decoding.
func describeFailure(s string) string {
	start := strings.Index(s, "{")
	literal := strings.NewReplacer("'", `"`, "None", "null").Replace(s[start:])

	var obj map[string]any
	if err := json.Unmarshal([]byte(literal), &obj); err != nil {
		return s[:start]
	}
	if msg := field(obj, "systemErrorMessage"); msg != "" {
		return "Error: " + msg
	}
	if msg := field(obj, "message"); msg != "" {
		return "Error: " + msg
	}
	return "Error: " + truncate(s, 50) + "..."
}

func field(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
		return "true"
	case float64:
		if v == 0 {
			return ""
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func suppressed(s string) bool {
	switch {
	case s == "":
		return true
	case strings.HasPrefix(s, bulkDataPrefix):
		return true
	case strings.Contains(s, httpClientMarker), strings.Contains(s, autoExtractedMarker):
		return true
	case strings.Contains(s, successMarker) && strings.Contains(s, filesMarker):
		return true
	}
	return false
}

// rewrite applies the first matching relabel rule.
func rewrite(s string) (string, bool) {
	for _, p := range prefixLabels {
		if strings.HasPrefix(s, p.from) {
			return p.to + " " + strings.TrimSpace(strings.TrimPrefix(s, p.from)), true
		}
	}
	for _, st := range stepLabels {
		if strings.Contains(s, st.marker) {
			return st.label, true
		}
	}
	switch {
	case strings.HasPrefix(s, "Complete:"):
		return s, true
	case strings.Contains(s, "[OK]"):
		return strings.TrimSpace(strings.Replace(s, "[OK]", "", 1)), true
	case strings.Contains(s, startingMarker):
		return "", false
	}
	return s, true
}
