package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"enginebridge/cli/internal/bridge/model"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadFlagsBuild(t *testing.T) {
	file := filepath.Join(t.TempDir(), "form.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"firstName": "Ana", "age": 31}`), 0o600))

	tests := []struct {
		name  string
		flags payloadFlags
		stdin string
		want  map[string]any
	}{
		{name: "empty", want: map[string]any{}},
		{
			name:  "data with set override",
			flags: payloadFlags{data: `{"firstName": "Ana"}`, set: []string{"firstName=Bea", "docType=pdf"}},
			want:  map[string]any{"firstName": "Bea", "docType": "pdf"},
		},
		{
			name:  "file",
			flags: payloadFlags{file: file},
			want:  map[string]any{"firstName": "Ana", "age": 31.0},
		},
		{
			name:  "stdin",
			flags: payloadFlags{file: "-"},
			stdin: `{"schoolId": "12"}`,
			want:  map[string]any{"schoolId": "12"},
		},
		{
			name:  "value keeps equals signs",
			flags: payloadFlags{set: []string{"note=a=b"}},
			want:  map[string]any{"note": "a=b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.build(strings.NewReader(tt.stdin))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayloadFlagsErrors(t *testing.T) {
	_, err := (&payloadFlags{data: `[1, 2]`}).build(nil)
	assert.ErrorContains(t, err, "JSON object")

	_, err = (&payloadFlags{set: []string{"novalue"}}).build(nil)
	assert.ErrorContains(t, err, "key=value")

	_, err = (&payloadFlags{file: filepath.Join(t.TempDir(), "missing.json")}).build(nil)
	assert.Error(t, err)
}

func TestShortSchoolName(t *testing.T) {
	assert.Equal(t, "Alpha University", shortSchoolName("Alpha University", 48))
	assert.Equal(t, "Northern Inst. of Tech.", shortSchoolName("Northern Institute of Technology", 24))

	got := shortSchoolName(strings.Repeat("x", 60), 20)
	assert.Equal(t, 20, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestFilterSchools(t *testing.T) {
	schools := []model.School{
		{ID: "1", Name: "Alpha University"},
		{ID: "2", Name: "Beta College"},
	}
	assert.Equal(t, schools, filterSchools(schools, ""))
	assert.Equal(t, schools[1:], filterSchools(schools, "college"))
	assert.Equal(t, schools[:1], filterSchools(schools, "1"))
	assert.Empty(t, filterSchools(schools, "gamma"))
}

func TestSummary(t *testing.T) {
	ok := model.NewOutcome(map[string]any{"success": true, "files": []any{"a.pdf", "b.png"}})
	failed := model.NewOutcome(map[string]any{"success": false, "message": "rejected"})

	assert.Equal(t, "SUCCESS! Verif Pending.", summary(model.ActionVerify, ok))
	assert.Equal(t, "FAILED: rejected", summary(model.ActionVerify, failed))
	assert.Equal(t, "SUCCESS! Saved 2 files", summary(model.ActionGenerateDocs, ok))
	assert.Equal(t, "FAILED: rejected", summary(model.ActionGenerateDocs, failed))
}

func TestPrefValue(t *testing.T) {
	assert.Equal(t, 3.0, prefValue("3"))
	assert.Equal(t, true, prefValue("true"))
	assert.Equal(t, "dark", prefValue("dark"))
}

func TestLogSessionPrintsNormalizedLinesWithoutTerminal(t *testing.T) {
	pterm.DisableColor()
	defer pterm.EnableColor()

	var buf bytes.Buffer
	s := newLogSession(&buf, "Running verify")
	s.Start()
	s.Push("Starting...")
	s.Sink(model.Line{Stream: model.Stderr, Text: "[INFO] Step 4/4 upload"})
	s.Sink(model.Line{Stream: model.Stderr, Text: "[INFO] Step 4/4 upload"})
	s.Sink(model.Line{Stream: model.Stdout, Text: "HTTP Request: GET /"})
	s.Stop()

	entries := s.feed.Entries()
	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		texts = append(texts, e.Text)
	}
	assert.Equal(t, []string{"Starting...", "Uploading Doc..."}, texts)
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "Uploading Doc...")
}
