package logfeed

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func TestFeedDeduplicatesConsecutiveRepeats(t *testing.T) {
	f := NewFeedWithClock(fixedClock())

	_, ok := f.Push("[INFO] Uploading document...")
	require.True(t, ok)
	_, ok = f.Push("[INFO] Uploading document...")
	assert.False(t, ok, "identical line must be suppressed")

	// Different raw lines that normalize to the same text are repeats too.
	_, ok = f.Push("Step 2/4 a")
	require.True(t, ok)
	_, ok = f.Push("Step 2/4 b")
	assert.False(t, ok)

	// A repeat that is not consecutive is kept.
	_, ok = f.Push("Uploading document...")
	assert.True(t, ok)

	texts := []string{}
	for _, e := range f.Entries() {
		texts = append(texts, e.Text)
	}
	assert.Equal(t, []string{"Uploading document...", "Submitting Info...", "Uploading document..."}, texts)
}

func TestFeedSuppressedLinesDoNotBreakDedup(t *testing.T) {
	f := NewFeedWithClock(fixedClock())
	f.Push("Uploading")
	f.Push("HTTP Request: GET /")
	_, ok := f.Push("Uploading")
	assert.False(t, ok)
	assert.Equal(t, 1, f.Len())
}

func TestFeedAppendKeepsNormalizedTextVerbatim(t *testing.T) {
	local := NewFeedWithClock(fixedClock())
	e, ok := local.Push(`Backup: C:\\new\\tmp.pdf`)
	require.True(t, ok)

	remote := NewFeedWithClock(fixedClock())
	got, ok := remote.Append(e.Text)
	require.True(t, ok)
	assert.Equal(t, e.Text, got.Text)
	assert.NotContains(t, got.Text, "\n", "escapes must not be decoded a second time")
	assert.Equal(t, `Saved: C:\new\tmp.pdf`, got.Text)

	_, ok = remote.Append(e.Text)
	assert.False(t, ok, "consecutive repeat")
	_, ok = remote.Append("   ")
	assert.False(t, ok, "blank")
	assert.Equal(t, 1, remote.Len())
}

func TestFeedEntryTimestamps(t *testing.T) {
	f := NewFeedWithClock(fixedClock())
	e, ok := f.Push("Teacher Info: Jane Doe")
	require.True(t, ok)
	assert.Equal(t, "[09:30:01] Name: Jane Doe", e.String())
}

func TestFeedReset(t *testing.T) {
	f := NewFeed()
	f.Push("one")
	f.Reset()
	assert.Equal(t, 0, f.Len())
	_, ok := f.Push("one")
	assert.True(t, ok, "history is empty after reset so nothing to dedup against")
}

func TestFeedConcurrentPush(t *testing.T) {
	f := NewFeed()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				f.Push(fmt.Sprintf("worker %d line %d", w, i))
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 200, f.Len())
}

func TestRendererWritesEntry(t *testing.T) {
	pterm.DisableColor()
	defer pterm.EnableColor()

	var buf bytes.Buffer
	r := NewRenderer(&buf).WithWidth(30)
	r.Render(Entry{Time: time.Date(2025, 1, 1, 8, 0, 5, 0, time.UTC), Text: strings.Repeat("a", 40)})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[08:00:05] "), out)
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, strings.Repeat("a", 20))
}
