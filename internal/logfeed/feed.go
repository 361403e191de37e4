package logfeed

import (
	"strings"
	"sync"
	"time"
)

// Entry is one displayed log line.
type Entry struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// String renders the entry the way the log window shows it.
func (e Entry) String() string {
	return "[" + e.Time.Format("15:04:05") + "] " + e.Text
}

// Feed is the append-only log history of one invocation.
// It is safe for concurrent use so both pipe readers can push into it.
type Feed struct {
	// entries holds every emitted entry in emission order
	entries []Entry
	// now is the clock used to stamp entries
	now func() time.Time
	// mu protects concurrent access to all fields
	mu sync.Mutex
}

// NewFeed creates an empty feed stamped with the wall clock.
func NewFeed() *Feed {
	return &Feed{now: time.Now}
}

// NewFeedWithClock creates an empty feed with a custom clock, mainly for tests.
func NewFeedWithClock(now func() time.Time) *Feed {
	return &Feed{now: now}
}

// Push normalizes a raw line and appends it unless it is suppressed or repeats
// the previous entry. The appended entry is returned with true.
func (f *Feed) Push(raw string) (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	text, ok := Next(raw, f.last())
	if !ok {
		return Entry{}, false
	}
	return f.add(text), true
}

// Append adds text that was already normalized elsewhere, such as lines
// received from a remote bridge. Only empty text and repeats of the previous
// entry are dropped.
func (f *Feed) Append(text string) (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	text = strings.TrimSpace(text)
	if text == "" || text == f.last() {
		return Entry{}, false
	}
	return f.add(text), true
}

// last must be called with mu held.
func (f *Feed) last() string {
	if n := len(f.entries); n > 0 {
		return f.entries[n-1].Text
	}
	return ""
}

// add must be called with mu held.
func (f *Feed) add(text string) Entry {
	e := Entry{Time: f.now(), Text: text}
	f.entries = append(f.entries, e)
	return e
}

// Entries returns a copy of the history.
func (f *Feed) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out
}

// Len returns the number of entries.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Reset clears the history before a new invocation.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = nil
}
