package cmd

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"enginebridge/cli/internal/bridge/model"
	"enginebridge/cli/internal/logfeed"
	"enginebridge/cli/internal/terminal"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
)

// Use braille spinner frames similar to docker CLI
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// visibleEntries is how many recent log lines stay on screen under the spinner.
const visibleEntries = 8

// logSession shows the log feed of one invocation.
//
// On a terminal the most recent entries are redrawn inside a pterm area with
// a spinner below them; once stopped the area is removed and the whole feed
// is printed. Elsewhere each entry is printed as soon as it is accepted.
type logSession struct {
	feed   *logfeed.Feed
	render *logfeed.Renderer
	label  string
	live   bool

	mu    sync.Mutex
	area  *pterm.AreaPrinter
	frame int

	stop chan struct{}
	wg   sync.WaitGroup
}

func newLogSession(w io.Writer, label string) *logSession {
	f, _ := w.(*os.File)
	return &logSession{
		feed:   logfeed.NewFeed(),
		render: logfeed.NewRenderer(w).WithWidth(terminal.Width(f)),
		label:  label,
		live:   terminal.IsTerminal(f),
	}
}

// Start begins the spinner when attached to a terminal.
func (s *logSession) Start() {
	if !s.live {
		return
	}
	cursor.Hide()
	area, err := pterm.DefaultArea.WithRemoveWhenDone(true).Start()
	if err != nil {
		cursor.Show()
		s.live = false
		return
	}
	s.area = area
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(120 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.mu.Lock()
				s.frame++
				s.redraw()
				s.mu.Unlock()
			case <-s.stop:
				return
			}
		}
	}()
}

// Push feeds one raw line through the normalizer and shows the result.
func (s *logSession) Push(raw string) {
	s.show(s.feed.Push(raw))
}

// PushNormalized shows text that a remote bridge already normalized.
func (s *logSession) PushNormalized(text string) {
	s.show(s.feed.Append(text))
}

// Sink adapts the session to the local runner, which reports raw lines.
func (s *logSession) Sink(l model.Line) { s.Push(l.Text) }

// SinkNormalized adapts the session to the remote client.
func (s *logSession) SinkNormalized(l model.Line) { s.PushNormalized(l.Text) }

func (s *logSession) show(e logfeed.Entry, ok bool) {
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.area != nil {
		s.redraw()
		return
	}
	s.render.Render(e)
}

// Stop ends the spinner and leaves the full log in the scrollback.
func (s *logSession) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.wg.Wait()
	s.stop = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.area != nil {
		s.area.Stop()
		s.area = nil
		cursor.Show()
		for _, e := range s.feed.Entries() {
			s.render.Render(e)
		}
	}
}

// redraw must be called with mu held.
func (s *logSession) redraw() {
	entries := s.feed.Entries()
	if len(entries) > visibleEntries {
		entries = entries[len(entries)-visibleEntries:]
	}
	lines := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		lines = append(lines, s.render.Format(e))
	}
	spin := pterm.NewStyle(pterm.FgLightCyan).Sprint(spinnerFrames[s.frame%len(spinnerFrames)])
	lines = append(lines, spin+" "+s.label)
	s.area.Update(strings.Join(lines, "\n"))
}
