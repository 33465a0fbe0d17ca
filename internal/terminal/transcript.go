package terminal

import (
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"

	"github.com/pweiskircher/cmux/internal/limits"
)

// Transcript is a line buffer fed with raw terminal output. The last Rows
// lines form the screen; everything before them is scrollback.
type Transcript struct {
	mu       sync.Mutex
	lines    []string
	partial  strings.Builder
	rows     int
	maxLines int
}

func NewTranscript(rows, scrollback int) *Transcript {
	if rows <= 0 {
		rows = limits.DefaultRows
	}
	return &Transcript{rows: rows, maxLines: limits.ScrollbackLines(scrollback)}
}

// Write appends output. Carriage returns before a newline are dropped and
// escape sequences are stripped when the text is read back.
func (t *Transcript) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, b := range p {
		switch b {
		case '\n':
			t.lines = append(t.lines, strings.TrimSuffix(t.partial.String(), "\r"))
			t.partial.Reset()
		default:
			t.partial.WriteByte(b)
		}
	}
	if over := len(t.lines) - t.maxLines; over > 0 {
		t.lines = append([]string(nil), t.lines[over:]...)
	}
	return len(p), nil
}

func (t *Transcript) allLocked() []string {
	out := append([]string(nil), t.lines...)
	if t.partial.Len() > 0 {
		out = append(out, strings.TrimSuffix(t.partial.String(), "\r"))
	}
	return out
}

// Read returns plain text. Without Scrollback only the screen rows are
// considered; Lines then keeps the last n of them.
func (t *Transcript) Read(opts ReadOptions) string {
	t.mu.Lock()
	lines := t.allLocked()
	rows := t.rows
	t.mu.Unlock()

	if !opts.Scrollback && len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	if opts.Lines > 0 && len(lines) > opts.Lines {
		lines = lines[len(lines)-opts.Lines:]
	}
	for i, line := range lines {
		lines[i] = ansi.Strip(line)
	}
	return strings.Join(lines, "\n")
}

// ClearHistory drops scrollback and keeps the screen.
func (t *Transcript) ClearHistory() {
	t.mu.Lock()
	defer t.mu.Unlock()
	keep := t.rows
	if t.partial.Len() > 0 {
		keep--
	}
	if keep < 0 {
		keep = 0
	}
	if len(t.lines) > keep {
		t.lines = append([]string(nil), t.lines[len(t.lines)-keep:]...)
	}
}

// Len reports the number of complete lines held.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lines)
}
