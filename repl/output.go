package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/term"

	jsonadapter "github.com/Paranoid-AF/jsonadapter"
)

// termWriter wraps a file and converts \n to \r\n when the file is a terminal
// (needed because raw mode disables the kernel's NL→CRNL translation).
// When the file is redirected, \n passes through unchanged.
func termWriter(f *os.File) io.Writer {
	if term.IsTerminal(int(f.Fd())) {
		return &crlfWriter{w: f}
	}
	return f
}

type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	replaced := bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))
	_, err := c.w.Write(replaced)
	return len(p), err // report original length to caller
}

// entry is one transcript record.
type entry struct {
	Request    requestRecord           `toml:"request"`
	Candidates []jsonadapter.Candidate `toml:"candidates,omitempty"`
	Feedback   *jsonadapter.Feedback   `toml:"feedback,omitempty"`
}

type requestRecord struct {
	Timestamp time.Time `toml:"timestamp"`
	Kind      string    `toml:"kind"`
	Input     string    `toml:"input"`
	CursorPos int       `toml:"cursor_pos"`
}

// writeEntry writes a single TOML-formatted entry to w.
func writeEntry(w io.Writer, kind, input string, cursorPos int, candidates []jsonadapter.Candidate, fb *jsonadapter.Feedback) error {
	fmt.Fprintf(w, "# %s\n\n", strings.Repeat("═", 60))
	e := entry{
		Request: requestRecord{
			Timestamp: time.Now().Truncate(time.Second),
			Kind:      kind,
			Input:     input,
			CursorPos: cursorPos,
		},
		Candidates: candidates,
		Feedback:   fb,
	}
	if err := toml.NewEncoder(w).Encode(e); err != nil {
		return fmt.Errorf("encode transcript entry: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// writeStats writes the engine counters as a TOML table.
func writeStats(w io.Writer, stats jsonadapter.Stats) error {
	return toml.NewEncoder(w).Encode(struct {
		Stats jsonadapter.Stats `toml:"stats"`
	}{stats})
}
