package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/term"
)

// ErrInterrupt is returned when the user presses Ctrl-C.
var ErrInterrupt = errors.New("interrupted")

// Editor is a minimal raw-mode line editor that reports the cursor offset
// with every line. It reads from /dev/tty so it works even when stdout is
// redirected.
type Editor struct {
	tty      *os.File
	oldState *term.State
	line     lineBuffer

	// Suggest, when set, returns the replacement line offered for the
	// current buffer. The hint is drawn dimmed below the prompt and Tab
	// accepts it.
	Suggest func(line string, cursor int) (string, bool)

	// OnDisplay and OnAccept observe hints shown and taken.
	OnDisplay func(hint string)
	OnAccept  func(hint string)

	hint    string
	history recall
}

// NewEditor opens /dev/tty and switches it to raw mode.
func NewEditor() (*Editor, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/tty: %w", err)
	}
	old, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		tty.Close()
		return nil, fmt.Errorf("raw mode: %w", err)
	}
	return &Editor{tty: tty, oldState: old}, nil
}

// Close restores the terminal and closes the tty.
func (e *Editor) Close() {
	term.Restore(int(e.tty.Fd()), e.oldState)
	e.tty.Close()
}

// Tty returns the terminal for prompts and status output.
func (e *Editor) Tty() *os.File { return e.tty }

// SeedHistory preloads Up/Down recall, oldest first.
func (e *Editor) SeedHistory(lines []string) {
	for _, l := range lines {
		e.history.add(l)
	}
}

// ReadLine shows prompt and returns the entered text with the cursor byte
// offset at the moment Enter was pressed. Ctrl-D on an empty line returns
// io.EOF and Ctrl-C returns ErrInterrupt.
func (e *Editor) ReadLine(prompt string) (text string, cursor int, err error) {
	e.line.reset("")
	e.history.rewind()
	e.redraw(prompt)

	for {
		var b [1]byte
		if _, err := e.tty.Read(b[:]); err != nil {
			return "", 0, err
		}

		switch b[0] {
		case 3: // Ctrl-C
			fmt.Fprint(e.tty, "\r\x1b[J\r\n")
			return "", 0, ErrInterrupt
		case 4: // Ctrl-D
			if e.line.empty() {
				fmt.Fprint(e.tty, "\r\x1b[J\r\n")
				return "", 0, io.EOF
			}
			e.line.deleteForward()
		case 13, 10: // Enter
			e.hint = ""
			text, cursor = e.line.String(), e.line.pos
			fmt.Fprintf(e.tty, "\r\x1b[J%s%s\r\n", prompt, text)
			e.history.add(text)
			return text, cursor, nil
		case 9: // Tab
			if e.hint != "" {
				e.line.reset(e.hint)
				if e.OnAccept != nil {
					e.OnAccept(e.hint)
				}
			}
		case 127, 8: // Backspace, Ctrl-H
			e.line.deleteBack()
		case 1: // Ctrl-A
			e.line.home()
		case 5: // Ctrl-E
			e.line.end()
		case 11: // Ctrl-K
			e.line.killToEnd()
		case 21: // Ctrl-U
			e.line.reset("")
		case 23: // Ctrl-W
			e.line.killWordBack()
		case 27:
			e.readEscape()
		default:
			if b[0] >= 32 {
				e.line.insert(e.readRune(b[0]))
			}
		}

		e.redraw(prompt)
	}
}

// readEscape consumes a CSI sequence and applies cursor movement or
// history recall.
func (e *Editor) readEscape() {
	var seq [2]byte
	if n, _ := e.tty.Read(seq[:1]); n == 0 || seq[0] != '[' {
		return
	}
	if n, _ := e.tty.Read(seq[1:2]); n == 0 {
		return
	}
	switch seq[1] {
	case 'A':
		if l, ok := e.history.prev(e.line.String()); ok {
			e.line.reset(l)
		}
	case 'B':
		if l, ok := e.history.next(); ok {
			e.line.reset(l)
		}
	case 'C':
		e.line.right()
	case 'D':
		e.line.left()
	case 'H':
		e.line.home()
	case 'F':
		e.line.end()
	case '1', '3', '4': // \x1b[1~ home, \x1b[3~ delete, \x1b[4~ end
		var tilde [1]byte
		e.tty.Read(tilde[:])
		switch seq[1] {
		case '1':
			e.line.home()
		case '3':
			e.line.deleteForward()
		case '4':
			e.line.end()
		}
	}
}

// readRune reads the continuation bytes of a UTF-8 sequence led by lead.
func (e *Editor) readRune(lead byte) []byte {
	n := utf8SeqLen(lead)
	ch := make([]byte, n)
	ch[0] = lead
	if n > 1 {
		io.ReadFull(e.tty, ch[1:])
	}
	return ch
}

// redraw repaints the prompt line and the hint below it, then places the
// cursor.
func (e *Editor) redraw(prompt string) {
	prev := e.hint
	e.hint = ""
	if e.Suggest != nil && !e.line.empty() {
		if s, ok := e.Suggest(e.line.String(), e.line.pos); ok && s != e.line.String() {
			e.hint = s
		}
	}

	fmt.Fprint(e.tty, "\r\x1b[J")
	if e.hint != "" {
		fmt.Fprintf(e.tty, "\r\n\x1b[2m  tab: %s\x1b[0m\x1b[1A\r", e.hint)
		if e.OnDisplay != nil && e.hint != prev {
			e.OnDisplay(e.hint)
		}
	}
	fmt.Fprintf(e.tty, "%s%s", prompt, e.line.String())
	if tail := e.line.tailRunes(); tail > 0 {
		fmt.Fprintf(e.tty, "\x1b[%dD", tail)
	}
}

// lineBuffer is the text being edited and a cursor byte offset that always
// sits on a rune boundary.
type lineBuffer struct {
	buf []byte
	pos int
}

func (l *lineBuffer) String() string { return string(l.buf) }

func (l *lineBuffer) empty() bool { return len(l.buf) == 0 }

// reset replaces the text and moves the cursor to the end.
func (l *lineBuffer) reset(s string) {
	l.buf = append(l.buf[:0], s...)
	l.pos = len(l.buf)
}

func (l *lineBuffer) insert(ch []byte) {
	l.buf = append(l.buf[:l.pos], append(ch, l.buf[l.pos:]...)...)
	l.pos += len(ch)
}

func (l *lineBuffer) deleteBack() {
	size := l.prevSize()
	if size == 0 {
		return
	}
	l.buf = append(l.buf[:l.pos-size], l.buf[l.pos:]...)
	l.pos -= size
}

func (l *lineBuffer) deleteForward() {
	if l.pos >= len(l.buf) {
		return
	}
	_, size := utf8.DecodeRune(l.buf[l.pos:])
	l.buf = append(l.buf[:l.pos], l.buf[l.pos+size:]...)
}

func (l *lineBuffer) left() { l.pos -= l.prevSize() }

func (l *lineBuffer) right() {
	if l.pos < len(l.buf) {
		_, size := utf8.DecodeRune(l.buf[l.pos:])
		l.pos += size
	}
}

func (l *lineBuffer) home() { l.pos = 0 }

func (l *lineBuffer) end() { l.pos = len(l.buf) }

func (l *lineBuffer) killToEnd() { l.buf = l.buf[:l.pos] }

// killWordBack deletes the word before the cursor and any spaces after it,
// like a shell's Ctrl-W.
func (l *lineBuffer) killWordBack() {
	start := l.pos
	for start > 0 && l.buf[start-1] == ' ' {
		start--
	}
	for start > 0 && l.buf[start-1] != ' ' {
		start--
	}
	l.buf = append(l.buf[:start], l.buf[l.pos:]...)
	l.pos = start
}

// tailRunes is how many runes sit right of the cursor.
func (l *lineBuffer) tailRunes() int { return utf8.RuneCount(l.buf[l.pos:]) }

// prevSize is the byte length of the rune before the cursor.
func (l *lineBuffer) prevSize() int {
	if l.pos <= 0 {
		return 0
	}
	i := l.pos - 1
	for i > 0 && !utf8.RuneStart(l.buf[i]) {
		i--
	}
	return l.pos - i
}

// utf8SeqLen returns the byte length of a UTF-8 sequence from its lead byte.
func utf8SeqLen(lead byte) int {
	switch {
	case lead < 0xC0:
		return 1
	case lead < 0xE0:
		return 2
	case lead < 0xF0:
		return 3
	}
	return 4
}

// recall is Up/Down navigation over previously entered lines. The line
// being typed is kept as a draft and restored when moving past the newest
// entry.
type recall struct {
	lines []string
	idx   int // len(lines) means the draft
	draft string
}

// maxRecall bounds the in-memory recall list.
const maxRecall = 500

func (r *recall) add(line string) {
	if line == "" || (len(r.lines) > 0 && r.lines[len(r.lines)-1] == line) {
		return
	}
	r.lines = append(r.lines, line)
	if len(r.lines) > maxRecall {
		r.lines = r.lines[len(r.lines)-maxRecall:]
	}
	r.idx = len(r.lines)
}

func (r *recall) rewind() {
	r.idx = len(r.lines)
	r.draft = ""
}

// prev moves to the older entry. current is saved as the draft when leaving
// it.
func (r *recall) prev(current string) (string, bool) {
	if r.idx == 0 {
		return "", false
	}
	if r.idx == len(r.lines) {
		r.draft = current
	}
	r.idx--
	return r.lines[r.idx], true
}

// next moves to the newer entry, ending at the draft.
func (r *recall) next() (string, bool) {
	if r.idx >= len(r.lines) {
		return "", false
	}
	r.idx++
	if r.idx == len(r.lines) {
		return r.draft, true
	}
	return r.lines[r.idx], true
}
