package emitter

import (
	"strings"
	"unicode/utf8"
)

// DefaultIndent is used when IncreaseIndent is called with an empty prefix
const DefaultIndent = "  "

// Writer accumulates rendered text and tracks line state and indentation.
//
// Indent prefixes are written lazily in front of the first character of each
// line, so a prefix pushed after text was written on the current line only
// affects the following lines. Blank lines get the prefix with trailing
// whitespace removed.
type Writer struct {
	buf     []byte
	indents []string
	prefix  string

	// atLineStart is true when nothing has been written on the current line
	atLineStart bool
	// blankLines counts the blank lines at the end of buf
	blankLines int
	// blankMark is the offset just past the first trailing blank line
	blankMark int
	// pendingBlank is a blank line requested by EnsureSkippedLine that is
	// written once more text follows, using the prefix active at that time
	pendingBlank bool
}

// NewWriter creates an empty writer
func NewWriter() *Writer {
	return &Writer{atLineStart: true}
}

// Write appends text, applying the indent prefix at the start of each line
func (w *Writer) Write(s string) {
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			w.writeText(s)
			return
		}
		w.writeText(s[:i])
		w.writeNewline()
		s = s[i+1:]
	}
}

// WriteLine appends text followed by a newline
func (w *Writer) WriteLine(s string) {
	w.Write(s)
	w.writeNewline()
}

// EnsureNewLine moves to the start of a new line unless the writer is
// already at the start of one or nothing has been written yet
func (w *Writer) EnsureNewLine() {
	if len(w.buf) == 0 || w.atLineStart {
		return
	}
	w.writeNewline()
}

// EnsureSkippedLine makes sure exactly one blank line separates what has been
// written so far from what follows. Extra trailing blank lines are collapsed.
// It does nothing on an empty writer.
func (w *Writer) EnsureSkippedLine() {
	if len(w.buf) == 0 {
		return
	}
	w.EnsureNewLine()
	switch {
	case w.blankLines == 0:
		w.pendingBlank = true
	case w.blankLines > 1:
		w.buf = w.buf[:w.blankMark]
		w.blankLines = 1
	}
}

// IncreaseIndent pushes an indent prefix. An empty prefix uses DefaultIndent.
func (w *Writer) IncreaseIndent(prefix string) {
	if prefix == "" {
		prefix = DefaultIndent
	}
	// a blank line requested before the indented block belongs to the outer level
	w.flushPending()
	w.indents = append(w.indents, prefix)
	w.prefix += prefix
}

// DecreaseIndent pops the most recently pushed indent prefix
func (w *Writer) DecreaseIndent() {
	if len(w.indents) == 0 {
		return
	}
	last := w.indents[len(w.indents)-1]
	w.indents = w.indents[:len(w.indents)-1]
	w.prefix = w.prefix[:len(w.prefix)-len(last)]
}

// IndentDepth returns the number of pushed indent levels
func (w *Writer) IndentDepth() int {
	return len(w.indents)
}

// PeekLastCharacter returns the last character written, or 0 if the writer is empty
func (w *Writer) PeekLastCharacter() rune {
	if w.pendingBlank {
		return '\n'
	}
	if len(w.buf) == 0 {
		return 0
	}
	r, _ := utf8.DecodeLastRune(w.buf)
	return r
}

// Len returns the number of bytes written
func (w *Writer) Len() int {
	return len(w.buf)
}

// String returns the accumulated text
func (w *Writer) String() string {
	if w.pendingBlank {
		return string(w.buf) + strings.TrimRight(w.prefix, " \t") + "\n"
	}
	return string(w.buf)
}

func (w *Writer) writeText(s string) {
	if s == "" {
		return
	}
	w.flushPending()
	if w.atLineStart {
		w.buf = append(w.buf, w.prefix...)
		w.atLineStart = false
	}
	w.buf = append(w.buf, s...)
	w.blankLines = 0
}

func (w *Writer) writeNewline() {
	w.flushPending()
	if w.atLineStart {
		w.buf = append(w.buf, strings.TrimRight(w.prefix, " \t")...)
		w.buf = append(w.buf, '\n')
		w.blankLines++
		if w.blankLines == 1 {
			w.blankMark = len(w.buf)
		}
		return
	}
	w.buf = append(w.buf, '\n')
	w.atLineStart = true
}

func (w *Writer) flushPending() {
	if !w.pendingBlank {
		return
	}
	w.pendingBlank = false
	w.buf = append(w.buf, strings.TrimRight(w.prefix, " \t")...)
	w.buf = append(w.buf, '\n')
	w.blankLines = 1
	w.blankMark = len(w.buf)
}
