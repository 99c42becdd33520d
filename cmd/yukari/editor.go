package main

import (
	"fmt"
	"io"
)

type editResult int

const (
	editContinue editResult = iota
	editDone
	// editCancel discards the current line (Ctrl+C).
	editCancel
	// editEOF ends input (Ctrl+D on an empty line).
	editEOF
)

const (
	escNone = iota
	escStart
	escCSI
)

// editor is the line state of the raw-mode terminal reader. It consumes one
// byte at a time and redraws the prompt line on out.
type editor struct {
	prompt string
	out    io.Writer

	line   []byte
	cursor int

	history  []string
	histPos  int
	browsing bool
	draft    string

	esc int
	csi []byte
}

func newEditor(prompt string, history []string, out io.Writer) *editor {
	return &editor{
		prompt:  prompt,
		out:     out,
		line:    make([]byte, 0, 256),
		history: history,
		histPos: len(history),
	}
}

func (e *editor) String() string { return string(e.line) }

func (e *editor) feed(b byte) editResult {
	switch e.esc {
	case escStart:
		e.esc = escNone
		switch b {
		case '[':
			e.esc = escCSI
			e.csi = e.csi[:0]
		case 'b', 'B':
			e.setCursor(e.wordStart(e.cursor))
		case 'f', 'F':
			e.setCursor(e.wordEnd(e.cursor))
		case 127:
			e.deleteRange(e.wordStart(e.cursor), e.cursor)
		}
		return editContinue
	case escCSI:
		e.csi = append(e.csi, b)
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
			e.esc = escNone
			e.handleCSI(string(e.csi))
		}
		return editContinue
	}

	switch b {
	case 27:
		e.esc = escStart
	case '\r', '\n':
		fmt.Fprint(e.out, "\r\n")
		return editDone
	case 3: // Ctrl+C
		fmt.Fprint(e.out, "^C\r\n")
		e.line = e.line[:0]
		e.cursor = 0
		return editCancel
	case 4: // Ctrl+D
		if len(e.line) == 0 {
			fmt.Fprint(e.out, "\r\n")
			return editEOF
		}
		e.deleteRange(e.cursor, min(e.cursor+1, len(e.line)))
	case 127, 8:
		if e.cursor > 0 {
			e.deleteRange(e.cursor-1, e.cursor)
		}
	case 1: // Ctrl+A
		e.setCursor(0)
	case 5: // Ctrl+E
		e.setCursor(len(e.line))
	case 21: // Ctrl+U
		e.deleteRange(0, e.cursor)
	case 23: // Ctrl+W
		e.deleteRange(e.wordStart(e.cursor), e.cursor)
	default:
		if b >= 32 {
			e.insert(b)
		}
	}
	return editContinue
}

func (e *editor) handleCSI(seq string) {
	switch seq {
	case "A":
		e.historyPrev()
	case "B":
		e.historyNext()
	case "C":
		e.setCursor(min(e.cursor+1, len(e.line)))
	case "D":
		e.setCursor(max(e.cursor-1, 0))
	case "H", "1~":
		e.setCursor(0)
	case "F", "4~":
		e.setCursor(len(e.line))
	case "3~":
		e.deleteRange(e.cursor, min(e.cursor+1, len(e.line)))
	case "1;5D", "5D":
		e.setCursor(e.wordStart(e.cursor))
	case "1;5C", "5C":
		e.setCursor(e.wordEnd(e.cursor))
	case "3;5~":
		e.deleteRange(e.cursor, e.wordEnd(e.cursor))
	}
}

func (e *editor) insert(b byte) {
	e.line = append(e.line, 0)
	copy(e.line[e.cursor+1:], e.line[e.cursor:])
	e.line[e.cursor] = b
	e.cursor++
	e.redraw()
}

func (e *editor) deleteRange(from, to int) {
	if from >= to {
		return
	}
	e.line = append(e.line[:from], e.line[to:]...)
	e.cursor = from
	e.redraw()
}

func (e *editor) setCursor(pos int) {
	if pos == e.cursor {
		return
	}
	e.cursor = pos
	e.redraw()
}

func (e *editor) replace(s string) {
	e.line = append(e.line[:0], s...)
	e.cursor = len(e.line)
	e.redraw()
}

func (e *editor) historyPrev() {
	if len(e.history) == 0 {
		return
	}
	if !e.browsing {
		e.draft = string(e.line)
		e.browsing = true
		e.histPos = len(e.history)
	}
	if e.histPos > 0 {
		e.histPos--
		e.replace(e.history[e.histPos])
	}
}

func (e *editor) historyNext() {
	if !e.browsing {
		return
	}
	if e.histPos < len(e.history)-1 {
		e.histPos++
		e.replace(e.history[e.histPos])
		return
	}
	e.histPos = len(e.history)
	e.browsing = false
	e.replace(e.draft)
}

func isBlank(b byte) bool { return b == ' ' || b == '\t' }

// wordStart returns the start of the word left of pos, skipping blanks.
func (e *editor) wordStart(pos int) int {
	for pos > 0 && isBlank(e.line[pos-1]) {
		pos--
	}
	for pos > 0 && !isBlank(e.line[pos-1]) {
		pos--
	}
	return pos
}

// wordEnd returns the end of the word right of pos, skipping blanks.
func (e *editor) wordEnd(pos int) int {
	for pos < len(e.line) && isBlank(e.line[pos]) {
		pos++
	}
	for pos < len(e.line) && !isBlank(e.line[pos]) {
		pos++
	}
	return pos
}

func (e *editor) redraw() {
	fmt.Fprintf(e.out, "\r%s%s\x1b[K", e.prompt, e.line)
	if e.cursor < len(e.line) {
		fmt.Fprintf(e.out, "\r%s%s", e.prompt, e.line[:e.cursor])
	}
}
