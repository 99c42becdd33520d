//go:build linux

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// lineReader reads chat input. On a terminal it switches stdin to raw mode
// for the duration of one line and keeps an in-memory history for the arrow
// keys; otherwise it reads plain lines.
type lineReader struct {
	in      *os.File
	out     io.Writer
	plain   *bufio.Reader
	tty     bool
	history []string
}

func newLineReader(in *os.File, out io.Writer) *lineReader {
	return &lineReader{
		in:    in,
		out:   out,
		plain: bufio.NewReader(in),
		tty:   isTerminal(in),
	}
}

func (l *lineReader) ReadLine(prompt string) (string, error) {
	if !l.tty {
		return readPlainLine(l.plain)
	}

	fd := int(l.in.Fd())
	oldState, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return "", err
	}
	raw := *oldState
	raw.Lflag &^= unix.ICANON | unix.ECHO | unix.ISIG
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return "", err
	}
	defer func() {
		_ = unix.IoctlSetTermios(fd, unix.TCSETS, oldState)
	}()

	fmt.Fprint(l.out, prompt)
	ed := newEditor(prompt, l.history, l.out)
	var buf [16]byte
	for {
		n, err := l.in.Read(buf[:])
		if err != nil {
			return "", err
		}
		for _, b := range buf[:n] {
			switch ed.feed(b) {
			case editDone:
				line := ed.String()
				if strings.TrimSpace(line) != "" {
					l.history = append(l.history, line)
				}
				return line, nil
			case editCancel:
				return "", nil
			case editEOF:
				return "", io.EOF
			}
		}
	}
}
