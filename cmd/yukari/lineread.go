package main

import (
	"bufio"
	"io"
	"os"
)

// lineSource yields one line of user input per call and io.EOF once input
// ends.
type lineSource interface {
	ReadLine(prompt string) (string, error)
}

// readPlainLine reads a line from r without its terminator. A final line
// without a newline is returned before io.EOF.
func readPlainLine(r *bufio.Reader) (string, error) {
	s, err := r.ReadString('\n')
	if err == io.EOF && s != "" {
		return trimTrailingNewline(s), nil
	}
	if err != nil {
		return "", err
	}
	return trimTrailingNewline(s), nil
}

func trimTrailingNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s
}

func isTerminal(f *os.File) bool {
	st, err := f.Stat()
	if err != nil {
		return false
	}
	return (st.Mode() & os.ModeCharDevice) != 0
}
