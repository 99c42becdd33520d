//go:build !linux

package main

import (
	"bufio"
	"io"
	"os"
)

type lineReader struct {
	plain *bufio.Reader
}

func newLineReader(in *os.File, _ io.Writer) *lineReader {
	return &lineReader{plain: bufio.NewReader(in)}
}

func (l *lineReader) ReadLine(_ string) (string, error) {
	return readPlainLine(l.plain)
}
