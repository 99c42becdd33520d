package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/samcharles93/yukari/internal/command"
	"github.com/samcharles93/yukari/internal/session"
)

var _ chatDispatcher = (*command.Dispatcher)(nil)

type scriptedLines struct {
	lines []string
}

func (s *scriptedLines) ReadLine(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

type call struct {
	name string
	args []string
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []call
	err   error
	stops int

	started chan struct{}
	release chan struct{}
}

func (d *recordingDispatcher) ParseLine(line, prefix string) (string, []string) {
	if rest, ok := strings.CutPrefix(line, prefix); ok {
		fields := strings.Fields(rest)
		return fields[0], fields[1:]
	}
	return "say", []string{line}
}

func (d *recordingDispatcher) Dispatch(_ context.Context, name string, args []string) (string, error) {
	d.mu.Lock()
	d.calls = append(d.calls, call{name, args})
	started, release := d.started, d.release
	d.mu.Unlock()
	if started != nil {
		close(started)
		<-release
	}
	if d.err != nil {
		return "", d.err
	}
	return "reply to " + name + "\n", nil
}

func (d *recordingDispatcher) Help() string { return "help text\n" }

func (d *recordingDispatcher) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stops++
	if d.release != nil {
		close(d.release)
		d.release = nil
		return true
	}
	return false
}

func TestRunChatDispatchesLines(t *testing.T) {
	t.Parallel()

	d := &recordingDispatcher{}
	in := &scriptedLines{lines: []string{"hello there", "  ", "/do wave", "/help", "/exit", "never read"}}
	var out bytes.Buffer
	if err := runChat(context.Background(), d, in, &out, nil); err != nil {
		t.Fatalf("runChat: %v", err)
	}

	want := []call{{"say", []string{"hello there"}}, {"do", []string{"wave"}}}
	if !reflect.DeepEqual(d.calls, want) {
		t.Fatalf("calls = %+v, want %+v", d.calls, want)
	}
	if got := out.String(); got != "reply to say\nreply to do\nhelp text\n" {
		t.Fatalf("unexpected output %q", got)
	}
	if len(in.lines) != 1 {
		t.Fatal("expected /exit to stop reading")
	}
}

func TestRunChatReportsErrors(t *testing.T) {
	t.Parallel()

	d := &recordingDispatcher{err: session.ErrBusy}
	var out bytes.Buffer
	if err := runChat(context.Background(), d, &scriptedLines{lines: []string{"hi"}}, &out, nil); err != nil {
		t.Fatalf("runChat: %v", err)
	}
	if !strings.Contains(out.String(), "error: "+session.ErrBusy.Error()) {
		t.Fatalf("expected error line, got %q", out.String())
	}
}

type failingLines struct{}

func (failingLines) ReadLine(string) (string, error) { return "", errors.New("tty gone") }

func TestRunChatReadError(t *testing.T) {
	t.Parallel()

	if err := runChat(context.Background(), &recordingDispatcher{}, failingLines{}, io.Discard, nil); err == nil {
		t.Fatal("expected read error")
	}
}

func TestRunChatInterruptStopsGeneration(t *testing.T) {
	t.Parallel()

	d := &recordingDispatcher{started: make(chan struct{}), release: make(chan struct{})}
	interrupts := make(chan os.Signal, 1)
	go func() {
		<-d.started
		interrupts <- os.Interrupt
	}()

	var out bytes.Buffer
	if err := runChat(context.Background(), d, &scriptedLines{lines: []string{"tell me a story"}}, &out, interrupts); err != nil {
		t.Fatalf("runChat: %v", err)
	}
	if d.stops != 1 {
		t.Fatalf("expected one stop, got %d", d.stops)
	}
	if !strings.Contains(out.String(), "reply to say") {
		t.Fatalf("expected the partial reply to be printed, got %q", out.String())
	}
}

func TestReadPlainLine(t *testing.T) {
	t.Parallel()

	r := bufio.NewReader(strings.NewReader("first\r\nsecond\nlast"))
	for _, want := range []string{"first", "second", "last"} {
		got, err := readPlainLine(r)
		if err != nil || got != want {
			t.Fatalf("readPlainLine = %q, %v; want %q", got, err, want)
		}
	}
	if _, err := readPlainLine(r); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}
