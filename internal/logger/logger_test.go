package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	log.Info("hello", "key", "value")

	output := buf.String()
	if !strings.Contains(output, `"key":"value"`) {
		t.Fatalf("expected key=value in JSON output, got: %s", output)
	}
	if !strings.Contains(output, `"level":"INFO"`) {
		t.Fatalf("expected level INFO in output, got: %s", output)
	}
}

func TestJSONLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)
	log.Info("should not appear")

	if buf.Len() > 0 {
		t.Fatalf("expected no output for info at warn level, got: %s", buf.String())
	}
	log.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected warn message in output, got: %s", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	log := Discard().With(ComponentKey, "ai")
	log.Error("dropped")
}

func TestFromFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		level  string
		format string
		debug  bool
		want   string
	}{
		{"json", "info", "json", false, `"msg":"turn"`},
		{"text", "info", "text", false, "msg=turn"},
		{"pretty", "info", "pretty", false, "turn"},
		{"debug-flag", "error", "json", true, `"level":"DEBUG"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := FromFlags(tc.level, tc.format, tc.debug, &buf)
			if tc.debug {
				log.Debug("turn")
			} else {
				log.Info("turn")
			}
			if !strings.Contains(buf.String(), tc.want) {
				t.Fatalf("expected %q in output, got: %s", tc.want, buf.String())
			}
		})
	}
}

func TestFromFlagsLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := FromFlags("warn", "text", false, &buf)
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn, got: %s", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)

	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("roundtrip test")
	if !strings.Contains(buf.String(), "roundtrip test") {
		t.Fatalf("expected message via context logger, got: %s", buf.String())
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext with no logger returned nil")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := ParseLevel(tc.input); got != tc.expected {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tc.input, tc.expected, got)
		}
	}
}

func TestPrettyComponentTag(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelInfo).With(ComponentKey, "mem")
	log.Info("remembering key", "key", "rin")

	output := buf.String()
	if !strings.Contains(output, "mem ") || !strings.Contains(output, " | remembering key") {
		t.Fatalf("expected component tag before message, got: %s", output)
	}
	if strings.Contains(output, "component=") {
		t.Fatalf("component must not be rendered as an attribute, got: %s", output)
	}
	if !strings.Contains(output, "key=rin") {
		t.Fatalf("expected key=rin in output, got: %s", output)
	}
}

func TestPrettyRecordComponent(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	slog.New(NewPrettyHandler(&buf, nil)).Info("connected", ComponentKey, "init")
	if !strings.Contains(buf.String(), "init") || !strings.Contains(buf.String(), " | connected") {
		t.Fatalf("expected record component tag, got: %s", buf.String())
	}
}

func TestPrettyUptimeStamp(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	slog.New(NewPrettyHandler(&buf, nil)).Info("tick")
	if !strings.Contains(buf.String(), "[+0.") {
		t.Fatalf("expected uptime stamp, got: %s", buf.String())
	}
}

func TestPrettyHandlerEnabled(t *testing.T) {
	t.Parallel()
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info to be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected error to be enabled at warn level")
	}
}

func TestPrettyHandlerGroups(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)

	logger := slog.New(h.WithGroup("a").WithGroup("b"))
	logger.Info("nested", "key", "val")
	if !strings.Contains(buf.String(), "a.b.key=val") {
		t.Fatalf("expected 'a.b.key=val' in output, got: %s", buf.String())
	}
	if h.WithGroup("") != slog.Handler(h) {
		t.Fatal("WithGroup empty string should return same handler")
	}
}

func TestPrettyAttrsBeforeGroupKeepTheirKey(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil).WithAttrs([]slog.Attr{slog.String("session", "s1")}).WithGroup("turn")
	slog.New(h).Info("done", "tokens", 4)

	output := buf.String()
	if !strings.Contains(output, "session=s1") || !strings.Contains(output, "turn.tokens=4") {
		t.Fatalf("unexpected attribute rendering: %s", output)
	}
}

func TestPrettyQuotesGeneratedText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	slog.New(NewPrettyHandler(&buf, nil)).Info("generated", "text", "Hello, Anon.\n")

	output := buf.String()
	if !strings.Contains(output, `text="Hello, Anon.\n"`) {
		t.Fatalf("expected escaped quoted text, got: %s", output)
	}
	if strings.Count(output, "\n") != 1 {
		t.Fatalf("record must stay on one line, got: %q", output)
	}
}

func TestNeedsQuoting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bool
	}{
		{"simple", false},
		{"has space", true},
		{"has\nnewline", true},
		{"has\rreturn", true},
		{`has"quote`, true},
		{"", false},
	}
	for _, tc := range tests {
		if got := needsQuoting(tc.input); got != tc.expected {
			t.Errorf("needsQuoting(%q): expected %v, got %v", tc.input, tc.expected, got)
		}
	}
}
