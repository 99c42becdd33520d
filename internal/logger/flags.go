package logger

import (
	"io"
	"log/slog"
)

// Output formats accepted by --log-format.
const (
	FormatPretty = "pretty"
	FormatText   = "text"
	FormatJSON   = "json"
)

// FromFlags builds the Logger selected by --log-level, --log-format and
// --debug. --debug wins over --log-level; an unknown format means pretty.
func FromFlags(level, format string, debug bool, w io.Writer) Logger {
	lvl := ParseLevel(level)
	if debug {
		lvl = slog.LevelDebug
	}
	switch format {
	case FormatJSON:
		return JSON(w, lvl)
	case FormatText:
		return Text(w, lvl)
	default:
		return Pretty(w, lvl)
	}
}

// ParseLevel maps a --log-level value to a slog level. Anything it does not
// recognise is info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// JSON logs one object per record, with source positions, for log shippers.
func JSON(w io.Writer, level slog.Level) Logger {
	return New(slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: level}))
}

// Pretty is the interactive format: uptime stamp, component tag, message.
func Pretty(w io.Writer, level slog.Level) Logger {
	return New(NewPrettyHandler(w, &slog.HandlerOptions{Level: level}))
}

// Text is slog's key=value format.
func Text(w io.Writer, level slog.Level) Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard drops every record. Components fall back to it when given no logger.
func Discard() Logger {
	return New(slog.DiscardHandler)
}
