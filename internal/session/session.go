// Package session runs conversation turns: it assembles the prompt from the
// fixed context, the memory book and recent history, generates a reply and
// records both sides of the exchange.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/yukari/internal/decode"
	"github.com/samcharles93/yukari/internal/history"
	"github.com/samcharles93/yukari/internal/logger"
	"github.com/samcharles93/yukari/internal/prompt"
	"github.com/samcharles93/yukari/internal/sampling"
	"github.com/samcharles93/yukari/internal/tokenizer"
)

// ErrBusy is returned when a turn is requested while another is generating.
var ErrBusy = errors.New("a turn is already in progress")

// Generator is the decode loop. *decode.Decoder implements it.
type Generator interface {
	Generate(ctx context.Context, batch [][]int, cfg sampling.Config, maxNewTokens int) ([]decode.Result, decode.Stats, error)
}

// Memory supplies the descriptions compiled into every prompt.
type Memory interface {
	Descriptions() []string
}

type Config struct {
	// Context is the fixed text that opens every prompt.
	Context   string
	Tokenizer tokenizer.Tokenizer
	Generator Generator
	Memory    Memory
	Settings  Settings
	// Patterns cut the decoded continuation. Defaults to a newline after the
	// first generated character.
	Patterns []decode.Pattern
	Logger   logger.Logger
}

// Session owns the history and the settings of one conversation. All
// methods are safe for concurrent use; at most one generation runs at a
// time and overlapping requests fail with ErrBusy.
type Session struct {
	context  string
	tok      tokenizer.Tokenizer
	gen      Generator
	mem      Memory
	patterns []decode.Pattern
	log      logger.Logger

	mu       sync.Mutex
	settings Settings
	history  *history.Stack
	cancel   context.CancelFunc
	lastStat decode.Stats
}

func New(cfg Config) (*Session, error) {
	if cfg.Tokenizer == nil || cfg.Generator == nil {
		return nil, fmt.Errorf("session: tokenizer and generator are required")
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		context:  cfg.Context,
		tok:      cfg.Tokenizer,
		gen:      cfg.Generator,
		mem:      cfg.Memory,
		patterns: cfg.Patterns,
		log:      cfg.Logger,
		settings: cfg.Settings,
		history:  history.New(cfg.Settings.PastLength),
	}
	if s.patterns == nil {
		s.patterns = []decode.Pattern{decode.NewlinePattern}
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	s.log = s.log.With(logger.ComponentKey, "ai")
	return s, nil
}

// Turn submits raw as the next history entry and returns the generated
// continuation. A non-empty raw gets a trailing newline. History changes only
// when the turn succeeds.
func (s *Session) Turn(ctx context.Context, raw string) (string, error) {
	entry := raw
	if entry != "" {
		entry += "\n"
	}
	return s.run(ctx, "act", entry, false)
}

// Redo drops the newest history entry and generates again without new
// input. It fails with history.ErrUnderflow when there is nothing to redo.
// If generation fails the dropped entry is put back.
func (s *Session) Redo(ctx context.Context) (string, error) {
	return s.run(ctx, "redo", "", true)
}

func (s *Session) run(ctx context.Context, kind, entry string, redo bool) (string, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return "", ErrBusy
	}
	var popped string
	if redo {
		var err error
		if popped, err = s.history.Pop(); err != nil {
			s.mu.Unlock()
			return "", err
		}
	}
	settings := s.settings
	window := s.window(entry)
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	turnID := uuid.NewString()
	log := s.log.With("turn_id", turnID)
	if redo {
		log.Info("processing redo job")
	} else {
		log.Info("processing "+kind+" job", "input", strings.TrimSuffix(entry, "\n"))
	}

	reply, stats, err := s.generate(logger.WithContext(ctx, log), window, settings)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = nil
	cancel()
	if err != nil {
		if redo {
			s.history.Push(popped)
		}
		log.Error("generation failed", "error", err)
		return "", err
	}
	if entry != "" {
		s.history.Push(entry)
	}
	s.history.Push(historyEntry(reply))
	s.lastStat = stats
	log.Info("generated result",
		"text", strings.ReplaceAll(reply, "\n", ""),
		"tokens", stats.TokensGenerated,
		"duration", stats.Duration,
		"tps", stats.TPS,
	)
	return reply, nil
}

// window is the history the prompt sees once entry has been pushed,
// computed without mutating the stack. Callers hold s.mu.
func (s *Session) window(entry string) []string {
	w := s.history.Entries()
	if entry != "" {
		w = append(w, entry)
	}
	if c := s.history.Capacity(); c > 0 && len(w) > c {
		w = w[len(w)-c:]
	}
	return w
}

func (s *Session) generate(ctx context.Context, window []string, settings Settings) (string, decode.Stats, error) {
	var memories []string
	if s.mem != nil {
		memories = s.mem.Descriptions()
	}
	text := Unescape(prompt.Build(s.context, memories, window, ""))

	ids, err := safeEncode(s.tok, text)
	if err != nil {
		return "", decode.Stats{}, fmt.Errorf("encode prompt: %w", err)
	}
	batch := make([][]int, settings.BatchSize)
	for i := range batch {
		batch[i] = ids
	}

	start := time.Now()
	results, stats, err := s.gen.Generate(ctx, batch, settings.Sampling(), settings.OutputLength)
	if err != nil {
		return "", stats, err
	}
	logger.FromContext(ctx).Debug("decode finished",
		"prompt_tokens", len(ids),
		"model_calls", stats.ModelCalls,
		"elapsed", time.Since(start),
	)

	reply, err := s.continuation(pick(results), text)
	if err != nil {
		return "", stats, err
	}
	return reply, stats, nil
}

// continuation decodes the generated part of r, cut after the first stop
// pattern.
func (s *Session) continuation(r decode.Result, promptText string) (string, error) {
	gen := r.Continuation()
	full, err := safeDecode(s.tok, r.Tokens[:r.PromptLen+len(gen)])
	if err != nil {
		return "", fmt.Errorf("decode reply: %w", err)
	}
	out, ok := strings.CutPrefix(full, promptText)
	if !ok {
		if out, err = safeDecode(s.tok, gen); err != nil {
			return "", fmt.Errorf("decode reply: %w", err)
		}
	}
	out, _ = decode.Cut(out, s.patterns)
	return out, nil
}

// pick prefers the first sequence that finished on its own.
func pick(results []decode.Result) decode.Result {
	for _, r := range results {
		if r.Cause == decode.CausePattern || r.Cause == decode.CauseEOS {
			return r
		}
	}
	return results[0]
}

// Stop asks the running turn to end after its current decode step. It
// reports whether a turn was running.
func (s *Session) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.log.Info("stop requested")
	return true
}

// Busy reports whether a turn is generating.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Reset clears the history.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrBusy
	}
	s.history.Reset()
	s.log.Info("history reset")
	return nil
}

// History returns the current entries, oldest first.
func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries()
}

// LastStats returns the statistics of the last successful turn.
func (s *Session) LastStats() decode.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStat
}

// Unescape turns the escaped quote \' that chat clients send into '.
func Unescape(s string) string {
	return strings.ReplaceAll(s, `\'`, "'")
}

func historyEntry(reply string) string {
	if reply == "" || strings.HasSuffix(reply, "\n") {
		return reply
	}
	return reply + "\n"
}

func safeEncode(tok tokenizer.Tokenizer, text string) (ids []int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Encode: %v", rec)
		}
	}()
	return tok.Encode(text)
}

func safeDecode(tok tokenizer.Tokenizer, ids []int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Decode: %v", rec)
		}
	}()
	return tok.Decode(ids)
}
