package session

import (
	"fmt"
	"math"

	"github.com/samcharles93/yukari/internal/sampling"
)

// Settings are the generation knobs a user can change between turns.
type Settings struct {
	Temperature float64 `json:"temperature" yaml:"temperature"`
	TopK        int     `json:"top_k" yaml:"top_k"`
	TopP        float64 `json:"top_p" yaml:"top_p"`
	// Nucleus selects top-p sampling instead of top-k.
	Nucleus bool `json:"nucleus" yaml:"nucleus"`
	// Greedy overrides both and always takes the most likely token.
	Greedy bool `json:"greedy" yaml:"greedy"`
	// PastLength bounds the history; 0 keeps everything.
	PastLength   int `json:"past_length" yaml:"past_length"`
	OutputLength int `json:"output_length" yaml:"output_length"`
	BatchSize    int `json:"batch_size" yaml:"batch_size"`
}

// DefaultSettings mirrors the values the bot has always started with.
func DefaultSettings() Settings {
	return Settings{
		Temperature:  0.8,
		TopK:         20,
		TopP:         0.9,
		PastLength:   16,
		OutputLength: 500,
		BatchSize:    1,
	}
}

// Sampling returns the per-call sampler configuration.
func (s Settings) Sampling() sampling.Config {
	cfg := sampling.Config{
		Strategy:    sampling.TopK,
		TopK:        s.TopK,
		TopP:        s.TopP,
		Temperature: s.Temperature,
	}
	switch {
	case s.Greedy:
		cfg.Strategy = sampling.Greedy
	case s.Nucleus:
		cfg.Strategy = sampling.Nucleus
	}
	return cfg
}

// Validate checks every field, including the sampling values of strategies
// that are not currently selected, so a toggle can never expose a bad value.
func (s Settings) Validate() error {
	switch {
	case !(s.Temperature > 0) || math.IsInf(s.Temperature, 1):
		return invalid("temperature must be a finite value > 0, got %v", s.Temperature)
	case s.TopK < 1:
		return invalid("top_k must be >= 1, got %d", s.TopK)
	case !(s.TopP > 0 && s.TopP <= 1):
		return invalid("top_p must be in (0, 1], got %v", s.TopP)
	case s.PastLength < 0:
		return invalid("past_length must be >= 0, got %d", s.PastLength)
	case s.OutputLength < 1:
		return invalid("output_length must be >= 1, got %d", s.OutputLength)
	case s.BatchSize < 1:
		return invalid("batch_size must be >= 1, got %d", s.BatchSize)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", sampling.ErrInvalidConfig, fmt.Sprintf(format, args...))
}
