package sampling

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidConfig reports a sampling configuration that cannot be used.
var ErrInvalidConfig = errors.New("invalid sampling config")

type invalidConfigError struct {
	msg string
}

func (e invalidConfigError) Error() string {
	return "invalid sampling config: " + e.msg
}

func (e invalidConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func invalidf(format string, args ...any) error {
	return invalidConfigError{msg: fmt.Sprintf(format, args...)}
}

// Strategy selects how candidates are filtered before the draw.
type Strategy int

const (
	Greedy Strategy = iota
	TopK
	Nucleus
)

func (s Strategy) String() string {
	switch s {
	case Greedy:
		return "greedy"
	case TopK:
		return "top_k"
	case Nucleus:
		return "nucleus"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy accepts the names printed by Strategy.String plus a few
// common spellings.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "greedy", "argmax":
		return Greedy, nil
	case "top_k", "top-k", "topk":
		return TopK, nil
	case "nucleus", "top_p", "top-p", "topp":
		return Nucleus, nil
	}
	return 0, invalidf("unknown strategy %q", s)
}

// Config is the per-call sampling policy. TopK is read only by the TopK
// strategy and TopP only by Nucleus.
type Config struct {
	Strategy    Strategy
	TopK        int
	TopP        float64
	Temperature float64
}

// Validate checks the fields the selected strategy reads. Temperature must be
// positive for every strategy.
func (c Config) Validate() error {
	if math.IsNaN(c.Temperature) || math.IsInf(c.Temperature, 1) || c.Temperature <= 0 {
		return invalidf("temperature must be a finite value > 0, got %g", c.Temperature)
	}
	switch c.Strategy {
	case Greedy:
	case TopK:
		if c.TopK < 1 {
			return invalidf("top_k must be >= 1, got %d", c.TopK)
		}
	case Nucleus:
		if math.IsNaN(c.TopP) || c.TopP <= 0 || c.TopP > 1 {
			return invalidf("top_p must be in (0, 1], got %g", c.TopP)
		}
	default:
		return invalidf("unknown strategy %d", int(c.Strategy))
	}
	return nil
}

func (c Config) String() string {
	switch c.Strategy {
	case TopK:
		return fmt.Sprintf("top_k(%d) temp=%g", c.TopK, c.Temperature)
	case Nucleus:
		return fmt.Sprintf("nucleus(%g) temp=%g", c.TopP, c.Temperature)
	default:
		return fmt.Sprintf("%s temp=%g", c.Strategy, c.Temperature)
	}
}
