package decode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TokenPredictor is the model as seen by the decoder. Predict receives a
// rectangular batch and returns, for every sequence, the next-token
// probability distribution at its final position, indexed by token id.
type TokenPredictor interface {
	Predict(ctx context.Context, batch [][]int) ([][]float32, error)
}

// Detokenizer turns token ids back into text. The decoder only needs it to
// look for stop patterns in generated text.
type Detokenizer interface {
	Decode(ids []int) (string, error)
}

// ErrModelInvocation is matched by every error returned from a failed model
// call.
var ErrModelInvocation = errors.New("model invocation failed")

// ModelInvocationError carries the step at which the model call failed.
type ModelInvocationError struct {
	Step int
	Err  error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("model invocation failed at step %d: %v", e.Step, e.Err)
}

func (e *ModelInvocationError) Unwrap() []error {
	return []error{ErrModelInvocation, e.Err}
}

// StopCause records why a sequence left the running state.
type StopCause int

const (
	// CauseNone means the sequence was still running when the call ended.
	CauseNone StopCause = iota
	CauseEOS
	CausePattern
	CauseMaxLength
)

func (c StopCause) String() string {
	switch c {
	case CauseEOS:
		return "eos"
	case CausePattern:
		return "pattern"
	case CauseMaxLength:
		return "max_length"
	default:
		return "none"
	}
}

// Pattern is a text stop condition evaluated against the decoded generated
// suffix of a sequence. A match counts only when it starts at byte offset
// MinOffset or later.
type Pattern struct {
	Text      string
	MinOffset int
}

// NewlinePattern stops generation at a newline that follows at least one
// generated character.
var NewlinePattern = Pattern{Text: "\n", MinOffset: 1}

// Index returns the byte offset of the first qualifying match in s, or -1.
func (p Pattern) Index(s string) int {
	if p.Text == "" || p.MinOffset > len(s) {
		return -1
	}
	start := max(p.MinOffset, 0)
	i := strings.Index(s[start:], p.Text)
	if i < 0 {
		return -1
	}
	return start + i
}

// Cut returns s up to and including the first qualifying match of any
// pattern. ok reports whether a match was found.
func Cut(s string, patterns []Pattern) (string, bool) {
	end := -1
	for _, p := range patterns {
		if i := p.Index(s); i >= 0 {
			if e := i + len(p.Text); end < 0 || e < end {
				end = e
			}
		}
	}
	if end < 0 {
		return s, false
	}
	return s[:end], true
}

// Result is the outcome of one batch slot.
type Result struct {
	// Tokens holds the prompt, the sampled tokens and any padding appended
	// after the sequence stopped.
	Tokens    []int
	PromptLen int
	// Sampled counts tokens chosen by the sampler, including a final stop
	// token.
	Sampled int
	Stopped bool
	Cause   StopCause
}

// Generated returns the sampled tokens without prompt or padding.
func (r Result) Generated() []int {
	return r.Tokens[r.PromptLen : r.PromptLen+r.Sampled]
}

// Continuation is Generated without the terminating stop token.
func (r Result) Continuation() []int {
	gen := r.Generated()
	if r.Cause == CauseEOS && len(gen) > 0 {
		return gen[:len(gen)-1]
	}
	return gen
}

type Stats struct {
	Steps           int
	ModelCalls      int
	TokensGenerated int
	Duration        time.Duration
	TPS             float64
}
