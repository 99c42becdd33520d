package decode

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/samcharles93/yukari/internal/logger"
	"github.com/samcharles93/yukari/internal/sampling"
)

// Decoder runs the step-by-step generation loop over a batch.
type Decoder struct {
	Model     TokenPredictor
	Sampler   *sampling.Sampler
	Tokenizer Detokenizer

	StopTokens []int
	Patterns   []Pattern
	// PadToken is appended to stopped sequences so the batch stays
	// rectangular for the next model call.
	PadToken int
	// StopBatchOnPattern ends the whole call as soon as any sequence hits a
	// stop pattern. Sequences still running are returned with CauseNone.
	StopBatchOnPattern bool
}

// New returns a decoder that stops on eos or on a newline after the first
// generated character, pads with eos, and ends the batch on the first
// pattern stop.
func New(model TokenPredictor, sampler *sampling.Sampler, tok Detokenizer, eos int) *Decoder {
	return &Decoder{
		Model:              model,
		Sampler:            sampler,
		Tokenizer:          tok,
		StopTokens:         []int{eos},
		Patterns:           []Pattern{NewlinePattern},
		PadToken:           eos,
		StopBatchOnPattern: true,
	}
}

type slot struct {
	tokens    []int
	promptLen int
	sampled   int
	running   bool
	cause     StopCause
}

// Generate extends every sequence of batch by up to maxNewTokens sampled
// tokens. The model is called once per step for the whole batch. Prompts are
// copied; the caller's slices are never written.
//
// If ctx is cancelled the call ends at the next step boundary and the
// sequences still running are reported as stopped by max length. A model call
// that fails because ctx was cancelled counts as that boundary: the step's
// distributions are dropped and the tokens sampled so far are returned.
func (d *Decoder) Generate(ctx context.Context, batch [][]int, cfg sampling.Config, maxNewTokens int) ([]Result, Stats, error) {
	var stats Stats
	if err := cfg.Validate(); err != nil {
		return nil, stats, err
	}
	if err := checkBatch(batch); err != nil {
		return nil, stats, err
	}
	if maxNewTokens < 0 {
		return nil, stats, fmt.Errorf("%w: max new tokens must be >= 0, got %d", sampling.ErrInvalidConfig, maxNewTokens)
	}

	log := logger.FromContext(ctx)
	start := time.Now()

	slots := make([]slot, len(batch))
	rows := make([][]int, len(batch))
	for i, prompt := range batch {
		tokens := make([]int, len(prompt), len(prompt)+maxNewTokens)
		copy(tokens, prompt)
		slots[i] = slot{tokens: tokens, promptLen: len(prompt), running: true}
		rows[i] = tokens
	}

	exhausted := true
	for step := 0; step < maxNewTokens; step++ {
		if err := ctx.Err(); err != nil {
			log.Debug("generation interrupted", "step", step, "reason", err)
			break
		}

		probs, err := d.predict(ctx, rows)
		stats.ModelCalls++
		if err != nil {
			if ctx.Err() != nil {
				log.Debug("generation interrupted during model call", "step", step, "error", err)
				break
			}
			return nil, stats, &ModelInvocationError{Step: step, Err: err}
		}
		if len(probs) != len(slots) {
			return nil, stats, &ModelInvocationError{
				Step: step,
				Err:  fmt.Errorf("model returned %d distributions for a batch of %d", len(probs), len(slots)),
			}
		}
		stats.Steps++

		patternHit := false
		for i := range slots {
			s := &slots[i]
			if !s.running {
				s.tokens = append(s.tokens, d.PadToken)
				rows[i] = s.tokens
				continue
			}

			next, err := d.Sampler.SelectProbs(probs[i], cfg)
			if err != nil {
				return nil, stats, fmt.Errorf("sample sequence %d at step %d: %w", i, step, err)
			}
			s.tokens = append(s.tokens, next)
			rows[i] = s.tokens
			s.sampled++
			stats.TokensGenerated++

			if slices.Contains(d.StopTokens, next) {
				s.running = false
				s.cause = CauseEOS
				continue
			}
			if len(d.Patterns) > 0 {
				hit, err := d.matchPattern(s)
				if err != nil {
					return nil, stats, err
				}
				if hit {
					s.running = false
					s.cause = CausePattern
					patternHit = true
				}
			}
		}

		if patternHit && d.StopBatchOnPattern {
			exhausted = false
			break
		}
		if !anyRunning(slots) {
			break
		}
	}

	results := make([]Result, len(slots))
	for i, s := range slots {
		if s.running && exhausted {
			s.running = false
			s.cause = CauseMaxLength
		}
		results[i] = Result{
			Tokens:    s.tokens,
			PromptLen: s.promptLen,
			Sampled:   s.sampled,
			Stopped:   !s.running,
			Cause:     s.cause,
		}
	}

	stats.Duration = time.Since(start)
	if stats.Duration.Seconds() > 0 {
		stats.TPS = float64(stats.TokensGenerated) / stats.Duration.Seconds()
	}
	return results, stats, nil
}

func (d *Decoder) predict(ctx context.Context, rows [][]int) (probs [][]float32, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Predict: %v", rec)
		}
	}()
	return d.Model.Predict(ctx, rows)
}

func (d *Decoder) matchPattern(s *slot) (bool, error) {
	text, err := safeDecode(d.Tokenizer, s.tokens[s.promptLen:])
	if err != nil {
		return false, fmt.Errorf("decode generated tokens: %w", err)
	}
	_, ok := Cut(text, d.Patterns)
	return ok, nil
}

func safeDecode(tok Detokenizer, ids []int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Decode: %v", rec)
		}
	}()
	return tok.Decode(ids)
}

func checkBatch(batch [][]int) error {
	if len(batch) == 0 {
		return fmt.Errorf("%w: empty batch", sampling.ErrInvalidConfig)
	}
	n := len(batch[0])
	for i, seq := range batch {
		if len(seq) != n {
			return fmt.Errorf("%w: ragged batch: sequence %d has %d tokens, want %d", sampling.ErrInvalidConfig, i, len(seq), n)
		}
	}
	return nil
}

func anyRunning(slots []slot) bool {
	for _, s := range slots {
		if s.running {
			return true
		}
	}
	return false
}
