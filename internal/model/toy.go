package model

import (
	"context"
	"fmt"
	"math/rand"
)

// Toy is a tiny deterministic language model: the hidden state is the
// embedding of the last token blended with the mean embedding of a short
// trailing window, projected back to vocabulary logits. Weights come from a
// seed, so equal seeds give equal distributions. It exists to exercise the
// decode loop end to end without a trained network.
type Toy struct {
	Vocab  int
	Hidden int
	Window int

	emb  []float32 // [Vocab x Hidden]
	proj []float32 // [Hidden x Vocab]
	bias []float32 // [Vocab]
}

// NewToy builds a model with weights drawn from seed.
func NewToy(vocab, hidden int, seed int64) (*Toy, error) {
	if vocab < 1 || hidden < 1 {
		return nil, fmt.Errorf("toy model: vocab and hidden must be >= 1, got %d and %d", vocab, hidden)
	}
	m := &Toy{
		Vocab:  vocab,
		Hidden: hidden,
		Window: 8,
		emb:    make([]float32, vocab*hidden),
		proj:   make([]float32, hidden*vocab),
		bias:   make([]float32, vocab),
	}
	rng := rand.New(rand.NewSource(seed))
	for i := range m.emb {
		m.emb[i] = (rng.Float32() - 0.5) * 2
	}
	for i := range m.proj {
		m.proj[i] = (rng.Float32() - 0.5) * 2
	}
	return m, nil
}

// Boost adds delta to the logit bias of tok. Raising end-of-text or newline
// makes toy generations end sooner.
func (m *Toy) Boost(tok int, delta float32) {
	if tok >= 0 && tok < m.Vocab {
		m.bias[tok] += delta
	}
}

// Predict returns the next-token distribution after the last position of
// every sequence.
func (m *Toy) Predict(ctx context.Context, batch [][]int) ([][]float32, error) {
	out := make([][]float32, len(batch))
	h := make([]float32, m.Hidden)
	for i, seq := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(seq) == 0 {
			return nil, fmt.Errorf("toy model: sequence %d is empty", i)
		}
		m.hidden(h, seq)
		out[i] = Softmax(m.logits(h))
	}
	return out, nil
}

// Forward returns the logits for a single context.
func (m *Toy) Forward(seq []int) []float32 {
	h := make([]float32, m.Hidden)
	m.hidden(h, seq)
	return m.logits(h)
}

func (m *Toy) hidden(h []float32, seq []int) {
	clear(h)
	start := max(len(seq)-m.Window, 0)
	inv := 1 / float32(len(seq)-start)
	for _, tok := range seq[start:] {
		row := m.row(tok)
		for j := range h {
			h[j] += 0.5 * inv * row[j]
		}
	}
	last := m.row(seq[len(seq)-1])
	for j := range h {
		h[j] += 0.5 * last[j]
	}
}

func (m *Toy) logits(h []float32) []float32 {
	logits := make([]float32, m.Vocab)
	copy(logits, m.bias)
	for i, hv := range h {
		row := m.proj[i*m.Vocab : (i+1)*m.Vocab]
		for j, w := range row {
			logits[j] += hv * w
		}
	}
	return logits
}

// row wraps out-of-range ids into the vocabulary.
func (m *Toy) row(tok int) []float32 {
	tok %= m.Vocab
	if tok < 0 {
		tok += m.Vocab
	}
	return m.emb[tok*m.Hidden : (tok+1)*m.Hidden]
}
