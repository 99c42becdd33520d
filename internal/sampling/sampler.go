package sampling

import (
	"cmp"
	"math"
	"math/rand"
	"slices"
)

// Candidate is one entry of a next-token distribution.
type Candidate struct {
	Token int
	Prob  float64
}

// Candidates converts a dense distribution indexed by token id into a
// candidate list.
func Candidates(probs []float32) []Candidate {
	out := make([]Candidate, len(probs))
	for i, p := range probs {
		out[i] = Candidate{Token: i, Prob: float64(p)}
	}
	return out
}

// Sampler picks one token from a distribution. It owns no randomness of its
// own: the source is supplied by the caller so runs are reproducible under a
// fixed seed.
type Sampler struct {
	rng    *rand.Rand
	sorted []Candidate
	score  []float64
}

// NewSampler returns a sampler drawing from rng.
func NewSampler(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// NewSeeded is a convenience wrapper around NewSampler with a fresh source.
func NewSeeded(seed int64) *Sampler {
	return NewSampler(rand.New(rand.NewSource(seed)))
}

// Select draws a single token id from dist under cfg. The selection process
// is:
//
//  1. Sort candidates by descending probability, ties by ascending token id.
//  2. Reshape by temperature: score = exp(log(p) / T), then normalize.
//  3. Keep the top-1 (greedy), the top k, or the smallest prefix whose
//     cumulative probability reaches p (nucleus).
//  4. Renormalize the shortlist and draw from it with the injected source.
//
// dist is not modified.
func (s *Sampler) Select(dist []Candidate, cfg Config) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if len(dist) == 0 {
		return 0, invalidf("empty distribution")
	}

	sorted := append(s.sorted[:0], dist...)
	slices.SortFunc(sorted, func(a, b Candidate) int {
		if c := cmp.Compare(b.Prob, a.Prob); c != 0 {
			return c
		}
		return cmp.Compare(a.Token, b.Token)
	})
	s.sorted = sorted

	if cfg.Strategy == Greedy {
		return sorted[0].Token, nil
	}

	if cap(s.score) < len(sorted) {
		s.score = make([]float64, len(sorted))
	}
	score := s.score[:len(sorted)]
	invTemp := 1.0 / cfg.Temperature
	var sum float64
	for i, c := range sorted {
		if c.Prob <= 0 {
			score[i] = 0
			continue
		}
		score[i] = math.Exp(math.Log(c.Prob) * invTemp)
		sum += score[i]
	}
	if sum == 0 || math.IsInf(sum, 0) || math.IsNaN(sum) {
		return sorted[0].Token, nil
	}
	for i := range score {
		score[i] /= sum
	}

	cut := len(score)
	switch cfg.Strategy {
	case TopK:
		cut = min(cfg.TopK, len(score))
	case Nucleus:
		cut = nucleusCut(score, cfg.TopP)
	}

	var kept float64
	for i := 0; i < cut; i++ {
		kept += score[i]
	}
	if kept == 0 {
		return sorted[0].Token, nil
	}

	r := s.rng.Float64() * kept
	var c float64
	for i := 0; i < cut; i++ {
		c += score[i]
		if r < c {
			return sorted[i].Token, nil
		}
	}
	return sorted[cut-1].Token, nil
}

// SelectProbs is Select over a dense distribution indexed by token id.
func (s *Sampler) SelectProbs(probs []float32, cfg Config) (int, error) {
	return s.Select(Candidates(probs), cfg)
}

// nucleusCut returns the length of the smallest prefix of the sorted,
// normalized scores whose cumulative probability reaches p. At least one
// candidate is always kept; if rounding keeps the sum below p, all are kept.
func nucleusCut(score []float64, p float64) int {
	var c float64
	for i, v := range score {
		c += v
		if c >= p {
			return i + 1
		}
	}
	return len(score)
}
