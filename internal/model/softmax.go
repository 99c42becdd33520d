// Package model provides the token predictors the decoder drives: a small
// deterministic in-process model and an HTTP client for a prediction
// sidecar that hosts the trained network.
package model

import "math"

// Softmax converts logits to probabilities in place and returns them. The
// maximum is subtracted first so large logits do not overflow.
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return logits
	}
	maxv := logits[0]
	for _, v := range logits[1:] {
		if v > maxv {
			maxv = v
		}
	}
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - maxv))
		logits[i] = float32(e)
		sum += e
	}
	inv := float32(1 / sum)
	for i := range logits {
		logits[i] *= inv
	}
	return logits
}
