package model

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	predictPath = "/v1/predict"
	healthPath  = "/healthz"
)

// Remote calls a prediction sidecar over HTTP:
//
//	POST {base}/v1/predict  {"tokens": [[...], ...]}  ->  {"probs": [[...], ...]}
//	GET  {base}/healthz
//
// The sidecar returns one next-token distribution per sequence.
type Remote struct {
	baseURL    string
	vocab      int
	httpClient *http.Client
}

type predictRequest struct {
	Tokens [][]int `json:"tokens"`
}

type predictResponse struct {
	Probs [][]float32 `json:"probs"`
	Error string      `json:"error,omitempty"`
}

// NewRemote returns a client for baseURL. vocab, when positive, is checked
// against every returned distribution.
func NewRemote(baseURL string, vocab int, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		vocab:      vocab,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (r *Remote) Predict(ctx context.Context, batch [][]int) ([][]float32, error) {
	body, err := json.Marshal(predictRequest{Tokens: batch})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+predictPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("predict: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("predict: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("predict: decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("predict: %s", out.Error)
	}
	if len(out.Probs) != len(batch) {
		return nil, fmt.Errorf("predict: got %d distributions for %d sequences", len(out.Probs), len(batch))
	}
	if r.vocab > 0 {
		for i, p := range out.Probs {
			if len(p) != r.vocab {
				return nil, fmt.Errorf("predict: distribution %d has %d entries, want %d", i, len(p), r.vocab)
			}
		}
	}
	return out.Probs, nil
}

// HealthCheck returns nil when the sidecar answers GET /healthz with 200.
func (r *Remote) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("healthcheck: build request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck: status %d", resp.StatusCode)
	}
	return nil
}
