package decode

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/samcharles93/yukari/internal/sampling"
)

const (
	testVocab = 8
	testEOS   = 7
)

// scriptedModel answers every call with a one-hot distribution taken from
// script[sequence][call].
type scriptedModel struct {
	script [][]int
	calls  int
	widths []int
	err    error
	failAt int
}

func (m *scriptedModel) Predict(_ context.Context, batch [][]int) ([][]float32, error) {
	call := m.calls
	m.calls++
	if m.err != nil && call == m.failAt {
		return nil, m.err
	}
	m.widths = append(m.widths, len(batch[0]))
	for _, row := range batch {
		if len(row) != len(batch[0]) {
			panic("ragged batch passed to model")
		}
	}
	out := make([][]float32, len(batch))
	for i := range batch {
		probs := make([]float32, testVocab)
		tok := testEOS
		if call < len(m.script[i]) {
			tok = m.script[i][call]
		}
		probs[tok] = 1
		out[i] = probs
	}
	return out, nil
}

// letters decodes id n as the n-th letter, 6 as a newline and 7 as "<eos>".
type letters struct{}

func (letters) Decode(ids []int) (string, error) {
	var b strings.Builder
	for _, id := range ids {
		switch {
		case id == 6:
			b.WriteByte('\n')
		case id == testEOS:
			b.WriteString("<eos>")
		default:
			b.WriteByte(byte('a' + id))
		}
	}
	return b.String(), nil
}

var greedy = sampling.Config{Strategy: sampling.Greedy, Temperature: 1}

func newTestDecoder(m TokenPredictor) *Decoder {
	return New(m, sampling.NewSeeded(1), letters{}, testEOS)
}

func TestGenerateStopsOnEOS(t *testing.T) {
	t.Parallel()

	m := &scriptedModel{script: [][]int{{0, 1, testEOS, 2}}}
	res, stats, err := newTestDecoder(m).Generate(context.Background(), [][]int{{3, 3}}, greedy, 10)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	r := res[0]
	if !r.Stopped || r.Cause != CauseEOS {
		t.Fatalf("expected eos stop, got stopped=%v cause=%v", r.Stopped, r.Cause)
	}
	if want := []int{0, 1, testEOS}; !reflect.DeepEqual(r.Generated(), want) {
		t.Fatalf("generated %v, want %v", r.Generated(), want)
	}
	if want := []int{0, 1}; !reflect.DeepEqual(r.Continuation(), want) {
		t.Fatalf("continuation %v, want %v", r.Continuation(), want)
	}
	if m.calls != 3 || stats.ModelCalls != 3 {
		t.Fatalf("expected 3 model calls, got %d (stats %d)", m.calls, stats.ModelCalls)
	}
}

func TestGenerateMaxLength(t *testing.T) {
	t.Parallel()

	m := &scriptedModel{script: [][]int{{0, 1, 2, 3, 4, 5}}}
	res, _, err := newTestDecoder(m).Generate(context.Background(), [][]int{{1}}, greedy, 3)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res[0].Cause != CauseMaxLength || !res[0].Stopped {
		t.Fatalf("expected max length stop, got %+v", res[0])
	}
	if len(res[0].Generated()) != 3 {
		t.Fatalf("expected 3 tokens, got %v", res[0].Generated())
	}
}

func TestGeneratePatternNeedsOneCharacter(t *testing.T) {
	t.Parallel()

	// A leading newline does not stop; the second one does.
	m := &scriptedModel{script: [][]int{{6, 0, 1, 6, 2}}}
	res, _, err := newTestDecoder(m).Generate(context.Background(), [][]int{{0}}, greedy, 10)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res[0].Cause != CausePattern {
		t.Fatalf("expected pattern stop, got %v", res[0].Cause)
	}
	if want := []int{6, 0, 1, 6}; !reflect.DeepEqual(res[0].Generated(), want) {
		t.Fatalf("generated %v, want %v", res[0].Generated(), want)
	}
}

func TestGeneratePatternIgnoresPrompt(t *testing.T) {
	t.Parallel()

	m := &scriptedModel{script: [][]int{{0, 1, 2}}}
	res, _, err := newTestDecoder(m).Generate(context.Background(), [][]int{{0, 6, 0, 6}}, greedy, 3)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res[0].Cause != CauseMaxLength {
		t.Fatalf("newlines in the prompt must not stop generation, got %v", res[0].Cause)
	}
	if want := []int{0, 6, 0, 6}; !reflect.DeepEqual(res[0].Tokens[:4], want) {
		t.Fatalf("prompt region changed: %v", res[0].Tokens[:4])
	}
}

func TestGeneratePadsStoppedSequences(t *testing.T) {
	t.Parallel()

	m := &scriptedModel{script: [][]int{
		{0, testEOS},
		{1, 2, 3, 4},
	}}
	res, _, err := newTestDecoder(m).Generate(context.Background(), [][]int{{5, 5}, {5, 5}}, greedy, 4)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if want := []int{2, 3, 4, 5}; !reflect.DeepEqual(m.widths, want) {
		t.Fatalf("batch widths %v, want %v", m.widths, want)
	}
	if want := []int{5, 5, 0, testEOS, testEOS, testEOS}; !reflect.DeepEqual(res[0].Tokens, want) {
		t.Fatalf("padded tokens %v, want %v", res[0].Tokens, want)
	}
	if res[0].Sampled != 2 || res[0].Cause != CauseEOS {
		t.Fatalf("unexpected first result %+v", res[0])
	}
	if res[1].Cause != CauseMaxLength {
		t.Fatalf("expected second sequence to hit max length, got %v", res[1].Cause)
	}
}

func TestGenerateNoCallsAfterAllStopped(t *testing.T) {
	t.Parallel()

	m := &scriptedModel{script: [][]int{{testEOS}, {1, testEOS}}}
	_, stats, err := newTestDecoder(m).Generate(context.Background(), [][]int{{1}, {1}}, greedy, 50)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if m.calls != 2 || stats.Steps != 2 {
		t.Fatalf("expected 2 model calls, got %d", m.calls)
	}
}

func TestGeneratePatternStopsWholeBatch(t *testing.T) {
	t.Parallel()

	m := &scriptedModel{script: [][]int{
		{0, 6, 1},
		{1, 2, 3},
	}}
	res, _, err := newTestDecoder(m).Generate(context.Background(), [][]int{{0}, {0}}, greedy, 10)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if m.calls != 2 {
		t.Fatalf("expected the batch to end after 2 calls, got %d", m.calls)
	}
	if res[0].Cause != CausePattern || !res[0].Stopped {
		t.Fatalf("unexpected first result %+v", res[0])
	}
	if res[1].Cause != CauseNone || res[1].Stopped {
		t.Fatalf("expected second sequence to be truncated, got %+v", res[1])
	}
}

func TestGeneratePatternPerSequence(t *testing.T) {
	t.Parallel()

	m := &scriptedModel{script: [][]int{
		{0, 6, 1},
		{1, 2, 3},
	}}
	d := newTestDecoder(m)
	d.StopBatchOnPattern = false
	res, _, err := d.Generate(context.Background(), [][]int{{0}, {0}}, greedy, 3)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res[0].Cause != CausePattern || res[1].Cause != CauseMaxLength {
		t.Fatalf("unexpected causes %v / %v", res[0].Cause, res[1].Cause)
	}
	if m.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", m.calls)
	}
}

func TestGenerateModelError(t *testing.T) {
	t.Parallel()

	boom := errors.New("device lost")
	m := &scriptedModel{script: [][]int{{0, 1, 2}}, err: boom, failAt: 1}
	_, _, err := newTestDecoder(m).Generate(context.Background(), [][]int{{0}}, greedy, 5)
	if !errors.Is(err, ErrModelInvocation) {
		t.Fatalf("expected ErrModelInvocation, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	var mie *ModelInvocationError
	if !errors.As(err, &mie) || mie.Step != 1 {
		t.Fatalf("expected failure at step 1, got %v", err)
	}
}

type panicModel struct{}

func (panicModel) Predict(context.Context, [][]int) ([][]float32, error) {
	panic("boom")
}

func TestGenerateConvertsPredictPanic(t *testing.T) {
	t.Parallel()

	_, _, err := newTestDecoder(panicModel{}).Generate(context.Background(), [][]int{{0}}, greedy, 1)
	if !errors.Is(err, ErrModelInvocation) {
		t.Fatalf("expected ErrModelInvocation, got %v", err)
	}
	if !strings.Contains(err.Error(), "panic in Predict") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	d := newTestDecoder(&scriptedModel{script: [][]int{{0}, {0}}})
	tests := []struct {
		name  string
		batch [][]int
		cfg   sampling.Config
		max   int
	}{
		{"ragged", [][]int{{1, 2}, {1}}, greedy, 1},
		{"empty", nil, greedy, 1},
		{"temperature", [][]int{{1}}, sampling.Config{Strategy: sampling.Greedy}, 1},
		{"negative-max", [][]int{{1}}, greedy, -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := d.Generate(context.Background(), tc.batch, tc.cfg, tc.max)
			if !errors.Is(err, sampling.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

// cancellingModel cancels the context during its second call.
type cancellingModel struct {
	scriptedModel
	cancel context.CancelFunc
}

func (m *cancellingModel) Predict(ctx context.Context, batch [][]int) ([][]float32, error) {
	if m.calls == 1 {
		m.cancel()
	}
	return m.scriptedModel.Predict(ctx, batch)
}

func TestGenerateCancelBetweenSteps(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := &cancellingModel{scriptedModel: scriptedModel{script: [][]int{{0, 1, 2, 3}}}, cancel: cancel}
	res, _, err := newTestDecoder(m).Generate(ctx, [][]int{{0}}, greedy, 10)
	if err != nil {
		t.Fatalf("cancellation should yield a partial result, got %v", err)
	}
	if m.calls != 2 {
		t.Fatalf("expected generation to end after the current step, got %d calls", m.calls)
	}
	if res[0].Cause != CauseMaxLength || len(res[0].Generated()) != 2 {
		t.Fatalf("unexpected partial result %+v", res[0])
	}
}

func TestPatternIndexAndCut(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"hello\nworld", "hello\n", true},
		{"\nhello", "\nhello", false},
		{"\n\nx", "\n\n", true},
		{"", "", false},
		{"plain", "plain", false},
	}
	for _, tc := range tests {
		got, ok := Cut(tc.in, []Pattern{NewlinePattern})
		if got != tc.want || ok != tc.ok {
			t.Errorf("Cut(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

// blockingModel answers its first call and then waits for ctx on every later
// call, failing the way a network client does when its request is cancelled.
type blockingModel struct {
	scriptedModel
	started chan struct{}
}

func (m *blockingModel) Predict(ctx context.Context, batch [][]int) ([][]float32, error) {
	if m.calls == 1 {
		close(m.started)
		<-ctx.Done()
		m.calls++
		return nil, fmt.Errorf("predict: %w", ctx.Err())
	}
	return m.scriptedModel.Predict(ctx, batch)
}

func TestGenerateCancelDuringModelCall(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := &blockingModel{scriptedModel: scriptedModel{script: [][]int{{0, 1, 2, 3}}}, started: make(chan struct{})}
	go func() {
		<-m.started
		cancel()
	}()

	res, stats, err := newTestDecoder(m).Generate(ctx, [][]int{{4}}, greedy, 10)
	if err != nil {
		t.Fatalf("a cancelled model call should yield a partial result, got %v", err)
	}
	if !res[0].Stopped || res[0].Cause != CauseMaxLength {
		t.Fatalf("unexpected partial result %+v", res[0])
	}
	if want := []int{0}; !reflect.DeepEqual(res[0].Generated(), want) {
		t.Fatalf("generated %v, want %v", res[0].Generated(), want)
	}
	if stats.ModelCalls != 2 || stats.Steps != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestGenerateModelErrorWithLiveContext(t *testing.T) {
	t.Parallel()

	// A failure unrelated to cancellation is still reported.
	m := &scriptedModel{script: [][]int{{0}}, err: context.DeadlineExceeded, failAt: 0}
	_, _, err := newTestDecoder(m).Generate(context.Background(), [][]int{{0}}, greedy, 3)
	if !errors.Is(err, ErrModelInvocation) {
		t.Fatalf("expected ErrModelInvocation, got %v", err)
	}
}
