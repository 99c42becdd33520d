package tokenizer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// File names of a GPT-2 model directory.
const (
	EncoderFile = "encoder.json"
	MergesFile  = "vocab.bpe"
)

// LoadGPT2Dir loads encoder.json and vocab.bpe from dir.
func LoadGPT2Dir(dir string) (*GPT2Tokenizer, error) {
	return LoadGPT2Files(filepath.Join(dir, EncoderFile), filepath.Join(dir, MergesFile))
}

// LoadGPT2Files loads a tokenizer from a token→id JSON object and a ranked
// merge list. Ids must cover 0..n-1 without gaps, and the vocabulary must
// contain <|endoftext|>.
func LoadGPT2Files(encoderPath, mergesPath string) (*GPT2Tokenizer, error) {
	raw, err := os.ReadFile(encoderPath)
	if err != nil {
		return nil, fmt.Errorf("read encoder: %w", err)
	}
	var encoder map[string]int
	if err := json.Unmarshal(raw, &encoder); err != nil {
		return nil, fmt.Errorf("parse %s: %w", encoderPath, err)
	}
	vocab, err := vocabFromEncoder(encoder)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", encoderPath, err)
	}
	eos, ok := encoder[EndOfTextToken]
	if !ok {
		return nil, fmt.Errorf("%s: missing %s", encoderPath, EndOfTextToken)
	}

	merges, err := readLines(mergesPath)
	if err != nil {
		return nil, fmt.Errorf("read merges: %w", err)
	}
	return NewGPT2(vocab, merges, eos)
}

func vocabFromEncoder(encoder map[string]int) ([]string, error) {
	if len(encoder) == 0 {
		return nil, fmt.Errorf("empty encoder")
	}
	vocab := make([]string, len(encoder))
	seen := make([]bool, len(encoder))
	for tok, id := range encoder {
		if id < 0 || id >= len(vocab) {
			return nil, fmt.Errorf("token %q has id %d outside 0..%d", tok, id, len(vocab)-1)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate id %d", id)
		}
		vocab[id] = tok
		seen[id] = true
	}
	return vocab, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
