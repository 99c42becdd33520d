package tokenizer

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// GPT2EndOfText is the id of <|endoftext|> in the released GPT-2 vocabulary.
const GPT2EndOfText = 50256

// EndOfTextToken is the literal spelling of the end-of-text token.
const EndOfTextToken = "<|endoftext|>"

// Go regexp has no lookahead, so the trailing-whitespace branch of the GPT-2
// pattern collapses into a plain \s+ match.
var gpt2Pattern = regexp.MustCompile(`'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+`)

// GPT2Tokenizer is the byte-level BPE tokenizer the GPT-2 family was trained
// with. It is safe for concurrent use.
type GPT2Tokenizer struct {
	encoder     map[string]int
	decoder     []string
	ranks       map[Pair]int
	byteEncoder [256]string
	byteDecoder map[rune]byte
	special     []string
	eosID       int

	mu    sync.Mutex
	cache map[string][]string
}

// NewGPT2 builds a tokenizer from an id-ordered vocabulary and the ranked
// merge list. Merge lines are "left right"; blank lines and "#" comments
// (the version header of vocab.bpe) are skipped.
func NewGPT2(vocab []string, merges []string, eosID int) (*GPT2Tokenizer, error) {
	if len(vocab) == 0 {
		return nil, fmt.Errorf("empty vocabulary")
	}
	if eosID < 0 || eosID >= len(vocab) {
		return nil, fmt.Errorf("eos id %d outside vocabulary of %d tokens", eosID, len(vocab))
	}
	t := &GPT2Tokenizer{
		encoder: make(map[string]int, len(vocab)),
		decoder: append([]string(nil), vocab...),
		ranks:   make(map[Pair]int, len(merges)),
		special: collectSpecials(vocab),
		eosID:   eosID,
		cache:   make(map[string][]string),
	}
	for id, tok := range vocab {
		t.encoder[tok] = id
	}
	for _, line := range merges {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		a, b, ok := strings.Cut(line, " ")
		if !ok || strings.Contains(b, " ") {
			continue
		}
		p := Pair{A: a, B: b}
		if _, dup := t.ranks[p]; !dup {
			t.ranks[p] = len(t.ranks)
		}
	}
	t.byteEncoder, t.byteDecoder = bytesToUnicode()
	return t, nil
}

// Encode splits text into pre-tokens, maps their bytes onto printable runes
// and applies the ranked merges. Special tokens spelled out in text, such as
// <|endoftext|>, encode to their own id.
func (t *GPT2Tokenizer) Encode(text string) ([]int, error) {
	var ids []int
	for _, part := range splitSpecials(text, t.special) {
		if part.isSpecial {
			ids = append(ids, t.encoder[part.text])
			continue
		}
		for _, word := range gpt2Pattern.FindAllString(part.text, -1) {
			for _, piece := range t.bpe(t.byteEncode(word)) {
				id, ok := t.encoder[piece]
				if !ok {
					return nil, fmt.Errorf("token %q not in vocabulary", piece)
				}
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// Decode maps ids back to bytes. Invalid UTF-8, which appears when a
// multi-byte character is split across a generation boundary, is replaced
// with U+FFFD.
func (t *GPT2Tokenizer) Decode(ids []int) (string, error) {
	var b []byte
	for _, id := range ids {
		if id < 0 || id >= len(t.decoder) {
			return "", fmt.Errorf("token id out of range: %d", id)
		}
		for _, r := range t.decoder[id] {
			if by, ok := t.byteDecoder[r]; ok {
				b = append(b, by)
			} else {
				b = append(b, string(r)...)
			}
		}
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}

func (t *GPT2Tokenizer) EOSID() int     { return t.eosID }
func (t *GPT2Tokenizer) VocabSize() int { return len(t.decoder) }

// TokenString returns the raw vocabulary entry for id, or "" when out of
// range.
func (t *GPT2Tokenizer) TokenString(id int) string {
	if id < 0 || id >= len(t.decoder) {
		return ""
	}
	return t.decoder[id]
}

func (t *GPT2Tokenizer) byteEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		b.WriteString(t.byteEncoder[s[i]])
	}
	return b.String()
}

func (t *GPT2Tokenizer) bpe(token string) []string {
	t.mu.Lock()
	cached, ok := t.cache[token]
	t.mu.Unlock()
	if ok {
		return cached
	}

	word := splitRunes(token)
	for len(word) > 1 {
		best, found := t.lowestRank(word)
		if !found {
			break
		}
		word = mergePair(word, best)
	}

	t.mu.Lock()
	t.cache[token] = word
	t.mu.Unlock()
	return word
}

func (t *GPT2Tokenizer) lowestRank(word []string) (Pair, bool) {
	var best Pair
	bestRank := -1
	for i := 0; i+1 < len(word); i++ {
		p := Pair{A: word[i], B: word[i+1]}
		if r, ok := t.ranks[p]; ok && (bestRank < 0 || r < bestRank) {
			best, bestRank = p, r
		}
	}
	return best, bestRank >= 0
}
