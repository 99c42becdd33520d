package tokenizer

import (
	"slices"
	"strings"
)

// Pair is an adjacent pair of BPE symbols.
type Pair struct {
	A string
	B string
}

type textPart struct {
	text      string
	isSpecial bool
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func mergePair(word []string, pair Pair) []string {
	out := make([]string, 0, len(word))
	for i := 0; i < len(word); i++ {
		if i+1 < len(word) && word[i] == pair.A && word[i+1] == pair.B {
			out = append(out, pair.A+pair.B)
			i++
			continue
		}
		out = append(out, word[i])
	}
	return out
}

// collectSpecials returns the <|...|> entries of vocab, longest first so
// that matching is greedy.
func collectSpecials(vocab []string) []string {
	var out []string
	for _, tok := range vocab {
		if len(tok) >= 4 && strings.HasPrefix(tok, "<|") && strings.HasSuffix(tok, "|>") {
			out = append(out, tok)
		}
	}
	slices.SortStableFunc(out, func(a, b string) int { return len(b) - len(a) })
	return out
}

func splitSpecials(text string, specials []string) []textPart {
	if len(specials) == 0 || !strings.Contains(text, "<|") {
		return []textPart{{text: text}}
	}
	var parts []textPart
	start := 0
	for i := 0; i < len(text); {
		match := ""
		if text[i] == '<' {
			for _, sp := range specials {
				if strings.HasPrefix(text[i:], sp) {
					match = sp
					break
				}
			}
		}
		if match == "" {
			i++
			continue
		}
		if i > start {
			parts = append(parts, textPart{text: text[start:i]})
		}
		parts = append(parts, textPart{text: match, isSpecial: true})
		i += len(match)
		start = i
	}
	if start < len(text) {
		parts = append(parts, textPart{text: text[start:]})
	}
	return parts
}

// bytesToUnicode assigns every byte a printable rune. Printable Latin-1
// bytes map to themselves; the rest are shifted above U+00FF in byte order.
func bytesToUnicode() ([256]string, map[rune]byte) {
	var enc [256]string
	dec := make(map[rune]byte, 256)
	shifted := 0
	for b := 0; b < 256; b++ {
		r := rune(b)
		printable := (b >= '!' && b <= '~') || (b >= 0xA1 && b <= 0xAC) || (b >= 0xAE && b <= 0xFF)
		if !printable {
			r = rune(256 + shifted)
			shifted++
		}
		enc[b] = string(r)
		dec[r] = byte(b)
	}
	return enc, dec
}
