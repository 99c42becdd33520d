package tokenizer

import (
	"fmt"
	"strings"
)

// ByteEOS is the end-of-text id of ByteTokenizer.
const ByteEOS = 256

// ByteTokenizer maps every byte to its own id and reserves 256 for
// end-of-text. It needs no vocabulary files and pairs with the toy model.
type ByteTokenizer struct{}

func (ByteTokenizer) Encode(text string) ([]int, error) {
	ids := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		ids[i] = int(text[i])
	}
	return ids, nil
}

// Decode drops end-of-text ids.
func (ByteTokenizer) Decode(ids []int) (string, error) {
	b := make([]byte, 0, len(ids))
	for _, id := range ids {
		switch {
		case id == ByteEOS:
		case id >= 0 && id < 256:
			b = append(b, byte(id))
		default:
			return "", fmt.Errorf("token id out of range: %d", id)
		}
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}

func (ByteTokenizer) EOSID() int     { return ByteEOS }
func (ByteTokenizer) VocabSize() int { return ByteEOS + 1 }
