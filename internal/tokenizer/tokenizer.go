package tokenizer

// Tokenizer converts between text and the token ids a model consumes.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(ids []int) (string, error)
	// EOSID is the end-of-text id. Generation stops when it is sampled and
	// stopped batch slots are padded with it.
	EOSID() int
	VocabSize() int
}
