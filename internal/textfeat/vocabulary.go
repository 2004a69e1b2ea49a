package textfeat

import (
	"errors"
	"sort"
)

// ErrEmptyVocabulary is returned when a corpus yields no tokens at all.
var ErrEmptyVocabulary = errors.New("corpus produced an empty vocabulary")

// Vector holds one count per vocabulary token, in vocabulary order.
type Vector []int

// Sum returns the total token count.
func (v Vector) Sum() int {
	n := 0
	for _, c := range v {
		n += c
	}
	return n
}

// Vocabulary maps tokens to vector columns. It is immutable after Fit and
// safe for concurrent use.
type Vocabulary struct {
	tokens []string
	index  map[string]int
}

// Fit builds a vocabulary from every distinct token of corpus.
func Fit(corpus []string) (*Vocabulary, error) {
	seen := make(map[string]struct{})
	for _, doc := range corpus {
		for _, tok := range Tokenize(doc) {
			seen[tok] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil, ErrEmptyVocabulary
	}

	tokens := make([]string, 0, len(seen))
	for tok := range seen {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	return NewVocabulary(tokens)
}

// NewVocabulary builds a vocabulary from an explicit, ordered token list.
// Duplicate tokens are rejected by keeping the first column.
func NewVocabulary(tokens []string) (*Vocabulary, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyVocabulary
	}
	v := &Vocabulary{
		tokens: make([]string, 0, len(tokens)),
		index:  make(map[string]int, len(tokens)),
	}
	for _, tok := range tokens {
		if _, ok := v.index[tok]; ok {
			continue
		}
		v.index[tok] = len(v.tokens)
		v.tokens = append(v.tokens, tok)
	}
	return v, nil
}

// Transform counts the vocabulary tokens of s. Unknown tokens are ignored,
// so the vector may be all zero.
func (v *Vocabulary) Transform(s string) Vector {
	vec := make(Vector, len(v.tokens))
	for _, tok := range Tokenize(s) {
		if i, ok := v.index[tok]; ok {
			vec[i]++
		}
	}
	return vec
}

// TransformAll transforms every document of corpus.
func (v *Vocabulary) TransformAll(corpus []string) []Vector {
	out := make([]Vector, len(corpus))
	for i, doc := range corpus {
		out[i] = v.Transform(doc)
	}
	return out
}

// Size returns the number of columns.
func (v *Vocabulary) Size() int {
	return len(v.tokens)
}

// Tokens returns the tokens in column order.
func (v *Vocabulary) Tokens() []string {
	return append([]string(nil), v.tokens...)
}

// Index returns the column of tok.
func (v *Vocabulary) Index(tok string) (int, bool) {
	i, ok := v.index[tok]
	return i, ok
}
