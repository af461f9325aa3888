package hangman

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"
)

// DefaultWord is used when no word is configured.
const DefaultWord = "python"

// WordPicker chooses the target word for a new game.
type WordPicker struct {
	words []string
}

// NewWordPicker returns a picker over words; an empty list falls back to DefaultWord.
// Words that are not purely alphabetic are rejected.
func NewWordPicker(words ...string) (*WordPicker, error) {
	var clean []string
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		for _, r := range w {
			if !unicode.IsLetter(r) {
				return nil, ErrInvalidWord
			}
		}
		clean = append(clean, w)
	}
	if len(clean) == 0 {
		clean = []string{DefaultWord}
	}
	return &WordPicker{words: clean}, nil
}

// Pick returns the only word, or a random one when several are configured.
func (p *WordPicker) Pick() string {
	if p == nil || len(p.words) == 0 {
		return DefaultWord
	}
	if len(p.words) == 1 {
		return p.words[0]
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.words))))
	if err != nil {
		return p.words[0]
	}
	return p.words[n.Int64()]
}
