package translator

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	tokenizer "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

type tokenizerCounter struct {
	tok      *tokenizer.Tokenizer
	fallback TokenCounter
}

// NewCounter loads a HuggingFace tokenizer.json from path. An empty path
// selects the heuristic counter.
func NewCounter(path string) (TokenCounter, error) {
	if path == "" {
		return HeuristicCounter(), nil
	}
	tok, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &tokenizerCounter{tok: tok, fallback: HeuristicCounter()}, nil
}

func (c *tokenizerCounter) Count(text string) int {
	encoding, err := c.tok.EncodeSingle(text)
	if err != nil {
		return c.fallback.Count(text)
	}
	return len(encoding.GetIds())
}

type heuristicCounter struct{}

// HeuristicCounter estimates tokens without a vocabulary: one token per
// four Latin-script bytes, one per CJK or kana rune.
func HeuristicCounter() TokenCounter {
	return heuristicCounter{}
}

func (heuristicCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	wide, other := 0, 0
	for _, r := range text {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul, unicode.Thai) {
			wide++
			continue
		}
		other += utf8.RuneLen(r)
	}
	return wide + (other+3)/4
}
