// Package tokenizer estimates token counts for prompts and responses when
// the inference provider does not report usage.
package tokenizer

import (
	"github.com/fluxai/flux-gateway/internal/utils/clientcache"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/pkoukk/tiktoken-go"
)

// defaultEncoding covers modern chat models well enough for cost estimation
const defaultEncoding = "cl100k_base"

// Estimator counts tokens using tiktoken, falling back to a character
// heuristic when the encoding cannot be loaded (tiktoken fetches its BPE
// data lazily and may be offline).
type Estimator struct {
	encoding  string
	encodings *clientcache.Cache[*tiktoken.Tiktoken]
}

// NewEstimator creates a token estimator with the default encoding
func NewEstimator() *Estimator {
	return &Estimator{
		encoding:  defaultEncoding,
		encodings: clientcache.NewCache[*tiktoken.Tiktoken](),
	}
}

// Estimate returns the token count of text. The result is never below 1 for
// non-empty input.
func (e *Estimator) Estimate(text string) int {
	if text == "" {
		return 0
	}

	enc, err := e.encodings.GetOrCreate(e.encoding, func() (*tiktoken.Tiktoken, error) {
		return tiktoken.GetEncoding(e.encoding)
	})
	if err != nil {
		fiberlog.Debugf("Tokenizer: encoding %s unavailable, using heuristic: %v", e.encoding, err)
		return heuristicCount(text)
	}

	n := len(enc.Encode(text, nil, nil))
	if n < 1 {
		n = 1
	}
	return n
}

// heuristicCount approximates tokens as one per four characters, which is
// close enough for English cost estimates
func heuristicCount(text string) int {
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}
