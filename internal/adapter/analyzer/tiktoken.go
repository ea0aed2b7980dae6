package analyzer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// FallbackEncoding is used for models tiktoken does not know.
const FallbackEncoding = "cl100k_base"

// TiktokenCounter counts BPE tokens with the encoding of a chat model.
type TiktokenCounter struct {
	enc      *tiktoken.Tiktoken
	encoding string
}

// NewTiktokenCounter loads the encoding for model. The first load may
// download the vocabulary; set TIKTOKEN_CACHE_DIR to reuse it across runs.
func NewTiktokenCounter(model string) (*TiktokenCounter, error) {
	name := EncodingName(model)
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer %s: %w", name, err)
	}
	return &TiktokenCounter{enc: enc, encoding: name}, nil
}

// EncodingName resolves the tiktoken encoding used by model, or
// FallbackEncoding for unknown models.
func EncodingName(model string) string {
	if name, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		return name
	}
	for prefix, name := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(model, prefix) {
			return name
		}
	}
	return FallbackEncoding
}

// CountTokens treats special-token markers in text as ordinary text.
func (c *TiktokenCounter) CountTokens(text string) (int, error) {
	return len(c.enc.EncodeOrdinary(text)), nil
}

// Encoding returns the encoding name, e.g. cl100k_base.
func (c *TiktokenCounter) Encoding() string {
	return c.encoding
}
