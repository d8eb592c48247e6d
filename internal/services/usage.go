package services

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter estimates token counts for transcript text. The realtime API
// does not report per-turn usage, so the session's token accounting is
// derived from the transcript.
type TokenCounter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	codec tokenizer.Codec
}

func NewTokenCounter() (TokenCounter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	return &tiktokenCounter{codec: codec}, nil
}

func (c *tiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		// Rough fallback: four characters per token
		return len(text) / 4
	}
	return len(ids)
}
