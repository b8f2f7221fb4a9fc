// Package llm wraps the hosted model providers used for speech transcription
// and for interpreting transcripts the lexicon cannot match.
package llm

import (
	"context"
)

type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
