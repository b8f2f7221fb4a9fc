package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrNoInterpretation = errors.New("no matching command")

var indexPattern = regexp.MustCompile(`-?\d+`)

// Interpreter asks a model which known command phrase an unmatched transcript
// most likely meant, e.g. "make a loop that counts" -> "add for loop".
type Interpreter struct {
	LLM LLMClient
}

func NewInterpreter(client LLMClient) *Interpreter {
	return &Interpreter{LLM: client}
}

// Interpret returns one of phrases, or ErrNoInterpretation when the model
// declines or answers with something unusable.
func (i *Interpreter) Interpret(ctx context.Context, transcript string, phrases []string) (string, error) {
	if len(phrases) == 0 || strings.TrimSpace(transcript) == "" {
		return "", ErrNoInterpretation
	}

	var list strings.Builder
	for idx, p := range phrases {
		fmt.Fprintf(&list, "[%d] %s\n", idx, p)
	}

	prompt := fmt.Sprintf(`You map spoken requests to commands in a block-based coding editor.
Request: %q

Commands:
%s
Reply with ONLY the index of the command the request most likely means.
Reply -1 if none of them fit.
Do not output any other text.`, transcript, list.String())

	resp, err := i.LLM.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("interpret transcript: %w", err)
	}
	idx, ok := parseIndex(resp)
	if !ok || idx < 0 || idx >= len(phrases) {
		return "", ErrNoInterpretation
	}
	return phrases[idx], nil
}

func parseIndex(s string) (int, bool) {
	m := indexPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	i, err := strconv.Atoi(m)
	return i, err == nil
}
