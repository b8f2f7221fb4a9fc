package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockLLM struct {
	Response string
	Err      error
	Prompts  []string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	return m.Response, m.Err
}

var phrases = []string{"undo", "add for loop", "zoom in"}

func TestInterpret(t *testing.T) {
	m := &MockLLM{Response: " 1\n"}
	got, err := NewInterpreter(m).Interpret(context.Background(), "make a counting loop", phrases)
	require.NoError(t, err)
	assert.Equal(t, "add for loop", got)
	require.Len(t, m.Prompts, 1)
	assert.Contains(t, m.Prompts[0], `"make a counting loop"`)
	assert.Contains(t, m.Prompts[0], "[2] zoom in")
}

func TestInterpret_Declines(t *testing.T) {
	for _, resp := range []string{"-1", "none", "7"} {
		_, err := NewInterpreter(&MockLLM{Response: resp}).Interpret(context.Background(), "sing a song", phrases)
		assert.ErrorIs(t, err, ErrNoInterpretation, resp)
	}
}

func TestInterpret_ProviderError(t *testing.T) {
	m := &MockLLM{Err: errors.New("rate limited")}
	_, err := NewInterpreter(m).Interpret(context.Background(), "anything", phrases)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoInterpretation)
}

func TestInterpret_EmptyInput(t *testing.T) {
	m := &MockLLM{Response: "0"}
	_, err := NewInterpreter(m).Interpret(context.Background(), "  ", phrases)
	assert.ErrorIs(t, err, ErrNoInterpretation)
	assert.Empty(t, m.Prompts)
}

func TestParseIndex(t *testing.T) {
	i, ok := parseIndex("The answer is 12.")
	assert.True(t, ok)
	assert.Equal(t, 12, i)

	_, ok = parseIndex("nothing")
	assert.False(t, ok)
}
