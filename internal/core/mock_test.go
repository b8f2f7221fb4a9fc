package core

import (
	"context"
	"errors"
	"sync"

	"github.com/agenthands/blockvoice/internal/core/challenge"
)

type MockRunner struct {
	mu     sync.Mutex
	Output string
	Err    error
	Code   []string
}

func (m *MockRunner) Run(ctx context.Context, code, language string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Code = append(m.Code, code)
	return m.Output, m.Err
}

type MockInterpreter struct {
	Phrase  string
	Err     error
	Offered []string
}

func (m *MockInterpreter) Interpret(ctx context.Context, transcript string, phrases []string) (string, error) {
	m.Offered = phrases
	if m.Err != nil {
		return "", m.Err
	}
	if m.Phrase == "" {
		return "", errors.New("no match")
	}
	return m.Phrase, nil
}

type MockNarrator struct {
	Response string
	Err      error
}

func (m *MockNarrator) Generate(ctx context.Context, prompt string) (string, error) {
	return m.Response, m.Err
}

// GatedInterpreter blocks in Interpret until Release is closed.
type GatedInterpreter struct {
	Phrase  string
	Entered chan struct{}
	Release chan struct{}
}

func (m *GatedInterpreter) Interpret(ctx context.Context, transcript string, phrases []string) (string, error) {
	close(m.Entered)
	select {
	case <-m.Release:
		return m.Phrase, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type MockProgress struct {
	mu    sync.Mutex
	Saved []challenge.Progress
	Err   error
}

func (m *MockProgress) SaveProgress(ctx context.Context, p challenge.Progress) (challenge.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return challenge.Progress{}, m.Err
	}
	m.Saved = append(m.Saved, p)
	return p, nil
}

func (m *MockProgress) Calls() []challenge.Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]challenge.Progress(nil), m.Saved...)
}
