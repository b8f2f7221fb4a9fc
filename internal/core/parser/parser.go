// Package parser turns raw speech transcripts into commands.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/agenthands/blockvoice/internal/core/lexicon"
	"github.com/agenthands/blockvoice/internal/core/model"
)

var (
	ErrNotRecognized = errors.New("command not recognized")
	// ErrNonSpeech marks transcripts of background noise ("[Music]", "(sighs)").
	ErrNonSpeech = errors.New("non-speech transcript")
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	nonSpeech  = []*regexp.Regexp{
		regexp.MustCompile(`\[.*?\]`),
		regexp.MustCompile(`\(.*?\)`),
		regexp.MustCompile(`^(sigh|breath|breathing|sound|music|noise|cough|clear|throat)s?$`),
		regexp.MustCompile(`\b(breathing|sighs?)\b`),
	}
)

// Resolver is satisfied by *lexicon.Lexicon.
type Resolver interface {
	Resolve(fragment string) (model.Command, error)
}

type Parser struct {
	Lexicon Resolver
}

func New(l Resolver) *Parser {
	return &Parser{Lexicon: l}
}

// Normalize lowercases t, collapses whitespace and drops trailing punctuation.
// It is the form transcripts are reported back in.
func Normalize(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	t = whitespace.ReplaceAllString(t, " ")
	return strings.TrimRight(t, ".!?, ")
}

// IsNonSpeech reports whether the normalized transcript is a noise marker.
func IsNonSpeech(normalized string) bool {
	for _, re := range nonSpeech {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}

// Parse resolves transcript to a command. It has no side effects. The
// lexicon sees the lowercased, trimmed transcript so set-value text keeps its
// spacing. Errors are ErrNonSpeech, lexicon.ErrMissingValue, or
// ErrNotRecognized.
func (p *Parser) Parse(transcript string) (model.Command, error) {
	raw := strings.ToLower(strings.TrimSpace(transcript))
	if raw == "" {
		return model.Command{}, ErrNotRecognized
	}
	if IsNonSpeech(raw) {
		return model.Command{}, ErrNonSpeech
	}

	cmd, err := p.Lexicon.Resolve(raw)
	switch {
	case err == nil:
		return cmd, nil
	case errors.Is(err, lexicon.ErrMissingValue):
		return model.Command{}, err
	case errors.Is(err, lexicon.ErrNoMatch):
		return model.Command{}, fmt.Errorf("%w: %s", ErrNotRecognized, Normalize(transcript))
	default:
		return model.Command{}, err
	}
}
