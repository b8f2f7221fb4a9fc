// Package lexicon maps spoken phrases to commands. Entries are matched in
// declaration order and the first hit wins, so phrases that contain a shorter
// phrase ("for loop", "loop") must be declared first.
package lexicon

import (
	"errors"
	"regexp"
	"strings"

	"github.com/agenthands/blockvoice/internal/core/model"
)

var (
	ErrNoMatch      = errors.New("no lexicon entry matches")
	ErrMissingValue = errors.New("value phrase without a value")
)

type Mode int

const (
	// Direct entries fire whenever the phrase appears.
	Direct Mode = iota
	// Placement entries need a placement verb somewhere before the keyword.
	Placement
	// Parametric entries capture the text after the phrase as the command value.
	Parametric
)

func (m Mode) String() string {
	switch m {
	case Direct:
		return "direct"
	case Placement:
		return "placement"
	case Parametric:
		return "parametric"
	}
	return "unknown"
}

// PlacementVerbs introduce a placement phrase ("add a for loop").
var PlacementVerbs = []string{"place", "add", "create", "insert"}

type Entry struct {
	Phrase  string
	Mode    Mode
	Command model.Command

	pattern *regexp.Regexp
}

// Spatial reports whether the entry drives the selection.
func (e Entry) Spatial() bool {
	return e.Command.Kind.Spatial()
}

type Lexicon struct {
	entries []Entry
	spatial bool
}

type Option func(*options)

type options struct {
	spatial   bool
	moveStep  float64
	nudgeStep float64
}

// WithSpatialCommands toggles the selection, movement and manipulation entries.
func WithSpatialCommands(enabled bool) Option {
	return func(o *options) { o.spatial = enabled }
}

func WithSteps(move, nudge float64) Option {
	return func(o *options) {
		if move > 0 {
			o.moveStep = move
		}
		if nudge > 0 {
			o.nudgeStep = nudge
		}
	}
}

func New(opts ...Option) *Lexicon {
	o := options{spatial: true, moveStep: 50, nudgeStep: 10}
	for _, opt := range opts {
		opt(&o)
	}
	l := &Lexicon{spatial: o.spatial}
	for _, e := range table(o.moveStep, o.nudgeStep) {
		if !o.spatial && e.Spatial() {
			continue
		}
		e.pattern = compile(e)
		l.entries = append(l.entries, e)
	}
	return l
}

var verbs = strings.Join(PlacementVerbs, "|")

const sentenceEnd = ".!?, "

func compile(e Entry) *regexp.Regexp {
	words := strings.Fields(e.Phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	kw := strings.Join(words, `\s+`)
	switch e.Mode {
	case Placement:
		return regexp.MustCompile(`\b(?:` + verbs + `)\b.*?\b` + kw + `\b`)
	case Parametric:
		return regexp.MustCompile(`\b` + kw + `\b(.*)$`)
	default:
		return regexp.MustCompile(`\b` + kw + `\b`)
	}
}

// Entries returns the active entries in priority order.
func (l *Lexicon) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

func (l *Lexicon) SpatialEnabled() bool {
	return l.spatial
}

// Resolve returns the command of the first entry matching fragment, which is
// expected to be lowercased. Keywords match whole words; runs of whitespace
// between a phrase's words are allowed. A value phrase captures the rest of
// the fragment as spoken, and yields ErrMissingValue when nothing but
// punctuation follows it.
func (l *Lexicon) Resolve(fragment string) (model.Command, error) {
	for _, e := range l.entries {
		m := e.pattern.FindStringSubmatch(fragment)
		if m == nil {
			continue
		}
		cmd := e.Command
		cmd.Phrase = e.Phrase
		if e.Mode == Parametric {
			v := strings.TrimSpace(m[1])
			if strings.Trim(v, sentenceEnd) == "" {
				return model.Command{}, ErrMissingValue
			}
			cmd.Value = v
		}
		return cmd, nil
	}
	return model.Command{}, ErrNoMatch
}

// Examples returns one canonical utterance per entry, used to prompt the
// fallback interpreter. Value phrases are left out since an example cannot
// carry the user's value.
func (l *Lexicon) Examples() []string {
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		switch e.Mode {
		case Placement:
			out = append(out, "add "+e.Phrase)
		case Direct:
			out = append(out, e.Phrase)
		}
	}
	return out
}
