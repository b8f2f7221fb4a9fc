package lexicon

import (
	"sort"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/blockvoice/internal/core/model"
)

func TestResolve_Direct(t *testing.T) {
	l := New()

	cmd, err := l.Resolve("please select first block now")
	require.NoError(t, err)
	assert.Equal(t, model.KindSelectByPosition, cmd.Kind)
	assert.Equal(t, model.PositionFirst, cmd.Position)
	assert.Equal(t, "select first block", cmd.Phrase)
}

func TestResolve_WordBoundaries(t *testing.T) {
	l := New()

	cmd, err := l.Resolve("deselect block")
	require.NoError(t, err)
	assert.Equal(t, model.KindDeselect, cmd.Kind)

	cmd, err = l.Resolve("disconnect block")
	require.NoError(t, err)
	assert.Equal(t, model.KindDisconnect, cmd.Kind)

	cmd, err = l.Resolve("redo")
	require.NoError(t, err)
	assert.Equal(t, model.ActionRedo, cmd.Action)
}

func TestResolve_BareKeyword(t *testing.T) {
	l := New()

	for _, transcript := range []string{"for loop", "add a for loop", "i want a for loop"} {
		cmd, err := l.Resolve(transcript)
		require.NoError(t, err, transcript)
		assert.Equal(t, model.KindCreateNode, cmd.Kind)
		assert.Equal(t, "controls_for", cmd.BlockType)
	}
}

func TestResolve_FillerWordsNeedVerb(t *testing.T) {
	l := New()

	for _, transcript := range []string{"and", "not now", "or maybe", "true"} {
		_, err := l.Resolve(transcript)
		assert.ErrorIs(t, err, ErrNoMatch, transcript)
	}

	cmd, err := l.Resolve("add an and block")
	require.NoError(t, err)
	assert.Equal(t, "logic_operation", cmd.BlockType)

	cmd, err = l.Resolve("insert not")
	require.NoError(t, err)
	assert.Equal(t, "logic_negate", cmd.BlockType)
}

func TestResolve_WholeWordsOnly(t *testing.T) {
	l := New()

	for _, transcript := range []string{"different", "listen", "context", "nothing"} {
		_, err := l.Resolve(transcript)
		assert.ErrorIs(t, err, ErrNoMatch, transcript)
	}
}

func TestResolve_SpecificBeforeGeneral(t *testing.T) {
	l := New()
	cases := map[string]string{
		"create an if else block":  "controls_ifelse",
		"create an if block":       "controls_if",
		"place join text":          "text_join",
		"place text":               "text",
		"insert a random number":   "math_random_int",
		"add number":               "math_number",
		"add call function":        "procedures_callnoreturn",
		"add function":             "procedures_defnoreturn",
		"add a while loop":         "controls_whileUntil",
		"create set variable":      "variables_set",
		"create a variable please": "variables_get",
	}
	for transcript, want := range cases {
		cmd, err := l.Resolve(transcript)
		require.NoError(t, err, transcript)
		assert.Equal(t, want, cmd.BlockType, transcript)
	}
}

func TestResolve_Parametric(t *testing.T) {
	l := New()

	cmd, err := l.Resolve("set value to hello world")
	require.NoError(t, err)
	assert.Equal(t, model.KindSetValue, cmd.Kind)
	assert.Equal(t, "hello world", cmd.Value)

	cmd, err = l.Resolve("set block value to 42")
	require.NoError(t, err)
	assert.Equal(t, "42", cmd.Value)

	_, err = l.Resolve("set value to")
	assert.ErrorIs(t, err, ErrMissingValue)

	_, err = l.Resolve("set value to   ")
	assert.ErrorIs(t, err, ErrMissingValue)

	cmd, err = l.Resolve("set value to  two   words")
	require.NoError(t, err)
	assert.Equal(t, "two   words", cmd.Value)
}

func TestResolve_Steps(t *testing.T) {
	l := New(WithSteps(20, 5))

	cmd, err := l.Resolve("move block left")
	require.NoError(t, err)
	assert.Equal(t, -20.0, cmd.DX)

	cmd, err = l.Resolve("nudge down")
	require.NoError(t, err)
	assert.Equal(t, 5.0, cmd.DY)
}

func TestResolve_SpatialDisabled(t *testing.T) {
	l := New(WithSpatialCommands(false))
	assert.False(t, l.SpatialEnabled())

	for _, transcript := range []string{"select first block", "move up", "connect blocks", "set value to 3"} {
		_, err := l.Resolve(transcript)
		assert.ErrorIs(t, err, ErrNoMatch, transcript)
	}

	cmd, err := l.Resolve("zoom in")
	require.NoError(t, err)
	assert.Equal(t, model.ActionZoomIn, cmd.Action)

	cmd, err = l.Resolve("add print")
	require.NoError(t, err)
	assert.Equal(t, "text_print", cmd.BlockType)
}

func TestResolve_NoMatch(t *testing.T) {
	_, err := New().Resolve("xyzzy nonsense")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestEntries_EachResolvesToItself(t *testing.T) {
	l := New()
	for i, e := range l.Entries() {
		if e.Mode != Direct {
			continue
		}
		cmd, err := l.Resolve(e.Phrase)
		require.NoError(t, err, e.Phrase)
		assert.Equal(t, e.Phrase, cmd.Phrase, "entry %d", i)
	}
}

func TestExamples(t *testing.T) {
	l := New()
	ex := l.Examples()
	assert.Len(t, ex, len(l.Entries())-2)
	assert.Contains(t, ex, "for loop")
	assert.Contains(t, ex, "add and")
	assert.NotContains(t, ex, "set value to")
	assert.Contains(t, ex, "undo")
	for _, e := range ex {
		cmd, err := l.Resolve(e)
		require.NoError(t, err, e)
		assert.NotEqual(t, model.KindSetValue, cmd.Kind)
	}
}

// A transcript naming several direct phrases resolves to the one declared first.
func TestResolve_PriorityProperty(t *testing.T) {
	l := New()
	var directs []Entry
	for _, e := range l.Entries() {
		if e.Mode == Direct {
			directs = append(directs, e)
		}
	}

	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("earliest declared phrase wins", prop.ForAll(
		func(picks []int) bool {
			if len(picks) == 0 {
				return true
			}
			words := make([]string, len(picks))
			for i, p := range picks {
				words[i] = directs[p].Phrase
			}
			sorted := append([]int(nil), picks...)
			sort.Ints(sorted)

			cmd, err := l.Resolve(strings.Join(words, " then "))
			return err == nil && cmd.Phrase == directs[sorted[0]].Phrase
		},
		gen.SliceOf(gen.IntRange(0, len(directs)-1)),
	))
	properties.TestingRun(t)
}
