package feedback

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agenthands/blockvoice/internal/core/model"
)

type panicky struct{}

func (panicky) Announce(string, Priority) { panic("boom") }
func (panicky) Toast(string)              { panic("boom") }
func (panicky) Haptic(Pattern)            { panic("boom") }

func TestNotify_AllChannels(t *testing.T) {
	rec := NewRecorder(0)
	d := NewDispatcher(nil, AllFeatures(), rec)

	d.Notify(model.Succeed(model.OutcomeCreate, "Created text block"))

	events := rec.Drain()
	require.Len(t, events, 3)
	assert.Equal(t, EventAnnounce, events[0].Kind)
	assert.Equal(t, Polite, events[0].Priority)
	assert.Equal(t, EventToast, events[1].Kind)
	assert.Equal(t, PatternBlockCreate.ID, events[2].Pattern.ID)
	assert.Empty(t, rec.Drain())
}

func TestNotify_FailureIsAssertive(t *testing.T) {
	rec := NewRecorder(0)
	d := NewDispatcher(nil, Features{Announce: true, Haptic: true}, rec)

	d.Notify(model.Fail("No block selected to move"))

	events := rec.Drain()
	require.Len(t, events, 2)
	assert.Equal(t, Assertive, events[0].Priority)
	assert.Equal(t, PatternError.ID, events[1].Pattern.ID)
}

func TestNotify_NoopSkipsHaptic(t *testing.T) {
	rec := NewRecorder(0)
	d := NewDispatcher(nil, Features{Haptic: true}, rec)

	d.Notify(model.Succeed(model.OutcomeNoop, "No block selected"))
	assert.Empty(t, rec.Drain())
}

func TestNotify_SurvivesPanickingSink(t *testing.T) {
	rec := NewRecorder(0)
	d := NewDispatcher(zap.NewNop(), AllFeatures(), panicky{}, rec)

	assert.NotPanics(t, func() {
		d.Notify(model.Succeed(model.OutcomeDelete, "Deleted text block"))
	})
	assert.Len(t, rec.Drain(), 3)
}

func TestRecorder_Limit(t *testing.T) {
	rec := NewRecorder(2)
	rec.Toast("a")
	rec.Toast("b")
	rec.Toast("c")

	events := rec.Drain()
	require.Len(t, events, 2)
	assert.Equal(t, "b", events[0].Message)
}

func TestPulse_GatedByFeature(t *testing.T) {
	rec := NewRecorder(0)
	NewDispatcher(nil, Features{Announce: true}, rec).Pulse(PatternListenStart)
	assert.Empty(t, rec.Drain())

	NewDispatcher(nil, AllFeatures(), rec).Pulse(PatternListenStart)
	assert.Len(t, rec.Drain(), 1)
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := Writer{W: &buf}
	w.Announce("hello", Polite)
	w.Announce("oops", Assertive)
	assert.Equal(t, "> hello\n! oops\n", buf.String())
}

func TestPatternFor(t *testing.T) {
	p, ok := PatternFor(model.Succeed(model.OutcomeConnect, "x"))
	assert.True(t, ok)
	assert.Equal(t, PatternBlockConnect, p)

	p, _ = PatternFor(model.Succeed(model.OutcomeRun, "x"))
	assert.Equal(t, PatternSuccess, p)
}
