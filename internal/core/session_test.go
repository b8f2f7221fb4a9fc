package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agenthands/blockvoice/internal/core/codegen"
	"github.com/agenthands/blockvoice/internal/core/feedback"
	"github.com/agenthands/blockvoice/internal/core/model"
	"github.com/agenthands/blockvoice/internal/profile"
	"github.com/agenthands/blockvoice/internal/recognition"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newSession(t *testing.T, opts Options, deps Deps) *VoiceControlSession {
	t.Helper()
	if opts.RegenDebounce == 0 {
		opts.RegenDebounce = 10 * time.Millisecond
	}
	s := NewVoiceControlSession("test", opts, deps, nil)
	t.Cleanup(func() { require.NoError(t, s.Dispose()) })
	return s
}

func say(t *testing.T, s *VoiceControlSession, transcripts ...string) model.Result {
	t.Helper()
	var res model.Result
	for _, tr := range transcripts {
		res = s.HandleTranscript(context.Background(), tr)
	}
	return res
}

func kinds(events []feedback.Event) []feedback.EventKind {
	out := make([]feedback.EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestSelectFirst_EmptyGraph(t *testing.T) {
	s := newSession(t, DefaultOptions(), Deps{})

	res := say(t, s, "select first block")
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "no blocks")
	assert.True(t, s.Selection.Empty())
}

func TestSetValue_TextBlock(t *testing.T) {
	s := newSession(t, DefaultOptions(), Deps{})

	require.True(t, say(t, s, "add a text block").Success)
	res := say(t, s, "set value to hello world")
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Set text block to: hello world", res.Message)

	n, ok := s.Selection.Primary(s.Graph)
	require.True(t, ok)
	assert.Equal(t, model.Text("hello world"), n.Fields["TEXT"])
}

func TestConnect_GroupThenRepeat(t *testing.T) {
	s := newSession(t, DefaultOptions(), Deps{})

	say(t, s, "add print", "add text", "select first block", "group block", "group next block")
	require.Len(t, s.Selection.GroupIDs(), 2)

	res := say(t, s, "connect blocks")
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Blocks connected successfully", res.Message)

	res = say(t, s, "connect blocks")
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "No compatible connection")
}

func TestUnrecognized_AnnounceOnly(t *testing.T) {
	s := newSession(t, DefaultOptions(), Deps{})
	before := s.Graph.Snapshot()
	s.Events.Drain()

	res := say(t, s, "Xyzzy nonsense.")
	assert.False(t, res.Success)
	assert.Equal(t, "Command not recognized: xyzzy nonsense", res.Message)
	assert.Equal(t, before, s.Graph.Snapshot())
	assert.Equal(t, []feedback.EventKind{feedback.EventAnnounce}, kinds(s.Events.Drain()))
}

func TestParseErrors(t *testing.T) {
	s := newSession(t, DefaultOptions(), Deps{})

	assert.Equal(t, "Please speak clearly", say(t, s, "[Music]").Message)
	assert.Equal(t, "Please specify a value to set", say(t, s, "set value to").Message)
}

func TestRegeneration_Debounced(t *testing.T) {
	s := newSession(t, Options{RegenDebounce: 30 * time.Millisecond, Spatial: true}, Deps{})
	placeholder := codegen.Placeholder("python")

	say(t, s, "add print")
	assert.Equal(t, placeholder, s.Code().Code)
	assert.Eventually(t, func() bool {
		return s.Code().Code == "print('')\n"
	}, time.Second, 5*time.Millisecond)

	say(t, s, "clear code")
	assert.Equal(t, placeholder, s.Code().Code)
	assert.Empty(t, s.Graph.AllNodes())
}

func TestSwitchLanguage(t *testing.T) {
	s := newSession(t, DefaultOptions(), Deps{})
	say(t, s, "add print")

	res := say(t, s, "switch to javascript")
	require.True(t, res.Success)
	assert.Equal(t, "Switched to JavaScript", res.Message)
	code := s.Code()
	assert.Equal(t, "javascript", code.Language)
	assert.Contains(t, code.Code, "window.alert(")

	res = say(t, s, "switch to lua")
	assert.False(t, res.Success)
	assert.Equal(t, "Code generator for Lua not loaded", res.Message)
	assert.Equal(t, "javascript", s.Code().Language)
}

func TestRunCode(t *testing.T) {
	runner := &MockRunner{Output: "hi\n"}
	s := newSession(t, DefaultOptions(), Deps{Runner: runner})

	res := say(t, s, "run code")
	assert.False(t, res.Success)
	assert.Equal(t, "Please create some blocks before running", res.Message)
	assert.Empty(t, runner.Code)

	say(t, s, "add print")
	res = say(t, s, "run code")
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Output: hi", res.Message)
	assert.Equal(t, []string{"print('')\n"}, runner.Code)
	assert.Equal(t, "hi\n", s.Code().Output)

	runner.Err = errors.New("timeout")
	res = s.RunCode(context.Background())
	assert.False(t, res.Success)
	assert.Contains(t, s.Code().Output, "timeout")
}

func TestLLMFallback(t *testing.T) {
	interp := &MockInterpreter{Phrase: "zoom in"}
	s := newSession(t, Options{LLMFallback: true, Spatial: true}, Deps{Interpreter: interp})

	res := say(t, s, "make everything bigger")
	require.True(t, res.Success, res.Message)
	assert.Equal(t, model.OutcomeZoom, res.Outcome)
	assert.Contains(t, interp.Offered, "zoom in")

	interp.Phrase = ""
	res = say(t, s, "make everything bigger")
	assert.Equal(t, "Command not recognized: make everything bigger", res.Message)
}

func TestLLMFallback_KeepsArrivalOrder(t *testing.T) {
	interp := &GatedInterpreter{Phrase: "add a number", Entered: make(chan struct{}), Release: make(chan struct{})}
	s := newSession(t, Options{LLMFallback: true, Spatial: true}, Deps{Interpreter: interp})

	first := make(chan model.Result, 1)
	go func() { first <- say(t, s, "gimme a digit") }()
	<-interp.Entered

	second := make(chan model.Result, 1)
	go func() { second <- say(t, s, "add text") }()

	select {
	case <-second:
		t.Fatal("second transcript ran while the first was being interpreted")
	case <-time.After(30 * time.Millisecond):
	}

	close(interp.Release)
	require.True(t, (<-first).Success)
	require.True(t, (<-second).Success)

	nodes := s.View().Nodes
	require.Len(t, nodes, 2)
	assert.Equal(t, "math_number", nodes[0].Type)
	assert.Equal(t, "text", nodes[1].Type)
}

func TestLLMFallback_Disabled(t *testing.T) {
	interp := &MockInterpreter{Phrase: "zoom in"}
	s := newSession(t, DefaultOptions(), Deps{Interpreter: interp})

	assert.False(t, say(t, s, "make everything bigger").Success)
	assert.Nil(t, interp.Offered)
}

func TestSpatialDisabled(t *testing.T) {
	s := newSession(t, Options{Spatial: false}, Deps{})

	say(t, s, "add print")
	res := say(t, s, "select first block")
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "not recognized")
	assert.True(t, say(t, s, "undo").Success)
	assert.Empty(t, s.View().Nodes)
}

func TestUndo_CreateIsOneStep(t *testing.T) {
	s := newSession(t, DefaultOptions(), Deps{})

	require.True(t, say(t, s, "add text").Success)
	require.True(t, say(t, s, "undo").Success)
	assert.Empty(t, s.View().Nodes)

	require.True(t, say(t, s, "redo").Success)
	assert.Len(t, s.View().Nodes, 1)
	assert.False(t, say(t, s, "redo").Success)
}

func TestUndo_DuplicateIsOneStep(t *testing.T) {
	s := newSession(t, DefaultOptions(), Deps{})

	say(t, s, "add text", "set value to hi")
	require.True(t, say(t, s, "duplicate block").Success)
	require.Len(t, s.View().Nodes, 2)

	require.True(t, say(t, s, "undo").Success)
	nodes := s.View().Nodes
	require.Len(t, nodes, 1)
	assert.Equal(t, model.Text("hi"), nodes[0].Fields["TEXT"])

	require.True(t, say(t, s, "undo").Success)
	assert.Equal(t, model.Text(""), s.View().Nodes[0].Fields["TEXT"])
}

func TestListening_PushedTranscript(t *testing.T) {
	mic := recognition.NewPushMicrophone()
	s := newSession(t, DefaultOptions(), Deps{Mic: mic, Transcriber: recognition.PlainText{}})

	require.True(t, s.StartListening(context.Background()).Success)
	assert.Equal(t, recognition.Listening, s.ListeningState())
	require.NoError(t, mic.Write([]byte("add a repeat block"), "text/plain"))
	require.True(t, s.StopListening().Success)

	assert.Eventually(t, func() bool {
		return len(s.View().Nodes) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "controls_repeat", s.View().Nodes[0].Type)
	assert.Eventually(t, func() bool {
		return s.ListeningState() == recognition.Idle
	}, time.Second, 5*time.Millisecond)
}

func TestListening_MicrophoneUnavailable(t *testing.T) {
	s := newSession(t, DefaultOptions(), Deps{})
	s.Events.Drain()

	res := s.StartListening(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, "Microphone access denied or not available", res.Message)
	assert.Equal(t, recognition.Idle, s.ListeningState())

	var announced int
	for _, e := range s.Events.Drain() {
		if e.Kind == feedback.EventAnnounce {
			announced++
		}
	}
	assert.Equal(t, 1, announced)
}

func TestVoiceDisabledProfile(t *testing.T) {
	mic := recognition.NewPushMicrophone()
	s := newSession(t, DefaultOptions(), Deps{Mic: mic, Transcriber: recognition.PlainText{}})

	p := profile.New("u1", profile.ModeMotor)
	p.VoiceDisabled = true
	s.ApplyProfile(p)

	res := s.StartListening(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, recognition.Idle, s.ListeningState())
	assert.False(t, mic.Capturing())
}

func TestApplyProfile_Channels(t *testing.T) {
	s := newSession(t, DefaultOptions(), Deps{})
	p := profile.New("u1", profile.ModeHearing)
	p.Language = "javascript"
	s.ApplyProfile(p)
	s.Events.Drain()

	say(t, s, "undo")
	got := kinds(s.Events.Drain())
	assert.NotContains(t, got, feedback.EventAnnounce)
	assert.Contains(t, got, feedback.EventToast)
	assert.Contains(t, got, feedback.EventHaptic)
	assert.Equal(t, "javascript", s.Code().Language)
}

func TestDescribeWorkspace(t *testing.T) {
	s := newSession(t, DefaultOptions(), Deps{})

	res := say(t, s, "describe workspace")
	require.True(t, res.Success)
	assert.Equal(t, model.OutcomeDescribe, res.Outcome)
	assert.Equal(t, "The workspace is empty", res.Message)

	say(t, s, "add print")
	res = say(t, s, "read workspace")
	assert.Equal(t, "The workspace has 1 block in 1 stack. Stack 1: text print.", res.Message)
}

func TestDescribeWorkspace_Narrator(t *testing.T) {
	narrator := &MockNarrator{Response: `{"summary": "A single print block."}`}
	s := newSession(t, DefaultOptions(), Deps{Narrator: narrator})

	say(t, s, "add print")
	assert.Equal(t, "A single print block.", say(t, s, "describe workspace").Message)

	narrator.Err = errors.New("offline")
	assert.Equal(t, "The workspace has 1 block in 1 stack. Stack 1: text print.", say(t, s, "describe workspace").Message)
}

func TestRestore(t *testing.T) {
	src := newSession(t, DefaultOptions(), Deps{})
	say(t, src, "add print", "add number")
	snap, lang := src.Snapshot()

	dst := newSession(t, DefaultOptions(), Deps{})
	res := dst.Restore(snap, lang)
	require.True(t, res.Success)
	assert.Len(t, dst.View().Nodes, 2)
	assert.Contains(t, dst.Code().Code, "print(")

	assert.True(t, say(t, dst, "undo").Success)
	assert.Empty(t, dst.View().Nodes)
}

func TestDispose(t *testing.T) {
	mic := recognition.NewPushMicrophone()
	s := NewVoiceControlSession("d", Options{RegenDebounce: time.Hour, Spatial: true}, Deps{Mic: mic, Transcriber: recognition.PlainText{}}, nil)

	say(t, s, "add print")
	require.True(t, s.StartListening(context.Background()).Success)
	require.True(t, mic.Capturing())

	require.NoError(t, s.Dispose())
	assert.False(t, mic.Capturing())
	assert.Equal(t, codegen.Placeholder("python"), s.Code().Code)
	assert.Equal(t, "Session closed", say(t, s, "add text").Message)
	assert.Len(t, s.View().Nodes, 1)
	require.NoError(t, s.Dispose())
}

func TestChallenge_RunCompletes(t *testing.T) {
	ctx := context.Background()
	progress := &MockProgress{}
	s := newSession(t, Options{}, Deps{
		Runner:   &MockRunner{Output: strings.Repeat("hello\n", 5)},
		Progress: progress,
	})
	s.BindUser("u1")

	res := s.StartChallenge(ctx, "print")
	require.True(t, res.Success)
	assert.Equal(t, "Challenge loaded: Intro to Printing. Print hello 5 times", res.Message)

	say(t, s, "add repeat", "add print")
	res = s.RunCode(ctx)
	require.True(t, res.Success)
	assert.Equal(t, "Output: hello\nhello\nhello\nhello\nhello. Challenge completed! You earned 100 XP for completing Intro to Printing", res.Message)

	v, ok := s.Challenge()
	require.True(t, ok)
	assert.True(t, v.Completed)
	assert.Equal(t, 100, v.Progress)
	require.NotNil(t, s.View().Challenge)

	saved := progress.Calls()
	require.Len(t, saved, 1)
	assert.Equal(t, "u1", saved[0].UserID)
	assert.Equal(t, "print", saved[0].ChallengeID)
	assert.Equal(t, 100, saved[0].XPEarned)
	require.NotNil(t, saved[0].CompletedAt)

	res = say(t, s, "check challenge")
	assert.Equal(t, model.OutcomeDescribe, res.Outcome)
	assert.Equal(t, "Intro to Printing is complete", res.Message)

	// An edit regrades without output once regeneration settles.
	say(t, s, "add text")
	assert.Eventually(t, func() bool {
		v, _ := s.Challenge()
		return !v.Completed
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(progress.Calls()) == 2 }, time.Second, 5*time.Millisecond)
	assert.False(t, progress.Calls()[1].Completed)
}

func TestChallenge_TooManyBlocks(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, Options{}, Deps{Runner: &MockRunner{Output: strings.Repeat("hello\n", 5)}})
	require.True(t, s.StartChallenge(ctx, "print").Success)

	say(t, s, "add repeat", "add print", "add text", "add number")
	res := s.RunCode(ctx)
	assert.Contains(t, res.Message, "Great progress! You're 50% complete")

	res = say(t, s, "challenge progress")
	assert.Equal(t, "Intro to Printing: 50% complete. Uses 4 blocks, the limit is 3", res.Message)
}

func TestChallenge_NothingSelected(t *testing.T) {
	progress := &MockProgress{}
	s := newSession(t, Options{}, Deps{Runner: &MockRunner{Output: "hello\n"}, Progress: progress})
	s.BindUser("u1")

	res := say(t, s, "challenge progress")
	assert.False(t, res.Success)
	assert.Equal(t, "No challenge selected", res.Message)

	res = s.StartChallenge(context.Background(), "nope")
	assert.False(t, res.Success)
	_, ok := s.Challenge()
	assert.False(t, ok)

	say(t, s, "add print")
	assert.Equal(t, "Output: hello", s.RunCode(context.Background()).Message)
	assert.Empty(t, progress.Calls())
}

func TestChallenge_SaveFailureIsLogged(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, Options{}, Deps{
		Runner:   &MockRunner{Output: strings.Repeat("hello\n", 5)},
		Progress: &MockProgress{Err: errors.New("redis down")},
	})
	s.ApplyProfile(profile.New("u2", profile.ModeVisual))
	require.True(t, s.StartChallenge(ctx, "print").Success)

	say(t, s, "add print")
	res := s.RunCode(ctx)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "Challenge completed!")
}
