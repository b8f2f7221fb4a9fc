// Package core wires the voice pipeline together: transcripts are parsed,
// executed against the block graph and reported through the feedback
// channels, and the generated code follows the graph.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agenthands/blockvoice/internal/core/challenge"
	"github.com/agenthands/blockvoice/internal/core/codegen"
	"github.com/agenthands/blockvoice/internal/core/debounce"
	"github.com/agenthands/blockvoice/internal/core/describe"
	"github.com/agenthands/blockvoice/internal/core/executor"
	"github.com/agenthands/blockvoice/internal/core/feedback"
	"github.com/agenthands/blockvoice/internal/core/lexicon"
	"github.com/agenthands/blockvoice/internal/core/model"
	"github.com/agenthands/blockvoice/internal/core/parser"
	"github.com/agenthands/blockvoice/internal/core/selection"
	"github.com/agenthands/blockvoice/internal/core/workspace"
	"github.com/agenthands/blockvoice/internal/profile"
	"github.com/agenthands/blockvoice/internal/recognition"
)

// Runner executes generated source remotely.
type Runner interface {
	Run(ctx context.Context, code, language string) (string, error)
}

// Interpreter picks the lexicon phrase an unmatched transcript most likely
// meant.
type Interpreter interface {
	Interpret(ctx context.Context, transcript string, phrases []string) (string, error)
}

// ProgressRecorder persists challenge progress. *profile.MemoryStore and
// *profile.RedisStore satisfy it.
type ProgressRecorder interface {
	SaveProgress(ctx context.Context, p challenge.Progress) (challenge.Progress, error)
}

type CodeGenerator interface {
	Generate(s model.Snapshot, lang string) (string, error)
	Available(lang string) bool
}

// Deps are the collaborators a session does not own. All are optional.
type Deps struct {
	Mic         recognition.Microphone
	Transcriber recognition.Transcriber
	Runner      Runner
	Interpreter Interpreter
	Generator   CodeGenerator
	// Narrator, when set, turns workspace outlines into prose descriptions.
	Narrator describe.Generator
	Progress ProgressRecorder
	Sinks    []feedback.Channels
}

const (
	eventBuffer  = 256
	progressSave = 2 * time.Second
)

// VoiceControlSession owns one workspace and everything that acts on it.
// Commands run one at a time under the session lock.
type VoiceControlSession struct {
	ID          string
	Graph       workspace.Graph
	Selection   *selection.Selection
	Lexicon     *lexicon.Lexicon
	Parser      *parser.Parser
	Executor    *executor.Executor
	Feedback    *feedback.Dispatcher
	Events      *feedback.Recorder
	Generator   CodeGenerator
	Runner      Runner
	Interpreter Interpreter
	Describer   *describe.Describer
	Recognition *recognition.Controller
	Progress    ProgressRecorder
	Logger      *zap.Logger

	opts      Options
	mu        sync.Mutex
	regen     *debounce.Debouncer
	language  string
	code      string
	output    string
	profile   profile.Profile
	user      string
	challenge *challenge.Tracker
	disposed  bool
}

func NewVoiceControlSession(id string, opts Options, deps Deps, logger *zap.Logger) *VoiceControlSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("session", id))
	opts = opts.withDefaults()

	lex := lexicon.New(
		lexicon.WithSpatialCommands(opts.Spatial),
		lexicon.WithSteps(opts.MoveStep, opts.NudgeStep),
	)
	exec := executor.New(logger)
	exec.ConnectThreshold = opts.ConnectThreshold
	exec.DuplicateOffset = opts.DuplicateOffset
	exec.Spatial = opts.Spatial

	events := feedback.NewRecorder(eventBuffer)
	sinks := append([]feedback.Channels{events, feedback.Logged{Logger: logger}}, deps.Sinks...)

	gen := deps.Generator
	if gen == nil {
		gen = codegen.NewRegistry()
	}

	s := &VoiceControlSession{
		ID:          id,
		Graph:       workspace.New(workspace.WithHistoryLimit(opts.HistoryLimit)),
		Selection:   selection.New(),
		Lexicon:     lex,
		Parser:      parser.New(lex),
		Executor:    exec,
		Feedback:    feedback.NewDispatcher(logger, feedback.AllFeatures(), sinks...),
		Events:      events,
		Generator:   gen,
		Runner:      deps.Runner,
		Interpreter: deps.Interpreter,
		Describer:   describe.New(deps.Narrator),
		Progress:    deps.Progress,
		Logger:      logger,
		opts:        opts,
		regen:       debounce.New(opts.RegenDebounce),
		language:    opts.Language,
	}
	s.code = codegen.Placeholder(s.language)
	exec.Host = sessionHost{s}

	s.Recognition = recognition.NewController(deps.Mic, deps.Transcriber, logger)
	s.Recognition.MaxListen = opts.MaxListen
	s.Recognition.OnTranscript = func(ctx context.Context, transcript string) {
		s.HandleTranscript(ctx, transcript)
	}
	s.Recognition.OnError = s.recognitionFailed
	return s
}

// HandleTranscript runs one transcript through parse, execute and notify.
// The mutation is complete before any feedback fires. The whole pipeline,
// fallback interpretation included, runs under the session lock so
// transcripts are handled in arrival order.
func (s *VoiceControlSession) HandleTranscript(ctx context.Context, transcript string) model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return model.Fail("Session closed")
	}

	cmd, err := s.Parser.Parse(transcript)
	if errors.Is(err, parser.ErrNotRecognized) && s.opts.LLMFallback && s.Interpreter != nil {
		cmd, err = s.interpret(ctx, transcript, err)
	}

	switch {
	case err == nil:
		s.Logger.Debug("executing command", zap.String("transcript", transcript), zap.String("command", string(cmd.Kind)))
		res := s.Executor.Execute(ctx, cmd, s.Graph, s.Selection)
		s.afterLocked(res)
		s.Feedback.Notify(res)
		return res
	case errors.Is(err, lexicon.ErrMissingValue):
		res := model.Fail("Please specify a value to set")
		s.Feedback.Notify(res)
		return res
	case errors.Is(err, parser.ErrNonSpeech):
		res := model.Fail("Please speak clearly")
		s.Feedback.Announce(res.Message, feedback.Assertive)
		return res
	default:
		s.Logger.Debug("transcript not recognized", zap.String("transcript", transcript))
		res := model.Fail(fmt.Sprintf("Command not recognized: %s", parser.Normalize(transcript)))
		s.Feedback.Announce(res.Message, feedback.Assertive)
		return res
	}
}

// interpret asks the fallback interpreter for a phrase and parses that
// instead. On any failure the original parse error stands.
func (s *VoiceControlSession) interpret(ctx context.Context, transcript string, parseErr error) (model.Command, error) {
	phrase, err := s.Interpreter.Interpret(ctx, parser.Normalize(transcript), s.Lexicon.Examples())
	if err != nil {
		s.Logger.Debug("fallback interpretation failed", zap.String("transcript", transcript), zap.Error(err))
		return model.Command{}, parseErr
	}
	cmd, err := s.Parser.Parse(phrase)
	if err != nil {
		return model.Command{}, parseErr
	}
	s.Logger.Info("transcript interpreted", zap.String("transcript", transcript), zap.String("phrase", phrase))
	return cmd, nil
}

// afterLocked schedules code regeneration for graph mutations. Clearing the
// workspace resets code and output at once.
func (s *VoiceControlSession) afterLocked(res model.Result) {
	if !res.Mutated {
		return
	}
	if res.Outcome == model.OutcomeClear {
		s.regen.Cancel()
		s.code = codegen.Placeholder(s.language)
		s.output = ""
		s.evaluateLocked(context.Background(), "")
		return
	}
	s.regen.Trigger(s.regenerate)
}

// regenerate runs once edits settle. The active challenge is graded against
// the new graph; a run is needed before output can count again.
func (s *VoiceControlSession) regenerate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.regenerateLocked()
	if msg := s.evaluateLocked(context.Background(), ""); msg != "" {
		s.Feedback.Notify(model.Succeed(model.OutcomeSuccess, msg))
	}
}

func (s *VoiceControlSession) regenerateLocked() {
	code, err := s.Generator.Generate(s.Graph.Snapshot(), s.language)
	switch {
	case err == nil:
		s.code = code
	case errors.Is(err, codegen.ErrNoBlocks):
		s.code = codegen.Placeholder(s.language)
	case errors.Is(err, codegen.ErrGeneratorUnavailable):
		c := codegen.CommentPrefix(s.language)
		s.code = fmt.Sprintf("%s %s generator not loaded", c, languageName(s.language))
	default:
		s.Logger.Warn("code generation failed", zap.String("language", s.language), zap.Error(err))
	}
}

// sessionHost lets the executor reach the session while the session lock is
// already held by HandleTranscript.
type sessionHost struct {
	s *VoiceControlSession
}

func (h sessionHost) SwitchLanguage(lang string) model.Result {
	return h.s.switchLanguageLocked(lang)
}

func (h sessionHost) RunCode(ctx context.Context) model.Result {
	return h.s.runCodeLocked(ctx)
}

func (h sessionHost) DescribeWorkspace(ctx context.Context) model.Result {
	return model.Succeed(model.OutcomeDescribe, h.s.describeLocked(ctx))
}

func (h sessionHost) ChallengeStatus() model.Result {
	return h.s.challengeStatusLocked()
}

// describeLocked narrates the graph, reading the plain outline when the
// narrator fails.
func (s *VoiceControlSession) describeLocked(ctx context.Context) string {
	snap := s.Graph.Snapshot()
	text, err := s.Describer.Describe(ctx, snap)
	if err != nil {
		s.Logger.Warn("workspace description failed", zap.Error(err))
		return describe.Plain(snap)
	}
	return text
}

var languageNames = map[string]string{
	"python":     "Python",
	"javascript": "JavaScript",
	"lua":        "Lua",
	"php":        "PHP",
	"dart":       "Dart",
}

func languageName(lang string) string {
	if n, ok := languageNames[lang]; ok {
		return n
	}
	return lang
}

func (s *VoiceControlSession) switchLanguageLocked(lang string) model.Result {
	if !s.Generator.Available(lang) {
		return model.Fail(fmt.Sprintf("Code generator for %s not loaded", languageName(lang)))
	}
	s.language = lang
	s.regen.Cancel()
	s.regenerateLocked()
	return model.Succeed(model.OutcomeLanguage, fmt.Sprintf("Switched to %s", languageName(lang)))
}

func (s *VoiceControlSession) runCodeLocked(ctx context.Context) model.Result {
	s.regen.Cancel()
	s.regenerateLocked()
	if len(s.Graph.AllNodes()) == 0 {
		return model.Fail("Please create some blocks before running")
	}
	if s.Runner == nil {
		return model.Fail("Code runner is not configured")
	}
	out, err := s.Runner.Run(ctx, s.code, s.language)
	if err != nil {
		s.Logger.Warn("code run failed", zap.Error(err))
		s.output = fmt.Sprintf("Error: %v", err)
		return model.Fail(fmt.Sprintf("Run failed: %v", err))
	}
	s.output = out
	res := model.Succeed(model.OutcomeRun, fmt.Sprintf("Output: %s", strings.TrimSpace(out)))
	if strings.TrimSpace(out) == "" {
		res.Message = "Code ran with no output"
	}
	if msg := s.evaluateLocked(ctx, out); msg != "" {
		res.Message += ". " + msg
	}
	return res
}

// evaluateLocked grades the active challenge and stores the grade for the
// bound user when it moved noticeably. It returns the announcement, if any.
func (s *VoiceControlSession) evaluateLocked(ctx context.Context, output string) string {
	if s.challenge == nil {
		return ""
	}
	c := s.challenge.Challenge
	e := c.Evaluate(s.Graph.Snapshot(), output)
	significant, msg := s.challenge.Observe(e)
	if significant && s.user != "" && s.Progress != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), progressSave)
		defer cancel()
		if _, err := s.Progress.SaveProgress(ctx, c.Record(s.user, e, time.Now().UTC())); err != nil {
			s.Logger.Warn("failed to save challenge progress",
				zap.String("user", s.user), zap.String("challenge", c.ID), zap.Error(err))
		}
	}
	return msg
}

func (s *VoiceControlSession) challengeStatusLocked() model.Result {
	if s.challenge == nil {
		return model.Fail("No challenge selected")
	}
	c, e := s.challenge.Challenge, s.challenge.Last()
	if e.Completed {
		return model.Succeed(model.OutcomeDescribe, fmt.Sprintf("%s is complete", c.Title))
	}
	msg := fmt.Sprintf("%s: %d%% complete", c.Title, e.Progress)
	if e.Note != "" {
		msg += ". " + e.Note
	}
	return model.Succeed(model.OutcomeDescribe, msg)
}

// StartChallenge makes id the active challenge. Progress starts over for the
// session; stored progress only ever improves.
func (s *VoiceControlSession) StartChallenge(ctx context.Context, id string) model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return model.Fail("Session closed")
	}
	c, err := challenge.Lookup(id)
	if err != nil {
		res := model.Fail(fmt.Sprintf("Unknown challenge: %s", id))
		s.Feedback.Notify(res)
		return res
	}
	s.challenge = challenge.NewTracker(c)
	s.evaluateLocked(ctx, "")
	res := model.Succeed(model.OutcomeSuccess, fmt.Sprintf("Challenge loaded: %s. %s", c.Title, c.Description))
	s.Feedback.Notify(res)
	return res
}

// ChallengeView is the active challenge with its latest grade.
type ChallengeView struct {
	Challenge challenge.Challenge `json:"challenge"`
	challenge.Evaluation
}

func (s *VoiceControlSession) challengeViewLocked() *ChallengeView {
	if s.challenge == nil {
		return nil
	}
	return &ChallengeView{Challenge: s.challenge.Challenge, Evaluation: s.challenge.Last()}
}

func (s *VoiceControlSession) Challenge() (ChallengeView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.challengeViewLocked()
	if v == nil {
		return ChallengeView{}, false
	}
	return *v, true
}

// BindUser attributes challenge progress to userID, with or without a
// stored profile.
func (s *VoiceControlSession) BindUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = userID
}

// SwitchLanguage changes the generated language outside of voice input.
func (s *VoiceControlSession) SwitchLanguage(lang string) model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.switchLanguageLocked(lang)
	s.Feedback.Notify(res)
	return res
}

// RunCode regenerates immediately and sends the code to the runner.
func (s *VoiceControlSession) RunCode(ctx context.Context) model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.runCodeLocked(ctx)
	s.Feedback.Notify(res)
	return res
}

// StartListening opens a capture unless the profile turned voice off. A
// microphone failure is reported through the feedback channels once.
func (s *VoiceControlSession) StartListening(ctx context.Context) model.Result {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return model.Fail("Session closed")
	}
	if s.profile.VoiceDisabled {
		res := model.Fail("Voice commands are turned off in your profile")
		s.Feedback.Notify(res)
		s.mu.Unlock()
		return res
	}
	s.mu.Unlock()

	// The controller reports failures through recognitionFailed, which takes
	// the session lock.
	if err := s.Recognition.Start(ctx); err != nil {
		return model.Fail(failureMessage(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Feedback.Pulse(feedback.PatternListenStart)
	s.Feedback.Announce("Listening", feedback.Polite)
	return model.Succeed(model.OutcomeSuccess, "Listening")
}

// StopListening ends the capture; the transcript is handled in the background.
func (s *VoiceControlSession) StopListening() model.Result {
	if err := s.Recognition.Stop(); err != nil {
		return model.Fail(failureMessage(err))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Feedback.Pulse(feedback.PatternListenEnd)
	return model.Succeed(model.OutcomeSuccess, "Stopped listening")
}

func (s *VoiceControlSession) ListeningState() recognition.State {
	return s.Recognition.State()
}

func failureMessage(err error) string {
	if errors.Is(err, recognition.ErrCaptureUnavailable) {
		return "Microphone access denied or not available"
	}
	return "Speech recognition failed. Please try again"
}

func (s *VoiceControlSession) recognitionFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.Feedback.Notify(model.Fail(failureMessage(err)))
}

// ApplyProfile switches feedback channels and preferred language to p.
// Turning voice off also ends any capture in progress.
func (s *VoiceControlSession) ApplyProfile(p profile.Profile) {
	s.mu.Lock()
	s.profile = p
	if p.UserID != "" {
		s.user = p.UserID
	}
	s.Feedback.Features = p.FeedbackChannels()
	if p.Language != "" && p.Language != s.language && s.Generator.Available(p.Language) {
		s.language = p.Language
		s.regen.Cancel()
		s.regenerateLocked()
	}
	s.mu.Unlock()

	if p.VoiceDisabled {
		if err := s.Recognition.Stop(); err != nil {
			s.Logger.Debug("stop on profile change", zap.Error(err))
		}
	}
}

func (s *VoiceControlSession) Profile() profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// CodeView is the generated code and the last run's output.
type CodeView struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Output   string `json:"output"`
}

func (s *VoiceControlSession) Code() CodeView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CodeView{Language: s.language, Code: s.code, Output: s.output}
}

// View is a read-only picture of the session for clients.
type View struct {
	ID        string            `json:"id"`
	Nodes     []model.Node      `json:"nodes"`
	Primary   string            `json:"primary,omitempty"`
	Group     []string          `json:"group,omitempty"`
	Listening string            `json:"listening"`
	Language  string            `json:"language"`
	Profile   profile.Profile   `json:"profile"`
	Channels  feedback.Features `json:"channels"`
	Challenge *ChallengeView    `json:"challenge,omitempty"`
}

func (s *VoiceControlSession) View() View {
	state := s.Recognition.State()
	s.mu.Lock()
	defer s.mu.Unlock()
	// Touch the selection so stale ids are dropped before reporting.
	s.Selection.Primary(s.Graph)
	return View{
		ID:        s.ID,
		Nodes:     s.Graph.AllNodes(),
		Primary:   s.Selection.PrimaryID(),
		Group:     s.Selection.GroupIDs(),
		Listening: state.String(),
		Language:  s.language,
		Profile:   s.profile,
		Channels:  s.Feedback.Features,
		Challenge: s.challengeViewLocked(),
	}
}

// Snapshot returns the graph and the current language for persistence.
func (s *VoiceControlSession) Snapshot() (model.Snapshot, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Graph.Snapshot(), s.language
}

// Restore replaces the graph with snap. The restore is undoable.
func (s *VoiceControlSession) Restore(snap model.Snapshot, language string) model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return model.Fail("Session closed")
	}
	s.Graph.Restore(snap)
	s.Selection.Clear()
	if language != "" && s.Generator.Available(language) {
		s.language = language
	}
	s.regen.Cancel()
	s.regenerateLocked()
	res := model.Succeed(model.OutcomeSuccess, fmt.Sprintf("Loaded workspace with %d blocks", len(snap.Nodes)))
	res.Mutated = true
	if msg := s.evaluateLocked(context.Background(), ""); msg != "" {
		res.Message += ". " + msg
	}
	s.Feedback.Notify(res)
	return res
}

// Dispose releases the microphone and drops any pending regeneration before
// returning. The session rejects further work.
func (s *VoiceControlSession) Dispose() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.disposed = true
	s.mu.Unlock()

	// Both wait for callbacks that take the session lock.
	s.regen.Stop()
	return s.Recognition.Close()
}
