// Package recognition manages speech capture sessions independently of the
// speech-to-text backend.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrCaptureUnavailable = errors.New("audio capture unavailable")
	ErrClosed             = errors.New("recognition controller closed")
)

const DefaultMaxListen = 5 * time.Second

type State int

const (
	Idle State = iota
	Listening
	Processing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Processing:
		return "processing"
	}
	return "unknown"
}

// Audio is one finished capture.
type Audio struct {
	Data     []byte
	MIMEType string
}

// Capture is an open audio stream. Close must release the device whether or
// not Stop was called.
type Capture interface {
	Stop() (Audio, error)
	Close() error
}

type Microphone interface {
	Open(ctx context.Context) (Capture, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// Controller runs at most one capture at a time through
// Idle -> Listening -> Processing -> Idle. Callbacks run without the
// controller's lock held.
type Controller struct {
	Mic          Microphone
	Transcriber  Transcriber
	MaxListen    time.Duration
	OnTranscript func(ctx context.Context, transcript string)
	OnError      func(err error)
	Logger       *zap.Logger

	mu       sync.Mutex
	state    State
	capture  Capture
	autoStop *time.Timer
	cancel   context.CancelFunc
	gen      uint64
	closed   bool
	workers  sync.WaitGroup
}

func NewController(mic Microphone, t Transcriber, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{Mic: mic, Transcriber: t, MaxListen: DefaultMaxListen, Logger: logger}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) report(err error) {
	if err == nil {
		return
	}
	c.Logger.Warn("recognition failed", zap.Error(err))
	if c.OnError != nil {
		c.OnError(err)
	}
}

// Start opens the microphone and begins listening. Calling Start while a
// session is active does nothing. A microphone failure leaves the controller
// Idle and is returned wrapped in ErrCaptureUnavailable.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != Idle {
		c.mu.Unlock()
		return nil
	}
	if c.Mic == nil {
		c.mu.Unlock()
		err := fmt.Errorf("%w: no microphone configured", ErrCaptureUnavailable)
		c.report(err)
		return err
	}
	capture, err := c.Mic.Open(ctx)
	if err != nil {
		c.mu.Unlock()
		err = fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)
		c.report(err)
		return err
	}

	c.capture = capture
	c.state = Listening
	c.gen++
	gen := c.gen
	if c.MaxListen > 0 {
		c.autoStop = time.AfterFunc(c.MaxListen, func() { c.expire(gen) })
	}
	c.mu.Unlock()

	c.Logger.Debug("listening", zap.Duration("max", c.MaxListen))
	return nil
}

func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state != Listening {
		c.mu.Unlock()
		return
	}
	c.Logger.Debug("max listen reached, stopping capture")
	err := c.stopLocked()
	c.mu.Unlock()
	c.report(err)
}

// Stop ends capture and resolves the audio in the background. Stopping while
// Processing cancels the pending resolution and returns to Idle.
func (c *Controller) Stop() error {
	c.mu.Lock()
	var err error
	switch c.state {
	case Listening:
		err = c.stopLocked()
	case Processing:
		c.resetLocked()
	}
	c.mu.Unlock()
	c.report(err)
	return err
}

// releaseLocked closes the capture and returns its audio if stop is set.
func (c *Controller) releaseLocked(stop bool) (Audio, error) {
	if c.autoStop != nil {
		c.autoStop.Stop()
		c.autoStop = nil
	}
	capture := c.capture
	c.capture = nil
	if capture == nil {
		return Audio{}, nil
	}
	var audio Audio
	var err error
	if stop {
		audio, err = capture.Stop()
	}
	if cerr := capture.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return audio, err
}

func (c *Controller) stopLocked() error {
	audio, err := c.releaseLocked(true)
	if err != nil {
		c.state = Idle
		return fmt.Errorf("stop capture: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = Processing
	gen := c.gen

	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		c.resolve(ctx, gen, audio)
	}()
	return nil
}

func (c *Controller) resetLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.state = Idle
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen && c.state == Processing
}

func (c *Controller) resolve(ctx context.Context, gen uint64, audio Audio) {
	var text string
	var err error
	if c.Transcriber == nil {
		err = errors.New("no transcriber configured")
	} else {
		text, err = c.Transcriber.Transcribe(ctx, audio)
	}

	if !c.current(gen) {
		return
	}
	switch {
	case err != nil && ctx.Err() == nil:
		c.report(fmt.Errorf("transcribe: %w", err))
	case err == nil && c.OnTranscript != nil:
		c.OnTranscript(ctx, text)
	}

	c.mu.Lock()
	if gen == c.gen {
		c.resetLocked()
	}
	c.mu.Unlock()
}

// Close releases the capture device synchronously, cancels any resolution and
// waits for background work to finish. The controller cannot be restarted.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	_, err := c.releaseLocked(false)
	c.resetLocked()
	c.mu.Unlock()

	c.workers.Wait()
	return err
}
