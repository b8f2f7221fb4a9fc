// Package feedback delivers command outcomes to the user through screen
// reader announcements, visual toasts and haptic pulses.
package feedback

import (
	"go.uber.org/zap"

	"github.com/agenthands/blockvoice/internal/core/model"
)

type Priority string

const (
	Polite    Priority = "polite"
	Assertive Priority = "assertive"
)

// Channels is implemented by whatever hosts the UI.
type Channels interface {
	Announce(message string, priority Priority)
	Toast(message string)
	Haptic(p Pattern)
}

// Features selects which channels a dispatcher drives.
type Features struct {
	Announce bool
	Toast    bool
	Haptic   bool
}

func AllFeatures() Features {
	return Features{Announce: true, Toast: true, Haptic: true}
}

// Dispatcher fans results out to its sinks. A panicking sink is logged and
// skipped so feedback can never fail a mutation.
type Dispatcher struct {
	Sinks    []Channels
	Features Features
	Logger   *zap.Logger
}

func NewDispatcher(logger *zap.Logger, features Features, sinks ...Channels) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{Sinks: sinks, Features: features, Logger: logger}
}

// Notify reports r on every enabled channel.
func (d *Dispatcher) Notify(r model.Result) {
	if r.Message == "" {
		return
	}
	priority := Polite
	if !r.Success {
		priority = Assertive
	}
	p, vibrate := PatternFor(r)
	for _, s := range d.Sinks {
		d.deliver(s, func(c Channels) {
			if d.Features.Announce {
				c.Announce(r.Message, priority)
			}
			if d.Features.Toast {
				c.Toast(r.Message)
			}
			if d.Features.Haptic && vibrate {
				c.Haptic(p)
			}
		})
	}
}

// Pulse sends a bare haptic pattern, e.g. when listening starts.
func (d *Dispatcher) Pulse(p Pattern) {
	if !d.Features.Haptic {
		return
	}
	for _, s := range d.Sinks {
		d.deliver(s, func(c Channels) { c.Haptic(p) })
	}
}

// Announce speaks a message without a result attached.
func (d *Dispatcher) Announce(message string, priority Priority) {
	if !d.Features.Announce {
		return
	}
	for _, s := range d.Sinks {
		d.deliver(s, func(c Channels) { c.Announce(message, priority) })
	}
}

func (d *Dispatcher) deliver(s Channels, fn func(Channels)) {
	defer func() {
		if rec := recover(); rec != nil {
			d.Logger.Warn("feedback sink panicked", zap.Any("panic", rec))
		}
	}()
	fn(s)
}
