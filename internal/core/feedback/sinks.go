package feedback

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

type EventKind string

const (
	EventAnnounce EventKind = "announce"
	EventToast    EventKind = "toast"
	EventHaptic   EventKind = "haptic"
)

// Event is one delivered notification, as recorded for polling clients.
type Event struct {
	Kind     EventKind `json:"kind"`
	Message  string    `json:"message,omitempty"`
	Priority Priority  `json:"priority,omitempty"`
	Pattern  *Pattern  `json:"pattern,omitempty"`
	At       time.Time `json:"at"`
}

// Recorder buffers the most recent events until drained.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	limit  int
	now    func() time.Time
}

func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 256
	}
	return &Recorder{limit: limit, now: time.Now}
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.At = r.now().UTC()
	r.events = append(r.events, e)
	if over := len(r.events) - r.limit; over > 0 {
		r.events = r.events[over:]
	}
}

func (r *Recorder) Announce(message string, priority Priority) {
	r.add(Event{Kind: EventAnnounce, Message: message, Priority: priority})
}

func (r *Recorder) Toast(message string) {
	r.add(Event{Kind: EventToast, Message: message})
}

func (r *Recorder) Haptic(p Pattern) {
	r.add(Event{Kind: EventHaptic, Pattern: &p})
}

// Drain returns buffered events and empties the buffer.
func (r *Recorder) Drain() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

// Logged writes every notification to a zap logger at debug level.
type Logged struct {
	Logger *zap.Logger
}

func (l Logged) Announce(message string, priority Priority) {
	l.Logger.Debug("announce", zap.String("message", message), zap.String("priority", string(priority)))
}

func (l Logged) Toast(message string) {
	l.Logger.Debug("toast", zap.String("message", message))
}

func (l Logged) Haptic(p Pattern) {
	l.Logger.Debug("haptic", zap.String("pattern", p.ID), zap.Durations("vibrate", p.Vibrate))
}

// Writer prints announcements to a terminal. Toasts and haptics are dropped.
type Writer struct {
	W io.Writer
}

func (w Writer) Announce(message string, priority Priority) {
	if priority == Assertive {
		fmt.Fprintf(w.W, "! %s\n", message)
		return
	}
	fmt.Fprintf(w.W, "> %s\n", message)
}

func (Writer) Toast(string) {}

func (Writer) Haptic(Pattern) {}
