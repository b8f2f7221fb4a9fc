// Package profile stores per-user accessibility preferences and challenge
// progress.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agenthands/blockvoice/internal/core/challenge"
	"github.com/agenthands/blockvoice/internal/core/feedback"
)

var ErrNotFound = errors.New("profile not found")

type Mode string

const (
	ModeNone           Mode = ""
	ModeNeurodivergent Mode = "neurodivergent"
	ModeVisual         Mode = "visual"
	ModeHearing        Mode = "hearing"
	ModeMotor          Mode = "motor"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNone, ModeNeurodivergent, ModeVisual, ModeHearing, ModeMotor:
		return m, nil
	}
	return ModeNone, fmt.Errorf("unknown accessibility mode: %q", s)
}

type Features struct {
	SimplifiedUI       bool `json:"simplifiedUI"`
	ReducedMotion      bool `json:"reducedMotion"`
	VisualFeedback     bool `json:"visualFeedback"`
	LargeText          bool `json:"largeText"`
	HighContrast       bool `json:"highContrast"`
	ScreenReader       bool `json:"screenReader"`
	KeyboardNavigation bool `json:"keyboardNavigation"`
	AudioDescriptions  bool `json:"audioDescriptions"`
	TactileFeedback    bool `json:"tactileFeedback"`
	VoiceCommands      bool `json:"voiceCommands"`
}

// ModeFeatures returns the feature set a mode switches on.
func ModeFeatures(m Mode) Features {
	switch m {
	case ModeNeurodivergent:
		return Features{SimplifiedUI: true, ReducedMotion: true, VisualFeedback: true, LargeText: true}
	case ModeVisual:
		return Features{HighContrast: true, ScreenReader: true, KeyboardNavigation: true, AudioDescriptions: true, LargeText: true}
	case ModeHearing:
		return Features{VisualFeedback: true, TactileFeedback: true, SimplifiedUI: true}
	case ModeMotor:
		return Features{VoiceCommands: true, KeyboardNavigation: true, LargeText: true, SimplifiedUI: true}
	}
	return Features{}
}

type Profile struct {
	UserID        string    `json:"userId"`
	Mode          Mode      `json:"mode"`
	Features      Features  `json:"features"`
	Language      string    `json:"language,omitempty"`
	VoiceDisabled bool      `json:"voiceDisabled"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// New builds a profile with the mode's default features.
func New(userID string, mode Mode) Profile {
	return Profile{UserID: userID, Mode: mode, Features: ModeFeatures(mode)}
}

// FeedbackChannels maps the profile onto the channels a session drives.
// Without a mode every channel is on.
func (p Profile) FeedbackChannels() feedback.Features {
	if p.Mode == ModeNone && p.Features == (Features{}) {
		return feedback.AllFeatures()
	}
	f := p.Features
	ch := feedback.Features{
		Announce: f.ScreenReader || f.AudioDescriptions || f.VoiceCommands,
		Toast:    f.VisualFeedback || !f.ScreenReader,
		Haptic:   f.TactileFeedback || f.VoiceCommands,
	}
	return ch
}

type Store interface {
	Get(ctx context.Context, userID string) (Profile, error)
	Put(ctx context.Context, p Profile) error
	Delete(ctx context.Context, userID string) error

	// Progress lists the user's challenge progress ordered by challenge id.
	Progress(ctx context.Context, userID string) ([]challenge.Progress, error)
	// SaveProgress merges p into the stored record and returns the result.
	SaveProgress(ctx context.Context, p challenge.Progress) (challenge.Progress, error)
}
