package core

import (
	"time"

	"github.com/agenthands/blockvoice/internal/config"
	"github.com/agenthands/blockvoice/internal/core/executor"
	"github.com/agenthands/blockvoice/internal/recognition"
)

// Options tunes a session. Zero numbers and empty strings fall back to
// DefaultOptions; the flags are taken as given.
type Options struct {
	Spatial          bool
	LLMFallback      bool
	ConnectThreshold float64
	DuplicateOffset  float64
	MoveStep         float64
	NudgeStep        float64
	RegenDebounce    time.Duration
	MaxListen        time.Duration
	Language         string
	HistoryLimit     int
}

func DefaultOptions() Options {
	return Options{
		Spatial:          true,
		ConnectThreshold: executor.DefaultConnectThreshold,
		DuplicateOffset:  executor.DefaultDuplicateOffset,
		MoveStep:         50,
		NudgeStep:        10,
		RegenDebounce:    time.Second,
		MaxListen:        recognition.DefaultMaxListen,
		Language:         "python",
		HistoryLimit:     50,
	}
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Spatial:          cfg.Voice.EnableSpatialCommands,
		LLMFallback:      cfg.Voice.LLMFallback,
		ConnectThreshold: cfg.Workspace.ConnectThreshold,
		DuplicateOffset:  cfg.Workspace.DuplicateOffset,
		MoveStep:         cfg.Workspace.MoveStep,
		NudgeStep:        cfg.Workspace.NudgeStep,
		RegenDebounce:    cfg.Workspace.RegenDebounce.Duration,
		MaxListen:        cfg.Voice.MaxListen.Duration,
		Language:         cfg.Workspace.DefaultLanguage,
		HistoryLimit:     cfg.Workspace.HistoryLimit,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ConnectThreshold <= 0 {
		o.ConnectThreshold = d.ConnectThreshold
	}
	if o.DuplicateOffset <= 0 {
		o.DuplicateOffset = d.DuplicateOffset
	}
	if o.MoveStep <= 0 {
		o.MoveStep = d.MoveStep
	}
	if o.NudgeStep <= 0 {
		o.NudgeStep = d.NudgeStep
	}
	if o.RegenDebounce <= 0 {
		o.RegenDebounce = d.RegenDebounce
	}
	if o.MaxListen <= 0 {
		o.MaxListen = d.MaxListen
	}
	if o.Language == "" {
		o.Language = d.Language
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = d.HistoryLimit
	}
	return o
}
