package feedback

import (
	"time"

	"github.com/agenthands/blockvoice/internal/core/model"
)

// Pattern is a vibration sequence: alternating on and off durations.
type Pattern struct {
	ID      string          `json:"id"`
	Vibrate []time.Duration `json:"vibrate"`
}

func ms(v ...int) []time.Duration {
	out := make([]time.Duration, len(v))
	for i, x := range v {
		out[i] = time.Duration(x) * time.Millisecond
	}
	return out
}

var (
	PatternSuccess         = Pattern{ID: "success", Vibrate: ms(100, 50, 100)}
	PatternError           = Pattern{ID: "error", Vibrate: ms(200, 100, 200, 100, 200)}
	PatternBlockConnect    = Pattern{ID: "blockConnect", Vibrate: ms(30, 30, 30)}
	PatternBlockCreate     = Pattern{ID: "blockCreate", Vibrate: ms(80)}
	PatternBlockDelete     = Pattern{ID: "blockDelete", Vibrate: ms(150, 50, 150)}
	PatternWorkspaceClear  = Pattern{ID: "workspaceClear", Vibrate: ms(300, 100, 300)}
	PatternVoiceRecognized = Pattern{ID: "voiceRecognized", Vibrate: ms(40)}
	PatternVoiceFailed     = Pattern{ID: "voiceFailed", Vibrate: ms(100, 50, 100)}
	PatternLanguageSwitch  = Pattern{ID: "languageSwitch", Vibrate: ms(60, 40, 60)}
	PatternZoom            = Pattern{ID: "zoom", Vibrate: ms(25)}
	PatternNavigate        = Pattern{ID: "navigate", Vibrate: ms(30)}
	PatternListenStart     = Pattern{ID: "start", Vibrate: ms(50, 30, 100)}
	PatternListenEnd       = Pattern{ID: "end", Vibrate: ms(100, 30, 50)}
)

// PatternFor picks the vibration for a command outcome. Failures always use
// the error pattern.
func PatternFor(r model.Result) (Pattern, bool) {
	if !r.Success {
		return PatternError, true
	}
	switch r.Outcome {
	case model.OutcomeCreate:
		return PatternBlockCreate, true
	case model.OutcomeDelete:
		return PatternBlockDelete, true
	case model.OutcomeConnect:
		return PatternBlockConnect, true
	case model.OutcomeClear:
		return PatternWorkspaceClear, true
	case model.OutcomeZoom:
		return PatternZoom, true
	case model.OutcomeNavigate:
		return PatternNavigate, true
	case model.OutcomeLanguage:
		return PatternLanguageSwitch, true
	case model.OutcomeNoop, model.OutcomeDescribe:
		return Pattern{}, false
	default:
		return PatternSuccess, true
	}
}
