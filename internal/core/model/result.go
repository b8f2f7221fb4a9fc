package model

// Outcome classifies a result for the feedback channels (haptic pattern choice).
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailure  Outcome = "failure"
	OutcomeNoop     Outcome = "noop"
	OutcomeCreate   Outcome = "create"
	OutcomeDelete   Outcome = "delete"
	OutcomeConnect  Outcome = "connect"
	OutcomeNavigate Outcome = "navigate"
	OutcomeClear    Outcome = "clear"
	OutcomeZoom     Outcome = "zoom"
	OutcomeLanguage Outcome = "language"
	OutcomeRun      Outcome = "run"
	OutcomeDescribe Outcome = "describe"
)

type Result struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Outcome Outcome `json:"outcome"`
	NodeID  string  `json:"node_id,omitempty"`
	// Mutated is set when the graph changed and generated code is stale.
	Mutated bool `json:"mutated"`
}

func Succeed(outcome Outcome, message string) Result {
	return Result{Success: true, Outcome: outcome, Message: message}
}

func Fail(message string) Result {
	return Result{Success: false, Outcome: OutcomeFailure, Message: message}
}
