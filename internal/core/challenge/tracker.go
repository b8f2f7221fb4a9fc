package challenge

import "fmt"

// Tracker follows one attempt at a challenge across evaluations.
type Tracker struct {
	Challenge Challenge
	last      Evaluation
}

func NewTracker(c Challenge) *Tracker {
	return &Tracker{Challenge: c}
}

func (t *Tracker) Last() Evaluation {
	return t.last
}

// Observe records e. It reports whether e differs enough from the previous
// evaluation to be worth storing, and what to tell the learner, if anything.
// Completion is announced once; progress is announced when it climbs past a
// quarter mark.
func (t *Tracker) Observe(e Evaluation) (significant bool, announce string) {
	prev := t.last
	t.last = e

	delta := e.Progress - prev.Progress
	significant = delta > 5 || delta < -5 || e.Completed != prev.Completed

	switch {
	case e.Completed && !prev.Completed:
		announce = fmt.Sprintf("Challenge completed! You earned %d XP for completing %s", t.Challenge.XP(e), t.Challenge.Title)
	case !e.Completed && e.Progress < 100 && e.Progress/25 > prev.Progress/25:
		announce = fmt.Sprintf("Great progress! You're %d%% complete", e.Progress/25*25)
	}
	return significant, announce
}
