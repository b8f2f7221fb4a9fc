// Package challenge grades a workspace against the practice challenges and
// turns grades into persisted progress.
package challenge

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/agenthands/blockvoice/internal/core/model"
)

var ErrNotFound = errors.New("challenge not found")

type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

type CriteriaKind string

const (
	// ByBlockCount completes once the workspace holds between one and
	// MaxBlocks blocks.
	ByBlockCount CriteriaKind = "block_count"
	// ByExecution completes when the last run printed Expected.
	ByExecution CriteriaKind = "execution"
)

type Criteria struct {
	Kind     CriteriaKind `json:"kind"`
	Expected string       `json:"expected,omitempty"`
}

type Challenge struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
	XPReward    int        `json:"xp_reward"`
	MaxBlocks   int        `json:"max_blocks"`
	Criteria    Criteria   `json:"criteria"`
}

var catalog = []Challenge{
	{
		ID:          "print",
		Title:       "Intro to Printing",
		Description: "Print hello 5 times",
		Difficulty:  Beginner,
		XPReward:    100,
		MaxBlocks:   3,
		Criteria:    Criteria{Kind: ByExecution, Expected: strings.Repeat("hello\n", 5)},
	},
	{
		ID:          "print2",
		Title:       "Print 1 - 10 using a loop",
		Description: "Use a loop to print the numbers from 1 to 10",
		Difficulty:  Intermediate,
		XPReward:    150,
		MaxBlocks:   6,
		Criteria:    Criteria{Kind: ByExecution, Expected: lines(1, 10, strconv.Itoa)},
	},
	{
		ID:          "prime100",
		Title:       "Prime numbers up to 100",
		Description: "Print every prime number from 2 to 100",
		Difficulty:  Advanced,
		XPReward:    200,
		MaxBlocks:   20,
		Criteria:    Criteria{Kind: ByExecution, Expected: primes(100)},
	},
	{
		ID:          "fizzbuzz",
		Title:       "FizzBuzz",
		Description: "Print the numbers from 1 to 100, but Fizz for multiples of 3, Buzz for multiples of 5 and FizzBuzz for both",
		Difficulty:  Advanced,
		XPReward:    200,
		MaxBlocks:   35,
		Criteria:    Criteria{Kind: ByExecution, Expected: lines(1, 100, fizzbuzz)},
	},
}

func lines(from, to int, f func(int) string) string {
	var b strings.Builder
	for i := from; i <= to; i++ {
		b.WriteString(f(i))
		b.WriteByte('\n')
	}
	return b.String()
}

func fizzbuzz(i int) string {
	switch {
	case i%15 == 0:
		return "FizzBuzz"
	case i%3 == 0:
		return "Fizz"
	case i%5 == 0:
		return "Buzz"
	}
	return strconv.Itoa(i)
}

func primes(limit int) string {
	var b strings.Builder
	for n := 2; n <= limit; n++ {
		prime := true
		for d := 2; d*d <= n; d++ {
			if n%d == 0 {
				prime = false
				break
			}
		}
		if prime {
			b.WriteString(strconv.Itoa(n))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Catalog returns the challenges in presentation order.
func Catalog() []Challenge {
	out := make([]Challenge, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(id string) (Challenge, error) {
	for _, c := range catalog {
		if c.ID == id {
			return c, nil
		}
	}
	return Challenge{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Evaluation is one grading of a workspace. Progress is a percentage.
type Evaluation struct {
	Progress  int    `json:"progress"`
	Completed bool   `json:"completed"`
	Note      string `json:"note,omitempty"`
}

// Evaluate grades snap and the output of its last run. An empty output
// means the workspace changed since it last ran. Execution challenges also
// hold to MaxBlocks.
func (c Challenge) Evaluate(snap model.Snapshot, output string) Evaluation {
	count := len(snap.Nodes)
	switch c.Criteria.Kind {
	case ByBlockCount:
		if count > c.MaxBlocks {
			return Evaluation{Note: c.overLimit(count)}
		}
		p := 100
		if c.MaxBlocks > 0 {
			p = min(100, count*100/c.MaxBlocks)
		}
		return Evaluation{Progress: p, Completed: count > 0}
	case ByExecution:
		if output == "" {
			return Evaluation{}
		}
		if normalize(output) != normalize(c.Criteria.Expected) {
			return Evaluation{Note: "The output does not match yet"}
		}
		if c.MaxBlocks > 0 && count > c.MaxBlocks {
			return Evaluation{Progress: 50, Note: c.overLimit(count)}
		}
		return Evaluation{Progress: 100, Completed: true}
	}
	return Evaluation{}
}

func (c Challenge) overLimit(count int) string {
	return fmt.Sprintf("Uses %d blocks, the limit is %d", count, c.MaxBlocks)
}

func normalize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}

// XP is the reward earned for e: all of it on completion, otherwise the
// share matching progress.
func (c Challenge) XP(e Evaluation) int {
	if e.Completed {
		return c.XPReward
	}
	return int(math.Floor(float64(e.Progress) / 100 * float64(c.XPReward)))
}

// Progress is a learner's standing on one challenge.
type Progress struct {
	UserID      string     `json:"user_id"`
	ChallengeID string     `json:"challenge_id"`
	Progress    int        `json:"progress"`
	Completed   bool       `json:"completed"`
	XPEarned    int        `json:"xp_earned"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (c Challenge) Record(userID string, e Evaluation, now time.Time) Progress {
	p := Progress{
		UserID:      userID,
		ChallengeID: c.ID,
		Progress:    e.Progress,
		Completed:   e.Completed,
		XPEarned:    c.XP(e),
		UpdatedAt:   now,
	}
	if e.Completed {
		p.CompletedAt = &now
	}
	return p
}

// Merge folds next into prev. Completion is permanent and the best progress
// and XP are kept.
func Merge(prev, next Progress) Progress {
	out := next
	out.Progress = max(prev.Progress, next.Progress)
	out.XPEarned = max(prev.XPEarned, next.XPEarned)
	if prev.Completed {
		out.Completed = true
		out.CompletedAt = prev.CompletedAt
	}
	return out
}
