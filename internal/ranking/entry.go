package ranking

import (
	"cmp"
	"fmt"
	"time"

	"gdpr-quiz-service/internal/domain"
)

// Entry is one leaderboard row. Entries are values: a new attempt creates a
// new entry and never touches an existing one.
type Entry struct {
	Name            string            `json:"name"`
	Country         string            `json:"country"`
	Score           int               `json:"score"`
	MaxScore        int               `json:"maxScore"`
	Percentage      float64           `json:"percentage"`
	CalculatedScore int               `json:"calculatedScore"`
	Difficulty      domain.Difficulty `json:"difficulty"`
	Timestamp       time.Time         `json:"timestamp"`
}

// NewEntry scores an attempt and builds its entry, stamped at the given instant.
// Timestamps are kept in UTC with millisecond precision so they survive a
// round trip through the persisted ISO-8601 form unchanged.
func NewEntry(a domain.Attempt, at time.Time) (Entry, error) {
	calculated, err := ComputeAttempt(a)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Name:            a.PlayerName,
		Country:         a.Country,
		Score:           a.Correct,
		MaxScore:        a.Total,
		Percentage:      float64(a.Correct) / float64(a.Total) * 100,
		CalculatedScore: calculated,
		Difficulty:      a.Difficulty,
		Timestamp:       at.UTC().Truncate(time.Millisecond),
	}, nil
}

// Validate checks the invariants of a loaded entry.
func (e Entry) Validate() error {
	if e.MaxScore <= 0 {
		return fmt.Errorf("%w: maxScore %d", domain.ErrInvalidAttempt, e.MaxScore)
	}
	if e.Score < 0 || e.Score > e.MaxScore {
		return fmt.Errorf("%w: score %d out of range [0,%d]", domain.ErrInvalidAttempt, e.Score, e.MaxScore)
	}
	if e.CalculatedScore < 0 {
		return fmt.Errorf("%w: calculatedScore %d", domain.ErrInvalidAttempt, e.CalculatedScore)
	}
	if !e.Difficulty.Valid() {
		return fmt.Errorf("%w: difficulty %q", domain.ErrInvalidAttempt, e.Difficulty)
	}
	return nil
}

// DifficultyRank orders difficulties for tie-breaking: hard > medium > easy > mixed.
func DifficultyRank(d domain.Difficulty) int {
	switch d {
	case domain.DifficultyHard:
		return 3
	case domain.DifficultyMedium:
		return 2
	case domain.DifficultyEasy:
		return 1
	default:
		return 0
	}
}

// Compare orders entries best first. It returns a negative number when a
// ranks above b: calculated score, then percentage, then difficulty rank,
// then the more recent timestamp.
func Compare(a, b Entry) int {
	if c := cmp.Compare(b.CalculatedScore, a.CalculatedScore); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Percentage, a.Percentage); c != 0 {
		return c
	}
	if c := cmp.Compare(DifficultyRank(b.Difficulty), DifficultyRank(a.Difficulty)); c != 0 {
		return c
	}
	return b.Timestamp.Compare(a.Timestamp)
}
