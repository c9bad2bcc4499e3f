package ranking

import (
	"fmt"
	"math"

	"gdpr-quiz-service/internal/domain"
)

// Multiplier returns the score multiplier for a difficulty.
func Multiplier(d domain.Difficulty) (float64, bool) {
	switch d {
	case domain.DifficultyEasy:
		return 1.0, true
	case domain.DifficultyMedium:
		return 1.25, true
	case domain.DifficultyHard:
		return 1.5, true
	case domain.DifficultyMixed:
		return 1.2, true
	}
	return 0, false
}

// TimeBonus returns the bonus for an average number of seconds per question.
// Bucket upper bounds are inclusive.
func TimeBonus(avgSeconds float64) int {
	switch {
	case avgSeconds <= 10:
		return 20
	case avgSeconds <= 20:
		return 10
	case avgSeconds <= 30:
		return 5
	default:
		return 0
	}
}

// Compute maps a quiz attempt to its calculated score:
// round((correct/total*100 + timeBonus) * multiplier), rounding halves up.
func Compute(correct, total int, elapsedSeconds float64, difficulty domain.Difficulty) (int, error) {
	if total <= 0 {
		return 0, fmt.Errorf("%w: total must be positive, got %d", domain.ErrInvalidAttempt, total)
	}
	if correct < 0 || correct > total {
		return 0, fmt.Errorf("%w: correct %d out of range [0,%d]", domain.ErrInvalidAttempt, correct, total)
	}
	if math.IsNaN(elapsedSeconds) || elapsedSeconds < 0 {
		return 0, fmt.Errorf("%w: elapsed seconds %v", domain.ErrInvalidAttempt, elapsedSeconds)
	}
	multiplier, ok := Multiplier(difficulty)
	if !ok {
		return 0, fmt.Errorf("%w: unknown difficulty %q", domain.ErrInvalidAttempt, difficulty)
	}

	base := float64(correct) / float64(total) * 100
	bonus := TimeBonus(elapsedSeconds / float64(total))
	return int(math.Floor((base+float64(bonus))*multiplier + 0.5)), nil
}

// ComputeAttempt is Compute for a domain.Attempt.
func ComputeAttempt(a domain.Attempt) (int, error) {
	return Compute(a.Correct, a.Total, a.ElapsedSeconds, a.Difficulty)
}
