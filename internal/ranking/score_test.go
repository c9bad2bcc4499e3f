package ranking

import (
	"math"
	"testing"

	"gdpr-quiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name       string
		correct    int
		total      int
		elapsed    float64
		difficulty domain.Difficulty
		want       int
	}{
		{"easy slow", 3, 5, 90, domain.DifficultyEasy, 70},
		{"mixed medium pace", 4, 5, 65, domain.DifficultyMixed, 108},
		{"hard perfect on the 10s boundary", 5, 5, 50, domain.DifficultyHard, 180},
		{"hard perfect just over 10s", 5, 5, 51, domain.DifficultyHard, 165},
		{"medium half rounds up", 1, 2, 100, domain.DifficultyMedium, 63},
		{"hard quarter rounds up", 1, 4, 200, domain.DifficultyHard, 38},
		{"zero correct still gets time bonus", 0, 5, 0, domain.DifficultyEasy, 20},
		{"30s boundary", 2, 2, 60, domain.DifficultyEasy, 105},
		{"over 30s no bonus", 2, 2, 61, domain.DifficultyEasy, 100},
		{"20s boundary", 1, 1, 20, domain.DifficultyMedium, 138},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.correct, tt.total, tt.elapsed, tt.difficulty)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeRejectsInvalidAttempts(t *testing.T) {
	tests := []struct {
		name       string
		correct    int
		total      int
		elapsed    float64
		difficulty domain.Difficulty
	}{
		{"zero total", 0, 0, 10, domain.DifficultyEasy},
		{"negative total", 0, -1, 10, domain.DifficultyEasy},
		{"negative correct", -1, 5, 10, domain.DifficultyEasy},
		{"correct above total", 6, 5, 10, domain.DifficultyEasy},
		{"negative elapsed", 1, 5, -1, domain.DifficultyEasy},
		{"nan elapsed", 1, 5, math.NaN(), domain.DifficultyEasy},
		{"unknown difficulty", 1, 5, 10, domain.Difficulty("extreme")},
		{"empty difficulty", 1, 5, 10, domain.Difficulty("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.correct, tt.total, tt.elapsed, tt.difficulty)
			assert.ErrorIs(t, err, domain.ErrInvalidAttempt)
		})
	}
}

func TestComputeIsDeterministicAndNonNegative(t *testing.T) {
	difficulties := []domain.Difficulty{
		domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard, domain.DifficultyMixed,
	}
	for _, d := range difficulties {
		for total := 1; total <= 6; total++ {
			for correct := 0; correct <= total; correct++ {
				for _, elapsed := range []float64{0, 9.5, 10, 45, 120, 600} {
					first, err := Compute(correct, total, elapsed, d)
					require.NoError(t, err)
					second, err := Compute(correct, total, elapsed, d)
					require.NoError(t, err)
					assert.Equal(t, first, second)
					assert.GreaterOrEqual(t, first, 0)
				}
			}
		}
	}
}

func TestTimeBonusBuckets(t *testing.T) {
	assert.Equal(t, 20, TimeBonus(0))
	assert.Equal(t, 20, TimeBonus(10))
	assert.Equal(t, 10, TimeBonus(10.01))
	assert.Equal(t, 10, TimeBonus(20))
	assert.Equal(t, 5, TimeBonus(30))
	assert.Equal(t, 0, TimeBonus(30.5))
}
