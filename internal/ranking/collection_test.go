package ranking

import (
	"fmt"
	"testing"
	"time"

	"gdpr-quiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 5, 25, 12, 0, 0, 0, time.UTC)

func entry(name string, calculated int, pct float64, d domain.Difficulty, offset time.Duration) Entry {
	return Entry{
		Name:            name,
		Country:         "DE",
		Score:           int(pct / 20),
		MaxScore:        5,
		Percentage:      pct,
		CalculatedScore: calculated,
		Difficulty:      d,
		Timestamp:       baseTime.Add(offset),
	}
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestCompareTieBreakChain(t *testing.T) {
	c := NewCollection(10,
		entry("older", 100, 80, domain.DifficultyHard, 0),
		entry("low", 90, 100, domain.DifficultyHard, time.Hour),
		entry("mixed", 100, 80, domain.DifficultyMixed, time.Hour),
		entry("newer", 100, 80, domain.DifficultyHard, time.Minute),
		entry("medium", 100, 80, domain.DifficultyMedium, time.Hour),
		entry("pct", 100, 100, domain.DifficultyEasy, 0),
		entry("top", 120, 60, domain.DifficultyEasy, 0),
	)

	assert.Equal(t,
		[]string{"top", "pct", "newer", "older", "medium", "mixed", "low"},
		names(c.Entries()),
	)
}

func TestSortIsIdempotentAndStable(t *testing.T) {
	twinA := entry("twin-a", 50, 60, domain.DifficultyEasy, 0)
	twinB := entry("twin-b", 50, 60, domain.DifficultyEasy, 0)
	c := NewCollection(10,
		twinA,
		entry("x", 70, 60, domain.DifficultyEasy, 0),
		twinB,
	)
	first := c.Entries()
	require.Equal(t, []string{"x", "twin-a", "twin-b"}, names(first))

	for i := 0; i < 5; i++ {
		c.Sort()
		assert.Equal(t, first, c.Entries())
	}
}

func TestInsertKeepsTopN(t *testing.T) {
	c := NewCollection(3)
	for i := 0; i < 20; i++ {
		c.Insert(entry(fmt.Sprintf("p%02d", i), (i*37)%101, 50, domain.DifficultyEasy, time.Duration(i)*time.Second))
		assert.LessOrEqual(t, c.Len(), 3)
	}

	scores := make([]int, 0, 3)
	for _, e := range c.Entries() {
		scores = append(scores, e.CalculatedScore)
	}
	// (i*37)%101 for i<20 peaks at 97, 94, 87.
	assert.Equal(t, []int{97, 94, 87}, scores)
}

func TestInsertDiscardsEntryBelowCutoff(t *testing.T) {
	c := NewCollection(2,
		entry("a", 100, 100, domain.DifficultyHard, 0),
		entry("b", 90, 100, domain.DifficultyHard, 0),
	)
	c.Insert(entry("late", 10, 20, domain.DifficultyEasy, time.Hour))

	assert.Equal(t, []string{"a", "b"}, names(c.Entries()))
	_, ok := c.PositionOf("late")
	assert.False(t, ok)
}

func TestTruncate(t *testing.T) {
	c := NewCollection(5,
		entry("a", 3, 0, domain.DifficultyEasy, 0),
		entry("b", 2, 0, domain.DifficultyEasy, 0),
		entry("c", 1, 0, domain.DifficultyEasy, 0),
	)
	c.Truncate(10)
	assert.Equal(t, 3, c.Len())
	c.Truncate(1)
	assert.Equal(t, []string{"a"}, names(c.Entries()))
	c.Truncate(-1)
	assert.Equal(t, 0, c.Len())
}

func TestEntriesReturnsCopy(t *testing.T) {
	c := NewCollection(5, entry("a", 3, 0, domain.DifficultyEasy, 0))
	got := c.Entries()
	got[0].Name = "mutated"
	assert.Equal(t, "a", c.Entries()[0].Name)
}

func TestPositionOfFindsFirstMatch(t *testing.T) {
	c := NewCollection(5,
		entry("alex", 90, 0, domain.DifficultyEasy, 0),
		entry("sam", 80, 0, domain.DifficultyEasy, 0),
		entry("alex", 70, 0, domain.DifficultyEasy, 0),
	)
	pos, ok := c.PositionOf("alex")
	require.True(t, ok)
	assert.Equal(t, 0, pos)

	pos, ok = c.PositionOf("sam")
	require.True(t, ok)
	assert.Equal(t, 1, pos)

	pos, ok = c.PositionOf("nobody")
	assert.False(t, ok)
	assert.Equal(t, -1, pos)
}

func TestRankDelta(t *testing.T) {
	c := NewCollection(5,
		entry("a", 50, 0, domain.DifficultyEasy, 0),
		entry("b", 40, 0, domain.DifficultyEasy, 0),
		entry("c", 30, 0, domain.DifficultyEasy, 0),
	)
	previous := c.Entries()

	assert.Equal(t, RankNew, c.RankDelta("a", nil))
	assert.Equal(t, RankNew, c.RankDelta("ghost", previous))

	c.Insert(entry("c", 45, 0, domain.DifficultyEasy, time.Minute))

	assert.Equal(t, RankUp, c.RankDelta("c", previous))
	assert.Equal(t, RankDown, c.RankDelta("b", previous))
	assert.Equal(t, RankSame, c.RankDelta("a", previous))
}

func TestFilterDoesNotMutate(t *testing.T) {
	c := NewCollection(5,
		entry("a", 50, 0, domain.DifficultyEasy, 0),
		entry("b", 40, 0, domain.DifficultyHard, 0),
		entry("c", 30, 0, domain.DifficultyEasy, 0),
	)

	assert.Equal(t, []string{"a", "c"}, names(c.Filter("easy")))
	assert.Equal(t, []string{"b"}, names(c.Filter("hard")))
	assert.Empty(t, c.Filter("medium"))
	assert.Equal(t, []string{"a", "b", "c"}, names(c.Filter(domain.DifficultyAll)))
	assert.Equal(t, 3, c.Len())
}

func TestNewEntry(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 678901234, time.FixedZone("CET", 3600))
	e, err := NewEntry(domain.Attempt{
		PlayerName:     "Maria",
		Country:        "DE",
		Correct:        4,
		Total:          5,
		ElapsedSeconds: 65,
		Difficulty:     domain.DifficultyMixed,
	}, at)
	require.NoError(t, err)

	assert.Equal(t, 108, e.CalculatedScore)
	assert.Equal(t, 4, e.Score)
	assert.Equal(t, 5, e.MaxScore)
	assert.InDelta(t, 80.0, e.Percentage, 1e-9)
	assert.Equal(t, time.UTC, e.Timestamp.Location())
	assert.Equal(t, 678000000, e.Timestamp.Nanosecond())
	assert.NoError(t, e.Validate())

	_, err = NewEntry(domain.Attempt{PlayerName: "x", Total: 0, Difficulty: domain.DifficultyEasy}, at)
	assert.ErrorIs(t, err, domain.ErrInvalidAttempt)
}

func TestEntryValidate(t *testing.T) {
	ok := entry("a", 10, 60, domain.DifficultyEasy, 0)
	require.NoError(t, ok.Validate())

	bad := []Entry{
		func() Entry { e := ok; e.MaxScore = 0; return e }(),
		func() Entry { e := ok; e.Score = 6; return e }(),
		func() Entry { e := ok; e.Score = -1; return e }(),
		func() Entry { e := ok; e.CalculatedScore = -1; return e }(),
		func() Entry { e := ok; e.Difficulty = "insane"; return e }(),
	}
	for _, e := range bad {
		assert.ErrorIs(t, e.Validate(), domain.ErrInvalidAttempt)
	}
}
