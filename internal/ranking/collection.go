package ranking

import (
	"slices"

	"gdpr-quiz-service/internal/domain"
)

// DefaultCapacity is the number of entries a collection keeps.
const DefaultCapacity = 10

// RankChange describes how a player's position moved between two snapshots.
type RankChange string

const (
	RankNew  RankChange = "new"
	RankUp   RankChange = "up"
	RankDown RankChange = "down"
	RankSame RankChange = "same"
)

// Collection is a top-N list of entries kept in Compare order.
// It is not safe for concurrent use; callers own the synchronization.
type Collection struct {
	capacity int
	entries  []Entry
}

// NewCollection builds a collection holding the best capacity entries of the
// given ones. A capacity <= 0 selects DefaultCapacity.
func NewCollection(capacity int, entries ...Entry) *Collection {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Collection{
		capacity: capacity,
		entries:  slices.Clone(entries),
	}
	c.Sort()
	c.Truncate(capacity)
	return c
}

// Capacity returns N.
func (c *Collection) Capacity() int { return c.capacity }

// Len returns the number of kept entries.
func (c *Collection) Len() int { return len(c.entries) }

// Insert appends the entry, re-sorts and truncates to capacity. An entry that
// sorts below the last kept one is dropped.
func (c *Collection) Insert(e Entry) {
	c.entries = append(c.entries, e)
	c.Sort()
	c.Truncate(c.capacity)
}

// Sort orders entries by Compare. Equal entries keep their relative order.
func (c *Collection) Sort() {
	slices.SortStableFunc(c.entries, Compare)
}

// Truncate keeps the first n entries.
func (c *Collection) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if len(c.entries) <= n {
		return
	}
	clear(c.entries[n:])
	c.entries = c.entries[:n]
}

// Entries returns a copy of the entries in rank order.
func (c *Collection) Entries() []Entry {
	return slices.Clone(c.entries)
}

// PositionOf returns the lowest index whose entry has the given player name.
func (c *Collection) PositionOf(name string) (int, bool) {
	return positionOf(c.entries, name)
}

// RankDelta compares the player's position now against a previous snapshot
// of the same collection. Lower index is a better rank.
func (c *Collection) RankDelta(name string, previous []Entry) RankChange {
	current, ok := c.PositionOf(name)
	if !ok {
		return RankNew
	}
	before, ok := positionOf(previous, name)
	if !ok {
		return RankNew
	}
	switch {
	case current < before:
		return RankUp
	case current > before:
		return RankDown
	default:
		return RankSame
	}
}

// Filter returns the entries of one difficulty without touching the
// collection. "all" returns every entry.
func (c *Collection) Filter(difficulty string) []Entry {
	return filterEntries(c.entries, difficulty)
}

func positionOf(entries []Entry, name string) (int, bool) {
	for i := range entries {
		if entries[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

func filterEntries(entries []Entry, difficulty string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if difficulty == domain.DifficultyAll || string(e.Difficulty) == difficulty {
			out = append(out, e)
		}
	}
	return out
}
