package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// EUCountries is the default region: the EU member states.
var EUCountries = []string{
	"AT", "BE", "BG", "HR", "CY", "CZ", "DK", "EE", "FI", "FR", "DE", "GR", "HU", "IE",
	"IT", "LV", "LT", "LU", "MT", "NL", "PL", "PT", "RO", "SK", "SI", "ES", "SE",
}

// Region is the set of country codes whose entries enter the regional collection.
type Region map[string]struct{}

// NewRegion builds a region from country codes (case-insensitive).
func NewRegion(codes ...string) Region {
	r := make(Region, len(codes))
	for _, code := range codes {
		r[strings.ToUpper(strings.TrimSpace(code))] = struct{}{}
	}
	return r
}

// Contains reports whether the country code belongs to the region.
func (r Region) Contains(country string) bool {
	_, ok := r[strings.ToUpper(strings.TrimSpace(country))]
	return ok
}

// Snapshot is the persisted form of a board.
type Snapshot struct {
	Regional []Entry `json:"regional"`
	Global   []Entry `json:"global"`
}

// Board holds the regional and global collections of one process.
type Board struct {
	region   Region
	regional *Collection
	global   *Collection
}

// NewBoard builds an empty board.
func NewBoard(capacity int, region Region) *Board {
	return &Board{
		region:   region,
		regional: NewCollection(capacity),
		global:   NewCollection(capacity),
	}
}

// Regional returns the regional collection.
func (b *Board) Regional() *Collection { return b.regional }

// Global returns the global collection.
func (b *Board) Global() *Collection { return b.global }

// InRegion reports whether entries from the country go to the regional collection.
func (b *Board) InRegion(country string) bool { return b.region.Contains(country) }

// Record inserts the entry into the global collection, and into the regional
// one when its country is in the region. It returns the snapshot taken
// before the insert so callers can compute rank deltas.
func (b *Board) Record(e Entry) Snapshot {
	previous := b.Snapshot()
	if b.region.Contains(e.Country) {
		b.regional.Insert(e)
	}
	b.global.Insert(e)
	return previous
}

// Restore replaces both collections with the snapshot's entries.
func (b *Board) Restore(s Snapshot) {
	capacity := b.global.Capacity()
	b.regional = NewCollection(capacity, s.Regional...)
	b.global = NewCollection(capacity, s.Global...)
}

// Reset empties both collections.
func (b *Board) Reset() {
	b.Restore(Snapshot{})
}

// Snapshot copies both collections.
func (b *Board) Snapshot() Snapshot {
	return Snapshot{
		Regional: b.regional.Entries(),
		Global:   b.global.Entries(),
	}
}

// Filter returns a snapshot restricted to one difficulty ("all" for everything).
func (b *Board) Filter(difficulty string) Snapshot {
	return Snapshot{
		Regional: b.regional.Filter(difficulty),
		Global:   b.global.Filter(difficulty),
	}
}

// EncodeSnapshot serializes a snapshot to its persisted JSON shape.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	if s.Regional == nil {
		s.Regional = []Entry{}
	}
	if s.Global == nil {
		s.Global = []Entry{}
	}
	return json.Marshal(s)
}

type storedSnapshot struct {
	Regional []Entry `json:"regional"`
	Global   []Entry `json:"global"`
	// Older game builds stored the regional list under "eu".
	EU []Entry `json:"eu"`
}

// DecodeSnapshot parses persisted data. Entries that violate the entry
// invariants are dropped and logged; malformed JSON is an error.
func DecodeSnapshot(data []byte, logger *slog.Logger) (Snapshot, error) {
	var stored storedSnapshot
	if err := json.Unmarshal(data, &stored); err != nil {
		return Snapshot{}, fmt.Errorf("decode leaderboard snapshot: %w", err)
	}
	regional := stored.Regional
	if regional == nil {
		regional = stored.EU
	}
	return Snapshot{
		Regional: validEntries(regional, "regional", logger),
		Global:   validEntries(stored.Global, "global", logger),
	}, nil
}

func validEntries(entries []Entry, collection string, logger *slog.Logger) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			if logger != nil {
				logger.Warn("Dropping invalid leaderboard entry",
					slog.String("collection", collection),
					slog.String("name", e.Name),
					slog.Any("error", err),
				)
			}
			continue
		}
		out = append(out, e)
	}
	return out
}
