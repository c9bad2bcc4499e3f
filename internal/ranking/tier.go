package ranking

import (
	"errors"
	"fmt"
)

// Tier is a named band of calculated scores used for color-coding.
type Tier struct {
	Threshold int    `json:"threshold" yaml:"threshold"`
	Label     string `json:"label" yaml:"label"`
	Color     string `json:"color" yaml:"color"`
}

// TierTable is ordered by strictly decreasing threshold and ends with a 0 tier.
type TierTable []Tier

// DefaultTiers is the stock table.
var DefaultTiers = TierTable{
	{Threshold: 90, Label: "Expert", Color: "#188038"},
	{Threshold: 70, Label: "Advanced", Color: "#34a853"},
	{Threshold: 50, Label: "Intermediate", Color: "#fbbc04"},
	{Threshold: 0, Label: "Beginner", Color: "#ea4335"},
}

var errEmptyTierTable = errors.New("tier table is empty")

// NewTierTable validates tiers and returns them as a table.
func NewTierTable(tiers ...Tier) (TierTable, error) {
	t := TierTable(tiers)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that thresholds strictly decrease and the last one is 0,
// so every non-negative score matches exactly one tier.
func (t TierTable) Validate() error {
	if len(t) == 0 {
		return errEmptyTierTable
	}
	for i := 1; i < len(t); i++ {
		if t[i].Threshold >= t[i-1].Threshold {
			return fmt.Errorf("tier %q threshold %d not below %q threshold %d",
				t[i].Label, t[i].Threshold, t[i-1].Label, t[i-1].Threshold)
		}
	}
	if last := t[len(t)-1]; last.Threshold != 0 {
		return fmt.Errorf("lowest tier %q must have threshold 0, got %d", last.Label, last.Threshold)
	}
	return nil
}

// For returns the first tier whose threshold is <= score.
func (t TierTable) For(score int) Tier {
	for _, tier := range t {
		if score >= tier.Threshold {
			return tier
		}
	}
	// Only reachable for negative scores.
	return t[len(t)-1]
}
