package engine

import "fmt"

// Params is the configuration a model is constructed with.
type Params struct {
	ImmigrationRate   int     `json:"immigration_rate" yaml:"immigration_rate"`
	MinLeaseLength    int     `json:"min_lease_length" yaml:"min_lease_length"`
	MaxLeaseLength    int     `json:"max_lease_length" yaml:"max_lease_length"`
	MaxWealth         int     `json:"max_wealth" yaml:"max_wealth"`
	VacancyDecay      bool    `json:"vacancy_decay" yaml:"vacancy_decay"`
	EnvironmentWeight float64 `json:"environment_weight" yaml:"environment_weight"`
	CommunityWeight   float64 `json:"community_weight" yaml:"community_weight"`

	// Seed makes a run reproducible. When nil the model picks one from the
	// clock and records it, so every run can still be replayed.
	Seed *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// DefaultParams returns the balanced baseline configuration.
func DefaultParams() Params {
	return Params{
		ImmigrationRate:   10,
		MinLeaseLength:    5,
		MaxLeaseLength:    15,
		MaxWealth:         26,
		VacancyDecay:      true,
		EnvironmentWeight: 1.0,
		CommunityWeight:   1.0,
	}
}

// Validate rejects configurations the pipeline cannot run sanely. Checked
// at construction so bad input fails fast instead of producing a degenerate
// run or a panic mid-pipeline.
func (p Params) Validate() error {
	if p.ImmigrationRate < 0 {
		return fmt.Errorf("immigration_rate must be >= 0, got %d", p.ImmigrationRate)
	}
	if p.MaxWealth < 1 {
		return fmt.Errorf("max_wealth must be >= 1, got %d", p.MaxWealth)
	}
	if p.MinLeaseLength < 1 {
		return fmt.Errorf("min_lease_length must be >= 1, got %d", p.MinLeaseLength)
	}
	if p.MinLeaseLength > p.MaxLeaseLength {
		return fmt.Errorf("min_lease_length %d exceeds max_lease_length %d", p.MinLeaseLength, p.MaxLeaseLength)
	}
	if p.EnvironmentWeight < 0 {
		return fmt.Errorf("environment_weight must be >= 0, got %v", p.EnvironmentWeight)
	}
	if p.CommunityWeight < 0 {
		return fmt.Errorf("community_weight must be >= 0, got %v", p.CommunityWeight)
	}
	return nil
}

// WithSeed returns a copy of p with the seed set.
func (p Params) WithSeed(seed int64) Params {
	p.Seed = &seed
	return p
}
