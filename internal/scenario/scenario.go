// Package scenario provides the named parameter presets callers can load
// instead of specifying raw configuration.
package scenario

import (
	"fmt"
	"strings"

	"github.com/talgya/landlease/internal/engine"
)

// Scenario is a named, described parameter bundle.
type Scenario struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	Params      engine.Params `json:"params" yaml:"params"`
}

// All lists the built-in presets in presentation order.
var All = []Scenario{
	{
		ID:          "balanced",
		Title:       "Balanced Market",
		Description: "Moderate settings across the board. A good starting point to observe natural market dynamics without extreme pressures.",
		Params: engine.Params{
			ImmigrationRate:   10,
			MinLeaseLength:    5,
			MaxLeaseLength:    15,
			MaxWealth:         26,
			VacancyDecay:      true,
			EnvironmentWeight: 1.0,
			CommunityWeight:   1.0,
		},
	},
	{
		ID:          "inequality",
		Title:       "Extreme Inequality",
		Description: "Demonstrates a radically free market with maximum diversity along all parameters. High wealth ceiling and doubled land value multipliers create intense competition.",
		Params: engine.Params{
			ImmigrationRate:   10,
			MinLeaseLength:    1,
			MaxLeaseLength:    25,
			MaxWealth:         50,
			VacancyDecay:      false,
			EnvironmentWeight: 2.0,
			CommunityWeight:   2.0,
		},
	},
	{
		ID:          "stable-community",
		Title:       "Stable Community",
		Description: "Long leases, low immigration, and less wealth inequality. Creates neighbourhoods where tenants stay longer and price changes happen slowly.",
		Params: engine.Params{
			ImmigrationRate:   5,
			MinLeaseLength:    15,
			MaxLeaseLength:    25,
			MaxWealth:         25,
			VacancyDecay:      true,
			EnvironmentWeight: 1.0,
			CommunityWeight:   1.0,
		},
	},
	{
		ID:          "high-churn",
		Title:       "High Churn (Short-Term Rentals)",
		Description: "Simulates a market dominated by short-term leases like Airbnb or corporate housing. Very short leases (1–3 rounds) create constant turnover and fierce competition every few rounds.",
		Params: engine.Params{
			ImmigrationRate:   15,
			MinLeaseLength:    1,
			MaxLeaseLength:    3,
			MaxWealth:         40,
			VacancyDecay:      false,
			EnvironmentWeight: 1.5,
			CommunityWeight:   1.5,
		},
	},
	{
		ID:          "distinct-neighbourhoods",
		Title:       "Distinct Neighbourhoods",
		Description: "Higher environmental weight relative to community score creates strips of desirability that more accurately mimic the demand you might see in a city with various neighbourhoods of differing quality.",
		Params: engine.Params{
			ImmigrationRate:   10,
			MinLeaseLength:    1,
			MaxLeaseLength:    10,
			MaxWealth:         30,
			VacancyDecay:      true,
			EnvironmentWeight: 1.8,
			CommunityWeight:   0.2,
		},
	},
	{
		ID:          "declining-city",
		Title:       "Declining City (Rust Belt)",
		Description: "Low immigration and strong vacancy decay simulate population decline. Environment matters little; community is everything. Watch neighbourhoods hollow out.",
		Params: engine.Params{
			ImmigrationRate:   3,
			MinLeaseLength:    5,
			MaxLeaseLength:    15,
			MaxWealth:         20,
			VacancyDecay:      true,
			EnvironmentWeight: 0.5,
			CommunityWeight:   2.0,
		},
	},
}

// Names returns the valid preset IDs in presentation order.
func Names() []string {
	names := make([]string, 0, len(All))
	for _, s := range All {
		names = append(names, s.ID)
	}
	return names
}

// Lookup finds a preset by ID. The error for an unknown ID lists the valid
// names so callers can surface it directly.
func Lookup(id string) (Scenario, error) {
	for _, s := range All {
		if s.ID == id {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("unknown scenario %q (valid: %s)", id, strings.Join(Names(), ", "))
}

// TitleFor returns the display title for a scenario ID, or "Custom" when
// the ID names no preset (including the empty ID of an ad-hoc run).
func TitleFor(id string) string {
	if s, err := Lookup(id); err == nil {
		return s.Title
	}
	return "Custom"
}
