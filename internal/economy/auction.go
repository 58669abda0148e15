// Package economy implements the auction that allocates parcels each round.
package economy

import "github.com/talgya/landlease/internal/agents"

// ResolveAuction decides who takes a lot and at what clearing price.
//
// eligible must be the candidates with wealth ≥ marketValue, sorted by
// wealth descending, and must be non-empty (the pipeline skips the auction
// entirely when nobody is eligible). The defender, if any, may appear in
// eligible; the challenger is the wealthiest eligible candidate other than
// the defender.
//
// Five mutually exclusive outcomes:
//
//	vacant lot            → top candidate wins at marketValue
//	no challenger         → defender retains at marketValue
//	challenger > defender → challenger wins at max(marketValue, defender.Wealth+1)
//	challenger = defender → defender retains at challenger.Wealth
//	challenger < defender → defender retains at max(marketValue, challenger.Wealth+1)
//
// Pure function — all state mutation happens in the pipeline afterwards.
func ResolveAuction(marketValue float64, defender *agents.Leaseholder, eligible []*agents.Leaseholder) (winner *agents.Leaseholder, clearingPrice float64) {
	if defender == nil {
		return eligible[0], marketValue
	}

	var challenger *agents.Leaseholder
	for _, c := range eligible {
		if c.ID != defender.ID {
			challenger = c
			break
		}
	}
	if challenger == nil {
		return defender, marketValue
	}

	switch {
	case challenger.Wealth > defender.Wealth:
		return challenger, maxFloat(marketValue, float64(defender.Wealth+1))
	case challenger.Wealth == defender.Wealth:
		// Deliberate below-market retention price on a tie.
		return defender, float64(challenger.Wealth)
	default:
		return defender, maxFloat(marketValue, float64(challenger.Wealth+1))
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
