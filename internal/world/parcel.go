package world

import "github.com/talgya/landlease/internal/agents"

// Event types logged to a parcel's history.
const (
	EventOccupied     = "occupied"      // vacant lot won at auction
	EventAuctionWon   = "auction_won"   // defended lot taken (or retained) at auction
	EventLeaseExpired = "lease_expired" // lease ran out, occupant detached
	EventPricedOut    = "priced_out"    // defender evicted with no eligible bidder
)

// Event is one entry in a parcel's lifecycle log.
type Event struct {
	Round       int     `json:"round"`
	Type        string  `json:"type"`
	AgentID     string  `json:"agent_id"`
	AgentWealth int     `json:"agent_wealth,omitempty"`
	LeasePrice  float64 `json:"lease_price,omitempty"`
	MarketValue float64 `json:"market_value"`
	LeaseLength int     `json:"lease_length,omitempty"`
}

// Parcel is one grid cell — the unit of leasing.
type Parcel struct {
	// EnvironmentScore is fixed at creation (1–10 by column).
	EnvironmentScore float64

	// CommunityScore is recomputed from neighbour occupancy each round (0–16).
	CommunityScore float64

	// Occupant is the current tenant, nil while vacant. The registry's
	// housed map must always agree with this field.
	Occupant *agents.Leaseholder

	// LeasePrice is locked when a lease forms; nil while vacant.
	LeasePrice *float64

	// RoundsVacant counts consecutive vacant rounds; 0 while occupied.
	RoundsVacant int

	// History is the append-only event log.
	History []Event
}

// IsVacant reports whether the parcel has no occupant.
func (p *Parcel) IsVacant() bool {
	return p.Occupant == nil
}

// WeightedValue is the parcel's market value under the given weights.
func (p *Parcel) WeightedValue(envWeight, communityWeight float64) float64 {
	return p.EnvironmentScore*envWeight + p.CommunityScore*communityWeight
}

// DisplayValue is the lease price while occupied, market value otherwise.
func (p *Parcel) DisplayValue(envWeight, communityWeight float64) float64 {
	if p.Occupant != nil && p.LeasePrice != nil {
		return *p.LeasePrice
	}
	return p.WeightedValue(envWeight, communityWeight)
}

// AddEvent appends a lifecycle event tagged with the round number.
func (p *Parcel) AddEvent(e Event) {
	p.History = append(p.History, e)
}

// RecentHistory returns up to the last n events, oldest first.
func (p *Parcel) RecentHistory(n int) []Event {
	if len(p.History) <= n {
		return p.History
	}
	return p.History[len(p.History)-n:]
}
