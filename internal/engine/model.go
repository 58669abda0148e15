// Package engine runs the land-lease market: a 10×10 parcel grid, a
// registry of leaseholders, and a seven-step round pipeline that expires
// leases, auctions lots, and collects per-round metrics.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/talgya/landlease/internal/agents"
	"github.com/talgya/landlease/internal/economy"
	"github.com/talgya/landlease/internal/entropy"
	"github.com/talgya/landlease/internal/world"
)

// Model holds the complete simulation state. One model per logical run;
// callers must serialize Step() — a model is not safe for concurrent use.
type Model struct {
	Params Params
	Seed   int64 // seed actually used (resolved when Params.Seed is nil)

	Grid *world.Grid

	// Leaseholder registry. Every agent is in exactly one of the two
	// between rounds: Housed (keyed by parcel index, mirrors parcel
	// occupants) or Unhoused.
	Housed   map[int]*agents.Leaseholder
	Unhoused []*agents.Leaseholder

	Round   int
	History []MetricsRow

	draws   *entropy.Source
	spawner *agents.Spawner
}

// NewModel validates params and builds an empty world: 100 vacant parcels,
// no agents, round 0.
func NewModel(p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	seed := time.Now().UnixNano()
	if p.Seed != nil {
		seed = *p.Seed
	}
	draws := entropy.NewSource(seed)

	return &Model{
		Params:  p,
		Seed:    seed,
		Grid:    world.NewGrid(),
		Housed:  make(map[int]*agents.Leaseholder),
		draws:   draws,
		spawner: agents.NewSpawner(draws),
	}, nil
}

// WeightedValue is the market value of the parcel at index under the
// model's weights.
func (m *Model) WeightedValue(index int) float64 {
	return m.Grid.Parcels[index].WeightedValue(m.Params.EnvironmentWeight, m.Params.CommunityWeight)
}

// MaxWeightedValue is the ceiling any parcel can reach (env 10, community 16).
func (m *Model) MaxWeightedValue() float64 {
	return 10*m.Params.EnvironmentWeight + 16*m.Params.CommunityWeight
}

// lot is a parcel offered for (re)allocation this round.
type lot struct {
	index       int
	marketValue float64
	defender    *agents.Leaseholder // incumbent being re-auctioned, nil for vacant lots
}

// Step advances the simulation one round. The seven-step pipeline:
//
//	1. increment the round counter
//	2. recompute community scores (values lots for auction)
//	3. age vacancy counters
//	4. detect expired leases → lots with defenders
//	5. queue remaining vacant parcels → defenderless lots (vacancy decay)
//	6. assemble candidates, sort lots and candidates, run auctions
//	7. recompute scores on final occupancy, append a metrics row
func (m *Model) Step() {
	m.Round++

	m.Grid.RecomputeCommunityScores()

	for _, p := range m.Grid.Parcels {
		if p.IsVacant() {
			p.RoundsVacant++
		} else {
			p.RoundsVacant = 0
		}
	}

	// Expired leases: detach the occupant and re-auction the parcel with
	// the incumbent as defender.
	var lots []lot
	var evicted []*agents.Leaseholder
	expired := make(map[int]bool)

	for idx, p := range m.Grid.Parcels {
		if p.Occupant == nil {
			continue
		}
		if exp, ok := p.Occupant.LeaseExpires(); !ok || exp != m.Round {
			continue
		}
		agent := p.Occupant
		mv := m.WeightedValue(idx)
		lease := 0.0
		if p.LeasePrice != nil {
			lease = *p.LeasePrice
		}
		p.AddEvent(world.Event{
			Round:       m.Round,
			Type:        world.EventLeaseExpired,
			AgentID:     agent.ID,
			AgentWealth: agent.Wealth,
			LeasePrice:  lease,
			MarketValue: mv,
		})
		lots = append(lots, lot{index: idx, marketValue: mv, defender: agent})
		evicted = append(evicted, agent)
		expired[idx] = true
		delete(m.Housed, idx)
		p.Occupant = nil
		p.LeasePrice = nil
	}

	// Every other vacant parcel is also up for auction, discounted by how
	// long it has sat empty when vacancy decay is on.
	for idx, p := range m.Grid.Parcels {
		if !p.IsVacant() || expired[idx] {
			continue
		}
		mv := m.WeightedValue(idx)
		if m.Params.VacancyDecay && p.RoundsVacant > 0 {
			mv -= 0.5 * float64(p.RoundsVacant)
			if mv < 1.0 {
				mv = 1.0
			}
		}
		lots = append(lots, lot{index: idx, marketValue: mv})
	}

	// Candidate pool: evicted agents, then the previous unhoused pool,
	// then this round's immigrants. Immigrant wealth draws happen here, in
	// agent-index order, before any lease-length draw.
	candidates := make([]*agents.Leaseholder, 0, len(evicted)+len(m.Unhoused)+m.Params.ImmigrationRate)
	candidates = append(candidates, evicted...)
	candidates = append(candidates, m.Unhoused...)
	m.Unhoused = nil
	candidates = append(candidates, m.spawner.SpawnImmigrants(m.Round, m.Params.ImmigrationRate, m.Params.MaxWealth)...)

	// Highest-value lots auction first; wealthiest candidates bid first.
	// Secondary keys (parcel index, agent ID) pin down tie order.
	sort.SliceStable(lots, func(i, j int) bool {
		if lots[i].marketValue != lots[j].marketValue {
			return lots[i].marketValue > lots[j].marketValue
		}
		return lots[i].index < lots[j].index
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Wealth != candidates[j].Wealth {
			return candidates[i].Wealth > candidates[j].Wealth
		}
		return candidates[i].ID < candidates[j].ID
	})

	placed := make(map[string]bool)

	for _, l := range lots {
		// A defender who already won a higher-value lot this round has
		// moved on; the old lot auctions as vacant.
		defender := l.defender
		if defender != nil && placed[defender.ID] {
			defender = nil
		}

		var eligible []*agents.Leaseholder
		for _, c := range candidates {
			if !placed[c.ID] && float64(c.Wealth) >= l.marketValue {
				eligible = append(eligible, c)
			}
		}

		p := m.Grid.Parcels[l.index]

		if len(eligible) == 0 {
			if defender != nil {
				p.AddEvent(world.Event{
					Round:       m.Round,
					Type:        world.EventPricedOut,
					AgentID:     defender.ID,
					MarketValue: l.marketValue,
				})
			}
			continue
		}

		winner, price := economy.ResolveAuction(l.marketValue, defender, eligible)

		// Lease-length draws happen in auction-resolution order.
		leaseLength := m.draws.IntBetween(m.Params.MinLeaseLength, m.Params.MaxLeaseLength)
		winner.AssignLease(m.Round, leaseLength)

		clearing := price
		p.Occupant = winner
		p.LeasePrice = &clearing
		p.RoundsVacant = 0
		m.Housed[l.index] = winner
		placed[winner.ID] = true

		eventType := world.EventOccupied
		if defender != nil {
			eventType = world.EventAuctionWon
		}
		p.AddEvent(world.Event{
			Round:       m.Round,
			Type:        eventType,
			AgentID:     winner.ID,
			AgentWealth: winner.Wealth,
			LeasePrice:  price,
			MarketValue: l.marketValue,
			LeaseLength: leaseLength,
		})
	}

	// Everyone not placed joins (or rejoins) the unhoused pool.
	for _, c := range candidates {
		if !placed[c.ID] {
			c.ClearLease()
			m.Unhoused = append(m.Unhoused, c)
		}
	}

	// Second score pass: published end-of-round state reflects the final
	// post-auction occupancy.
	m.Grid.RecomputeCommunityScores()

	row := m.collectMetrics()
	m.History = append(m.History, row)

	slog.Info("round complete",
		"round", m.Round,
		"housed", len(m.Housed),
		"unhoused", len(m.Unhoused),
		"housing_rate", fmt.Sprintf("%.3f", row.HousingRate),
		"gini", fmt.Sprintf("%.3f", row.Gini),
	)
}

// StepN advances the simulation n rounds.
func (m *Model) StepN(n int) {
	for i := 0; i < n; i++ {
		m.Step()
	}
}
