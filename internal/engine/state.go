package engine

import (
	"fmt"
	"math"

	"github.com/talgya/landlease/internal/world"
)

// OccupantState is the tenant portion of a parcel in state payloads.
type OccupantState struct {
	ID           string `json:"id"`
	Wealth       int    `json:"wealth"`
	LeaseStart   *int   `json:"lease_start"`
	LeaseLength  *int   `json:"lease_length"`
	LeaseExpires *int   `json:"lease_expires"`
	RoundEntered int    `json:"round_entered"`
}

// ParcelState is one parcel in the full-grid state payload.
type ParcelState struct {
	ID               int            `json:"id"`
	Row              int            `json:"row"`
	Col              int            `json:"col"`
	EnvironmentScore float64        `json:"environment_score"`
	CommunityScore   float64        `json:"community_score"`
	MarketValue      float64        `json:"market_value"`
	DisplayValue     float64        `json:"display_value"`
	LeasePrice       *float64       `json:"lease_price"`
	RoundsVacant     int            `json:"rounds_vacant"`
	Occupant         *OccupantState `json:"occupant"`
}

// UnhousedState is one pooled agent in the state payload.
type UnhousedState struct {
	ID           string `json:"id"`
	Wealth       int    `json:"wealth"`
	RoundEntered int    `json:"round_entered"`
}

// Stats are the aggregate figures shown alongside the grid.
type Stats struct {
	Population        int     `json:"population"`
	Housed            int     `json:"housed"`
	UnhousedCount     int     `json:"unhoused_count"`
	HousingRate       float64 `json:"housing_rate"`
	AvgLandValue      float64 `json:"avg_land_value"`
	AvgLeasePrice     float64 `json:"avg_lease_price"`
	AvgWealthHoused   float64 `json:"avg_wealth_housed"`
	AvgWealthUnhoused float64 `json:"avg_wealth_unhoused"`
	Gini              float64 `json:"gini_coefficient"`
	MaxWealth         int     `json:"max_wealth"`
	MinWealth         int     `json:"min_wealth"`
}

// State is the full snapshot consumed by presentation layers.
type State struct {
	Round    int             `json:"round"`
	Parcels  []ParcelState   `json:"parcels"`
	Unhoused []UnhousedState `json:"unhoused"`
	Stats    Stats           `json:"stats"`
	Params   Params          `json:"params"`
	MaxValue float64         `json:"max_value"`
}

// ParcelDetail is the per-parcel query payload: current state plus the most
// recent 50 logged events.
type ParcelDetail struct {
	ParcelState
	History []world.Event `json:"history"`
}

// parcelEventWindow caps the events returned by a detail query.
const parcelEventWindow = 50

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func (m *Model) parcelState(idx int) ParcelState {
	p := m.Grid.Parcels[idx]
	row, col := world.Coords(idx)
	envW, comW := m.Params.EnvironmentWeight, m.Params.CommunityWeight

	st := ParcelState{
		ID:               idx,
		Row:              row,
		Col:              col,
		EnvironmentScore: p.EnvironmentScore,
		CommunityScore:   round2(p.CommunityScore),
		MarketValue:      round2(p.WeightedValue(envW, comW)),
		DisplayValue:     round2(p.DisplayValue(envW, comW)),
		RoundsVacant:     p.RoundsVacant,
	}
	if p.LeasePrice != nil {
		lp := round2(*p.LeasePrice)
		st.LeasePrice = &lp
	}
	if p.Occupant != nil {
		occ := &OccupantState{
			ID:           p.Occupant.ID,
			Wealth:       p.Occupant.Wealth,
			LeaseStart:   p.Occupant.LeaseStart,
			LeaseLength:  p.Occupant.LeaseLength,
			RoundEntered: p.Occupant.RoundEntered,
		}
		if exp, ok := p.Occupant.LeaseExpires(); ok {
			occ.LeaseExpires = &exp
		}
		st.Occupant = occ
	}
	return st
}

// State builds the full grid + registry + stats payload.
func (m *Model) State() State {
	parcels := make([]ParcelState, 0, world.Size)
	for i := range m.Grid.Parcels {
		parcels = append(parcels, m.parcelState(i))
	}

	unhoused := make([]UnhousedState, 0, len(m.Unhoused))
	for _, a := range m.Unhoused {
		unhoused = append(unhoused, UnhousedState{ID: a.ID, Wealth: a.Wealth, RoundEntered: a.RoundEntered})
	}

	maxW, minW := 0, 0
	first := true
	for _, a := range m.Grid.Occupants() {
		if first || a.Wealth > maxW {
			maxW = a.Wealth
		}
		if first || a.Wealth < minW {
			minW = a.Wealth
		}
		first = false
	}
	for _, a := range m.Unhoused {
		if first || a.Wealth > maxW {
			maxW = a.Wealth
		}
		if first || a.Wealth < minW {
			minW = a.Wealth
		}
		first = false
	}

	housed := len(m.Housed)
	return State{
		Round:    m.Round,
		Parcels:  parcels,
		Unhoused: unhoused,
		Stats: Stats{
			Population:        housed + len(m.Unhoused),
			Housed:            housed,
			UnhousedCount:     len(m.Unhoused),
			HousingRate:       round3(float64(housed) / 100.0),
			AvgLandValue:      round2(m.meanMarketValue()),
			AvgLeasePrice:     round2(m.meanLeasePrice()),
			AvgWealthHoused:   round2(m.avgWealth(true)),
			AvgWealthUnhoused: round2(m.avgWealth(false)),
			Gini:              round3(m.giniAllAgents()),
			MaxWealth:         maxW,
			MinWealth:         minW,
		},
		Params:   m.Params,
		MaxValue: m.MaxWeightedValue(),
	}
}

// ParcelDetail returns the state of one parcel plus its recent event log.
// Indices outside [0,100) are rejected.
func (m *Model) ParcelDetail(idx int) (ParcelDetail, error) {
	if !world.ValidIndex(idx) {
		return ParcelDetail{}, fmt.Errorf("parcel index must be in [0,%d), got %d", world.Size, idx)
	}
	history := m.Grid.Parcels[idx].RecentHistory(parcelEventWindow)
	if history == nil {
		history = []world.Event{}
	}
	return ParcelDetail{
		ParcelState: m.parcelState(idx),
		History:     history,
	}, nil
}
