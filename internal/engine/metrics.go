package engine

import (
	"sort"
	"strconv"
)

// MetricsRow is one immutable row of aggregate statistics, appended at the
// end of every round. Fields are pure functions of end-of-round state.
type MetricsRow struct {
	Round             int     `json:"round"`
	HousingRate       float64 `json:"housing_rate"`
	UnhousedCount     int     `json:"unhoused_count"`
	Population        int     `json:"population"`
	AvgLandValue      float64 `json:"avg_land_value"`
	AvgLeasePrice     float64 `json:"avg_lease_price"`
	AvgWealthHoused   float64 `json:"avg_wealth_housed"`
	AvgWealthUnhoused float64 `json:"avg_wealth_unhoused"`
	Gini              float64 `json:"gini_coefficient"`
}

// historyColumns is the canonical column order for exports.
var historyColumns = []string{
	"round", "housing_rate", "unhoused_count", "population",
	"avg_land_value", "avg_lease_price",
	"avg_wealth_housed", "avg_wealth_unhoused", "gini_coefficient",
}

// Gini computes the Gini coefficient of a wealth distribution using the
// rank formula over ascending values. Returns 0 for empty or single-element
// populations and for zero total wealth.
func Gini(values []float64) float64 {
	if len(values) <= 1 {
		return 0.0
	}
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)

	n := float64(len(s))
	cumsum, total := 0.0, 0.0
	for i, v := range s {
		cumsum += float64(i+1) * v
		total += v
	}
	if total == 0 {
		return 0.0
	}
	return (2*cumsum)/(n*total) - (n+1)/n
}

func (m *Model) collectMetrics() MetricsRow {
	return MetricsRow{
		Round:             m.Round,
		HousingRate:       float64(len(m.Housed)) / 100.0,
		UnhousedCount:     len(m.Unhoused),
		Population:        len(m.Housed) + len(m.Unhoused),
		AvgLandValue:      m.meanMarketValue(),
		AvgLeasePrice:     m.meanLeasePrice(),
		AvgWealthHoused:   m.avgWealth(true),
		AvgWealthUnhoused: m.avgWealth(false),
		Gini:              m.giniAllAgents(),
	}
}

func (m *Model) meanMarketValue() float64 {
	sum := 0.0
	for i := range m.Grid.Parcels {
		sum += m.WeightedValue(i)
	}
	return sum / 100.0
}

func (m *Model) meanLeasePrice() float64 {
	sum, n := 0.0, 0
	for _, p := range m.Grid.Parcels {
		if p.LeasePrice != nil {
			sum += *p.LeasePrice
			n++
		}
	}
	if n == 0 {
		return 0.0
	}
	return sum / float64(n)
}

func (m *Model) avgWealth(housed bool) float64 {
	sum, n := 0, 0
	if housed {
		for _, a := range m.Housed {
			sum += a.Wealth
			n++
		}
	} else {
		for _, a := range m.Unhoused {
			sum += a.Wealth
			n++
		}
	}
	if n == 0 {
		return 0.0
	}
	return float64(sum) / float64(n)
}

func (m *Model) giniAllAgents() float64 {
	wealth := make([]float64, 0, len(m.Housed)+len(m.Unhoused))
	// Parcel-index order keeps the collection deterministic (map iteration
	// order would not matter for Gini, but events and tests compare state).
	for _, a := range m.Grid.Occupants() {
		wealth = append(wealth, float64(a.Wealth))
	}
	for _, a := range m.Unhoused {
		wealth = append(wealth, float64(a.Wealth))
	}
	if len(wealth) == 0 {
		return 0.0
	}
	return Gini(wealth)
}

// HistorySeries is the metrics history pivoted into column-oriented
// sequences, one value per completed round.
type HistorySeries struct {
	Round             []int     `json:"round"`
	HousingRate       []float64 `json:"housing_rate"`
	UnhousedCount     []int     `json:"unhoused_count"`
	Population        []int     `json:"population"`
	AvgLandValue      []float64 `json:"avg_land_value"`
	AvgLeasePrice     []float64 `json:"avg_lease_price"`
	AvgWealthHoused   []float64 `json:"avg_wealth_housed"`
	AvgWealthUnhoused []float64 `json:"avg_wealth_unhoused"`
	Gini              []float64 `json:"gini_coefficient"`
}

// HistorySeries returns the full metrics history as columns. Slices are
// empty (not nil) when no rounds have run, so JSON encodes [] not null.
func (m *Model) HistorySeries() HistorySeries {
	h := HistorySeries{
		Round:             make([]int, 0, len(m.History)),
		HousingRate:       make([]float64, 0, len(m.History)),
		UnhousedCount:     make([]int, 0, len(m.History)),
		Population:        make([]int, 0, len(m.History)),
		AvgLandValue:      make([]float64, 0, len(m.History)),
		AvgLeasePrice:     make([]float64, 0, len(m.History)),
		AvgWealthHoused:   make([]float64, 0, len(m.History)),
		AvgWealthUnhoused: make([]float64, 0, len(m.History)),
		Gini:              make([]float64, 0, len(m.History)),
	}
	for _, r := range m.History {
		h.Round = append(h.Round, r.Round)
		h.HousingRate = append(h.HousingRate, r.HousingRate)
		h.UnhousedCount = append(h.UnhousedCount, r.UnhousedCount)
		h.Population = append(h.Population, r.Population)
		h.AvgLandValue = append(h.AvgLandValue, r.AvgLandValue)
		h.AvgLeasePrice = append(h.AvgLeasePrice, r.AvgLeasePrice)
		h.AvgWealthHoused = append(h.AvgWealthHoused, r.AvgWealthHoused)
		h.AvgWealthUnhoused = append(h.AvgWealthUnhoused, r.AvgWealthUnhoused)
		h.Gini = append(h.Gini, r.Gini)
	}
	return h
}

// Len returns the number of completed rounds in the series.
func (h HistorySeries) Len() int {
	return len(h.Round)
}

// CSVRecords renders the series as CSV records (header first), formatting
// floats with the given number of decimals.
func (h HistorySeries) CSVRecords(decimals int) [][]string {
	records := [][]string{append([]string(nil), historyColumns...)}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', decimals, 64) }
	for i := 0; i < h.Len(); i++ {
		records = append(records, []string{
			strconv.Itoa(h.Round[i]),
			f(h.HousingRate[i]),
			strconv.Itoa(h.UnhousedCount[i]),
			strconv.Itoa(h.Population[i]),
			f(h.AvgLandValue[i]),
			f(h.AvgLeasePrice[i]),
			f(h.AvgWealthHoused[i]),
			f(h.AvgWealthUnhoused[i]),
			f(h.Gini[i]),
		})
	}
	return records
}
