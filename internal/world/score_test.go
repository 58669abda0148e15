package world

import (
	"testing"

	"github.com/talgya/landlease/internal/agents"
)

func occupy(g *Grid, indices ...int) {
	for _, i := range indices {
		g.Parcels[i].Occupant = &agents.Leaseholder{ID: "x", Wealth: 1}
	}
}

func TestCommunityScore_EmptyGridIsZero(t *testing.T) {
	g := NewGrid()
	g.RecomputeCommunityScores()
	for i, p := range g.Parcels {
		if p.CommunityScore != 0 {
			t.Fatalf("parcel %d score = %v on empty grid", i, p.CommunityScore)
		}
	}
}

func TestCommunityScore_RingWeights(t *testing.T) {
	g := NewGrid()
	center := Index(5, 5)
	occupy(g, Index(5, 6)) // ring 1
	occupy(g, Index(5, 7)) // ring 2
	occupy(g, Index(3, 3)) // ring 2 (diagonal)

	if got := g.CommunityScore(center); got != 2.0 {
		t.Fatalf("score = %v, want 2.0 (1.0 ring-1 + 2×0.5 ring-2)", got)
	}
}

func TestCommunityScore_SelfDoesNotCount(t *testing.T) {
	g := NewGrid()
	center := Index(5, 5)
	occupy(g, center)
	if got := g.CommunityScore(center); got != 0 {
		t.Fatalf("occupied parcel's own occupant counted: score = %v", got)
	}
}

func TestCommunityScore_CornerBounds(t *testing.T) {
	// Corner (0,0) has 3 ring-1 and 5 ring-2 neighbours in range. Occupy
	// every parcel and check the corner only sees in-bounds cells.
	g := NewGrid()
	for i := 0; i < Size; i++ {
		occupy(g, i)
	}
	want := 3*1.0 + 5*0.5
	if got := g.CommunityScore(Index(0, 0)); got != want {
		t.Fatalf("corner score = %v, want %v", got, want)
	}

	// Interior parcel sees the full two rings.
	if got := g.CommunityScore(Index(5, 5)); got != 8*1.0+16*0.5 {
		t.Fatalf("interior score = %v, want 16", got)
	}
}

func TestRecomputeCommunityScores_OverwritesStale(t *testing.T) {
	g := NewGrid()
	g.Parcels[Index(4, 4)].CommunityScore = 99
	g.RecomputeCommunityScores()
	if got := g.Parcels[Index(4, 4)].CommunityScore; got != 0 {
		t.Fatalf("stale score not overwritten: %v", got)
	}
}

func TestNewGrid_EnvironmentGradient(t *testing.T) {
	g := NewGrid()
	for i, p := range g.Parcels {
		_, col := Coords(i)
		if p.EnvironmentScore != float64(col+1) {
			t.Fatalf("parcel %d env score = %v, want %d", i, p.EnvironmentScore, col+1)
		}
	}
}

func TestIndexCoords_RoundTrip(t *testing.T) {
	for i := 0; i < Size; i++ {
		row, col := Coords(i)
		if !InBounds(row, col) {
			t.Fatalf("coords of %d out of bounds: (%d,%d)", i, row, col)
		}
		if Index(row, col) != i {
			t.Fatalf("round trip failed for %d: (%d,%d)", i, row, col)
		}
	}
	if ValidIndex(-1) || ValidIndex(100) {
		t.Fatal("indices outside [0,100) must be invalid")
	}
}

func TestParcel_DisplayValue(t *testing.T) {
	p := &Parcel{EnvironmentScore: 4, CommunityScore: 2}
	if got := p.DisplayValue(1, 1); got != 6 {
		t.Fatalf("vacant display value = %v, want market value 6", got)
	}
	price := 11.0
	p.Occupant = &agents.Leaseholder{ID: "x", Wealth: 12}
	p.LeasePrice = &price
	if got := p.DisplayValue(1, 1); got != 11 {
		t.Fatalf("occupied display value = %v, want lease price 11", got)
	}
}

func TestParcel_RecentHistory(t *testing.T) {
	p := &Parcel{}
	for r := 1; r <= 60; r++ {
		p.AddEvent(Event{Round: r, Type: EventOccupied})
	}
	recent := p.RecentHistory(50)
	if len(recent) != 50 {
		t.Fatalf("recent history length = %d, want 50", len(recent))
	}
	if recent[0].Round != 11 || recent[49].Round != 60 {
		t.Fatalf("recent history window wrong: first=%d last=%d", recent[0].Round, recent[49].Round)
	}
}
