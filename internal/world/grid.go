// Package world models the fixed 10×10 parcel grid and the neighbourhood
// desirability score computed from occupancy.
package world

import "github.com/talgya/landlease/internal/agents"

// Grid dimensions. The grid never grows or shrinks.
const (
	Width  = 10
	Height = 10
	Size   = Width * Height
)

// Grid is the ordered collection of 100 parcels, row-major.
type Grid struct {
	Parcels [Size]*Parcel
}

// NewGrid creates the parcel grid. Environment score is a fixed west→east
// gradient: column 0 scores 1, column 9 scores 10.
func NewGrid() *Grid {
	g := &Grid{}
	for i := 0; i < Size; i++ {
		_, col := Coords(i)
		g.Parcels[i] = &Parcel{EnvironmentScore: float64(col + 1)}
	}
	return g
}

// Coords converts a parcel index to (row, col).
func Coords(index int) (row, col int) {
	return index / Width, index % Width
}

// Index converts (row, col) to a parcel index.
func Index(row, col int) int {
	return row*Width + col
}

// InBounds reports whether (row, col) is on the grid.
func InBounds(row, col int) bool {
	return row >= 0 && row < Height && col >= 0 && col < Width
}

// ValidIndex reports whether index addresses a parcel.
func ValidIndex(index int) bool {
	return index >= 0 && index < Size
}

// HousedCount returns the number of occupied parcels.
func (g *Grid) HousedCount() int {
	n := 0
	for _, p := range g.Parcels {
		if p.Occupant != nil {
			n++
		}
	}
	return n
}

// Occupants returns all current occupants in parcel-index order.
func (g *Grid) Occupants() []*agents.Leaseholder {
	var out []*agents.Leaseholder
	for _, p := range g.Parcels {
		if p.Occupant != nil {
			out = append(out, p.Occupant)
		}
	}
	return out
}
