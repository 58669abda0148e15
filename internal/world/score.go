package world

// Community score: two occupancy rings around each parcel.
//
//	ring 1 — the 8 immediate neighbours, +1.0 each
//	ring 2 — the 5×5 block minus the inner 3×3 (up to 16 cells), +0.5 each
//
// Out-of-bounds neighbours contribute nothing, so a corner parcel tops out
// at 3 + 2.5 and an interior parcel at 16.

// CommunityScore computes the score for the parcel at index from current
// occupancy. Pure — no fields are touched.
func (g *Grid) CommunityScore(index int) float64 {
	row, col := Coords(index)
	score := 0.0
	for dr := -2; dr <= 2; dr++ {
		for dc := -2; dc <= 2; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			nr, nc := row+dr, col+dc
			if !InBounds(nr, nc) {
				continue
			}
			if g.Parcels[Index(nr, nc)].IsVacant() {
				continue
			}
			if dr >= -1 && dr <= 1 && dc >= -1 && dc <= 1 {
				score += 1.0
			} else {
				score += 0.5
			}
		}
	}
	return score
}

// RecomputeCommunityScores overwrites every parcel's community score in
// place. Runs twice per round: once to value lots for auction, once so the
// published end-of-round state reflects post-auction occupancy.
func (g *Grid) RecomputeCommunityScores() {
	for i := range g.Parcels {
		g.Parcels[i].CommunityScore = g.CommunityScore(i)
	}
}
