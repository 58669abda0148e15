// Agent spawning — creates immigrant leaseholders with wealth drawn from
// the model's seeded source.
package agents

import (
	"fmt"

	"github.com/talgya/landlease/internal/entropy"
)

// Spawner creates immigrant agents. IDs carry the creation round plus a
// monotonic sequence number, so they are unique and reproducible without
// any random suffix.
type Spawner struct {
	draws   *entropy.Source
	nextSeq int
}

// NewSpawner creates a spawner drawing from the given source.
func NewSpawner(draws *entropy.Source) *Spawner {
	return &Spawner{draws: draws, nextSeq: 1}
}

// NextSeq returns the next sequence number to be issued.
func (s *Spawner) NextSeq() int {
	return s.nextSeq
}

// SetNextSeq sets the next sequence number (used when restoring state).
func (s *Spawner) SetNextSeq(seq int) {
	s.nextSeq = seq
}

// SpawnImmigrants creates count new agents entering at the given round.
// Wealth draws happen in agent-index order — this ordering is part of the
// reproducibility contract.
func (s *Spawner) SpawnImmigrants(round, count, maxWealth int) []*Leaseholder {
	immigrants := make([]*Leaseholder, 0, count)
	for i := 0; i < count; i++ {
		seq := s.nextSeq
		s.nextSeq++
		immigrants = append(immigrants, &Leaseholder{
			ID:           fmt.Sprintf("r%d-a%d", round, seq),
			Wealth:       s.draws.IntBetween(1, maxWealth),
			RoundEntered: round,
		})
	}
	return immigrants
}
