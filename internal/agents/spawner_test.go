package agents

import (
	"testing"

	"github.com/talgya/landlease/internal/entropy"
)

func TestSpawnImmigrants_WealthInRange(t *testing.T) {
	sp := NewSpawner(entropy.NewSource(1))
	for _, a := range sp.SpawnImmigrants(1, 200, 26) {
		if a.Wealth < 1 || a.Wealth > 26 {
			t.Fatalf("agent %s wealth out of [1,26]: %d", a.ID, a.Wealth)
		}
		if a.RoundEntered != 1 {
			t.Fatalf("agent %s round_entered = %d, want 1", a.ID, a.RoundEntered)
		}
		if a.IsHoused() {
			t.Fatalf("immigrant %s should start unhoused", a.ID)
		}
	}
}

func TestSpawnImmigrants_UniqueMonotonicIDs(t *testing.T) {
	sp := NewSpawner(entropy.NewSource(1))
	seen := make(map[string]bool)
	for round := 1; round <= 5; round++ {
		for _, a := range sp.SpawnImmigrants(round, 10, 26) {
			if seen[a.ID] {
				t.Fatalf("duplicate agent id %q", a.ID)
			}
			seen[a.ID] = true
		}
	}
	if sp.NextSeq() != 51 {
		t.Fatalf("next seq = %d, want 51", sp.NextSeq())
	}
}

func TestSpawnImmigrants_Deterministic(t *testing.T) {
	a := NewSpawner(entropy.NewSource(42))
	b := NewSpawner(entropy.NewSource(42))
	batchA := a.SpawnImmigrants(1, 50, 26)
	batchB := b.SpawnImmigrants(1, 50, 26)
	for i := range batchA {
		if batchA[i].Wealth != batchB[i].Wealth || batchA[i].ID != batchB[i].ID {
			t.Fatalf("spawn %d diverged: %+v vs %+v", i, batchA[i], batchB[i])
		}
	}
}

func TestLeaseholder_LeaseLifecycle(t *testing.T) {
	a := &Leaseholder{ID: "r1-a1", Wealth: 10, RoundEntered: 1}

	if _, ok := a.LeaseExpires(); ok {
		t.Fatal("unhoused agent should have no expiry")
	}

	a.AssignLease(3, 5)
	if !a.IsHoused() {
		t.Fatal("agent should be housed after AssignLease")
	}
	expires, ok := a.LeaseExpires()
	if !ok || expires != 8 {
		t.Fatalf("lease_expires = %d (ok=%v), want 8", expires, ok)
	}

	a.ClearLease()
	if a.IsHoused() || a.LeaseStart != nil || a.LeaseLength != nil {
		t.Fatal("ClearLease must clear both lease fields")
	}
}
