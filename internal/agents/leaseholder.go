// Package agents defines leaseholders — the economic actors competing for
// parcels. Agents are passive auction participants: wealth is fixed at
// creation and there is no income, spending, or strategy.
package agents

// Leaseholder is an agent seeking or holding housing.
type Leaseholder struct {
	ID           string `json:"id"`
	Wealth       int    `json:"wealth"`
	RoundEntered int    `json:"round_entered"`

	// Lease fields are set together when a lease is won and cleared
	// together on expiry or auction loss. Both nil while unhoused.
	LeaseStart  *int `json:"lease_start"`
	LeaseLength *int `json:"lease_length"`
}

// IsHoused reports whether the agent currently holds a lease.
func (a *Leaseholder) IsHoused() bool {
	return a.LeaseStart != nil
}

// LeaseExpires returns the round the current lease ends. The second return
// is false while unhoused.
func (a *Leaseholder) LeaseExpires() (int, bool) {
	if a.LeaseStart == nil || a.LeaseLength == nil {
		return 0, false
	}
	return *a.LeaseStart + *a.LeaseLength, true
}

// AssignLease records a lease won this round.
func (a *Leaseholder) AssignLease(startRound, length int) {
	a.LeaseStart = &startRound
	a.LeaseLength = &length
}

// ClearLease drops the lease fields (eviction, expiry, or auction loss).
func (a *Leaseholder) ClearLease() {
	a.LeaseStart = nil
	a.LeaseLength = nil
}
