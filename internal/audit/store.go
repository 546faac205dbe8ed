// Package audit implements the Audit & Reporting surface of §4.8: a
// bounded in-memory ledger of every AuditTrail the validation protocol
// produces, plus daily compliance report aggregation over it.
package audit

import (
	"sync"

	"github.com/banksyndicate/core/internal/entities"
)

const defaultCapacity = 5000

// Store is an append-only, capacity-bounded ledger of audit trails,
// following the same single-mutex-with-snapshot-reads shape
// internal/coordinator's ledger uses for its transaction/evaluation
// log. Capacity bounds memory; once exceeded, the oldest trail is
// evicted to make room for the newest, trading long-tail history for a
// bounded footprint.
type Store struct {
	mu       sync.Mutex
	capacity int
	trails   []*entities.AuditTrail
}

// NewStore builds a Store capped at capacity trails. capacity <= 0
// falls back to defaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Store{capacity: capacity}
}

// Record appends trail to the ledger, evicting the oldest entry first
// if the store is already at capacity.
func (s *Store) Record(trail *entities.AuditTrail) {
	if trail == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.trails) >= s.capacity {
		s.trails = s.trails[1:]
	}
	s.trails = append(s.trails, trail)
}

// Snapshot returns a copy of every trail currently retained, oldest
// first.
func (s *Store) Snapshot() []*entities.AuditTrail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entities.AuditTrail, len(s.trails))
	copy(out, s.trails)
	return out
}

// Len reports how many trails are currently retained.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trails)
}
