// Package ports declares the external contracts the core depends on —
// Clock, LedgerConnector, AIAdvisor, SanctionsOracle, Persister — plus a
// deterministic default implementation of each, so every method has a
// rule-based fallback and nothing blocks on an unreachable collaborator.
package ports

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts wall time and identifier generation so tests can run
// fully deterministically. Core logic packages depend on this interface
// rather than calling time.Now or uuid.New directly.
type Clock interface {
	Now() time.Time
	NewUUID() string
}

// SystemClock is the real Clock, wired only at cmd/syndicate entry points.
type SystemClock struct{}

func (SystemClock) Now() time.Time   { return time.Now() }
func (SystemClock) NewUUID() string  { return uuid.NewString() }

// FixedClock always returns the same time and replays a pre-seeded list
// of ids, looping once exhausted. Built for tests that need repeatable
// tx_ids across assertions.
type FixedClock struct {
	T   time.Time
	IDs []string

	next int
}

func NewFixedClock(t time.Time, ids ...string) *FixedClock {
	if len(ids) == 0 {
		ids = []string{"fixed-id-0"}
	}
	return &FixedClock{T: t, IDs: ids}
}

func (c *FixedClock) Now() time.Time { return c.T }

func (c *FixedClock) NewUUID() string {
	id := c.IDs[c.next%len(c.IDs)]
	c.next++
	return id
}

var (
	_ Clock = SystemClock{}
	_ Clock = (*FixedClock)(nil)
)
