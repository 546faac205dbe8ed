package ports

import (
	"context"
	"strings"
	"sync"

	"github.com/banksyndicate/core/internal/entities"
)

// SanctionsOracle checks an identifier (wallet address, owner entity)
// against OFAC/UN/EU-style sanctions lists. The real list feeds are out
// of scope; StaticSanctionsOracle stubs them as an in-memory set.
type SanctionsOracle interface {
	Check(ctx context.Context, identifier string) (entities.SanctionsStatus, error)
}

// StaticSanctionsOracle holds a fixed, case-insensitive set of flagged
// identifiers. Anything not listed is reported cleared. RWMutex-guarded
// so an operator can update the list while transactions are in flight,
// mirroring the teacher's read-heavy registry pattern.
type StaticSanctionsOracle struct {
	mu      sync.RWMutex
	flagged map[string]bool
}

func NewStaticSanctionsOracle(flagged ...string) *StaticSanctionsOracle {
	o := &StaticSanctionsOracle{flagged: make(map[string]bool, len(flagged))}
	for _, f := range flagged {
		o.flagged[strings.ToLower(f)] = true
	}
	return o
}

func (o *StaticSanctionsOracle) Check(_ context.Context, identifier string) (entities.SanctionsStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.flagged[strings.ToLower(identifier)] {
		return entities.SanctionsFlagged, nil
	}
	return entities.SanctionsCleared, nil
}

// Flag adds an identifier to the sanctioned set at runtime.
func (o *StaticSanctionsOracle) Flag(identifier string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.flagged[strings.ToLower(identifier)] = true
}

var _ SanctionsOracle = (*StaticSanctionsOracle)(nil)
