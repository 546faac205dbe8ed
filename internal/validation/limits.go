// Package validation implements the six-layer validation protocol
// (§4.4): KYA, pre-flight limits, consensus, AI fraud, settlement
// feasibility, and compliance & audit. The driver runs the layers in
// sequence, short-circuiting on the first REJECTED verdict, and always
// produces a complete AuditTrail.
package validation

import "github.com/banksyndicate/core/internal/entities"

// TierLimits is the per-transaction, daily, and velocity ceiling for
// one reputation tier (§4.4 L2).
type TierLimits struct {
	PerTransaction float64
	Daily          float64
	VelocityPerMin int
}

var tierLimitTable = map[entities.Tier]TierLimits{
	entities.TierBronze:   {PerTransaction: 1000, Daily: 10000, VelocityPerMin: 5},
	entities.TierSilver:   {PerTransaction: 5000, Daily: 50000, VelocityPerMin: 20},
	entities.TierGold:     {PerTransaction: 25000, Daily: 250000, VelocityPerMin: 100},
	entities.TierPlatinum: {PerTransaction: 100000, Daily: 1000000, VelocityPerMin: 500},
}

// LimitsFor returns the configured ceilings for tier, defaulting to
// bronze for an unrecognized value.
func LimitsFor(tier entities.Tier) TierLimits {
	if l, ok := tierLimitTable[tier]; ok {
		return l
	}
	return tierLimitTable[entities.TierBronze]
}
