// Package credit implements the dynamic credit-limit update, reputation
// scoring, and tier derivation of §4.5. It owns the per-agent fraud
// penalty counter supplemented from original_source/intelligence/credit_scoring.py
// (§4.5.4 "fraud incidents reduce reputation... persisted as a separate
// fraud-penalty counter so tier downgrade is immediate").
package credit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/banksyndicate/core/internal/config"
	"github.com/banksyndicate/core/internal/entities"
)

const (
	reputationVolumeWeight    = 0.25
	reputationSuccessWeight   = 0.35
	reputationLongevityWeight = 0.15
	reputationEfficiencyWeight = 0.25

	volumeSaturation    = 100.0
	longevitySaturation = 365 * 24 * time.Hour

	fraudIncidentPenalty = 10.0 // reputation points, on a 0..100 scale before normalization

	tierSilverCut   = 40.0
	tierGoldCut     = 70.0
	tierPlatinumCut = 90.0
)

// Engine computes efficiency, the dynamic credit limit, reputation, and
// tier for agents, and tracks the fraud-penalty counter alongside. It
// holds no AgentState itself — callers pass the current state in and
// persist the engine's return values, matching §3 "Ownership: the
// Credit Engine owns the per-agent transaction history used for
// scoring" without the engine owning the AgentState struct itself.
type Engine struct {
	cfg *config.Config
	log zerolog.Logger

	mu            sync.Mutex
	fraudPenalty  map[string]float64
}

func NewEngine(cfg *config.Config, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:          cfg,
		log:          log.With().Str("component", "credit_engine").Logger(),
		fraudPenalty: make(map[string]float64),
	}
}

// Efficiency is the §4.5.1 weighted score in [-1, 1]. gasUsed/gasEstimate
// come from the agent's most recently settled transaction; pass 0 for
// both when there isn't one.
func (e *Engine) Efficiency(agent *entities.AgentState, gasUsed, gasEstimate uint64) float64 {
	return agent.Efficiency(gasUsed, gasEstimate)
}

// NextCreditLimit applies the §4.5.2 dynamic update formula
// L_{t+1} = clamp(L_t * (1 + alpha*efficiency), MIN, MAX).
func (e *Engine) NextCreditLimit(currentLimit, efficiency float64) float64 {
	next := currentLimit * (1 + e.cfg.Alpha*efficiency)
	return clamp(next, e.cfg.MinCreditLimit, e.cfg.MaxCreditLimit)
}

// Reputation computes the §4.5.3 weighted mixture in [0, 1]. New agents
// with no transaction history default to 0.5.
func (e *Engine) Reputation(agent *entities.AgentState, now time.Time, efficiency float64) float64 {
	if agent.TotalTransactions == 0 {
		return 0.5
	}

	volume := clamp(float64(agent.TotalTransactions)/volumeSaturation, 0, 1)
	successRate := agent.SuccessRate()
	longevity := clamp(now.Sub(agent.CreatedAt).Seconds()/longevitySaturation.Seconds(), 0, 1)
	effTerm := (efficiency + 1) / 2

	raw := reputationVolumeWeight*volume +
		reputationSuccessWeight*successRate +
		reputationLongevityWeight*longevity +
		reputationEfficiencyWeight*effTerm

	penalty := e.fraudPenaltyFor(agent.AgentID) / 100.0
	return clamp(raw-penalty, 0, 1)
}

// DeriveTier implements §4.5.4's reputation-to-tier mapping. reputation
// is expected in [0, 1]; the cut points in spec.md are stated on a 0..100
// scale, so reputation is scaled up before comparison.
func DeriveTier(reputation float64) entities.Tier {
	score := reputation * 100
	switch {
	case score < tierSilverCut:
		return entities.TierBronze
	case score < tierGoldCut:
		return entities.TierSilver
	case score < tierPlatinumCut:
		return entities.TierGold
	default:
		return entities.TierPlatinum
	}
}

// RecordFraudIncident applies the fixed 10-point reputation penalty the
// supplement describes, immediately visible on the next Reputation/
// DeriveTier call for this agent.
func (e *Engine) RecordFraudIncident(agentID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fraudPenalty[agentID] += fraudIncidentPenalty
}

// DecayFraudPenalties halves every tracked agent's fraud penalty,
// mimicking a half-life decay. This is a supplement, not spec-mandated:
// no façade operation depends on it having run, so operators call it on
// whatever cadence fits (e.g. once per halfLife via a background timer).
func (e *Engine) DecayFraudPenalties(halfLife time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, p := range e.fraudPenalty {
		next := p / 2
		if next < 0.01 {
			delete(e.fraudPenalty, id)
			continue
		}
		e.fraudPenalty[id] = next
	}
}

func (e *Engine) fraudPenaltyFor(agentID string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fraudPenalty[agentID]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
