package syndicate

import (
	"context"
	"time"

	"github.com/banksyndicate/core/internal/audit"
	"github.com/banksyndicate/core/internal/credit"
	"github.com/banksyndicate/core/internal/entities"
	"github.com/banksyndicate/core/internal/validation"
)

// ValidateFullTransaction implements §6's validation protocol façade
// passthrough, exposing the six-layer gate directly for a caller that
// wants a standalone validation verdict without going through the full
// coordinator pipeline (e.g. a pre-submission dry run).
func (s *Syndicate) ValidateFullTransaction(ctx context.Context, tx *entities.Transaction, agent *entities.AgentState, divisionVotes map[entities.Role]entities.DivisionAnalysis, history []*entities.Transaction) (bool, *entities.AuditTrail) {
	return s.protocol.ValidateFullTransaction(ctx, tx, agent, divisionVotes, history)
}

// AgentReputation is §6's `GetAgentReputation` shape.
type AgentReputation struct {
	Score       float64             `json:"score"`
	Tier        entities.Tier       `json:"tier"`
	Metrics     ReputationMetrics   `json:"metrics"`
	TierBenefits validation.TierLimits `json:"tier_benefits"`
}

// ReputationMetrics is the per-component breakdown behind the blended
// reputation score, surfaced so a caller can see why a score landed
// where it did rather than just the final number.
type ReputationMetrics struct {
	Efficiency  float64 `json:"efficiency"`
	SuccessRate float64 `json:"success_rate"`
}

// GetAgentReputation implements §6's `GetAgentReputation(agent_id,
// agent_state, history) → {score, tier, metrics, tier_benefits}`. The
// façade already owns both the agent registry and the transaction
// history feed, so it resolves them from agentID rather than requiring
// the caller to supply them.
func (s *Syndicate) GetAgentReputation(agentID string) (AgentReputation, error) {
	agent, ok := s.GetAgentState(agentID)
	if !ok {
		return AgentReputation{}, ErrAgentNotFound
	}

	var lastGasUsed, lastGasEstimate uint64
	if history := s.coordinator.HistoryFor(agentID, 1); len(history) == 1 {
		lastGasUsed, lastGasEstimate = history[0].GasUsed, history[0].GasEstimate
	}
	efficiency := s.creditEngine.Efficiency(agent, lastGasUsed, lastGasEstimate)
	score := s.creditEngine.Reputation(agent, s.clock.Now(), efficiency)
	tier := credit.DeriveTier(score)

	return AgentReputation{
		Score: score,
		Tier:  tier,
		Metrics: ReputationMetrics{
			Efficiency:  efficiency,
			SuccessRate: agent.SuccessRate(),
		},
		TierBenefits: validation.LimitsFor(tier),
	}, nil
}

// GetAgentCertificate implements §6's `GetAgentCertificate(agent_id)`.
func (s *Syndicate) GetAgentCertificate(agentID string) (*entities.AgentCertificate, bool) {
	return s.protocol.CertificateFor(agentID)
}

// GenerateDailyComplianceReport implements §6's
// `GenerateDailyComplianceReport() → report`, defaulting to the current
// day (per the ambient clock) since the façade signature takes no
// explicit date.
func (s *Syndicate) GenerateDailyComplianceReport() audit.ComplianceReport {
	return s.auditStore.GenerateDailyComplianceReport(s.clock.Now())
}

// GenerateComplianceReportFor generates the report for an explicit
// date, the concrete form `internal/audit.Store.GenerateDailyComplianceReport`
// already supports, for a caller that wants a past day's report rather
// than today's.
func (s *Syndicate) GenerateComplianceReportFor(date time.Time) audit.ComplianceReport {
	return s.auditStore.GenerateDailyComplianceReport(date)
}
