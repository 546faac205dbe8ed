package syndicate

import (
	"github.com/banksyndicate/core/internal/divisions"
	"github.com/banksyndicate/core/internal/entities"
)

// PerformanceReport is §6's `GetPerformanceReport` shape.
type PerformanceReport struct {
	AgentID           string  `json:"agent_id"`
	CreditLimit       float64 `json:"credit_limit"`
	Efficiency        float64 `json:"efficiency"`
	Reputation        float64 `json:"reputation"`
	SuccessRate       float64 `json:"success_rate"`
	ROI               float64 `json:"roi"`
	ProjectedNextLimit float64 `json:"projected_next_limit"`
}

// GetPerformanceReport implements §6's `GetPerformanceReport(agent_id)`.
func (s *Syndicate) GetPerformanceReport(agentID string) (PerformanceReport, error) {
	agent, ok := s.GetAgentState(agentID)
	if !ok {
		return PerformanceReport{}, ErrAgentNotFound
	}

	var lastGasUsed, lastGasEstimate uint64
	if history := s.coordinator.HistoryFor(agentID, 1); len(history) == 1 {
		lastGasUsed, lastGasEstimate = history[0].GasUsed, history[0].GasEstimate
	}

	efficiency := s.creditEngine.Efficiency(agent, lastGasUsed, lastGasEstimate)
	denom := agent.TotalSpent
	if denom < 1 {
		denom = 1
	}
	roi := (agent.TotalEarned - agent.TotalSpent) / denom

	return PerformanceReport{
		AgentID:            agentID,
		CreditLimit:        agent.CreditLimit,
		Efficiency:         efficiency,
		Reputation:         agent.ReputationScore,
		SuccessRate:        agent.SuccessRate(),
		ROI:                roi,
		ProjectedNextLimit: s.creditEngine.NextCreditLimit(agent.CreditLimit, efficiency),
	}, nil
}

// SyndicateStatus is §6's `GetSyndicateStatus` shape: aggregate counts,
// a breakdown of processed transactions by type, and each division's
// last-reported health.
type SyndicateStatus struct {
	OnboardedAgents    int                               `json:"onboarded_agents"`
	TotalTransactions  int                                `json:"total_transactions"`
	TransactionsByType map[entities.TxType]int            `json:"transactions_by_type"`
	ConsensusCounts    map[entities.Consensus]int          `json:"consensus_counts"`
	DivisionHealth     map[entities.Role]divisions.HealthStatus `json:"division_health"`
}

// GetSyndicateStatus implements §6's `GetSyndicateStatus`.
func (s *Syndicate) GetSyndicateStatus() SyndicateStatus {
	s.registryMu.RLock()
	onboarded := len(s.registry)
	s.registryMu.RUnlock()

	txLog := s.coordinator.TransactionLog()
	byType := make(map[entities.TxType]int, len(txLog))
	for _, tx := range txLog {
		byType[tx.TxType]++
	}

	evalLog := s.coordinator.EvaluationLog()
	byConsensus := make(map[entities.Consensus]int, len(evalLog))
	for _, eval := range evalLog {
		byConsensus[eval.Consensus]++
	}

	return SyndicateStatus{
		OnboardedAgents:    onboarded,
		TotalTransactions:  len(txLog),
		TransactionsByType: byType,
		ConsensusCounts:    byConsensus,
		DivisionHealth: map[entities.Role]divisions.HealthStatus{
			entities.RoleFrontOffice:    s.frontOffice.GetHealth(),
			entities.RoleRiskCompliance: s.risk.GetHealth(),
			entities.RoleTreasury:       s.treasury.GetHealth(),
			entities.RoleClearing:       s.clearing.GetHealth(),
		},
	}
}
