package validation

import "github.com/banksyndicate/core/internal/entities"

// evaluateConsensus implements L3: every division must approve for
// APPROVED, any reject forces REJECTED, and any adjust with no rejects
// degrades to REVIEW. Consensus risk is the mean of the division risk
// scores, mirroring TransactionEvaluation.MeanRisk so both views agree.
func (p *Protocol) evaluateConsensus(votes map[entities.Role]entities.DivisionAnalysis) entities.LayerResult {
	now := p.clock.Now()

	if len(votes) == 0 {
		return layerResult(entities.LayerConsensus, entities.LayerRejected, "no division votes to evaluate", nil, now)
	}

	var sum float64
	var sawAdjust, sawReject bool
	for _, v := range votes {
		sum += v.RiskScore
		switch v.Decision {
		case entities.DecisionReject:
			sawReject = true
		case entities.DecisionAdjust:
			sawAdjust = true
		}
	}
	meanRisk := sum / float64(len(votes))

	verdict := entities.LayerApproved
	reasoning := "all divisions approved"
	switch {
	case sawReject:
		verdict = entities.LayerRejected
		reasoning = "at least one division rejected the transaction"
	case sawAdjust:
		verdict = entities.LayerReview
		reasoning = "at least one division requested adjustment"
	}

	return layerResult(entities.LayerConsensus, verdict, reasoning, map[string]any{"mean_risk": meanRisk}, now)
}
