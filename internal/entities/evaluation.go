package entities

import "time"

// Consensus is the Coordinator's aggregated verdict on a transaction.
type Consensus string

const (
	ConsensusApproved Consensus = "APPROVED"
	ConsensusBlocked  Consensus = "BLOCKED"
	ConsensusAdjusted Consensus = "ADJUSTED"
	ConsensusFailed   Consensus = "FAILED"
)

// TransactionEvaluation is the coordinator's verdict, embedding the
// transaction it was computed for. DivisionVotes is keyed by Role's
// stable string form (§9 "Division-vote key convention").
type TransactionEvaluation struct {
	Transaction    *Transaction                `json:"transaction"`
	DivisionVotes  map[Role]DivisionAnalysis    `json:"division_votes"`
	Consensus      Consensus                   `json:"consensus"`
	Blockers       []DivisionAnalysis          `json:"blockers"`
	FinalRiskScore float64                     `json:"final_risk_score"`
	ExecutionTime  time.Duration               `json:"execution_time"`
}

// NewEvaluation starts an in-flight evaluation for tx.
func NewEvaluation(tx *Transaction) *TransactionEvaluation {
	return &TransactionEvaluation{
		Transaction:   tx,
		DivisionVotes: make(map[Role]DivisionAnalysis, len(Roles())),
		Blockers:      []DivisionAnalysis{},
	}
}

// RecordVote stores a division's analysis and, if it rejected, appends
// it to the blocker list in the same call — the shape every stage of
// the coordinator's fold reaches for.
func (e *TransactionEvaluation) RecordVote(a DivisionAnalysis) {
	e.DivisionVotes[a.AgentRole] = a
	if a.Decision == DecisionReject {
		e.Blockers = append(e.Blockers, a)
	}
}

// MeanRisk is the arithmetic mean of the recorded division risk scores,
// the "final risk" defined in §4.3.
func (e *TransactionEvaluation) MeanRisk() float64 {
	if len(e.DivisionVotes) == 0 {
		return 0
	}
	var sum float64
	for _, a := range e.DivisionVotes {
		sum += a.RiskScore
	}
	return sum / float64(len(e.DivisionVotes))
}
