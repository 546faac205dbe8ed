package entities

import "time"

// AgentState is the mutable record of one onboarded agent. Mutation is
// serialized per-agent by the Coordinator's per-agent mutex (see
// internal/coordinator); the fields here are never written concurrently
// by two goroutines holding the same agent's lock.
type AgentState struct {
	AgentID       string    `json:"agent_id"`
	WalletAddress string    `json:"wallet_address"`
	CreditLimit   float64   `json:"credit_limit"`

	AvailableBalance float64 `json:"available_balance"`
	InvestedBalance  float64 `json:"invested_balance"`

	TotalTransactions      uint64 `json:"total_transactions"`
	SuccessfulTransactions uint64 `json:"successful_transactions"`
	FailedTransactions     uint64 `json:"failed_transactions"`

	TotalSpent  float64 `json:"total_spent"`
	TotalEarned float64 `json:"total_earned"`

	ReputationScore float64 `json:"reputation_score"`

	CreatedAt       time.Time  `json:"created_at"`
	LastTransaction *time.Time `json:"last_transaction,omitempty"`
}

// Efficiency is the weighted combination of success rate, gas usage, and
// ROI described in §4.5.1. gasUsed/gasEstimate come from the most recent
// settled transaction, if any; pass 0 for both when there isn't one.
func (a *AgentState) Efficiency(gasUsed, gasEstimate uint64) float64 {
	if a.TotalTransactions == 0 {
		return 0
	}

	successRatio := float64(a.SuccessfulTransactions) / float64(a.TotalTransactions)
	successScore := (successRatio - 0.5) * 2

	gasEfficiency := 0.0
	if gasUsed > 0 && gasEstimate > 0 {
		gasEfficiency = (1 - float64(gasUsed)/float64(gasEstimate)) * 2
	}

	denom := a.TotalSpent
	if denom < 1 {
		denom = 1
	}
	roi := clamp((a.TotalEarned-a.TotalSpent)/denom, -1, 1)

	return 0.4*successScore + 0.3*gasEfficiency + 0.3*roi
}

// TotalBalance is the derived sum of available and invested balances;
// never stored.
func (a *AgentState) TotalBalance() float64 {
	return a.AvailableBalance + a.InvestedBalance
}

// SuccessRate is successful/total, or 0 for a fresh agent.
func (a *AgentState) SuccessRate() float64 {
	if a.TotalTransactions == 0 {
		return 0
	}
	return float64(a.SuccessfulTransactions) / float64(a.TotalTransactions)
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
