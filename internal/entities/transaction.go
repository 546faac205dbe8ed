package entities

import "time"

// TxType enumerates the kinds of transaction the core will process.
type TxType string

const (
	TxPurchase      TxType = "purchase"
	TxTransfer      TxType = "transfer"
	TxInvestment    TxType = "investment"
	TxDeposit       TxType = "deposit"
	TxWithdrawal    TxType = "withdrawal"
	TxAPIPayment    TxType = "api_payment"
	TxMicropayment  TxType = "micropayment"
	TxAgentToAgent  TxType = "agent_to_agent"
	TxUsageBilling  TxType = "usage_billing"
)

// TxState is the lifecycle state of a Transaction.
type TxState string

const (
	TxPending    TxState = "pending"
	TxAnalyzing  TxState = "analyzing"
	TxApproved   TxState = "approved"
	TxRejected   TxState = "rejected"
	TxExecuting  TxState = "executing"
	TxCompleted  TxState = "completed"
	TxFailed     TxState = "failed"
)

// Transaction is immutable after creation except for the settlement
// stamp (tx_hash, block_number, gas_used) and state transitions, both
// of which are owned exclusively by the Coordinator.
type Transaction struct {
	TxID        string         `json:"tx_id"`
	AgentID     string         `json:"agent_id"`
	TxType      TxType         `json:"tx_type"`
	Amount      float64        `json:"amount"`
	Supplier    string         `json:"supplier"`
	Description string         `json:"description"`
	Timestamp   time.Time      `json:"timestamp"`
	Metadata    map[string]any `json:"metadata"`
	State       TxState        `json:"state"`
	RiskScore   float64        `json:"risk_score"`
	GasEstimate uint64         `json:"gas_estimate"`

	// Populated only once State == TxCompleted.
	TxHash      string `json:"tx_hash,omitempty"`
	BlockNumber uint64 `json:"block_number,omitempty"`
	GasUsed     uint64 `json:"gas_used,omitempty"`
}

// NewTransaction builds a pending transaction with a rounded amount and
// an empty metadata map ready for division annotations.
func NewTransaction(txID, agentID string, txType TxType, amount float64, supplier, description string, now time.Time) *Transaction {
	return &Transaction{
		TxID:        txID,
		AgentID:     agentID,
		TxType:      txType,
		Amount:      RoundMinorUnit(amount),
		Supplier:    supplier,
		Description: description,
		Timestamp:   now,
		Metadata:    map[string]any{},
		State:       TxPending,
	}
}

// IsSettled reports whether the transaction reached a terminal state.
func (t *Transaction) IsSettled() bool {
	return t.State == TxCompleted || t.State == TxFailed || t.State == TxRejected
}
