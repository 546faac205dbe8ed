package entities

import "time"

// BatchStatus is the lifecycle state of a MicropaymentBatch.
type BatchStatus string

const (
	BatchPending   BatchStatus = "pending"
	BatchExecuting BatchStatus = "executing"
	BatchCompleted BatchStatus = "completed"
	BatchFailed    BatchStatus = "failed"
)

// MicropaymentBatch accumulates sub-threshold payments for one agent
// until it is flushed into a single micropayment transaction. One
// active batch exists per agent at a time, keyed "{agent_id}-active".
type MicropaymentBatch struct {
	BatchID     string     `json:"batch_id"`
	AgentID     string     `json:"agent_id"`
	Payments    []string   `json:"payments"`
	TotalAmount float64    `json:"total_amount"`
	CreatedAt   time.Time  `json:"created_at"`
	ExecutedAt  *time.Time `json:"executed_at,omitempty"`
	Status      BatchStatus `json:"status"`
}

// NewMicropaymentBatch starts an empty pending batch for agentID.
func NewMicropaymentBatch(batchID, agentID string, now time.Time) *MicropaymentBatch {
	return &MicropaymentBatch{
		BatchID:   batchID,
		AgentID:   agentID,
		Payments:  []string{},
		CreatedAt: now,
		Status:    BatchPending,
	}
}

// Add appends a child payment's tx id and its amount to the batch.
func (b *MicropaymentBatch) Add(childTxID string, amount float64) {
	b.Payments = append(b.Payments, childTxID)
	b.TotalAmount = RoundMinorUnit(b.TotalAmount + amount)
}

// ShouldFlush reports whether the batch has crossed the threshold or
// aged past the timeout, as of now.
func (b *MicropaymentBatch) ShouldFlush(now time.Time, threshold float64, timeout time.Duration) bool {
	return b.TotalAmount >= threshold || now.Sub(b.CreatedAt) >= timeout
}
