package entities

import "time"

// PaymentStatus is the lifecycle state of an AgentToAgentPayment.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
)

// AgentToAgentPayment records one direct transfer between two agents,
// including the outcome of the underlying transaction it was settled
// through (§4.6.3).
type AgentToAgentPayment struct {
	PaymentID string         `json:"payment_id"`
	FromAgent string         `json:"from_agent"`
	ToAgent   string         `json:"to_agent"`
	Amount    float64        `json:"amount"`
	Purpose   string         `json:"purpose"`
	Timestamp time.Time      `json:"timestamp"`
	Status    PaymentStatus  `json:"status"`
	Metadata  map[string]any `json:"metadata"`
}

// NewAgentToAgentPayment starts a pending payment record.
func NewAgentToAgentPayment(paymentID, from, to string, amount float64, purpose string, now time.Time) *AgentToAgentPayment {
	return &AgentToAgentPayment{
		PaymentID: paymentID,
		FromAgent: from,
		ToAgent:   to,
		Amount:    RoundMinorUnit(amount),
		Purpose:   purpose,
		Timestamp: now,
		Status:    PaymentPending,
		Metadata:  map[string]any{},
	}
}
