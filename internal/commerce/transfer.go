package commerce

import (
	"context"

	"github.com/banksyndicate/core/internal/entities"
)

// TransferBetweenAgents implements §4.6.3: validates both agents exist
// and the sender can cover amount, settles an agent_to_agent
// transaction through the coordinator from the sender's side, and on
// approval credits the recipient directly (the coordinator only ever
// debits the transacting agent, so the recipient's credit is this
// package's own side effect).
func (c *Commerce) TransferBetweenAgents(ctx context.Context, fromAgentID, toAgentID string, amount float64, purpose string) (*entities.AgentToAgentPayment, error) {
	now := c.clock.Now()
	payment := entities.NewAgentToAgentPayment("a2a-"+c.clock.NewUUID(), fromAgentID, toAgentID, amount, purpose, now)

	fromAgent, ok := c.lookup(fromAgentID)
	if !ok {
		payment.Status = entities.PaymentFailed
		payment.Metadata["error"] = "from_agent_not_found"
		c.recordPayment(payment)
		return payment, nil
	}
	toAgent, ok := c.lookup(toAgentID)
	if !ok {
		payment.Status = entities.PaymentFailed
		payment.Metadata["error"] = "to_agent_not_found"
		c.recordPayment(payment)
		return payment, nil
	}
	if fromAgent.AvailableBalance < payment.Amount {
		payment.Status = entities.PaymentFailed
		payment.Metadata["error"] = "insufficient_balance"
		c.recordPayment(payment)
		return payment, nil
	}

	tx := entities.NewTransaction(payment.PaymentID, fromAgentID, entities.TxAgentToAgent, payment.Amount, toAgentID, "transfer to "+toAgentID+": "+purpose, now)
	tx.Metadata["to_agent"] = toAgentID
	tx.Metadata["purpose"] = purpose

	payment.Status = entities.PaymentProcessing
	eval, err := c.process(ctx, tx, fromAgent)
	if err != nil {
		payment.Status = entities.PaymentFailed
		payment.Metadata["error"] = err.Error()
		c.recordPayment(payment)
		return payment, err
	}

	if eval.Consensus == entities.ConsensusApproved {
		c.lockAgent(toAgentID, func() {
			toAgent.AvailableBalance = entities.RoundMinorUnit(toAgent.AvailableBalance + payment.Amount)
			toAgent.TotalEarned = entities.RoundMinorUnit(toAgent.TotalEarned + payment.Amount)
		})

		payment.Status = entities.PaymentCompleted
		payment.Metadata["tx_hash"] = tx.TxHash
	} else {
		payment.Status = entities.PaymentFailed
		payment.Metadata["error"] = "transaction_rejected"
		payment.Metadata["blockers"] = eval.Blockers
	}

	c.recordPayment(payment)
	return payment, nil
}

func (c *Commerce) recordPayment(payment *entities.AgentToAgentPayment) {
	c.paymentsMu.Lock()
	defer c.paymentsMu.Unlock()
	c.payments = append(c.payments, payment)
}

// PaymentHistory returns agentID's agent-to-agent payments, newest
// first, filtered by direction: "sent", "received", or "both".
func (c *Commerce) PaymentHistory(agentID, direction string) []*entities.AgentToAgentPayment {
	c.paymentsMu.Lock()
	defer c.paymentsMu.Unlock()

	var out []*entities.AgentToAgentPayment
	for i := len(c.payments) - 1; i >= 0; i-- {
		p := c.payments[i]
		switch direction {
		case "sent":
			if p.FromAgent == agentID {
				out = append(out, p)
			}
		case "received":
			if p.ToAgent == agentID {
				out = append(out, p)
			}
		default:
			if p.FromAgent == agentID || p.ToAgent == agentID {
				out = append(out, p)
			}
		}
	}
	return out
}
