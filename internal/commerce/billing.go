package commerce

import (
	"context"
	"fmt"
	"time"

	"github.com/banksyndicate/core/internal/entities"
)

// ProcessUsageBilling implements §4.6.5: bills an agent for its
// accumulated API usage since the last billing cycle. It returns (nil,
// nil) when there is nothing to bill — the cycle hasn't elapsed, or
// usage since the last watermark is zero — matching the reference's
// "return None" short circuits rather than surfacing those as errors.
func (c *Commerce) ProcessUsageBilling(ctx context.Context, agentID string, force bool) (*entities.Transaction, error) {
	c.billingMu.Lock()
	lastBilling, billed := c.lastBilling[agentID]
	c.billingMu.Unlock()

	if !force && billed && c.clock.Now().Sub(lastBilling) < c.cfg.BillingCycle {
		return nil, nil
	}

	since := lastBilling
	if !billed {
		since = time.Time{}
	}
	summary := c.UsageSummary(agentID, since)
	if summary.TotalCost == 0 {
		return nil, nil
	}

	agent, ok := c.lookup(agentID)
	if !ok {
		return nil, ErrAgentNotFound
	}

	now := c.clock.Now()
	tx := entities.NewTransaction("billing-"+c.clock.NewUUID(), agentID, entities.TxUsageBilling, summary.TotalCost, "agentic-commerce-billing", fmt.Sprintf("API usage billing: %d calls", summary.TotalCalls), now)
	tx.Metadata["total_calls"] = summary.TotalCalls
	tx.Metadata["by_endpoint"] = summary.ByEndpoint
	if billed {
		tx.Metadata["billing_period_start"] = lastBilling
	}
	tx.Metadata["billing_period_end"] = now

	eval, err := c.process(ctx, tx, agent)
	if err != nil {
		return tx, err
	}

	if eval.Consensus == entities.ConsensusApproved {
		c.billingMu.Lock()
		c.lastBilling[agentID] = now
		c.billingMu.Unlock()
	}
	return tx, nil
}
