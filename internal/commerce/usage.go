package commerce

import (
	"context"
	"time"

	"github.com/banksyndicate/core/internal/entities"
)

// TrackAPICall implements §4.6.1: records one API call's cost, then
// either synthesizes an immediate api_payment transaction (when the
// call alone crosses MICROPAYMENT_THRESHOLD) or folds it into the
// agent's active micropayment batch.
func (c *Commerce) TrackAPICall(ctx context.Context, agentID, endpoint string) (*entities.APIUsageRecord, error) {
	now := c.clock.Now()
	cost := c.costPerCall(endpoint)

	record := &entities.APIUsageRecord{
		AgentID:     agentID,
		Endpoint:    endpoint,
		CallsCount:  1,
		CostPerCall: cost,
		TotalCost:   entities.RoundMinorUnit(cost),
		Timestamp:   now,
	}

	c.usageMu.Lock()
	c.usage[agentID] = append(c.usage[agentID], record)
	c.usageMu.Unlock()

	if record.TotalCost >= c.cfg.MicropaymentThreshold {
		if _, err := c.chargeAPIPayment(ctx, agentID, record); err != nil {
			return record, err
		}
		return record, nil
	}

	if _, err := c.addToBatch(ctx, agentID, record); err != nil {
		return record, err
	}
	return record, nil
}

func (c *Commerce) chargeAPIPayment(ctx context.Context, agentID string, record *entities.APIUsageRecord) (*entities.TransactionEvaluation, error) {
	agent, ok := c.lookup(agentID)
	if !ok {
		return nil, ErrAgentNotFound
	}

	tx := entities.NewTransaction("api-"+c.clock.NewUUID(), agentID, entities.TxAPIPayment, record.TotalCost, record.Endpoint, "API call to "+record.Endpoint, c.clock.Now())
	tx.Metadata["api_endpoint"] = record.Endpoint
	tx.Metadata["calls_count"] = record.CallsCount

	return c.process(ctx, tx, agent)
}

// APIUsageSummary aggregates a window of an agent's API usage records,
// mirroring §6's `GetCommerceSummary` shape.
type APIUsageSummary struct {
	AgentID    string
	TotalCalls uint64
	TotalCost  float64
	ByEndpoint map[string]EndpointUsage
}

// EndpointUsage is one endpoint's slice of an APIUsageSummary.
type EndpointUsage struct {
	Calls      uint64
	Cost       float64
	AvgPerCall float64
}

// UsageSummary aggregates agentID's recorded API calls with a
// timestamp at or after since (the zero time means "all recorded
// usage"), the shape §6's GetCommerceSummary and §4.6.5's billing both
// consult.
func (c *Commerce) UsageSummary(agentID string, since time.Time) APIUsageSummary {
	c.usageMu.Lock()
	records := append([]*entities.APIUsageRecord(nil), c.usage[agentID]...)
	c.usageMu.Unlock()

	summary := APIUsageSummary{AgentID: agentID, ByEndpoint: make(map[string]EndpointUsage)}
	for _, r := range records {
		if !since.IsZero() && r.Timestamp.Before(since) {
			continue
		}
		summary.TotalCalls += r.CallsCount
		summary.TotalCost = entities.RoundMinorUnit(summary.TotalCost + r.TotalCost)

		agg := summary.ByEndpoint[r.Endpoint]
		agg.Calls += r.CallsCount
		agg.Cost = entities.RoundMinorUnit(agg.Cost + r.TotalCost)
		summary.ByEndpoint[r.Endpoint] = agg
	}
	for endpoint, agg := range summary.ByEndpoint {
		if agg.Calls > 0 {
			agg.AvgPerCall = agg.Cost / float64(agg.Calls)
			summary.ByEndpoint[endpoint] = agg
		}
	}
	return summary
}
