package entities

import "time"

// APIUsageRecord tracks one billing-relevant burst of API calls an
// agent made to a given endpoint.
type APIUsageRecord struct {
	AgentID    string    `json:"agent_id"`
	Endpoint   string    `json:"endpoint"`
	CallsCount uint64    `json:"calls_count"`
	CostPerCall float64  `json:"cost_per_call"`
	TotalCost  float64   `json:"total_cost"`
	Timestamp  time.Time `json:"timestamp"`
}
