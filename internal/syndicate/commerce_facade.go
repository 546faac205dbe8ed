package syndicate

import (
	"context"
	"time"

	"github.com/banksyndicate/core/internal/audit"
	"github.com/banksyndicate/core/internal/commerce"
	"github.com/banksyndicate/core/internal/entities"
)

// TrackAPICall implements §6's `TrackAPICall(agent_id, endpoint,
// metadata?)`.
func (s *Syndicate) TrackAPICall(ctx context.Context, agentID, endpoint string) (*entities.APIUsageRecord, error) {
	return s.commerce.TrackAPICall(ctx, agentID, endpoint)
}

// TransferBetweenAgents implements §6's `TransferBetweenAgents(from,
// to, amount, purpose, metadata?)`.
func (s *Syndicate) TransferBetweenAgents(ctx context.Context, fromAgentID, toAgentID string, amount float64, purpose string) (*entities.AgentToAgentPayment, error) {
	return s.commerce.TransferBetweenAgents(ctx, fromAgentID, toAgentID, amount, purpose)
}

// RequestAutonomousApproval implements §6's
// `RequestAutonomousApproval(tx, voter_ids, timeout_seconds)`.
func (s *Syndicate) RequestAutonomousApproval(ctx context.Context, tx *entities.Transaction, voterAgentIDs []string, timeoutSeconds int) (bool, []entities.ConsensusVote) {
	return s.commerce.RequestAutonomousApproval(ctx, tx, voterAgentIDs, timeoutSeconds)
}

// ProcessUsageBilling implements §6's `ProcessUsageBilling(agent_id,
// force?)`.
func (s *Syndicate) ProcessUsageBilling(ctx context.Context, agentID string, force bool) (*entities.Transaction, error) {
	return s.commerce.ProcessUsageBilling(ctx, agentID, force)
}

// CommerceSummary is §6's `GetCommerceSummary(agent_id)` shape,
// grounded on `agentic_commerce.py`'s get_commerce_summary.
type CommerceSummary struct {
	AgentID       string                    `json:"agent_id"`
	APIUsage      commerce.APIUsageSummary  `json:"api_usage"`
	PendingBatch  *entities.MicropaymentBatch `json:"pending_batch,omitempty"`
	SentTotal     float64                   `json:"sent_total"`
	ReceivedTotal float64                   `json:"received_total"`
}

// SweepExpiredBatches flushes every agent's micropayment batch that has
// aged past BATCH_TIMEOUT, intended for a periodic background caller
// rather than the request path.
func (s *Syndicate) SweepExpiredBatches(ctx context.Context) []*entities.TransactionEvaluation {
	return s.commerce.SweepExpiredBatches(ctx)
}

// RunBillingCycle calls ProcessUsageBilling for every onboarded agent,
// intended for a periodic background caller that drives §4.6.3's
// BILLING_CYCLE sweep across the whole registry rather than a single
// agent at a time.
func (s *Syndicate) RunBillingCycle(ctx context.Context, force bool) []*entities.Transaction {
	var billed []*entities.Transaction
	for _, agentID := range s.AgentIDs() {
		tx, err := s.commerce.ProcessUsageBilling(ctx, agentID, force)
		if err != nil || tx == nil {
			continue
		}
		billed = append(billed, tx)
	}
	return billed
}

// GetCommerceSummary implements §6's `GetCommerceSummary(agent_id)`.
func (s *Syndicate) GetCommerceSummary(agentID string) CommerceSummary {
	summary := CommerceSummary{
		AgentID:  agentID,
		APIUsage: s.commerce.UsageSummary(agentID, time.Time{}),
	}
	if batch, ok := s.commerce.PendingBatch(agentID); ok {
		summary.PendingBatch = batch
	}

	for _, p := range s.commerce.PaymentHistory(agentID, "sent") {
		if p.Status == entities.PaymentCompleted {
			summary.SentTotal = entities.RoundMinorUnit(summary.SentTotal + p.Amount)
		}
	}
	for _, p := range s.commerce.PaymentHistory(agentID, "received") {
		if p.Status == entities.PaymentCompleted {
			summary.ReceivedTotal = entities.RoundMinorUnit(summary.ReceivedTotal + p.Amount)
		}
	}
	return summary
}

// SystemMetrics is §6's `GetSystemMetrics()` shape: a one-call snapshot
// combining syndicate-wide status with today's compliance report.
type SystemMetrics struct {
	Status          SyndicateStatus       `json:"status"`
	TodayCompliance audit.ComplianceReport `json:"today_compliance"`
}

// GetSystemMetrics implements §6's `GetSystemMetrics()`.
func (s *Syndicate) GetSystemMetrics() SystemMetrics {
	return SystemMetrics{
		Status:          s.GetSyndicateStatus(),
		TodayCompliance: s.GenerateDailyComplianceReport(),
	}
}
