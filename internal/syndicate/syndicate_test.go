package syndicate_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/banksyndicate/core/internal/config"
	"github.com/banksyndicate/core/internal/divisions"
	"github.com/banksyndicate/core/internal/entities"
	"github.com/banksyndicate/core/internal/ports"
	"github.com/banksyndicate/core/internal/syndicate"
)

func testConfig() *config.Config {
	return &config.Config{
		DefaultCreditLimit:        100,
		MinCreditLimit:            10,
		MaxCreditLimit:            10000,
		Alpha:                     0.05,
		TreasuryAllocationPercent: 0.80,
		SuspiciousValueThreshold:  1000,
		MaxGasLimit:               500000,
		ChainID:                   1,
		MicropaymentThreshold:     1.0,
		BatchTimeout:              5 * time.Minute,
		ConsensusThreshold:        0.66,
		BillingCycle:              24 * time.Hour,
		ProtocolDeadline:          30 * time.Second,
		TransactionDeadline:       5 * time.Second,
	}
}

func newTestSyndicate(now time.Time) *syndicate.Syndicate {
	clock := ports.NewFixedClock(now)
	ledger := ports.NewSimulatedLedger(clock, 1)
	advisor := ports.NewRuleBasedAdvisor()
	blacklist := divisions.NewBlacklist()

	return syndicate.New(testConfig(), zerolog.Nop(), clock, ledger, advisor, nil, blacklist, ports.NewMemoryPersister())
}

func TestOnboardAgentSeedsBalanceAndInvests(t *testing.T) {
	now := time.Now()
	s := newTestSyndicate(now)

	agent, err := s.OnboardAgent(context.Background(), "agent-1", 1000, nil)
	if err != nil {
		t.Fatalf("OnboardAgent: %v", err)
	}
	if agent.WalletAddress == "" {
		t.Fatalf("expected a wallet address to be minted")
	}
	if agent.CreditLimit != 100 {
		t.Fatalf("expected the default credit limit, got %v", agent.CreditLimit)
	}
	// 80% of the 1000 deposit should have moved into the yield position.
	if agent.InvestedBalance != 800 || agent.AvailableBalance != 200 {
		t.Fatalf("expected 800 invested / 200 available, got invested=%v available=%v", agent.InvestedBalance, agent.AvailableBalance)
	}

	got, ok := s.GetAgentState("agent-1")
	if !ok || got != agent {
		t.Fatalf("expected GetAgentState to return the same onboarded agent")
	}
}

func TestProcessTransactionEndToEnd(t *testing.T) {
	now := time.Now()
	s := newTestSyndicate(now)

	agent, err := s.OnboardAgent(context.Background(), "agent-2", 0, nil)
	if err != nil {
		t.Fatalf("OnboardAgent: %v", err)
	}
	agent.AvailableBalance = 1000

	tx := entities.NewTransaction("tx-1", "agent-2", entities.TxPurchase, 50, "OpenAI", "widgets", now)
	eval, err := s.ProcessTransaction(context.Background(), tx, agent)
	if err != nil {
		t.Fatalf("ProcessTransaction: %v", err)
	}
	// Without a submitted KYA record, L1 rejects and the transaction is BLOCKED.
	if eval.Consensus != entities.ConsensusBlocked {
		t.Fatalf("expected BLOCKED without a KYA record on file, got %v", eval.Consensus)
	}
}

func TestGetPerformanceReportUnknownAgent(t *testing.T) {
	now := time.Now()
	s := newTestSyndicate(now)

	if _, err := s.GetPerformanceReport("ghost"); err != syndicate.ErrAgentNotFound {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestGetSyndicateStatusAggregatesCounts(t *testing.T) {
	now := time.Now()
	s := newTestSyndicate(now)

	if _, err := s.OnboardAgent(context.Background(), "agent-3", 100, nil); err != nil {
		t.Fatalf("OnboardAgent: %v", err)
	}
	agent, _ := s.GetAgentState("agent-3")
	tx := entities.NewTransaction("tx-3", "agent-3", entities.TxMicropayment, 0.25, "", "", now)
	if _, err := s.ProcessTransaction(context.Background(), tx, agent); err != nil {
		t.Fatalf("ProcessTransaction: %v", err)
	}

	status := s.GetSyndicateStatus()
	if status.OnboardedAgents != 1 {
		t.Fatalf("expected 1 onboarded agent, got %d", status.OnboardedAgents)
	}
	if status.TotalTransactions != 1 {
		t.Fatalf("expected 1 recorded transaction, got %d", status.TotalTransactions)
	}
	if status.TransactionsByType[entities.TxMicropayment] != 1 {
		t.Fatalf("expected the micropayment to be counted by type, got %+v", status.TransactionsByType)
	}
	if !status.DivisionHealth[entities.RoleFrontOffice].Healthy {
		t.Fatalf("expected front office health to be reported healthy after onboarding")
	}
}

func TestGetAgentReputationDefaultsForFreshAgent(t *testing.T) {
	now := time.Now()
	s := newTestSyndicate(now)

	if _, err := s.OnboardAgent(context.Background(), "agent-4", 0, nil); err != nil {
		t.Fatalf("OnboardAgent: %v", err)
	}
	rep, err := s.GetAgentReputation("agent-4")
	if err != nil {
		t.Fatalf("GetAgentReputation: %v", err)
	}
	if rep.Score != 0.5 {
		t.Fatalf("expected a fresh agent to default to 0.5 reputation, got %v", rep.Score)
	}
	if rep.Tier != entities.TierSilver {
		t.Fatalf("expected a 0.5 score to land in the silver tier, got %v", rep.Tier)
	}
	if rep.TierBenefits.PerTransaction == 0 {
		t.Fatalf("expected tier_benefits to carry a non-zero per-transaction limit")
	}
}

func TestTransferBetweenAgentsThroughFacade(t *testing.T) {
	now := time.Now()
	s := newTestSyndicate(now)

	if _, err := s.OnboardAgent(context.Background(), "sender", 500, nil); err != nil {
		t.Fatalf("OnboardAgent sender: %v", err)
	}
	if _, err := s.OnboardAgent(context.Background(), "recipient", 0, nil); err != nil {
		t.Fatalf("OnboardAgent recipient: %v", err)
	}
	sender, _ := s.GetAgentState("sender")
	sender.AvailableBalance = 500

	payment, err := s.TransferBetweenAgents(context.Background(), "sender", "recipient", 100, "invoice")
	if err != nil {
		t.Fatalf("TransferBetweenAgents: %v", err)
	}
	if payment.Status != entities.PaymentCompleted {
		t.Fatalf("expected the transfer to complete, got %v (meta=%v)", payment.Status, payment.Metadata)
	}

	recipient, _ := s.GetAgentState("recipient")
	if recipient.AvailableBalance != 100 {
		t.Fatalf("expected recipient credited 100, got %v", recipient.AvailableBalance)
	}

	summary := s.GetCommerceSummary("sender")
	if summary.SentTotal != 100 {
		t.Fatalf("expected commerce summary to reflect the completed transfer, got %v", summary.SentTotal)
	}
}

func TestGenerateDailyComplianceReportReflectsProcessedTransactions(t *testing.T) {
	now := time.Now()
	s := newTestSyndicate(now)

	if _, err := s.OnboardAgent(context.Background(), "agent-5", 1000, nil); err != nil {
		t.Fatalf("OnboardAgent: %v", err)
	}
	agent, _ := s.GetAgentState("agent-5")
	agent.AvailableBalance = 1000
	tx := entities.NewTransaction("tx-5", "agent-5", entities.TxPurchase, 50, "OpenAI", "widgets", now)
	if _, err := s.ProcessTransaction(context.Background(), tx, agent); err != nil {
		t.Fatalf("ProcessTransaction: %v", err)
	}

	report := s.GenerateDailyComplianceReport()
	if report.TotalTransactions != 1 {
		t.Fatalf("expected 1 transaction in today's compliance report, got %d", report.TotalTransactions)
	}
}
