package validation_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/banksyndicate/core/internal/config"
	"github.com/banksyndicate/core/internal/entities"
	"github.com/banksyndicate/core/internal/ports"
	"github.com/banksyndicate/core/internal/validation"
)

func testConfig() *config.Config {
	return &config.Config{MaxGasLimit: 500000, ChainID: 1}
}

func approvedKYA(now time.Time) *entities.KYAData {
	return &entities.KYAData{
		CodeHash:           "a1b2c3d4e5f60718293a4b5c6d7e8f90112233445566778899aabbccddeeff",
		AMLScore:           95,
		SanctionsCheck:     entities.SanctionsCleared,
		RegulatoryApproval: "approved",
		Jurisdiction:       "US",
		CreatedTimestamp:   now,
	}
}

func newProtocol(clock ports.Clock) *validation.Protocol {
	return validation.NewProtocol(testConfig(), zerolog.Nop(), clock, ports.NewRuleBasedAdvisor(), ports.NewSimulatedLedger(clock, 1), nil, nil, nil)
}

func approvingVotes(now time.Time) map[entities.Role]entities.DivisionAnalysis {
	votes := map[entities.Role]entities.DivisionAnalysis{}
	for _, role := range entities.Roles() {
		votes[role] = entities.DivisionAnalysis{AgentRole: role, Decision: entities.DecisionApprove, RiskScore: 0.1, Timestamp: now}
	}
	return votes
}

func TestValidateFullTransactionHappyPath(t *testing.T) {
	now := time.Now()
	clock := ports.NewFixedClock(now)
	p := newProtocol(clock)
	p.SubmitKYA("agent-1", approvedKYA(now))

	tx := entities.NewTransaction("tx-1", "agent-1", entities.TxPurchase, 50, "OpenAI", "widgets", now)
	tx.GasEstimate = 71000
	agent := &entities.AgentState{AgentID: "agent-1", AvailableBalance: 1000, WalletAddress: "0x1234567890123456789012345678901234567890"}

	approved, trail := p.ValidateFullTransaction(context.Background(), tx, agent, approvingVotes(now), nil)
	if !approved {
		t.Fatalf("expected approval, got trail %+v", trail)
	}
	if trail.FinalStatus != entities.FinalCompleted {
		t.Fatalf("expected COMPLETED final status, got %v", trail.FinalStatus)
	}
	for _, layer := range entities.LayerNames() {
		if _, ok := trail.Layers[layer]; !ok {
			t.Fatalf("expected layer %v to have a recorded slot", layer)
		}
	}
}

func TestValidateFullTransactionKYABoundaryAML85Approves(t *testing.T) {
	now := time.Now()
	clock := ports.NewFixedClock(now)
	p := newProtocol(clock)
	kya := approvedKYA(now)
	kya.AMLScore = 85
	p.SubmitKYA("agent-1", kya)

	tx := entities.NewTransaction("tx-1", "agent-1", entities.TxPurchase, 50, "OpenAI", "widgets", now)
	tx.GasEstimate = 71000
	agent := &entities.AgentState{AgentID: "agent-1", AvailableBalance: 1000, WalletAddress: "0x1234567890123456789012345678901234567890"}

	approved, _ := p.ValidateFullTransaction(context.Background(), tx, agent, approvingVotes(now), nil)
	if !approved {
		t.Fatalf("expected AML score of exactly 85 to approve (boundary is < 85)")
	}
}

func TestValidateFullTransactionRejectsMissingKYA(t *testing.T) {
	now := time.Now()
	clock := ports.NewFixedClock(now)
	p := newProtocol(clock)

	tx := entities.NewTransaction("tx-1", "agent-1", entities.TxPurchase, 50, "OpenAI", "widgets", now)
	agent := &entities.AgentState{AgentID: "agent-1", AvailableBalance: 1000, WalletAddress: "0x1234567890123456789012345678901234567890"}

	approved, trail := p.ValidateFullTransaction(context.Background(), tx, agent, approvingVotes(now), nil)
	if approved {
		t.Fatalf("expected rejection without a KYA record on file")
	}
	if trail.Layers[entities.LayerKYA].Verdict != entities.LayerRejected {
		t.Fatalf("expected L1 to reject, got %v", trail.Layers[entities.LayerKYA].Verdict)
	}
}

func TestValidateFullTransactionRejectsOnDivisionReject(t *testing.T) {
	now := time.Now()
	clock := ports.NewFixedClock(now)
	p := newProtocol(clock)
	p.SubmitKYA("agent-1", approvedKYA(now))

	tx := entities.NewTransaction("tx-1", "agent-1", entities.TxPurchase, 50, "OpenAI", "widgets", now)
	agent := &entities.AgentState{AgentID: "agent-1", AvailableBalance: 1000, WalletAddress: "0x1234567890123456789012345678901234567890"}

	votes := approvingVotes(now)
	votes[entities.RoleRiskCompliance] = entities.NewBlocker(entities.RoleRiskCompliance, "blacklisted", now)

	approved, trail := p.ValidateFullTransaction(context.Background(), tx, agent, votes, nil)
	if approved {
		t.Fatalf("expected rejection when a division rejected")
	}
	if trail.Layers[entities.LayerConsensus].Verdict != entities.LayerRejected {
		t.Fatalf("expected L3 consensus to reject, got %v", trail.Layers[entities.LayerConsensus].Verdict)
	}
}

func TestValidateFullTransactionRejectsMalformedWallet(t *testing.T) {
	now := time.Now()
	clock := ports.NewFixedClock(now)
	p := newProtocol(clock)
	p.SubmitKYA("agent-1", approvedKYA(now))

	tx := entities.NewTransaction("tx-1", "agent-1", entities.TxPurchase, 50, "OpenAI", "widgets", now)
	agent := &entities.AgentState{AgentID: "agent-1", AvailableBalance: 1000, WalletAddress: "not-a-wallet"}

	approved, trail := p.ValidateFullTransaction(context.Background(), tx, agent, approvingVotes(now), nil)
	if approved {
		t.Fatalf("expected rejection for malformed wallet address")
	}
	if trail.Layers[entities.LayerSettlement].Verdict != entities.LayerRejected {
		t.Fatalf("expected L5 to reject, got %v", trail.Layers[entities.LayerSettlement].Verdict)
	}
}

func TestValidateFullTransactionComplianceNeverBlocks(t *testing.T) {
	now := time.Now()
	clock := ports.NewFixedClock(now)
	p := newProtocol(clock)
	// No KYA submitted at all would reject at L1; submit one with no
	// jurisdiction, a signal L1 does not check but L6 penalizes, so the
	// record clears L1 and reaches L6.
	kya := approvedKYA(now)
	kya.Jurisdiction = ""
	p.SubmitKYA("agent-1", kya)

	tx := entities.NewTransaction("tx-1", "agent-1", entities.TxPurchase, 50, "OpenAI", "widgets", now)
	tx.GasEstimate = 71000
	agent := &entities.AgentState{AgentID: "agent-1", AvailableBalance: 1000, WalletAddress: "0x1234567890123456789012345678901234567890"}

	approved, trail := p.ValidateFullTransaction(context.Background(), tx, agent, approvingVotes(now), nil)
	if !approved {
		t.Fatalf("expected approval")
	}
	if trail.Layers[entities.LayerCompliance].Verdict != entities.LayerApproved {
		t.Fatalf("expected L6 to always approve, got %v", trail.Layers[entities.LayerCompliance].Verdict)
	}
}

func TestPreflightVelocityLimit(t *testing.T) {
	now := time.Now()
	clock := ports.NewFixedClock(now)
	p := newProtocol(clock)
	p.SubmitKYA("agent-1", approvedKYA(now))

	agent := &entities.AgentState{AgentID: "agent-1", AvailableBalance: 1_000_000, WalletAddress: "0x1234567890123456789012345678901234567890"}

	var lastApproved bool
	var lastTrail *entities.AuditTrail
	for i := 0; i < 6; i++ {
		tx := entities.NewTransaction("tx-velocity", "agent-1", entities.TxPurchase, 10, "OpenAI", "widgets", now)
		tx.GasEstimate = 71000
		lastApproved, lastTrail = p.ValidateFullTransaction(context.Background(), tx, agent, approvingVotes(now), nil)
	}

	if lastApproved {
		t.Fatalf("expected the 6th bronze-tier transaction within one minute to exceed the velocity limit of 5")
	}
	if lastTrail.Layers[entities.LayerPreflight].Verdict != entities.LayerRejected {
		t.Fatalf("expected L2 to reject on velocity, got %v", lastTrail.Layers[entities.LayerPreflight].Verdict)
	}
}
