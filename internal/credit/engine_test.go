package credit_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/banksyndicate/core/internal/config"
	"github.com/banksyndicate/core/internal/credit"
	"github.com/banksyndicate/core/internal/entities"
)

func testConfig() *config.Config {
	return &config.Config{MinCreditLimit: 10, MaxCreditLimit: 10000, Alpha: 0.05}
}

func TestNextCreditLimitClampsToBounds(t *testing.T) {
	e := credit.NewEngine(testConfig(), zerolog.Nop())

	if got := e.NextCreditLimit(100, 1.0); got <= 100 {
		t.Fatalf("expected positive efficiency to raise the limit, got %v", got)
	}
	if got := e.NextCreditLimit(5, -1.0); got < 10 {
		t.Fatalf("expected clamp to MinCreditLimit, got %v", got)
	}
	if got := e.NextCreditLimit(50000, 1.0); got > 10000 {
		t.Fatalf("expected clamp to MaxCreditLimit, got %v", got)
	}
}

func TestMonotoneCreditLimitUnderPerfectBehavior(t *testing.T) {
	e := credit.NewEngine(testConfig(), zerolog.Nop())
	agent := &entities.AgentState{TotalTransactions: 10, SuccessfulTransactions: 10, TotalSpent: 100, TotalEarned: 150}

	eff := e.Efficiency(agent, 0, 0)
	next := e.NextCreditLimit(100, eff)
	if next < 100 {
		t.Fatalf("expected monotone non-decreasing limit under perfect behavior, got %v < 100", next)
	}
}

func TestReputationDefaultsForNewAgent(t *testing.T) {
	e := credit.NewEngine(testConfig(), zerolog.Nop())
	agent := &entities.AgentState{AgentID: "agent-1"}

	if got := e.Reputation(agent, time.Now(), 0); got != 0.5 {
		t.Fatalf("expected default reputation 0.5 for a fresh agent, got %v", got)
	}
}

func TestReputationBoundedZeroToOne(t *testing.T) {
	e := credit.NewEngine(testConfig(), zerolog.Nop())
	now := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	agent := &entities.AgentState{
		AgentID:                "agent-1",
		TotalTransactions:      1000,
		SuccessfulTransactions: 1000,
		TotalSpent:             100,
		TotalEarned:            500,
		CreatedAt:              now.Add(-2 * 365 * 24 * time.Hour),
	}

	got := e.Reputation(agent, now, 1.0)
	if got < 0 || got > 1 {
		t.Fatalf("expected reputation in [0,1], got %v", got)
	}
}

func TestRecordFraudIncidentLowersReputationImmediately(t *testing.T) {
	e := credit.NewEngine(testConfig(), zerolog.Nop())
	now := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	agent := &entities.AgentState{
		AgentID:                "agent-1",
		TotalTransactions:      50,
		SuccessfulTransactions: 50,
		TotalSpent:             100,
		TotalEarned:            100,
		CreatedAt:              now.Add(-100 * 24 * time.Hour),
	}

	before := e.Reputation(agent, now, 0.5)
	e.RecordFraudIncident("agent-1")
	after := e.Reputation(agent, now, 0.5)

	if after >= before {
		t.Fatalf("expected reputation to drop after a fraud incident: before=%v after=%v", before, after)
	}
}

func TestDeriveTierBoundaries(t *testing.T) {
	cases := []struct {
		reputation float64
		want       entities.Tier
	}{
		{0.0, entities.TierBronze},
		{0.39, entities.TierBronze},
		{0.40, entities.TierSilver},
		{0.69, entities.TierSilver},
		{0.70, entities.TierGold},
		{0.89, entities.TierGold},
		{0.90, entities.TierPlatinum},
		{1.0, entities.TierPlatinum},
	}
	for _, c := range cases {
		if got := credit.DeriveTier(c.reputation); got != c.want {
			t.Fatalf("DeriveTier(%v) = %v, want %v", c.reputation, got, c.want)
		}
	}
}

func TestDecayFraudPenaltiesHalves(t *testing.T) {
	e := credit.NewEngine(testConfig(), zerolog.Nop())
	e.RecordFraudIncident("agent-1")
	e.RecordFraudIncident("agent-1")

	now := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	agent := &entities.AgentState{AgentID: "agent-1", TotalTransactions: 1, SuccessfulTransactions: 1, TotalSpent: 1, TotalEarned: 1, CreatedAt: now}

	before := e.Reputation(agent, now, 0)
	e.DecayFraudPenalties(time.Hour)
	after := e.Reputation(agent, now, 0)

	if after <= before {
		t.Fatalf("expected decay to raise reputation back up: before=%v after=%v", before, after)
	}
}
