package entities_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/banksyndicate/core/internal/entities"
)

func TestRoundMinorUnit(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{1.0000001, 1.0},
		{0.1234565, 0.123457},
		{50, 50},
	}
	for _, c := range cases {
		if got := entities.RoundMinorUnit(c.in); got != c.want {
			t.Fatalf("RoundMinorUnit(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNewTransactionRoundsAmount(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tx := entities.NewTransaction("tx-1", "agent-1", entities.TxPurchase, 50.0000004, "OpenAI", "", now)

	if tx.Amount != 50 {
		t.Fatalf("expected rounded amount 50, got %v", tx.Amount)
	}
	if tx.State != entities.TxPending {
		t.Fatalf("expected new transaction to start pending, got %v", tx.State)
	}
}

func TestTransactionSerializationRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tx := entities.NewTransaction("tx-1", "agent-1", entities.TxPurchase, 50, "OpenAI", "widgets", now)
	tx.Metadata["note"] = "seed"
	tx.State = entities.TxCompleted
	tx.TxHash = "0xabc"

	raw, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out entities.Transaction
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if out.TxID != tx.TxID || out.Amount != tx.Amount || out.TxHash != tx.TxHash {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, tx)
	}
	if out.Metadata["note"] != "seed" {
		t.Fatalf("expected metadata to survive round trip, got %+v", out.Metadata)
	}
}

func TestAgentStateEfficiencyZeroWhenNoHistory(t *testing.T) {
	a := &entities.AgentState{}
	if eff := a.Efficiency(0, 0); eff != 0 {
		t.Fatalf("expected 0 efficiency for a fresh agent, got %v", eff)
	}
}

func TestAgentStateEfficiencyPerfectBehavior(t *testing.T) {
	a := &entities.AgentState{
		TotalTransactions:      10,
		SuccessfulTransactions: 10,
		TotalSpent:             100,
		TotalEarned:            100,
	}
	eff := a.Efficiency(0, 0)
	if eff <= 0 {
		t.Fatalf("expected positive efficiency under perfect behavior, got %v", eff)
	}
}

func TestAgentStateTotalBalance(t *testing.T) {
	a := &entities.AgentState{AvailableBalance: 40, InvestedBalance: 60}
	if got := a.TotalBalance(); got != 100 {
		t.Fatalf("expected total balance 100, got %v", got)
	}
}

func TestEvaluationRecordVoteTracksBlockers(t *testing.T) {
	now := time.Now()
	tx := entities.NewTransaction("tx-1", "agent-1", entities.TxPurchase, 10, "OpenAI", "", now)
	eval := entities.NewEvaluation(tx)

	eval.RecordVote(entities.DivisionAnalysis{AgentRole: entities.RoleFrontOffice, Decision: entities.DecisionApprove, RiskScore: 0.1, Timestamp: now})
	eval.RecordVote(entities.NewBlocker(entities.RoleRiskCompliance, "insufficient funds", now))

	if len(eval.Blockers) != 1 {
		t.Fatalf("expected exactly one blocker, got %d", len(eval.Blockers))
	}
	if eval.Blockers[0].AgentRole != entities.RoleRiskCompliance {
		t.Fatalf("expected blocker from risk compliance, got %v", eval.Blockers[0].AgentRole)
	}
	if got := eval.MeanRisk(); got != 0.55 {
		t.Fatalf("expected mean risk 0.55, got %v", got)
	}
}

func TestMicropaymentBatchShouldFlush(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := entities.NewMicropaymentBatch("batch-1", "agent-1", now)
	b.Add("tx-1", 0.5)

	if b.ShouldFlush(now, 1.0, 5*time.Minute) {
		t.Fatalf("expected batch not to flush below threshold and age")
	}

	b.Add("tx-2", 0.5)
	if !b.ShouldFlush(now, 1.0, 5*time.Minute) {
		t.Fatalf("expected batch to flush at exactly threshold (>=)")
	}
}

func TestCertificateValidity(t *testing.T) {
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cert := &entities.AgentCertificate{
		IssuedDate: issued,
		ExpiryDate: issued.Add(entities.CertificateValidity),
	}

	if !cert.IsValid(issued) {
		t.Fatalf("expected certificate valid at issuance")
	}
	if !cert.IsValid(issued.Add(entities.CertificateValidity)) {
		t.Fatalf("expected certificate valid exactly at expiry")
	}
	if cert.IsValid(issued.Add(entities.CertificateValidity + time.Second)) {
		t.Fatalf("expected certificate invalid after expiry")
	}
}

func TestRolesStableOrder(t *testing.T) {
	want := []entities.Role{entities.RoleFrontOffice, entities.RoleRiskCompliance, entities.RoleTreasury, entities.RoleClearing}
	got := entities.Roles()
	if len(got) != len(want) {
		t.Fatalf("expected %d roles, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected role order %v, got %v", want, got)
		}
	}
}
