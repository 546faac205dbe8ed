package commerce_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/banksyndicate/core/internal/commerce"
	"github.com/banksyndicate/core/internal/config"
	"github.com/banksyndicate/core/internal/entities"
	"github.com/banksyndicate/core/internal/ports"
)

func testConfig() *config.Config {
	return &config.Config{
		MicropaymentThreshold: 1.0,
		BatchTimeout:          5 * time.Minute,
		ConsensusThreshold:    0.66,
		BillingCycle:          24 * time.Hour,
		TransactionDeadline:   5 * time.Second,
	}
}

// stubCoordinator is a minimal TransactionProcessor: it approves unless
// the transacting agent can't cover the amount, debiting the agent the
// way the real coordinator's S5 bookkeeping would on approval.
type stubCoordinator struct {
	clock ports.Clock
}

func (s *stubCoordinator) process(_ context.Context, tx *entities.Transaction, agent *entities.AgentState) (*entities.TransactionEvaluation, error) {
	eval := entities.NewEvaluation(tx)
	if agent.AvailableBalance < tx.Amount {
		eval.Consensus = entities.ConsensusBlocked
		eval.Blockers = append(eval.Blockers, entities.NewBlocker(entities.RoleTreasury, "insufficient balance", s.clock.Now()))
		return eval, nil
	}
	agent.AvailableBalance = entities.RoundMinorUnit(agent.AvailableBalance - tx.Amount)
	agent.TotalTransactions++
	agent.SuccessfulTransactions++
	tx.State = entities.TxCompleted
	tx.TxHash = "0xstub"
	eval.Consensus = entities.ConsensusApproved
	return eval, nil
}

func newTestCommerce(now time.Time, registry map[string]*entities.AgentState) (*commerce.Commerce, ports.Clock) {
	clock := ports.NewFixedClock(now)
	stub := &stubCoordinator{clock: clock}
	lookup := func(agentID string) (*entities.AgentState, bool) {
		a, ok := registry[agentID]
		return a, ok
	}
	lockAgent := func(_ string, fn func()) { fn() }
	c := commerce.New(testConfig(), zerolog.Nop(), clock, stub.process, lookup, lockAgent, nil)
	return c, clock
}

func newAgent(id string, balance float64) *entities.AgentState {
	return &entities.AgentState{AgentID: id, AvailableBalance: balance}
}

func TestTrackAPICallBatchesBelowThreshold(t *testing.T) {
	now := time.Now()
	registry := map[string]*entities.AgentState{"agent-1": newAgent("agent-1", 100)}
	c, _ := newTestCommerce(now, registry)

	record, err := c.TrackAPICall(context.Background(), "agent-1", "gpt-4")
	if err != nil {
		t.Fatalf("TrackAPICall: %v", err)
	}
	if record.TotalCost != 0.03 {
		t.Fatalf("expected gpt-4 call to cost 0.03, got %v", record.TotalCost)
	}
	// 0.03 < the 1.0 threshold, so this call batches rather than charges.
	if registry["agent-1"].AvailableBalance != 100 {
		t.Fatalf("expected a sub-threshold call to batch, not charge immediately, got balance %v", registry["agent-1"].AvailableBalance)
	}
	if _, ok := c.PendingBatch("agent-1"); !ok {
		t.Fatalf("expected a pending batch after a sub-threshold call")
	}
}

func TestTrackAPICallFlushesBatchAtThreshold(t *testing.T) {
	now := time.Now()
	registry := map[string]*entities.AgentState{"agent-2": newAgent("agent-2", 100)}
	c, _ := newTestCommerce(now, registry)

	for i := 0; i < 40; i++ {
		if _, err := c.TrackAPICall(context.Background(), "agent-2", "gpt-3.5-turbo"); err != nil {
			t.Fatalf("TrackAPICall: %v", err)
		}
	}
	// 40 calls * 0.002 = 0.08, still under the 1.0 threshold per call, but
	// the batch should have accumulated and not yet have flushed.
	if _, ok := c.PendingBatch("agent-2"); !ok {
		t.Fatalf("expected a pending batch short of the flush threshold")
	}

	for i := 0; i < 460; i++ {
		if _, err := c.TrackAPICall(context.Background(), "agent-2", "gpt-3.5-turbo"); err != nil {
			t.Fatalf("TrackAPICall: %v", err)
		}
	}
	// 500 calls * 0.002 = 1.0, crossing MicropaymentThreshold and flushing.
	if _, ok := c.PendingBatch("agent-2"); ok {
		t.Fatalf("expected the batch to have flushed once it crossed the threshold")
	}
	if registry["agent-2"].AvailableBalance >= 100 {
		t.Fatalf("expected the flushed batch to debit the agent, got balance %v", registry["agent-2"].AvailableBalance)
	}
}

func TestTransferBetweenAgentsCreditsRecipientOnApproval(t *testing.T) {
	now := time.Now()
	registry := map[string]*entities.AgentState{
		"sender":    newAgent("sender", 500),
		"recipient": newAgent("recipient", 0),
	}
	c, _ := newTestCommerce(now, registry)

	payment, err := c.TransferBetweenAgents(context.Background(), "sender", "recipient", 100, "invoice-42")
	if err != nil {
		t.Fatalf("TransferBetweenAgents: %v", err)
	}
	if payment.Status != entities.PaymentCompleted {
		t.Fatalf("expected payment to complete, got %v (meta=%v)", payment.Status, payment.Metadata)
	}
	if registry["sender"].AvailableBalance != 400 {
		t.Fatalf("expected sender debited to 400, got %v", registry["sender"].AvailableBalance)
	}
	if registry["recipient"].AvailableBalance != 100 || registry["recipient"].TotalEarned != 100 {
		t.Fatalf("expected recipient credited 100, got %+v", registry["recipient"])
	}

	history := c.PaymentHistory("sender", "sent")
	if len(history) != 1 || history[0].PaymentID != payment.PaymentID {
		t.Fatalf("expected sender's sent history to include the payment, got %+v", history)
	}
}

func TestTransferBetweenAgentsFailsOnUnknownRecipient(t *testing.T) {
	now := time.Now()
	registry := map[string]*entities.AgentState{"sender": newAgent("sender", 500)}
	c, _ := newTestCommerce(now, registry)

	payment, err := c.TransferBetweenAgents(context.Background(), "sender", "ghost", 10, "nope")
	if err != nil {
		t.Fatalf("TransferBetweenAgents: %v", err)
	}
	if payment.Status != entities.PaymentFailed {
		t.Fatalf("expected a failed payment for an unknown recipient, got %v", payment.Status)
	}
	if registry["sender"].AvailableBalance != 500 {
		t.Fatalf("expected no debit on a failed transfer, got %v", registry["sender"].AvailableBalance)
	}
}

func TestTransferBetweenAgentsFailsOnInsufficientBalance(t *testing.T) {
	now := time.Now()
	registry := map[string]*entities.AgentState{
		"sender":    newAgent("sender", 5),
		"recipient": newAgent("recipient", 0),
	}
	c, _ := newTestCommerce(now, registry)

	payment, err := c.TransferBetweenAgents(context.Background(), "sender", "recipient", 100, "too-much")
	if err != nil {
		t.Fatalf("TransferBetweenAgents: %v", err)
	}
	if payment.Status != entities.PaymentFailed {
		t.Fatalf("expected a failed payment for insufficient balance, got %v", payment.Status)
	}
}

func TestRequestAutonomousApprovalSimpleMajority(t *testing.T) {
	now := time.Now()
	c, _ := newTestCommerce(now, map[string]*entities.AgentState{})

	tx := entities.NewTransaction("tx-vote-1", "agent-x", entities.TxAgentToAgent, 250, "", "", now)
	approved, votes := c.RequestAutonomousApproval(context.Background(), tx, []string{"voter-a", "voter-b", "voter-c"}, 30)
	if !approved {
		t.Fatalf("expected a $250 transfer among non-conservative voters to approve, votes=%+v", votes)
	}
	if len(votes) != 3 {
		t.Fatalf("expected 3 votes, got %d", len(votes))
	}
}

func TestRequestAutonomousApprovalConservativeVoterRejectsHighAmount(t *testing.T) {
	now := time.Now()
	c, _ := newTestCommerce(now, map[string]*entities.AgentState{})

	// Mirrors the reference scenario: a conservative voter only rejects
	// once amount > 500, so a $250 transfer still approves.
	tx := entities.NewTransaction("tx-vote-2", "agent-x", entities.TxAgentToAgent, 250, "", "", now)
	approved, votes := c.RequestAutonomousApproval(context.Background(), tx, []string{"agent-conservative-1"}, 30)
	if !approved {
		t.Fatalf("expected a $250 transfer to approve even with a conservative voter, votes=%+v", votes)
	}
	if votes[0].Vote != entities.VoteApprove {
		t.Fatalf("expected the conservative voter to approve at $250, got %v", votes[0].Vote)
	}

	txHigh := entities.NewTransaction("tx-vote-3", "agent-x", entities.TxAgentToAgent, 750, "", "", now)
	approvedHigh, votesHigh := c.RequestAutonomousApproval(context.Background(), txHigh, []string{"agent-conservative-1"}, 30)
	if approvedHigh {
		t.Fatalf("expected a $750 transfer to be rejected by a conservative voter, votes=%+v", votesHigh)
	}
	if votesHigh[0].Vote != entities.VoteReject {
		t.Fatalf("expected the conservative voter to reject at $750, got %v", votesHigh[0].Vote)
	}
}

func TestRequestAutonomousApprovalRejectsDustAmount(t *testing.T) {
	now := time.Now()
	c, _ := newTestCommerce(now, map[string]*entities.AgentState{})

	tx := entities.NewTransaction("tx-vote-4", "agent-x", entities.TxAgentToAgent, 0.001, "", "", now)
	approved, votes := c.RequestAutonomousApproval(context.Background(), tx, []string{"voter-a"}, 30)
	if approved {
		t.Fatalf("expected a dust amount to be rejected as possible spam, votes=%+v", votes)
	}
}

func TestProcessUsageBillingSkipsWithinCycleUnlessForced(t *testing.T) {
	now := time.Now()
	registry := map[string]*entities.AgentState{"agent-3": newAgent("agent-3", 1000)}
	c, _ := newTestCommerce(now, registry)

	if _, err := c.TrackAPICall(context.Background(), "agent-3", "claude-3-opus"); err != nil {
		t.Fatalf("TrackAPICall: %v", err)
	}

	tx, err := c.ProcessUsageBilling(context.Background(), "agent-3", false)
	if err != nil {
		t.Fatalf("ProcessUsageBilling: %v", err)
	}
	if tx == nil {
		t.Fatalf("expected the first billing call to produce a transaction")
	}

	if _, err := c.TrackAPICall(context.Background(), "agent-3", "claude-3-opus"); err != nil {
		t.Fatalf("TrackAPICall: %v", err)
	}
	tx2, err := c.ProcessUsageBilling(context.Background(), "agent-3", false)
	if err != nil {
		t.Fatalf("ProcessUsageBilling: %v", err)
	}
	if tx2 != nil {
		t.Fatalf("expected a second billing call within the cycle to be skipped, got %+v", tx2)
	}

	tx3, err := c.ProcessUsageBilling(context.Background(), "agent-3", true)
	if err != nil {
		t.Fatalf("ProcessUsageBilling: %v", err)
	}
	if tx3 == nil {
		t.Fatalf("expected force=true to bill regardless of the cycle")
	}
}

func TestProcessUsageBillingSkipsWithNothingToBill(t *testing.T) {
	now := time.Now()
	registry := map[string]*entities.AgentState{"agent-4": newAgent("agent-4", 1000)}
	c, _ := newTestCommerce(now, registry)

	tx, err := c.ProcessUsageBilling(context.Background(), "agent-4", true)
	if err != nil {
		t.Fatalf("ProcessUsageBilling: %v", err)
	}
	if tx != nil {
		t.Fatalf("expected no usage to bill for an agent with no recorded API calls, got %+v", tx)
	}
}
