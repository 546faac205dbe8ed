package divisions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/banksyndicate/core/internal/config"
	"github.com/banksyndicate/core/internal/entities"
	"github.com/banksyndicate/core/internal/ports"
)

// largeRebalanceFraction is the original_source/divisions/treasury_agent_extended.py
// supplement: a rebalance step that moves more than this fraction of
// available balance in one move is flagged, non-blocking.
const largeRebalanceFraction = 0.25

// Treasury decides whether a transaction needs a withdrawal from the
// yield position to cover it, and owns the deposit/withdraw/rebalance
// side-effects described in §4.2.3.
type Treasury struct {
	healthTracker

	cfg    *config.Config
	log    zerolog.Logger
	clock  ports.Clock
	ledger ports.LedgerConnector

	positionMu sync.Mutex
	yieldStart map[string]time.Time
}

func NewTreasury(cfg *config.Config, log zerolog.Logger, clock ports.Clock, ledger ports.LedgerConnector) *Treasury {
	return &Treasury{
		cfg:        cfg,
		log:        log.With().Str("division", "treasury").Logger(),
		clock:      clock,
		ledger:     ledger,
		yieldStart: make(map[string]time.Time),
	}
}

func (t *Treasury) Role() entities.Role { return entities.RoleTreasury }

func (t *Treasury) Analyze(_ context.Context, tx *entities.Transaction, agent *entities.AgentState) entities.DivisionAnalysis {
	now := t.clock.Now()

	if agent.AvailableBalance >= tx.Amount {
		return entities.DivisionAnalysis{
			AgentRole: t.Role(),
			Decision:  entities.DecisionApprove,
			RiskScore: 0,
			Reasoning: "available balance covers the transaction",
			Metadata:  map[string]any{"withdrawal_needed": false},
			Timestamp: now,
		}
	}

	if agent.AvailableBalance+agent.InvestedBalance >= tx.Amount {
		withdrawalAmount := entities.RoundMinorUnit(tx.Amount - agent.AvailableBalance)
		postWithdrawInvested := agent.InvestedBalance - withdrawalAmount

		risk := 0.0
		var alerts []string
		if agent.AvailableBalance > 0 && postWithdrawInvested < agent.AvailableBalance/2 {
			risk = 0.2
			alerts = append(alerts, "post-withdrawal invested balance falls below half of available")
		}

		return entities.DivisionAnalysis{
			AgentRole: t.Role(),
			Decision:  entities.DecisionApprove,
			RiskScore: risk,
			Reasoning: "yield position withdrawal covers the shortfall",
			Alerts:    alerts,
			Metadata: map[string]any{
				"withdrawal_needed":  true,
				"withdrawal_amount": withdrawalAmount,
			},
			Timestamp: now,
		}
	}

	return entities.NewBlocker(t.Role(), "total balance insufficient even with yield position withdrawal", now)
}

// Execute implements "deposit", "withdraw", and "rebalance". Withdraw
// reads its target amount from tx.Metadata["withdrawal_amount"],
// populated by the coordinator from this division's own Analyze output
// at S3.5.
func (t *Treasury) Execute(ctx context.Context, tx *entities.Transaction, action string, agent *entities.AgentState) (ActionResult, error) {
	start := t.clock.Now()

	switch action {
	case "deposit":
		return t.executeDeposit(ctx, agent, start)
	case "withdraw":
		amount, _ := tx.Metadata["withdrawal_amount"].(float64)
		return t.executeWithdraw(ctx, agent, amount, start)
	case "rebalance":
		return t.executeRebalance(ctx, agent, start)
	default:
		err := fmt.Errorf("treasury: unsupported action %q", action)
		t.recordHealth(start, t.clock.Now().Sub(start), err)
		return ActionResult{Success: false, Reason: err.Error()}, err
	}
}

func (t *Treasury) executeDeposit(ctx context.Context, agent *entities.AgentState, start time.Time) (ActionResult, error) {
	amount := entities.RoundMinorUnit(agent.AvailableBalance * t.cfg.TreasuryAllocationPercent)
	if amount <= 0 {
		t.recordHealth(start, t.clock.Now().Sub(start), nil)
		return ActionResult{Success: true, Agent: agent, Metadata: map[string]any{"deposited": 0.0}}, nil
	}

	if t.ledger != nil {
		if err := t.ledger.Deposit(ctx, agent.WalletAddress, amount); err != nil {
			t.recordHealth(start, t.clock.Now().Sub(start), err)
			return ActionResult{Success: false, Reason: err.Error()}, err
		}
	}

	agent.AvailableBalance = entities.RoundMinorUnit(agent.AvailableBalance - amount)
	agent.InvestedBalance = entities.RoundMinorUnit(agent.InvestedBalance + amount)
	t.resetYieldClock(agent.AgentID, t.clock.Now())

	t.recordHealth(start, t.clock.Now().Sub(start), nil)
	return ActionResult{Success: true, Agent: agent, Metadata: map[string]any{"deposited": amount}}, nil
}

func (t *Treasury) executeWithdraw(ctx context.Context, agent *entities.AgentState, amount float64, start time.Time) (ActionResult, error) {
	if amount <= 0 {
		err := fmt.Errorf("treasury: withdraw requires a positive amount")
		t.recordHealth(start, t.clock.Now().Sub(start), err)
		return ActionResult{Success: false, Reason: err.Error()}, err
	}

	yield := t.accruedYield(ctx, agent, amount)
	total := entities.RoundMinorUnit(amount + yield)

	if t.ledger != nil {
		if err := t.ledger.Withdraw(ctx, agent.WalletAddress, total); err != nil {
			t.recordHealth(start, t.clock.Now().Sub(start), err)
			return ActionResult{Success: false, Reason: err.Error()}, err
		}
	}

	agent.InvestedBalance = entities.RoundMinorUnit(agent.InvestedBalance - amount)
	if agent.InvestedBalance < 0 {
		agent.InvestedBalance = 0
	}
	agent.AvailableBalance = entities.RoundMinorUnit(agent.AvailableBalance + total)
	t.resetYieldClock(agent.AgentID, t.clock.Now())

	t.recordHealth(start, t.clock.Now().Sub(start), nil)
	return ActionResult{Success: true, Agent: agent, Metadata: map[string]any{"withdrawn": amount, "yield": yield}}, nil
}

func (t *Treasury) executeRebalance(ctx context.Context, agent *entities.AgentState, start time.Time) (ActionResult, error) {
	total := agent.AvailableBalance + agent.InvestedBalance
	target := entities.RoundMinorUnit(total * t.cfg.TreasuryAllocationPercent)
	delta := entities.RoundMinorUnit(target - agent.InvestedBalance)

	var alerts []string
	if agent.AvailableBalance > 0 {
		movedFraction := absFloat(delta) / agent.AvailableBalance
		if movedFraction > largeRebalanceFraction {
			alerts = append(alerts, fmt.Sprintf("large rebalance: moving %.1f%% of available balance in one step", movedFraction*100))
		}
	}

	switch {
	case delta > 0:
		if t.ledger != nil {
			if err := t.ledger.Deposit(ctx, agent.WalletAddress, delta); err != nil {
				t.recordHealth(start, t.clock.Now().Sub(start), err)
				return ActionResult{Success: false, Reason: err.Error()}, err
			}
		}
		agent.AvailableBalance = entities.RoundMinorUnit(agent.AvailableBalance - delta)
		agent.InvestedBalance = entities.RoundMinorUnit(agent.InvestedBalance + delta)
	case delta < 0:
		move := -delta
		if t.ledger != nil {
			if err := t.ledger.Withdraw(ctx, agent.WalletAddress, move); err != nil {
				t.recordHealth(start, t.clock.Now().Sub(start), err)
				return ActionResult{Success: false, Reason: err.Error()}, err
			}
		}
		agent.InvestedBalance = entities.RoundMinorUnit(agent.InvestedBalance - move)
		agent.AvailableBalance = entities.RoundMinorUnit(agent.AvailableBalance + move)
	}
	t.resetYieldClock(agent.AgentID, t.clock.Now())

	t.recordHealth(start, t.clock.Now().Sub(start), nil)
	return ActionResult{Success: true, Agent: agent, Alerts: alerts, Metadata: map[string]any{"target_invested": target, "delta": delta}}, nil
}

// accruedYield computes principal × APY × days_held / 365, sourcing APY
// from the ledger connector (falling back to a flat 4% when the
// connector is absent or errors).
func (t *Treasury) accruedYield(ctx context.Context, agent *entities.AgentState, principal float64) float64 {
	apy := 0.04
	if t.ledger != nil {
		if v, err := t.ledger.GetAPY(ctx, "USDC"); err == nil {
			apy = v
		}
	}

	t.positionMu.Lock()
	start, ok := t.yieldStart[agent.AgentID]
	t.positionMu.Unlock()
	if !ok {
		return 0
	}

	days := t.clock.Now().Sub(start).Hours() / 24
	if days < 0 {
		days = 0
	}
	return entities.RoundMinorUnit(principal * apy * days / 365)
}

func (t *Treasury) resetYieldClock(agentID string, now time.Time) {
	t.positionMu.Lock()
	defer t.positionMu.Unlock()
	t.yieldStart[agentID] = now
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

var _ Division = (*Treasury)(nil)
