package divisions

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/banksyndicate/core/internal/config"
	"github.com/banksyndicate/core/internal/entities"
	"github.com/banksyndicate/core/internal/ports"
)

// FrontOffice is the membership/wallet/supplier gate: the first vote a
// transaction takes (§4.2.1). Its Execute("onboard", ...) is also how
// new agents get a wallet and their starting credit limit.
type FrontOffice struct {
	healthTracker

	cfg    *config.Config
	log    zerolog.Logger
	clock  ports.Clock
	ledger ports.LedgerConnector

	onboardedMu sync.RWMutex
	onboarded   map[string]bool
}

func NewFrontOffice(cfg *config.Config, log zerolog.Logger, clock ports.Clock, ledger ports.LedgerConnector) *FrontOffice {
	return &FrontOffice{cfg: cfg, log: log.With().Str("division", "front_office").Logger(), clock: clock, ledger: ledger, onboarded: make(map[string]bool)}
}

// isOnboarded reports whether agentID has completed Front-Office's own
// "onboard" action — the membership registry spec.md §4.2.1 names,
// tracked here the way `front_office_agent.py`'s `self.onboarded_agents`
// lives on the agent itself rather than in a shared registry.
func (f *FrontOffice) isOnboarded(agentID string) bool {
	f.onboardedMu.RLock()
	defer f.onboardedMu.RUnlock()
	return f.onboarded[agentID]
}

func (f *FrontOffice) markOnboarded(agentID string) {
	f.onboardedMu.Lock()
	defer f.onboardedMu.Unlock()
	f.onboarded[agentID] = true
}

func (f *FrontOffice) Role() entities.Role { return entities.RoleFrontOffice }

func (f *FrontOffice) Analyze(_ context.Context, tx *entities.Transaction, agent *entities.AgentState) entities.DivisionAnalysis {
	start := f.clock.Now()
	now := start

	if agent == nil {
		return entities.NewBlocker(f.Role(), "agent is not onboarded: missing wallet address", now)
	}
	if agent.WalletAddress == "" {
		return entities.NewBlocker(f.Role(), "agent has no wallet address on file", now)
	}
	if tx.Supplier == "" {
		return entities.NewBlocker(f.Role(), "transaction is missing a supplier", now)
	}

	var risk float64
	var alerts []string
	if !f.isOnboarded(agent.AgentID) {
		risk += 0.3
		alerts = append(alerts, fmt.Sprintf("agent %s was not formally onboarded", agent.AgentID))
	}
	if tx.Description == "" {
		risk += 0.1
		alerts = append(alerts, "transaction has no description")
	}

	decision := entities.DecisionApprove
	if risk >= 0.3 {
		decision = entities.DecisionAdjust
	}

	reasoning := "wallet and supplier present"
	if decision == entities.DecisionAdjust {
		reasoning = "minor adjustments needed"
	}

	f.recordHealth(now, f.clock.Now().Sub(start), nil)
	return entities.DivisionAnalysis{
		AgentRole: f.Role(),
		Decision:  decision,
		RiskScore: risk,
		Reasoning: reasoning,
		Alerts:    alerts,
		Metadata:  map[string]any{},
		Timestamp: now,
	}
}

// Execute implements "onboard": creates a wallet and returns a fresh
// AgentState at the default credit limit. No other Front-Office action
// is defined.
func (f *FrontOffice) Execute(ctx context.Context, tx *entities.Transaction, action string, agent *entities.AgentState) (ActionResult, error) {
	start := f.clock.Now()

	if action != "onboard" {
		err := fmt.Errorf("front office: unsupported action %q", action)
		f.recordHealth(start, f.clock.Now().Sub(start), err)
		return ActionResult{Success: false, Reason: err.Error()}, err
	}

	agentID := tx.AgentID
	var wallet string
	var err error
	if f.ledger != nil {
		wallet, err = f.ledger.CreateWallet(ctx, agentID)
	}
	if f.ledger == nil || err != nil {
		wallet = syntheticWallet(agentID, f.clock.Now())
	}

	now := f.clock.Now()
	newAgent := &entities.AgentState{
		AgentID:         agentID,
		WalletAddress:   wallet,
		CreditLimit:     f.cfg.DefaultCreditLimit,
		ReputationScore: 0.5,
		CreatedAt:       now,
	}

	f.markOnboarded(agentID)

	f.recordHealth(now, time.Since(start), nil)
	return ActionResult{
		Success:  true,
		Agent:    newAgent,
		Metadata: map[string]any{"wallet_address": wallet, "credit_limit": newAgent.CreditLimit},
	}, nil
}

func syntheticWallet(agentID string, now time.Time) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", agentID, now.UnixNano())))
	return fmt.Sprintf("0x%x", h[:20])
}

var _ Division = (*FrontOffice)(nil)
