package divisions

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/banksyndicate/core/internal/config"
	"github.com/banksyndicate/core/internal/entities"
	"github.com/banksyndicate/core/internal/ports"
)

const (
	historyRingSize        = 100
	fraudHistoryWindow     = 20
	supplierCacheCap       = 20
	supplierBlendAlpha     = 0.3
)

// RiskCompliance runs the eight checks of §4.2.2 in order, consulting
// the AI advisor for fraud and supplier scoring with rule-based
// fallbacks baked into RuleBasedAdvisor itself.
type RiskCompliance struct {
	healthTracker

	cfg       *config.Config
	log       zerolog.Logger
	clock     ports.Clock
	advisor   ports.AIAdvisor
	blacklist *Blacklist

	historyMu sync.Mutex
	history   []*entities.Transaction

	// supplierHistory is the reputation-cache supplement from
	// original_source/divisions/risk_compliance_agent_extended.py:
	// the last supplierCacheCap risk assessments per supplier,
	// blended via EMA into the next score instead of trusting a
	// single AI call. Insertion-only for the life of the process.
	supplierMu      sync.RWMutex
	supplierHistory map[string][]float64
}

func NewRiskCompliance(cfg *config.Config, log zerolog.Logger, clock ports.Clock, advisor ports.AIAdvisor, blacklist *Blacklist) *RiskCompliance {
	return &RiskCompliance{
		cfg:             cfg,
		log:             log.With().Str("division", "risk_compliance").Logger(),
		clock:           clock,
		advisor:         advisor,
		blacklist:       blacklist,
		supplierHistory: make(map[string][]float64),
	}
}

func (r *RiskCompliance) Role() entities.Role { return entities.RoleRiskCompliance }

func (r *RiskCompliance) Analyze(ctx context.Context, tx *entities.Transaction, agent *entities.AgentState) entities.DivisionAnalysis {
	now := r.clock.Now()

	// 1. Solvency.
	if tx.Amount > agent.AvailableBalance+agent.InvestedBalance {
		return entities.NewBlocker(r.Role(), "insufficient total balance for transaction amount", now)
	}

	// 2. Credit limit.
	if tx.Amount > agent.CreditLimit {
		return entities.NewBlocker(r.Role(), "amount exceeds agent credit limit", now)
	}

	// 3. Blacklist.
	if r.blacklist != nil && r.blacklist.Contains(tx.Supplier) {
		return entities.NewBlocker(r.Role(), fmt.Sprintf("supplier %q appears on the scam blacklist", tx.Supplier), now)
	}

	var risk float64
	var alerts []string
	var recommendedActions []string

	// 4. AI fraud scoring.
	recent := r.recentHistory(fraudHistoryWindow)
	fraud, err := r.advisor.DetectFraud(ctx, tx, recent)
	if err != nil {
		alerts = append(alerts, "fraud advisor unreachable, continuing without its signal")
	} else {
		risk += 0.5 * fraud.Probability
		if fraud.Recommendation == ports.FraudBlock {
			risk += 0.3
			recommendedActions = append(recommendedActions, "block: "+fraud.Reasoning)
		}
	}

	// 5/6. AI supplier scoring, blended against the reputation cache.
	supplierRisk := r.assessSupplierBlended(ctx, tx.Supplier)
	risk += 0.3 * supplierRisk

	// 7. Value threshold.
	if tx.Amount > r.cfg.SuspiciousValueThreshold {
		risk += 0.2
		alerts = append(alerts, "amount exceeds the suspicious value threshold")
	}

	// 8. History.
	if agent.FailedTransactions > agent.SuccessfulTransactions {
		risk += 0.3
		alerts = append(alerts, "agent has more failed than successful transactions")
	}

	risk = clamp(risk, 0, 1)
	r.appendHistory(tx)

	decision := entities.DecisionApprove
	switch {
	case risk >= 0.7:
		decision = entities.DecisionReject
	case risk >= 0.4:
		decision = entities.DecisionAdjust
	}

	return entities.DivisionAnalysis{
		AgentRole:          r.Role(),
		Decision:           decision,
		RiskScore:          risk,
		Reasoning:          "aggregated solvency, blacklist, fraud, and supplier risk checks",
		RecommendedActions: recommendedActions,
		Alerts:             alerts,
		Metadata:           map[string]any{"supplier_risk": supplierRisk},
		Timestamp:          now,
	}
}

// Execute has no defined side-effecting action for this division.
func (r *RiskCompliance) Execute(_ context.Context, _ *entities.Transaction, action string, _ *entities.AgentState) (ActionResult, error) {
	err := fmt.Errorf("risk compliance: unsupported action %q", action)
	return ActionResult{Success: false, Reason: err.Error()}, err
}

func (r *RiskCompliance) appendHistory(tx *entities.Transaction) {
	r.historyMu.Lock()
	defer r.historyMu.Unlock()
	r.history = append(r.history, tx)
	if len(r.history) > historyRingSize {
		r.history = r.history[len(r.history)-historyRingSize:]
	}
}

func (r *RiskCompliance) recentHistory(n int) []*entities.Transaction {
	r.historyMu.Lock()
	defer r.historyMu.Unlock()
	if len(r.history) <= n {
		out := make([]*entities.Transaction, len(r.history))
		copy(out, r.history)
		return out
	}
	out := make([]*entities.Transaction, n)
	copy(out, r.history[len(r.history)-n:])
	return out
}

// assessSupplierBlended consults the advisor, blends the result with
// the cached history for that supplier via an exponential moving
// average, then records the raw assessment in the cache.
func (r *RiskCompliance) assessSupplierBlended(ctx context.Context, supplier string) float64 {
	r.supplierMu.RLock()
	cached := append([]float64(nil), r.supplierHistory[supplier]...)
	r.supplierMu.RUnlock()

	assessment, err := r.advisor.AssessSupplier(ctx, supplier, cached)
	raw := 0.5
	if err == nil {
		raw = assessment.Risk
	}

	blended := raw
	if len(cached) > 0 {
		ema := cached[0]
		for _, v := range cached[1:] {
			ema = supplierBlendAlpha*v + (1-supplierBlendAlpha)*ema
		}
		blended = supplierBlendAlpha*raw + (1-supplierBlendAlpha)*ema
	}

	r.supplierMu.Lock()
	hist := append(r.supplierHistory[supplier], raw)
	if len(hist) > supplierCacheCap {
		hist = hist[len(hist)-supplierCacheCap:]
	}
	r.supplierHistory[supplier] = hist
	r.supplierMu.Unlock()

	return clamp(blended, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var _ Division = (*RiskCompliance)(nil)
