package validation

import (
	"fmt"
	"sync"
	"time"

	"github.com/banksyndicate/core/internal/entities"
)

const (
	dailyWindow       = 24 * time.Hour
	velocityWindow    = 60 * time.Second
	repeatWindow      = 5 * time.Minute
)

type preflightEntry struct {
	amount    float64
	supplier  string
	timestamp time.Time
}

// preflightTracker keeps a bounded per-agent ring of recent
// transactions for the daily/velocity/pattern checks of L2, the way
// the teacher's RateLimiter keeps a per-key slidingWindow of recent
// request timestamps.
type preflightTracker struct {
	mu      sync.Mutex
	entries map[string][]preflightEntry
}

func newPreflightTracker() *preflightTracker {
	return &preflightTracker{entries: make(map[string][]preflightEntry)}
}

func (t *preflightTracker) record(agentID string, e preflightEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entries := append(t.entries[agentID], e)
	cutoff := e.timestamp.Add(-dailyWindow)
	kept := entries[:0]
	for _, entry := range entries {
		if entry.timestamp.After(cutoff) {
			kept = append(kept, entry)
		}
	}
	t.entries[agentID] = kept
}

func (t *preflightTracker) snapshot(agentID string) []preflightEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]preflightEntry, len(t.entries[agentID]))
	copy(out, t.entries[agentID])
	return out
}

// evaluatePreflight implements L2: per-tier per-transaction, daily, and
// velocity ceilings, plus a non-blocking pattern-anomaly flag recorded
// in the layer metadata (it adds no risk score).
func (p *Protocol) evaluatePreflight(tx *entities.Transaction, agent *entities.AgentState, tier entities.Tier) entities.LayerResult {
	now := p.clock.Now()
	limits := LimitsFor(tier)
	history := p.preflight.snapshot(tx.AgentID)

	if tx.Amount > agent.AvailableBalance {
		return layerResult(entities.LayerPreflight, entities.LayerRejected, "amount exceeds available balance", nil, now)
	}
	if tx.Amount > limits.PerTransaction {
		return layerResult(entities.LayerPreflight, entities.LayerRejected,
			fmt.Sprintf("amount exceeds the %s per-transaction limit of %.2f", tier, limits.PerTransaction), nil, now)
	}

	var dailyTotal float64
	var velocityCount int
	var anomaly string
	dailyCutoff := now.Add(-dailyWindow)
	velocityCutoff := now.Add(-velocityWindow)
	repeatCutoff := now.Add(-repeatWindow)

	for _, e := range history {
		if e.timestamp.After(dailyCutoff) {
			dailyTotal += e.amount
		}
		if e.timestamp.After(velocityCutoff) {
			velocityCount++
		}
		if anomaly == "" && e.timestamp.After(repeatCutoff) && e.amount == tx.Amount && e.supplier == tx.Supplier {
			anomaly = "exact repeat of a recent transaction (same amount and supplier within 5 minutes)"
		}
	}

	if dailyTotal+tx.Amount > limits.Daily {
		return layerResult(entities.LayerPreflight, entities.LayerRejected,
			fmt.Sprintf("24h cumulative amount would exceed the %s daily limit of %.2f", tier, limits.Daily), nil, now)
	}
	if velocityCount >= limits.VelocityPerMin {
		return layerResult(entities.LayerPreflight, entities.LayerRejected,
			fmt.Sprintf("transaction velocity exceeds the %s limit of %d/min", tier, limits.VelocityPerMin), nil, now)
	}

	p.preflight.record(tx.AgentID, preflightEntry{amount: tx.Amount, supplier: tx.Supplier, timestamp: now})

	meta := map[string]any{"daily_total": dailyTotal + tx.Amount, "velocity_count": velocityCount + 1}
	if anomaly != "" {
		meta["pattern_anomaly"] = anomaly
	}

	return layerResult(entities.LayerPreflight, entities.LayerApproved, "within tier limits", meta, now)
}
