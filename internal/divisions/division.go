// Package divisions implements the four independent analyzers that vote
// on a transaction: Front-Office, Risk & Compliance, Treasury, and
// Clearing & Settlement. Each is polymorphic over the same capability
// set (§4.2) and reports its own health the way the teacher's
// provider.Provider reports HealthCheck.
package divisions

import (
	"context"
	"sync"
	"time"

	"github.com/banksyndicate/core/internal/entities"
)

// ActionResult is what Execute returns for a side-effecting division
// action ("onboard", "deposit", "withdraw", "rebalance", "execute").
type ActionResult struct {
	Success  bool
	Metadata map[string]any
	Agent    *entities.AgentState
	Reason   string
	Alerts   []string
}

// HealthStatus mirrors the teacher's provider.HealthStatus shape.
type HealthStatus struct {
	Healthy   bool
	Latency   time.Duration
	LastCheck time.Time
	Error     string
}

// Division is the capability set every analyzer implements.
type Division interface {
	Role() entities.Role
	Analyze(ctx context.Context, tx *entities.Transaction, agent *entities.AgentState) entities.DivisionAnalysis
	Execute(ctx context.Context, tx *entities.Transaction, action string, agent *entities.AgentState) (ActionResult, error)
	GetHealth() HealthStatus
}

// healthTracker is embedded by each division to record the health of
// its last Analyze/Execute call without needing its own mutex at every
// call site.
type healthTracker struct {
	mu     sync.RWMutex
	status HealthStatus
}

func (h *healthTracker) recordHealth(now time.Time, latency time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = HealthStatus{
		Healthy:   err == nil,
		Latency:   latency,
		LastCheck: now,
	}
	if err != nil {
		h.status.Error = err.Error()
	}
}

func (h *healthTracker) GetHealth() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}
