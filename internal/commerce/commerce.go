// Package commerce implements the Agentic Commerce surface of §4.6: API
// usage metering, micropayment batching, agent-to-agent transfers,
// cross-agent autonomous consensus, and usage billing. It drives
// transactions through the same coordinator every other entrypoint
// uses rather than mutating balances directly, so every commerce
// operation obeys the same six-layer validation and S1..S5 bookkeeping
// as a manually submitted transaction.
package commerce

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/banksyndicate/core/internal/config"
	"github.com/banksyndicate/core/internal/entities"
	"github.com/banksyndicate/core/internal/ports"
)

// commerceError is this package's sentinel error type, following the
// teacher's metering package's grouped-const convention.
type commerceError string

func (e commerceError) Error() string { return string(e) }

const (
	ErrAgentNotFound       = commerceError("commerce: agent not found")
	ErrInsufficientBalance = commerceError("commerce: insufficient balance for transfer")
)

// TransactionProcessor is the coordinator entrypoint every commerce
// operation settles through; its shape matches
// coordinator.Coordinator.ProcessTransaction exactly so commerce never
// imports internal/coordinator directly and stays testable against a
// stub.
type TransactionProcessor func(ctx context.Context, tx *entities.Transaction, agent *entities.AgentState) (*entities.TransactionEvaluation, error)

// AgentLookup resolves an agent's current state, wired by the
// Syndicate façade to its agent registry.
type AgentLookup func(agentID string) (*entities.AgentState, bool)

// AgentLocker runs fn while holding agentID's per-agent mutex, wired to
// coordinator.Coordinator.WithAgentLock so the recipient side of a
// transfer is serialized against that agent's own in-flight
// transactions the same way the sender side already is.
type AgentLocker func(agentID string, fn func())

// Commerce owns API usage tracking, micropayment batches, agent-to-agent
// payment history, and per-agent billing watermarks. All mutation of
// AgentState itself still flows through the TransactionProcessor, except
// the transfer recipient credit, which runs under AgentLocker.
type Commerce struct {
	cfg       *config.Config
	log       zerolog.Logger
	clock     ports.Clock
	process   TransactionProcessor
	lookup    AgentLookup
	lockAgent AgentLocker
	pricing   map[string]float64

	usageMu sync.Mutex
	usage   map[string][]*entities.APIUsageRecord

	batchMu sync.Mutex
	batches map[string]*entities.MicropaymentBatch

	paymentsMu sync.Mutex
	payments   []*entities.AgentToAgentPayment

	billingMu   sync.Mutex
	lastBilling map[string]time.Time
}

// New wires a Commerce instance. pricing may be nil, in which case
// DefaultPricing() is used. lockAgent may be nil, in which case the
// recipient-credit step of a transfer runs unlocked (fine for tests
// that never race two operations on the same agent).
func New(cfg *config.Config, log zerolog.Logger, clock ports.Clock, process TransactionProcessor, lookup AgentLookup, lockAgent AgentLocker, pricing map[string]float64) *Commerce {
	if pricing == nil {
		pricing = DefaultPricing()
	}
	if lockAgent == nil {
		lockAgent = func(_ string, fn func()) { fn() }
	}
	return &Commerce{
		cfg:         cfg,
		log:         log.With().Str("component", "commerce").Logger(),
		clock:       clock,
		process:     process,
		lookup:      lookup,
		lockAgent:   lockAgent,
		pricing:     pricing,
		usage:       make(map[string][]*entities.APIUsageRecord),
		batches:     make(map[string]*entities.MicropaymentBatch),
		lastBilling: make(map[string]time.Time),
	}
}
