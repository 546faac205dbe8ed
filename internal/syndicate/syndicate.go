// Package syndicate wires every C1..C8 component into the single
// programmatic façade spec.md §6 describes: the Syndicate, validation
// protocol, and agentic commerce method groups a thin HTTP/CLI/SDK
// adapter would sit on top of. It owns the one piece of state none of
// the inner packages own themselves — the live agent registry — and
// wires the function-type dependencies (TierProvider, TransactionProcessor,
// AgentLookup, AgentLocker) that keep internal/validation and
// internal/commerce free of a circular import back into this package.
package syndicate

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/banksyndicate/core/internal/audit"
	"github.com/banksyndicate/core/internal/commerce"
	"github.com/banksyndicate/core/internal/config"
	"github.com/banksyndicate/core/internal/coordinator"
	"github.com/banksyndicate/core/internal/credit"
	"github.com/banksyndicate/core/internal/divisions"
	"github.com/banksyndicate/core/internal/entities"
	"github.com/banksyndicate/core/internal/ports"
	"github.com/banksyndicate/core/internal/validation"
)

// syndicateError is this package's sentinel error type.
type syndicateError string

func (e syndicateError) Error() string { return string(e) }

const (
	ErrAgentNotFound = syndicateError("syndicate: agent not found")
)

// maxConsensusVoters bounds how many other known agents get polled by
// ProcessAgenticCommerceTransaction's autonomous consensus gate.
const maxConsensusVoters = 3

// Syndicate is the top-level façade. Every exported method here is
// intended to be the thing a thin adapter (HTTP handler, CLI command,
// SDK call) calls directly.
type Syndicate struct {
	cfg   *config.Config
	log   zerolog.Logger
	clock ports.Clock

	frontOffice *divisions.FrontOffice
	risk        *divisions.RiskCompliance
	treasury    *divisions.Treasury
	clearing    *divisions.Clearing

	protocol    *validation.Protocol
	creditEngine *credit.Engine
	auditStore  *audit.Store
	coordinator *coordinator.Coordinator
	commerce    *commerce.Commerce

	persister ports.Persister

	registryMu sync.RWMutex
	registry   map[string]*entities.AgentState
}

// New wires every component bottom-up: divisions first, then the
// validation protocol and credit engine they don't depend on, then the
// coordinator that drives all of them, then commerce on top of the
// coordinator, with the agent registry closing the dependency loop via
// function-type injection rather than a direct import cycle.
func New(
	cfg *config.Config,
	log zerolog.Logger,
	clock ports.Clock,
	ledger ports.LedgerConnector,
	advisor ports.AIAdvisor,
	sanctions ports.SanctionsOracle,
	blacklist *divisions.Blacklist,
	persister ports.Persister,
) *Syndicate {
	s := &Syndicate{
		cfg:       cfg,
		log:       log.With().Str("component", "syndicate").Logger(),
		clock:     clock,
		persister: persister,
		registry:  make(map[string]*entities.AgentState),
	}

	s.frontOffice = divisions.NewFrontOffice(cfg, log, clock, ledger)
	s.risk = divisions.NewRiskCompliance(cfg, log, clock, advisor, blacklist)
	s.treasury = divisions.NewTreasury(cfg, log, clock, ledger)
	s.clearing = divisions.NewClearing(cfg, log, clock, ledger)

	s.creditEngine = credit.NewEngine(cfg, log)
	s.protocol = validation.NewProtocol(cfg, log, clock, advisor, ledger, sanctions, s.tierFor, persister)
	s.auditStore = audit.NewStore(0)

	s.coordinator = coordinator.New(cfg, log, clock, s.frontOffice, s.risk, s.treasury, s.clearing, s.protocol, s.creditEngine, s.auditStore, persister)
	s.commerce = commerce.New(cfg, log, clock, s.coordinator.ProcessTransaction, s.GetAgentState, s.coordinator.WithAgentLock, nil)

	return s
}

// tierFor is the validation.TierProvider wired from the credit engine's
// reputation-derived tier, keeping internal/validation free of an
// import back to internal/credit.
func (s *Syndicate) tierFor(agentID string) entities.Tier {
	agent, ok := s.GetAgentState(agentID)
	if !ok {
		return entities.TierBronze
	}
	return credit.DeriveTier(agent.ReputationScore)
}

func (s *Syndicate) putAgent(agent *entities.AgentState) {
	s.registryMu.Lock()
	defer s.registryMu.Unlock()
	s.registry[agent.AgentID] = agent
}

// GetAgentState returns the live AgentState for agentID, if onboarded.
// The returned pointer is the same one the coordinator mutates under
// its per-agent lock — callers must not mutate it outside that lock.
func (s *Syndicate) GetAgentState(agentID string) (*entities.AgentState, bool) {
	s.registryMu.RLock()
	defer s.registryMu.RUnlock()
	a, ok := s.registry[agentID]
	return a, ok
}

// AgentIDs returns every onboarded agent ID, in no particular order —
// used by the periodic billing sweep to iterate the registry without
// exposing it directly.
func (s *Syndicate) AgentIDs() []string {
	s.registryMu.RLock()
	defer s.registryMu.RUnlock()

	out := make([]string, 0, len(s.registry))
	for id := range s.registry {
		out = append(out, id)
	}
	return out
}

// otherAgentIDs returns up to n agent IDs from the registry excluding
// exclude, in no particular order — the candidate voter pool for
// ProcessAgenticCommerceTransaction's consensus gate.
func (s *Syndicate) otherAgentIDs(exclude string, n int) []string {
	s.registryMu.RLock()
	defer s.registryMu.RUnlock()

	out := make([]string, 0, n)
	for id := range s.registry {
		if id == exclude {
			continue
		}
		out = append(out, id)
		if len(out) == n {
			break
		}
	}
	return out
}
