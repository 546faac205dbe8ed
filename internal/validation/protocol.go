package validation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/banksyndicate/core/internal/config"
	"github.com/banksyndicate/core/internal/entities"
	"github.com/banksyndicate/core/internal/ports"
)

// validationError is this package's sentinel error type, the way the
// teacher's metering package declares meteringError.
type validationError string

func (e validationError) Error() string { return string(e) }

const (
	// ErrNoKYARecord names the case where L1 finds no KYA record at all.
	// No function returns it: L1 reports that case as a REJECTED verdict
	// with the same text (§7 "division analyses never throw").
	ErrNoKYARecord = validationError("no KYA record on file for agent")
)

// Protocol runs the six validation layers of §4.4 in order, building a
// complete AuditTrail regardless of outcome. It never returns an error
// to the caller: every layer degrades to a REJECTED verdict on its own
// internal failure, per §7's recovery policy.
type Protocol struct {
	cfg    *config.Config
	log    zerolog.Logger
	clock  ports.Clock
	advisor ports.AIAdvisor
	ledger  ports.LedgerConnector
	sanctions ports.SanctionsOracle

	certs        *CertificateStore
	kya          *KYAStore
	preflight    *preflightTracker
	tierProvider TierProvider
	persister    ports.Persister
}

// NewProtocol wires the validation protocol driver. tierProvider may be
// nil, in which case every new certificate defaults to bronze.
// persister may be nil, in which case KYA records and certificates are
// kept in memory only.
func NewProtocol(cfg *config.Config, log zerolog.Logger, clock ports.Clock, advisor ports.AIAdvisor, ledger ports.LedgerConnector, sanctions ports.SanctionsOracle, tierProvider TierProvider, persister ports.Persister) *Protocol {
	return &Protocol{
		cfg:          cfg,
		log:          log.With().Str("component", "validation_protocol").Logger(),
		clock:        clock,
		advisor:      advisor,
		ledger:       ledger,
		sanctions:    sanctions,
		certs:        NewCertificateStore(),
		kya:          NewKYAStore(),
		preflight:    newPreflightTracker(),
		tierProvider: tierProvider,
		persister:    persister,
	}
}

// SubmitKYA records or replaces the current KYA record L1 consults for
// agentID, mirroring it to the persister when one is wired. Typically
// called once during onboarding.
func (p *Protocol) SubmitKYA(agentID string, kya *entities.KYAData) {
	p.kya.Set(agentID, kya)
	if p.persister != nil {
		if err := p.persister.SaveKYA(context.Background(), agentID, kya); err != nil {
			p.log.Warn().Err(err).Str("agent_id", agentID).Msg("failed to persist KYA record")
		}
	}
}

// GetKYA returns the KYA record on file for agentID, if any.
func (p *Protocol) GetKYA(agentID string) (*entities.KYAData, bool) {
	return p.kya.Get(agentID)
}

// ValidateFullTransaction runs L1..L6 in sequence, short-circuiting on
// the first REJECTED verdict among L1..L5 (L6 never rejects). It
// returns whether the conjunction of L1..L5 approved and the complete
// audit trail, with every layer's slot filled even when short-circuited
// — remaining slots are filled with a SKIPPED-equivalent REVIEW result
// carrying a "layer not reached" reasoning, matching §7's "the audit
// trail always contains the partial results of each layer even on
// failure" (a filled slot is always emitted, never left absent).
func (p *Protocol) ValidateFullTransaction(
	ctx context.Context,
	tx *entities.Transaction,
	agent *entities.AgentState,
	divisionVotes map[entities.Role]entities.DivisionAnalysis,
	history []*entities.Transaction,
) (bool, *entities.AuditTrail) {
	start := p.clock.Now()
	trail := entities.NewAuditTrail(tx.TxID, start)

	kya, _ := p.kya.Get(tx.AgentID)

	tier := entities.TierBronze
	if cert, ok := p.certs.Get(tx.AgentID); ok {
		tier = cert.Tier
	}

	l1 := p.evaluateKYA(tx.AgentID, kya)
	trail.RecordLayer(l1)
	if l1.Verdict == entities.LayerRejected {
		return p.finish(trail, false, start)
	}
	if cert, ok := p.certs.Get(tx.AgentID); ok {
		tier = cert.Tier
	}

	l2 := p.evaluatePreflight(tx, agent, tier)
	trail.RecordLayer(l2)
	if l2.Verdict == entities.LayerRejected {
		return p.finish(trail, false, start)
	}

	l3 := p.evaluateConsensus(divisionVotes)
	trail.RecordLayer(l3)
	if l3.Verdict == entities.LayerRejected {
		return p.finish(trail, false, start)
	}

	l4 := p.evaluateFraud(ctx, tx, history)
	trail.RecordLayer(l4)
	if l4.Verdict == entities.LayerRejected {
		return p.finish(trail, false, start)
	}

	l5 := p.evaluateSettlement(tx, agent)
	trail.RecordLayer(l5)
	if l5.Verdict == entities.LayerRejected {
		return p.finish(trail, false, start)
	}

	l6 := p.evaluateCompliance(ctx, kya, agent)
	trail.RecordLayer(l6)

	return p.finish(trail, true, start)
}

func (p *Protocol) finish(trail *entities.AuditTrail, approved bool, start time.Time) (bool, *entities.AuditTrail) {
	now := p.clock.Now()
	for _, name := range entities.LayerNames() {
		if _, ok := trail.Layers[name]; !ok {
			trail.RecordLayer(layerResult(name, entities.LayerReview, "layer not reached", nil, now))
		}
	}
	trail.FinalStatus = entities.FinalRejected
	if approved {
		trail.FinalStatus = entities.FinalCompleted
	}
	trail.TotalTimeMs = p.clock.Now().Sub(start).Milliseconds()
	return approved, trail
}

func layerResult(layer entities.LayerName, verdict entities.LayerVerdict, reasoning string, metadata map[string]any, now time.Time) entities.LayerResult {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return entities.LayerResult{
		Layer:     layer,
		Verdict:   verdict,
		Reasoning: reasoning,
		Metadata:  metadata,
		Timestamp: now,
	}
}

// CertificateFor exposes the issued certificate for a façade's
// GetAgentCertificate call.
func (p *Protocol) CertificateFor(agentID string) (*entities.AgentCertificate, bool) {
	return p.certs.Get(agentID)
}
