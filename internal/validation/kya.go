package validation

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/banksyndicate/core/internal/entities"
)

var codeHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// TierProvider resolves an agent's current reputation tier; wired by
// the Syndicate facade to the Credit Engine's DeriveTier so this
// package never imports internal/credit.
type TierProvider func(agentID string) entities.Tier

// CertificateStore owns issued certificates; RWMutex-guarded the way
// the teacher's provider.Registry owns its provider map.
type CertificateStore struct {
	mu    sync.RWMutex
	certs map[string]*entities.AgentCertificate
}

func NewCertificateStore() *CertificateStore {
	return &CertificateStore{certs: make(map[string]*entities.AgentCertificate)}
}

func (s *CertificateStore) Get(agentID string) (*entities.AgentCertificate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.certs[agentID]
	return c, ok
}

func (s *CertificateStore) put(cert *entities.AgentCertificate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certs[cert.AgentID] = cert
}

// KYAStore owns the current KYA record per agent. The validation
// protocol façade signature (spec.md §6) takes no explicit KYA
// argument, so the record is looked up internally by agent id — callers
// submit it once via Protocol.SubmitKYA, typically during onboarding.
type KYAStore struct {
	mu      sync.RWMutex
	records map[string]*entities.KYAData
}

func NewKYAStore() *KYAStore {
	return &KYAStore{records: make(map[string]*entities.KYAData)}
}

func (s *KYAStore) Get(agentID string) (*entities.KYAData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[agentID]
	return r, ok
}

func (s *KYAStore) Set(agentID string, kya *entities.KYAData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[agentID] = kya
}

// evaluateKYA implements L1. On APPROVE it issues or refreshes the
// agent's certificate with the tier the TierProvider currently reports
// (defaulting to bronze when none is wired).
func (p *Protocol) evaluateKYA(agentID string, kya *entities.KYAData) entities.LayerResult {
	now := p.clock.Now()

	if kya == nil {
		return layerResult(entities.LayerKYA, entities.LayerRejected, "no KYA record on file for agent", nil, now)
	}

	if !codeHashPattern.MatchString(kya.CodeHash) {
		return layerResult(entities.LayerKYA, entities.LayerRejected, "code_hash is not 64 lowercase hex characters", nil, now)
	}

	verdict := entities.LayerApproved
	reasoning := "KYA record within acceptable thresholds"

	switch {
	case kya.AMLScore < 70:
		verdict = entities.LayerRejected
		reasoning = "AML score below the reject threshold of 70"
	case kya.AMLScore < 85:
		verdict = entities.LayerReview
		reasoning = "AML score requires manual review (below 85)"
	}

	if kya.SanctionsCheck != entities.SanctionsCleared {
		verdict = entities.LayerRejected
		reasoning = "sanctions check is not cleared"
	}

	if verdict != entities.LayerRejected && kya.RegulatoryApproval != "approved" {
		verdict = entities.LayerReview
		reasoning = "regulatory approval pending"
	}

	meta := map[string]any{"aml_score": kya.AMLScore, "sanctions_check": kya.SanctionsCheck}

	if verdict == entities.LayerApproved {
		tier := entities.TierBronze
		if p.tierProvider != nil {
			tier = p.tierProvider(agentID)
		}
		p.issueCertificate(agentID, tier, now)
		meta["tier"] = tier
	}

	return layerResult(entities.LayerKYA, verdict, reasoning, meta, now)
}

func (p *Protocol) issueCertificate(agentID string, tier entities.Tier, now time.Time) {
	existing, ok := p.certs.Get(agentID)
	if ok {
		existing.Tier = tier
		p.persistCertificate(existing)
		return
	}

	cert := &entities.AgentCertificate{
		CertificateID: "cert-" + p.clock.NewUUID(),
		AgentID:       agentID,
		Tier:          tier,
		IssuedDate:    now,
		ExpiryDate:    now.Add(entities.CertificateValidity),
		Permissions:   []string{"transact"},
	}
	p.certs.put(cert)
	p.persistCertificate(cert)
}

// persistCertificate mirrors cert to the persister when one is wired,
// the same fire-and-forget-with-a-warning posture SubmitKYA uses.
func (p *Protocol) persistCertificate(cert *entities.AgentCertificate) {
	if p.persister == nil {
		return
	}
	if err := p.persister.SaveCertificate(context.Background(), cert); err != nil {
		p.log.Warn().Err(err).Str("agent_id", cert.AgentID).Msg("failed to persist agent certificate")
	}
}
