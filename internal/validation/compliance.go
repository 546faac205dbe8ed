package validation

import (
	"context"

	"github.com/banksyndicate/core/internal/entities"
)

const (
	complianceFullScore       = 100
	missingKYCPenalty         = 40
	lowAMLPenalty             = 25
	sanctionsFlaggedPenalty   = 100
	pepPenalty                = 30
	unapprovedJurisdiction    = 15
	amlReviewThreshold        = 85
)

// evaluateCompliance implements L6: it enriches the audit trail with
// categorical compliance flags and a 0..100 audit score but never
// blocks, per §4.4 "Always APPROVES; never blocks — it only enriches
// the trail." A SanctionsOracle cross-check against the agent's wallet
// is folded in alongside the KYA record's own sanctions_check field, so
// a wallet flagged independently of its KYA record still surfaces.
func (p *Protocol) evaluateCompliance(ctx context.Context, kya *entities.KYAData, agent *entities.AgentState) entities.LayerResult {
	now := p.clock.Now()

	score := complianceFullScore
	flags := map[string]any{
		"kyc_present": kya != nil,
		"pep":         false,
	}

	if kya == nil {
		score -= missingKYCPenalty
		flags["sanctions_check"] = entities.SanctionsPending
		flags["jurisdiction_allowed"] = false
	} else {
		flags["aml_score"] = kya.AMLScore
		flags["sanctions_check"] = kya.SanctionsCheck
		flags["jurisdiction_allowed"] = kya.Jurisdiction != ""

		if kya.AMLScore < amlReviewThreshold {
			score -= lowAMLPenalty
		}
		if kya.SanctionsCheck != entities.SanctionsCleared {
			score -= sanctionsFlaggedPenalty
		}
		if kya.Jurisdiction == "" {
			score -= unapprovedJurisdiction
		}
	}

	if p.sanctions != nil && agent != nil && agent.WalletAddress != "" {
		if status, err := p.sanctions.Check(ctx, agent.WalletAddress); err == nil && status == entities.SanctionsFlagged {
			flags["wallet_sanctions_check"] = status
			score -= sanctionsFlaggedPenalty
		}
	}

	if score < 0 {
		score = 0
	}

	return layerResult(entities.LayerCompliance, entities.LayerApproved,
		"compliance flags recorded, layer never blocks", mergeMeta(flags, map[string]any{"audit_score": score}), now)
}

func mergeMeta(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
