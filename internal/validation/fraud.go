package validation

import (
	"context"

	"github.com/banksyndicate/core/internal/entities"
)

const (
	fraudRejectThreshold = 0.7
	fraudReviewThreshold = 0.4
)

// evaluateFraud implements L4: the same AIAdvisor.DetectFraud consulted
// by Risk & Compliance in §4.2.2, here gating the protocol independently
// on the raw probability rather than a blended risk score. An advisor
// failure recovers locally to an APPROVE with an alert, per §7 — the AI
// advisor being unreachable never blocks a transaction on its own.
func (p *Protocol) evaluateFraud(ctx context.Context, tx *entities.Transaction, history []*entities.Transaction) entities.LayerResult {
	now := p.clock.Now()

	assessment, err := p.advisor.DetectFraud(ctx, tx, history)
	if err != nil {
		return layerResult(entities.LayerFraud, entities.LayerApproved,
			"fraud advisor unreachable, approved without its signal", map[string]any{"alert": "advisor_unreachable"}, now)
	}

	verdict := entities.LayerApproved
	reasoning := "fraud probability within acceptable range"
	switch {
	case assessment.Probability >= fraudRejectThreshold:
		verdict = entities.LayerRejected
		reasoning = "fraud probability at or above reject threshold: " + assessment.Reasoning
	case assessment.Probability >= fraudReviewThreshold:
		verdict = entities.LayerReview
		reasoning = "fraud probability requires manual review: " + assessment.Reasoning
	}

	return layerResult(entities.LayerFraud, verdict, reasoning, map[string]any{
		"probability":    assessment.Probability,
		"severity":       assessment.Severity,
		"recommendation": assessment.Recommendation,
	}, now)
}
