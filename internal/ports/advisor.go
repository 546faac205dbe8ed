package ports

import (
	"context"
	"strings"

	"github.com/banksyndicate/core/internal/entities"
)

// FraudRecommendation is AIAdvisor.DetectFraud's qualitative verdict.
type FraudRecommendation string

const (
	FraudAllow  FraudRecommendation = "allow"
	FraudReview FraudRecommendation = "review"
	FraudBlock  FraudRecommendation = "block"
)

// FraudAssessment is the result of a fraud-probability scoring pass,
// consulted by both Risk & Compliance (§4.2.2) and the L4 validation
// layer (§4.4).
type FraudAssessment struct {
	Probability    float64
	Severity       string
	Recommendation FraudRecommendation
	Reasoning      string
}

// SupplierAssessment scores a counterparty's trustworthiness.
type SupplierAssessment struct {
	Risk      float64
	Reasoning string
}

// PaymentAnalysis is a free-form advisory opinion on a transaction,
// used for reasoning enrichment rather than gating decisions.
type PaymentAnalysis struct {
	Summary        string
	SuggestedLimit float64
}

// ResourceOptimization suggests efficiency improvements for an agent.
type ResourceOptimization struct {
	Suggestions []string
}

// AIAdvisor is the single port every direct LLM call in the original
// system was collapsed into (§9). The concrete Gemini/Claude/OpenAI
// client is out of scope; RuleBasedAdvisor is the deterministic
// fallback every method must have, and is the only implementation
// this core ships — a real advisor slots in behind the same interface
// without the caller changing.
type AIAdvisor interface {
	AnalyzePayment(ctx context.Context, tx *entities.Transaction, agent *entities.AgentState) (PaymentAnalysis, error)
	DetectFraud(ctx context.Context, tx *entities.Transaction, history []*entities.Transaction) (FraudAssessment, error)
	OptimizeResources(ctx context.Context, agent *entities.AgentState) (ResourceOptimization, error)
	AssessSupplier(ctx context.Context, supplier string, history []float64) (SupplierAssessment, error)
}

var trustedSupplierPrefixes = []string{"AWS", "Google Cloud", "Microsoft", "OpenAI"}

// RuleBasedAdvisor implements AIAdvisor entirely with the deterministic
// rules spec.md §4.2.2 step 6 names as the "no AI present" fallback.
// Because no concrete LLM provider is in scope, this fallback *is* the
// advisor for this core.
type RuleBasedAdvisor struct{}

func NewRuleBasedAdvisor() *RuleBasedAdvisor { return &RuleBasedAdvisor{} }

func (RuleBasedAdvisor) AnalyzePayment(_ context.Context, tx *entities.Transaction, agent *entities.AgentState) (PaymentAnalysis, error) {
	return PaymentAnalysis{
		Summary:        "rule-based review: no anomalies beyond standard division checks",
		SuggestedLimit: agent.CreditLimit,
	}, nil
}

// DetectFraud scores fraud probability from one simple, explainable
// signal: the amount relative to the recent history's average. The
// timing of transactions is not considered. This is the fallback the
// Risk & Compliance division and the L4 layer both consult identically.
func (RuleBasedAdvisor) DetectFraud(_ context.Context, tx *entities.Transaction, history []*entities.Transaction) (FraudAssessment, error) {
	var avg float64
	if len(history) > 0 {
		var sum float64
		for _, h := range history {
			sum += h.Amount
		}
		avg = sum / float64(len(history))
	}

	prob := 0.0
	reasoning := "amount within historical norm"
	if avg > 0 && tx.Amount > avg*5 {
		prob = 0.6
		reasoning = "amount is more than 5x the agent's recent average"
	} else if avg > 0 && tx.Amount > avg*2 {
		prob = 0.3
		reasoning = "amount is more than 2x the agent's recent average"
	}

	rec := FraudAllow
	severity := "low"
	switch {
	case prob >= 0.7:
		rec, severity = FraudBlock, "high"
	case prob >= 0.4:
		rec, severity = FraudReview, "medium"
	}

	return FraudAssessment{Probability: prob, Severity: severity, Recommendation: rec, Reasoning: reasoning}, nil
}

func (RuleBasedAdvisor) OptimizeResources(_ context.Context, agent *entities.AgentState) (ResourceOptimization, error) {
	var suggestions []string
	if agent.Efficiency(0, 0) < 0 {
		suggestions = append(suggestions, "reduce transaction failure rate to improve efficiency")
	}
	if agent.InvestedBalance == 0 && agent.AvailableBalance > 0 {
		suggestions = append(suggestions, "consider depositing idle balance into yield")
	}
	return ResourceOptimization{Suggestions: suggestions}, nil
}

// AssessSupplier implements the exact rule table from §4.2.2 step 6:
// known-trusted prefixes score low, hex addresses ending in "0000"
// score high (mimics a burner/farmed address), other hex addresses are
// medium, anything else is a coinflip default.
func (RuleBasedAdvisor) AssessSupplier(_ context.Context, supplier string, _ []float64) (SupplierAssessment, error) {
	for _, prefix := range trustedSupplierPrefixes {
		if strings.HasPrefix(supplier, prefix) {
			return SupplierAssessment{Risk: 0.1, Reasoning: "known trusted supplier prefix"}, nil
		}
	}

	isHex := strings.HasPrefix(supplier, "0x") && len(supplier) >= 3
	if isHex {
		if strings.HasSuffix(supplier, "0000") {
			return SupplierAssessment{Risk: 0.8, Reasoning: "hex address with suspicious trailing zeros"}, nil
		}
		return SupplierAssessment{Risk: 0.3, Reasoning: "unrecognized hex address"}, nil
	}

	return SupplierAssessment{Risk: 0.5, Reasoning: "unrecognized supplier identifier"}, nil
}

var _ AIAdvisor = RuleBasedAdvisor{}
