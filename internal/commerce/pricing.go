package commerce

// defaultCostPerCall is charged for any endpoint absent from the
// pricing table, matching the original pricing table's `gemini-pro`
// floor rate.
const defaultCostPerCall = 0.001

// DefaultPricing is the per-endpoint cost-per-call table carried over
// from the reference pricing sheet: four OpenAI/Anthropic models plus the
// gemini-pro floor rate used as the fallback for unknown endpoints.
func DefaultPricing() map[string]float64 {
	return map[string]float64{
		"gpt-4":           0.03,
		"gpt-3.5-turbo":   0.002,
		"claude-3-opus":   0.015,
		"claude-3-sonnet": 0.003,
		"gemini-pro":      0.001,
	}
}

func (c *Commerce) costPerCall(endpoint string) float64 {
	if cost, ok := c.pricing[endpoint]; ok {
		return cost
	}
	return defaultCostPerCall
}
