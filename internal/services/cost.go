package services

import (
	"recruitai/interview-orchestrator/internal/config"
	"recruitai/interview-orchestrator/internal/models"
)

// CostBreakdown is the estimated spend for one session.
type CostBreakdown struct {
	TotalCostUSD float64 `json:"total_cost_usd"`
	TotalCostMYR float64 `json:"total_cost_myr"`
}

// CostEstimator maps usage to an estimated cost using fixed configured
// rates. It is pure: deterministic, no side effects, zero usage costs zero.
type CostEstimator struct {
	rates config.PricingConfig
}

func NewCostEstimator(rates config.PricingConfig) *CostEstimator {
	return &CostEstimator{rates: rates}
}

// Estimate computes the cost for the given usage. Negative usage components
// are treated as zero so the result is never negative.
func (e *CostEstimator) Estimate(usage models.UsageData) CostBreakdown {
	inputTokens := usage.InputTokens
	if inputTokens < 0 {
		inputTokens = 0
	}
	outputTokens := usage.OutputTokens
	if outputTokens < 0 {
		outputTokens = 0
	}
	audioSeconds := usage.AudioSeconds
	if audioSeconds < 0 {
		audioSeconds = 0
	}

	usd := float64(inputTokens)*e.rates.InputUSDPerToken +
		float64(outputTokens)*e.rates.OutputUSDPerToken +
		audioSeconds*e.rates.AudioUSDPerSecond

	return CostBreakdown{
		TotalCostUSD: usd,
		TotalCostMYR: usd * e.rates.USDToMYR,
	}
}
