package services

import (
	"encoding/json"
	"fmt"

	"github.com/inkwell-ai/inkwell-engine/pkg/config"
	"github.com/inkwell-ai/inkwell-engine/pkg/models"
)

// CostEstimate is the derived credit cost for one generation, together
// with the canonical serialization it was measured on. The same bundle
// bytes feed the prompt builder so admission and settlement always agree.
type CostEstimate struct {
	// Cost is the credit cost, never below the configured floor.
	Cost int
	// Tokens is the heuristic token count, not an exact provider count.
	Tokens int
	// Chars is the length of the canonical serialization.
	Chars int
	// BundleJSON is the canonical serialization of the entry bundle.
	BundleJSON string
}

// CostEstimator derives an integer credit cost from the serialized size of
// the data sent to the model. The formula is deterministic for a given
// input set: it is computed once and reused at admission and settlement.
type CostEstimator struct {
	cfg config.BillingConfig
}

// NewCostEstimator creates a CostEstimator with the given billing policy.
func NewCostEstimator(cfg config.BillingConfig) *CostEstimator {
	return &CostEstimator{cfg: cfg}
}

// Estimate serializes the bundle canonically and applies the cost formula:
// tokens = ceil(chars / CharsPerToken), cost = max(MinCost,
// ceil(tokens / TokensPerCredit)).
func (e *CostEstimator) Estimate(bundle []models.AnalyzedEntry) (*CostEstimate, error) {
	serialized, err := json.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize entry bundle: %w", err)
	}

	chars := len(serialized)
	tokens := ceilDiv(chars, e.cfg.CharsPerToken)
	cost := ceilDiv(tokens, e.cfg.TokensPerCredit)
	if cost < e.cfg.MinCost {
		cost = e.cfg.MinCost
	}

	return &CostEstimate{
		Cost:       cost,
		Tokens:     tokens,
		Chars:      chars,
		BundleJSON: string(serialized),
	}, nil
}

// ceilDiv returns ceil(a/b) for positive b.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
