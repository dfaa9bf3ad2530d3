package services

import (
	"github.com/inkwell-ai/inkwell-engine/pkg/apperrors"
	"github.com/inkwell-ai/inkwell-engine/pkg/config"
)

// EligibilityGate rejects aggregate analysis requests from users with too
// few analyzed entries. It runs before any cost is estimated or any
// external call is made.
type EligibilityGate struct {
	cfg config.BillingConfig
}

// NewEligibilityGate creates an EligibilityGate with the given policy.
func NewEligibilityGate(cfg config.BillingConfig) *EligibilityGate {
	return &EligibilityGate{cfg: cfg}
}

// Check fails with InsufficientEligibleEntries if analyzedCount is below
// the configured minimum. The returned error carries the counts so the
// caller can render a remediation.
func (g *EligibilityGate) Check(analyzedCount int) error {
	if analyzedCount < g.cfg.MinEligibleEntries {
		return apperrors.New(apperrors.CodeInsufficientEligibleEntries,
			"not enough analyzed entries for pattern analysis").
			WithContext("analyzedCount", analyzedCount).
			WithContext("required", g.cfg.MinEligibleEntries)
	}
	return nil
}
