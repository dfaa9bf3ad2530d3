package models

import (
	"time"

	"github.com/google/uuid"
)

// CreditBalance is the per-user metering state.
// Stored in credit_balances table. Remaining is never negative. It is
// decremented only by settlement in this service and mutated independently
// by the external billing collaborator on plan changes and period resets;
// both writers are idempotent with respect to retries.
type CreditBalance struct {
	UserID         uuid.UUID `json:"user_id"`
	Remaining      int       `json:"remaining"`
	UsedThisPeriod int       `json:"used_this_period"`
	LastResetDate  time.Time `json:"last_reset_date"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UsageAction categorizes billable and reconciliation events in the usage log.
type UsageAction string

const (
	// ActionPatternAnalysis is charged for a fresh aggregate generation.
	ActionPatternAnalysis UsageAction = "pattern_analysis"
	// ActionPatternUpgrade is charged for a forced regeneration onto a
	// newer payload schema.
	ActionPatternUpgrade UsageAction = "pattern_upgrade"
	// ActionSettlementFailure flags a generation whose balance write
	// failed, for manual reconciliation.
	ActionSettlementFailure UsageAction = "settlement_failure"
)

// UsageLogEntry is one append-only audit record of a metered action.
// Rows are write-once: never mutated or deleted. RequestKey deduplicates
// retried settlements for the same generation.
type UsageLogEntry struct {
	ID             uuid.UUID   `json:"id"`
	UserID         uuid.UUID   `json:"user_id"`
	Action         UsageAction `json:"action"`
	CreditsCharged int         `json:"credits_charged"`
	RequestKey     string      `json:"request_key"`
	CreatedAt      time.Time   `json:"created_at"`
}
