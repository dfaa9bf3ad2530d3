// Package audit provides billing audit logging for reconciliation.
// Events are logged in structured JSON so billing discrepancies can be
// traced; audit failures are swallowed with a local log line and never
// interrupt the primary flow.
package audit

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkwell-ai/inkwell-engine/pkg/models"
	"github.com/inkwell-ai/inkwell-engine/pkg/repositories"
)

// UsageAuditor records billing-relevant events for reconciliation.
type UsageAuditor struct {
	usageRepo repositories.UsageLogRepository
	logger    *zap.Logger
}

// NewUsageAuditor creates a UsageAuditor with a dedicated logger namespace.
func NewUsageAuditor(usageRepo repositories.UsageLogRepository, logger *zap.Logger) *UsageAuditor {
	return &UsageAuditor{
		usageRepo: usageRepo,
		logger:    logger.Named("billing_audit"),
	}
}

// RecordSettlement logs a successful charge.
func (a *UsageAuditor) RecordSettlement(userID uuid.UUID, action models.UsageAction, credits int, requestKey string) {
	a.logger.Info("Credits settled",
		zap.String("user_id", userID.String()),
		zap.String("action", string(action)),
		zap.Int("credits_charged", credits),
		zap.String("request_key", requestKey))
}

// FlagSettlementFailure records that a generation was delivered but its
// balance write failed, so the charge must be reconciled manually. The
// usage log row is best-effort: if it cannot be written either, the event
// still lands in the structured log.
func (a *UsageAuditor) FlagSettlementFailure(ctx context.Context, userID uuid.UUID, credits int, requestKey string, cause error) {
	a.logger.Error("Settlement failed after persisted generation; flagged for reconciliation",
		zap.String("user_id", userID.String()),
		zap.Int("credits_unsettled", credits),
		zap.String("request_key", requestKey),
		zap.Error(cause))

	err := a.usageRepo.Append(ctx, &models.UsageLogEntry{
		UserID:         userID,
		Action:         models.ActionSettlementFailure,
		CreditsCharged: 0,
		RequestKey:     requestKey,
	})
	if err != nil {
		a.logger.Warn("Failed to write settlement-failure audit row",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}
