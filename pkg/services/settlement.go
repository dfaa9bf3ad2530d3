package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkwell-ai/inkwell-engine/pkg/apperrors"
	"github.com/inkwell-ai/inkwell-engine/pkg/audit"
	"github.com/inkwell-ai/inkwell-engine/pkg/models"
	"github.com/inkwell-ai/inkwell-engine/pkg/repositories"
)

// SettlementService deducts credits and appends the usage audit entry for
// a freshly generated analysis. It never runs for cached results.
type SettlementService interface {
	// Settle charges cost credits for the generation identified by
	// requestKey. The charge is idempotent: retrying with the same key
	// charges nothing. A failed balance write returns SettlementError and
	// flags the generation for reconciliation; the caller still returns
	// the persisted analysis.
	Settle(ctx context.Context, userID uuid.UUID, action models.UsageAction, cost int, requestKey string) (int, error)
}

type settlementService struct {
	creditRepo repositories.CreditRepository
	auditor    *audit.UsageAuditor
	logger     *zap.Logger
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(creditRepo repositories.CreditRepository, auditor *audit.UsageAuditor, logger *zap.Logger) SettlementService {
	return &settlementService{
		creditRepo: creditRepo,
		auditor:    auditor,
		logger:     logger.Named("settlement"),
	}
}

var _ SettlementService = (*settlementService)(nil)

func (s *settlementService) Settle(ctx context.Context, userID uuid.UUID, action models.UsageAction, cost int, requestKey string) (int, error) {
	charged, err := s.creditRepo.Settle(ctx, &models.UsageLogEntry{
		UserID:         userID,
		Action:         action,
		CreditsCharged: cost,
		RequestKey:     requestKey,
	})
	if err != nil {
		s.auditor.FlagSettlementFailure(ctx, userID, cost, requestKey, err)
		return 0, apperrors.Wrap(apperrors.CodeSettlementError,
			"failed to settle credits for generated analysis", err)
	}

	if charged == 0 {
		s.logger.Info("Settlement already recorded for request key; no charge",
			zap.String("user_id", userID.String()),
			zap.String("request_key", requestKey))
		return 0, nil
	}

	s.auditor.RecordSettlement(userID, action, charged, requestKey)
	return charged, nil
}
