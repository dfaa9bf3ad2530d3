package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inkwell-ai/inkwell-engine/pkg/apperrors"
	"github.com/inkwell-ai/inkwell-engine/pkg/audit"
	"github.com/inkwell-ai/inkwell-engine/pkg/language"
	"github.com/inkwell-ai/inkwell-engine/pkg/llm"
	"github.com/inkwell-ai/inkwell-engine/pkg/models"
)

// pipelineFixture wires the orchestrator with mock collaborators.
type pipelineFixture struct {
	entryRepo   *mockEntryRepo
	patternRepo *mockPatternRepo
	creditRepo  *mockCreditRepo
	usageRepo   *mockUsageLogRepo
	model       *llm.MockClient
	service     PatternService
	userID      uuid.UUID
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	f := &pipelineFixture{
		entryRepo:   &mockEntryRepo{},
		patternRepo: &mockPatternRepo{},
		creditRepo:  &mockCreditRepo{balance: &models.CreditBalance{Remaining: 10}},
		usageRepo:   &mockUsageLogRepo{},
		model:       llm.NewMockClient(),
		userID:      uuid.New(),
	}

	logger := zap.NewNop()
	auditor := audit.NewUsageAuditor(f.usageRepo, logger)
	settlement := NewSettlementService(f.creditRepo, auditor, logger)

	f.service = NewPatternService(
		f.entryRepo,
		f.patternRepo,
		f.creditRepo,
		NewEligibilityGate(defaultBilling()),
		NewCostEstimator(defaultBilling()),
		NewCacheResolver(defaultCachePolicy()),
		NewResponseValidator(),
		settlement,
		language.NewRegexDetector(),
		f.model,
		defaultBilling().RecentEntryCap,
		defaultCachePolicy().CurrentSchemaVersion,
		logger,
	)
	return f
}

// respondValid makes the mock model return a conformant payload.
func (f *pipelineFixture) respondValid(t *testing.T) {
	t.Helper()
	body := mustJSON(t, validPayloadV2())
	f.model.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
		return body, nil
	}
}

func TestAnalyzeRejectsTooFewEntries(t *testing.T) {
	f := newPipelineFixture(t)
	f.entryRepo.eligible = 9

	_, err := f.service.Analyze(context.Background(), f.userID, false)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInsufficientEligibleEntries, apperrors.CodeOf(err))

	// Nothing past the gate runs: no bundle load, no provider call.
	assert.Equal(t, 0, f.entryRepo.listCalls)
	assert.Equal(t, 0, f.model.CompleteCalls)
	assert.Equal(t, 0, f.creditRepo.settleCalls)
}

func TestAnalyzeFreshGenerationAtFloorCost(t *testing.T) {
	f := newPipelineFixture(t)
	f.entryRepo.eligible = 12
	f.entryRepo.entries = makeBundle(12, 400)
	f.respondValid(t)

	result, err := f.service.Analyze(context.Background(), f.userID, false)
	require.NoError(t, err)

	assert.False(t, result.Cached)
	assert.Equal(t, 2, result.CreditsUsed)
	assert.Equal(t, 12, result.EntriesAnalyzed)
	assert.False(t, result.SettlementFailed)

	require.Equal(t, 1, f.patternRepo.insertCalls)
	persisted := f.patternRepo.inserted[0]
	assert.Equal(t, 12, persisted.EntriesCovered)
	assert.Equal(t, 2, persisted.SchemaVersion)
	assert.False(t, persisted.LatestSourceDate.IsZero())

	require.Len(t, f.creditRepo.settled, 1)
	assert.Equal(t, models.ActionPatternAnalysis, f.creditRepo.settled[0].Action)
	assert.Equal(t, 2, f.creditRepo.settled[0].CreditsCharged)
	assert.Equal(t, persisted.ID.String(), f.creditRepo.settled[0].RequestKey)
}

func TestAnalyzeCacheHitIsFree(t *testing.T) {
	f := newPipelineFixture(t)
	f.entryRepo.eligible = 40
	f.entryRepo.entries = makeBundle(30, 400)
	f.patternRepo.current = &models.PatternAnalysis{
		ID:             uuid.New(),
		UserID:         f.userID,
		EntriesCovered: 38, // 95% coverage
		SchemaVersion:  2,
		CreatedAt:      time.Now().Add(-48 * time.Hour),
	}

	result, err := f.service.Analyze(context.Background(), f.userID, false)
	require.NoError(t, err)

	assert.True(t, result.Cached)
	assert.False(t, result.UpgradeAvailable)
	assert.Equal(t, 0, result.CreditsUsed)
	assert.Equal(t, 0, f.model.CompleteCalls)
	assert.Equal(t, 0, f.creditRepo.settleCalls)
	assert.Equal(t, 0, f.patternRepo.insertCalls)
}

func TestAnalyzeCacheHitSkipsAdmission(t *testing.T) {
	f := newPipelineFixture(t)
	f.entryRepo.eligible = 20
	f.entryRepo.entries = makeBundle(20, 400)
	f.creditRepo.balance = &models.CreditBalance{Remaining: 0}
	f.patternRepo.current = &models.PatternAnalysis{
		ID:             uuid.New(),
		UserID:         f.userID,
		EntriesCovered: 20,
		SchemaVersion:  2,
		CreatedAt:      time.Now().Add(-time.Hour),
	}

	// Zero balance, but cache reads are always free.
	result, err := f.service.Analyze(context.Background(), f.userID, false)
	require.NoError(t, err)
	assert.True(t, result.Cached)
	assert.Equal(t, 0, result.CreditsUsed)
}

func TestAnalyzeOldSchemaOffersUpgradeWithoutRegenerating(t *testing.T) {
	f := newPipelineFixture(t)
	f.entryRepo.eligible = 20
	f.entryRepo.entries = makeBundle(20, 400)
	f.patternRepo.current = &models.PatternAnalysis{
		ID:             uuid.New(),
		UserID:         f.userID,
		EntriesCovered: 20,
		SchemaVersion:  1,
		CreatedAt:      time.Now().Add(-time.Hour),
	}

	result, err := f.service.Analyze(context.Background(), f.userID, false)
	require.NoError(t, err)

	assert.True(t, result.Cached)
	assert.True(t, result.UpgradeAvailable)
	assert.Equal(t, 0, result.CreditsUsed)
	// Auto-regenerating here would silently charge the user.
	assert.Equal(t, 0, f.model.CompleteCalls)
	assert.Equal(t, 0, f.creditRepo.settleCalls)
}

func TestAnalyzeForcedUpgradeIsBilledAsUpgrade(t *testing.T) {
	f := newPipelineFixture(t)
	f.entryRepo.eligible = 20
	f.entryRepo.entries = makeBundle(20, 400)
	f.patternRepo.current = &models.PatternAnalysis{
		ID:             uuid.New(),
		UserID:         f.userID,
		EntriesCovered: 20,
		SchemaVersion:  1,
		CreatedAt:      time.Now().Add(-time.Hour),
	}
	f.respondValid(t)

	result, err := f.service.Analyze(context.Background(), f.userID, true)
	require.NoError(t, err)

	assert.False(t, result.Cached)
	assert.Equal(t, 2, result.CreditsUsed)
	require.Len(t, f.creditRepo.settled, 1)
	assert.Equal(t, models.ActionPatternUpgrade, f.creditRepo.settled[0].Action)
}

func TestAnalyzeForceRefreshStillRequiresAdmission(t *testing.T) {
	f := newPipelineFixture(t)
	f.entryRepo.eligible = 20
	f.entryRepo.entries = makeBundle(20, 400)
	f.creditRepo.balance = &models.CreditBalance{Remaining: 1}
	f.patternRepo.current = &models.PatternAnalysis{
		ID:             uuid.New(),
		UserID:         f.userID,
		EntriesCovered: 20,
		SchemaVersion:  2,
		CreatedAt:      time.Now().Add(-time.Hour),
	}

	_, err := f.service.Analyze(context.Background(), f.userID, true)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInsufficientCredits, apperrors.CodeOf(err))
	assert.Equal(t, 0, f.model.CompleteCalls)
}

func TestAnalyzeInsufficientCreditsCarriesCost(t *testing.T) {
	f := newPipelineFixture(t)
	f.entryRepo.eligible = 12
	f.entryRepo.entries = makeBundle(12, 400)
	f.creditRepo.balance = &models.CreditBalance{Remaining: 1}

	_, err := f.service.Analyze(context.Background(), f.userID, false)
	require.Error(t, err)

	pe := apperrors.AsPipelineError(err)
	assert.Equal(t, apperrors.CodeInsufficientCredits, pe.Code)
	assert.Equal(t, 2, pe.Context["cost"])
	assert.Equal(t, 1, pe.Context["remaining"])
	assert.Equal(t, 0, f.model.CompleteCalls)
}

func TestAnalyzeRejectsInvalidModelOutput(t *testing.T) {
	f := newPipelineFixture(t)
	f.entryRepo.eligible = 12
	f.entryRepo.entries = makeBundle(12, 400)

	short := validPayloadV2()
	short.Themes = short.Themes[:5]
	body := mustJSON(t, short)
	f.model.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
		return body, nil
	}

	_, err := f.service.Analyze(context.Background(), f.userID, false)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeSchemaValidationFailed, apperrors.CodeOf(err))

	// A rejected response is never persisted and never billed.
	assert.Equal(t, 0, f.patternRepo.insertCalls)
	assert.Equal(t, 0, f.creditRepo.settleCalls)
}

func TestAnalyzePropagatesModelErrorCode(t *testing.T) {
	f := newPipelineFixture(t)
	f.entryRepo.eligible = 12
	f.entryRepo.entries = makeBundle(12, 400)
	f.model.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
		return "", apperrors.New(apperrors.CodeModelRateLimited, "model provider rate limited")
	}

	_, err := f.service.Analyze(context.Background(), f.userID, false)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeModelRateLimited, apperrors.CodeOf(err))
	assert.Equal(t, 0, f.patternRepo.insertCalls)
}

func TestAnalyzeSettlementFailureKeepsResult(t *testing.T) {
	f := newPipelineFixture(t)
	f.entryRepo.eligible = 12
	f.entryRepo.entries = makeBundle(12, 400)
	f.creditRepo.settleErr = errors.New("balance write failed")
	f.respondValid(t)

	result, err := f.service.Analyze(context.Background(), f.userID, false)
	require.NoError(t, err)

	// The analysis survives the bookkeeping failure and is flagged.
	assert.False(t, result.Cached)
	assert.True(t, result.SettlementFailed)
	assert.Equal(t, 0, result.CreditsUsed)
	assert.Equal(t, 1, f.patternRepo.insertCalls)

	require.Len(t, f.usageRepo.appended, 1)
	assert.Equal(t, models.ActionSettlementFailure, f.usageRepo.appended[0].Action)
	assert.Equal(t, 0, f.usageRepo.appended[0].CreditsCharged)
}

func TestAnalyzeCallerAbortPersistsAndChargesNothing(t *testing.T) {
	f := newPipelineFixture(t)
	f.entryRepo.eligible = 12
	f.entryRepo.entries = makeBundle(12, 400)

	ctx, cancel := context.WithCancel(context.Background())
	body := mustJSON(t, validPayloadV2())
	f.model.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
		// The caller walks away while the model call is in flight; the
		// response still arrives, but nothing past it may run.
		cancel()
		return body, nil
	}

	_, err := f.service.Analyze(ctx, f.userID, false)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeModelTimeout, apperrors.CodeOf(err))

	pe := apperrors.AsPipelineError(err)
	assert.Equal(t, "canceled", pe.Context["abortReason"])
	assert.Equal(t, 0, f.patternRepo.insertCalls)
	assert.Equal(t, 0, f.creditRepo.settleCalls)
}

func TestCurrentReturnsNilWithoutAnalysis(t *testing.T) {
	f := newPipelineFixture(t)

	result, err := f.service.Current(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCurrentDerivesUpgradeFlag(t *testing.T) {
	f := newPipelineFixture(t)
	f.entryRepo.eligible = 20
	f.patternRepo.current = &models.PatternAnalysis{
		ID:             uuid.New(),
		UserID:         f.userID,
		EntriesCovered: 20,
		SchemaVersion:  1,
		CreatedAt:      time.Now().Add(-time.Hour),
	}

	result, err := f.service.Current(context.Background(), f.userID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Cached)
	assert.True(t, result.UpgradeAvailable)
}
