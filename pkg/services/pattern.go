package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/inkwell-ai/inkwell-engine/pkg/apperrors"
	"github.com/inkwell-ai/inkwell-engine/pkg/language"
	"github.com/inkwell-ai/inkwell-engine/pkg/llm"
	"github.com/inkwell-ai/inkwell-engine/pkg/models"
	"github.com/inkwell-ai/inkwell-engine/pkg/prompts"
	"github.com/inkwell-ai/inkwell-engine/pkg/repositories"
)

// AnalyzeResult is the outcome of one pipeline invocation.
type AnalyzeResult struct {
	// Analysis is the aggregate analysis row, cached or freshly persisted.
	Analysis *models.PatternAnalysis
	// Cached is true when the analysis was served from cache.
	Cached bool
	// UpgradeAvailable is true when the cached analysis is valid but on an
	// older payload schema; a forced refresh regenerates onto the current
	// schema, billed as usual.
	UpgradeAvailable bool
	// CreditsUsed is the number of credits charged by this invocation.
	// Always zero for cached results and for failed settlements.
	CreditsUsed int
	// EntriesAnalyzed is the count of eligible entries at invocation time.
	EntriesAnalyzed int
	// SettlementFailed is true when the analysis was generated and
	// persisted but the charge could not be recorded. The failure is
	// flagged for reconciliation; the analysis is not discarded.
	SettlementFailed bool
}

// PatternService runs the metered aggregate pattern-analysis pipeline.
type PatternService interface {
	// Analyze runs the full pipeline for the user: eligibility, cost
	// estimation, credit admission, cache resolution, and on a miss the
	// generate/validate/persist/settle path. forceRefresh bypasses the
	// cache but not admission - a forced regeneration is billed.
	Analyze(ctx context.Context, userID uuid.UUID, forceRefresh bool) (*AnalyzeResult, error)

	// Current returns the user's current cached analysis without running
	// the pipeline, with the upgrade flag derived the same way Analyze
	// derives it. Returns nil if no analysis exists.
	Current(ctx context.Context, userID uuid.UUID) (*AnalyzeResult, error)
}

type patternService struct {
	entryRepo   repositories.EntryRepository
	patternRepo repositories.PatternRepository
	creditRepo  repositories.CreditRepository
	gate        *EligibilityGate
	estimator   *CostEstimator
	resolver    *CacheResolver
	validator   *ResponseValidator
	settlement  SettlementService
	detector    language.Detector
	model       llm.Client
	recentCap   int
	version     int

	// group collapses concurrent misses for the same user into one
	// generation and one settlement.
	group  singleflight.Group
	logger *zap.Logger
}

// NewPatternService creates the pipeline orchestrator.
func NewPatternService(
	entryRepo repositories.EntryRepository,
	patternRepo repositories.PatternRepository,
	creditRepo repositories.CreditRepository,
	gate *EligibilityGate,
	estimator *CostEstimator,
	resolver *CacheResolver,
	validator *ResponseValidator,
	settlement SettlementService,
	detector language.Detector,
	model llm.Client,
	recentCap int,
	schemaVersion int,
	logger *zap.Logger,
) PatternService {
	return &patternService{
		entryRepo:   entryRepo,
		patternRepo: patternRepo,
		creditRepo:  creditRepo,
		gate:        gate,
		estimator:   estimator,
		resolver:    resolver,
		validator:   validator,
		settlement:  settlement,
		detector:    detector,
		model:       model,
		recentCap:   recentCap,
		version:     schemaVersion,
		logger:      logger.Named("pattern"),
	}
}

var _ PatternService = (*patternService)(nil)

func (s *patternService) Analyze(ctx context.Context, userID uuid.UUID, forceRefresh bool) (*AnalyzeResult, error) {
	// Eligibility runs before any cost is estimated or external call made.
	totalEligible, err := s.entryRepo.CountEligible(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePersistenceError, "failed to count eligible entries", err)
	}
	if err := s.gate.Check(totalEligible); err != nil {
		return nil, err
	}

	bundle, err := s.entryRepo.ListAnalyzedRecent(ctx, userID, s.recentCap)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePersistenceError, "failed to load analyzed entries", err)
	}

	estimate, err := s.estimator.Estimate(bundle)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePersistenceError, "failed to estimate generation cost", err)
	}

	cached, err := s.patternRepo.GetCurrent(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePersistenceError, "failed to load cached analysis", err)
	}

	// Cache reads are always free, so a confirmed hit skips admission.
	if !forceRefresh {
		switch s.resolver.Resolve(cached, totalEligible, time.Now()) {
		case CacheHit:
			s.logger.Debug("Cache hit", zap.String("user_id", userID.String()))
			return &AnalyzeResult{
				Analysis:        cached,
				Cached:          true,
				EntriesAnalyzed: totalEligible,
			}, nil
		case CacheHitUpgradeAvailable:
			s.logger.Debug("Cache hit on older schema; offering upgrade",
				zap.String("user_id", userID.String()),
				zap.Int("cached_version", cached.SchemaVersion))
			return &AnalyzeResult{
				Analysis:         cached,
				Cached:           true,
				UpgradeAvailable: true,
				EntriesAnalyzed:  totalEligible,
			}, nil
		}
	}

	// Admission: a forced regeneration is billed like any other miss.
	balance, err := s.creditRepo.Get(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePersistenceError, "failed to load credit balance", err)
	}
	if balance.Remaining < estimate.Cost {
		return nil, apperrors.New(apperrors.CodeInsufficientCredits,
			"not enough credits for pattern analysis").
			WithContext("cost", estimate.Cost).
			WithContext("remaining", balance.Remaining)
	}

	action := models.ActionPatternAnalysis
	if forceRefresh && cached != nil && cached.SchemaVersion != s.version {
		action = models.ActionPatternUpgrade
	}

	// Concurrent misses for the same user collapse into one generation
	// and one settlement.
	v, err, _ := s.group.Do(userID.String(), func() (any, error) {
		return s.generate(ctx, userID, bundle, estimate, totalEligible, action)
	})
	if err != nil {
		return nil, err
	}

	return v.(*AnalyzeResult), nil
}

// generate runs the miss path: language selection, prompt assembly, model
// invocation, validation, persistence, and settlement. Cancellation is
// all-or-nothing past the validator: an aborted call persists and settles
// nothing.
func (s *patternService) generate(
	ctx context.Context,
	userID uuid.UUID,
	bundle []models.AnalyzedEntry,
	estimate *CostEstimate,
	totalEligible int,
	action models.UsageAction,
) (*AnalyzeResult, error) {
	var text strings.Builder
	for _, ae := range bundle {
		text.WriteString(ae.Entry.Body)
		text.WriteString("\n")
	}
	lang := s.detector.Detect(text.String())

	prompt := prompts.BuildAnalysisPrompt(lang, estimate.BundleJSON)

	s.logger.Info("Generating pattern analysis",
		zap.String("user_id", userID.String()),
		zap.String("language", string(lang)),
		zap.Int("entries", len(bundle)),
		zap.Int("estimated_cost", estimate.Cost))

	raw, err := s.model.Complete(ctx, prompt.System, prompt.User)
	if err != nil {
		return nil, err
	}

	_, canonical, err := s.validator.Validate(raw)
	if err != nil {
		s.logger.Warn("Model response failed validation",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, err
	}

	// Past the validator nothing may be half-done: an aborted caller gets
	// neither a persisted row nor a charge. The taxonomy has no dedicated
	// cancellation code, so both abort flavors map to ModelTimeout; message
	// and context keep caller aborts distinguishable in reconciliation logs.
	if ctxErr := ctx.Err(); ctxErr != nil {
		msg := "request deadline exceeded before persistence"
		reason := "deadline"
		if errors.Is(ctxErr, context.Canceled) {
			msg = "request canceled by caller before persistence"
			reason = "canceled"
		}
		return nil, apperrors.Wrap(apperrors.CodeModelTimeout, msg, ctxErr).
			WithContext("abortReason", reason)
	}

	analysis := &models.PatternAnalysis{
		UserID:           userID,
		Payload:          canonical,
		EntriesCovered:   totalEligible,
		LatestSourceDate: latestEntryDate(bundle),
		SchemaVersion:    s.version,
		Language:         lang,
	}
	if err := s.patternRepo.Insert(ctx, analysis); err != nil {
		return nil, apperrors.Wrap(apperrors.CodePersistenceError, "failed to persist pattern analysis", err)
	}

	// Settlement re-uses the admission-time estimate: the formula is
	// deterministic for the input set, so the two amounts always match.
	charged, err := s.settlement.Settle(ctx, userID, action, estimate.Cost, analysis.ID.String())
	if err != nil {
		// The analysis is valid and persisted; billing bookkeeping failure
		// is reported, not silently ignored, and does not discard it.
		return &AnalyzeResult{
			Analysis:         analysis,
			Cached:           false,
			EntriesAnalyzed:  totalEligible,
			SettlementFailed: true,
		}, nil
	}

	return &AnalyzeResult{
		Analysis:        analysis,
		Cached:          false,
		CreditsUsed:     charged,
		EntriesAnalyzed: totalEligible,
	}, nil
}

func (s *patternService) Current(ctx context.Context, userID uuid.UUID) (*AnalyzeResult, error) {
	cached, err := s.patternRepo.GetCurrent(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePersistenceError, "failed to load cached analysis", err)
	}
	if cached == nil {
		return nil, nil
	}

	totalEligible, err := s.entryRepo.CountEligible(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePersistenceError, "failed to count eligible entries", err)
	}

	return &AnalyzeResult{
		Analysis:         cached,
		Cached:           true,
		UpgradeAvailable: s.resolver.Resolve(cached, totalEligible, time.Now()) == CacheHitUpgradeAvailable,
		EntriesAnalyzed:  totalEligible,
	}, nil
}

// latestEntryDate returns the newest entry date in the bundle.
func latestEntryDate(bundle []models.AnalyzedEntry) time.Time {
	var latest time.Time
	for _, ae := range bundle {
		if ae.Entry.EntryDate.After(latest) {
			latest = ae.Entry.EntryDate
		}
	}
	return latest
}
