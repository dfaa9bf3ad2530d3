package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkwell-ai/inkwell-engine/pkg/auth"
	"github.com/inkwell-ai/inkwell-engine/pkg/repositories"
	"github.com/inkwell-ai/inkwell-engine/pkg/services"
)

// AnalyzeRequest is the body of POST /api/patterns/analyze.
type AnalyzeRequest struct {
	ForceRefresh bool `json:"forceRefresh"`
}

// AnalyzeResponse is the success body for pattern analysis requests.
type AnalyzeResponse struct {
	Analysis         json.RawMessage `json:"analysis"`
	SchemaVersion    int             `json:"schemaVersion"`
	Language         string          `json:"language"`
	GeneratedAt      time.Time       `json:"generatedAt"`
	Cached           bool            `json:"cached"`
	UpgradeAvailable bool            `json:"upgradeAvailable,omitempty"`
	CreditsUsed      int             `json:"creditsUsed"`
	EntriesAnalyzed  int             `json:"entriesAnalyzed"`
	SettlementError  bool            `json:"settlementError,omitempty"`
}

// CreditsResponse is the body of GET /api/credits.
type CreditsResponse struct {
	Remaining      int       `json:"remaining"`
	UsedThisPeriod int       `json:"usedThisPeriod"`
	LastResetDate  time.Time `json:"lastResetDate"`
}

// HistoryItem is one superseded or current analysis in GET /api/patterns/history.
// Payloads are omitted; the full payload is only served for the current row.
type HistoryItem struct {
	ID              uuid.UUID `json:"id"`
	SchemaVersion   int       `json:"schemaVersion"`
	Language        string    `json:"language"`
	GeneratedAt     time.Time `json:"generatedAt"`
	EntriesAnalyzed int       `json:"entriesAnalyzed"`
}

// UsageItem is one settlement record in GET /api/usage.
type UsageItem struct {
	Action         string    `json:"action"`
	CreditsCharged int       `json:"creditsCharged"`
	CreatedAt      time.Time `json:"createdAt"`
}

// historyLimit caps the rows returned by the history and usage listings.
const historyLimit = 20

// PatternHandler exposes the pattern-analysis pipeline over HTTP.
type PatternHandler struct {
	service     services.PatternService
	patternRepo repositories.PatternRepository
	creditRepo  repositories.CreditRepository
	usageRepo   repositories.UsageLogRepository
	authMW      *auth.Middleware
	logger      *zap.Logger
}

// NewPatternHandler creates a new PatternHandler.
func NewPatternHandler(
	service services.PatternService,
	patternRepo repositories.PatternRepository,
	creditRepo repositories.CreditRepository,
	usageRepo repositories.UsageLogRepository,
	authMW *auth.Middleware,
	logger *zap.Logger,
) *PatternHandler {
	return &PatternHandler{
		service:     service,
		patternRepo: patternRepo,
		creditRepo:  creditRepo,
		usageRepo:   usageRepo,
		authMW:      authMW,
		logger:      logger.Named("pattern_handler"),
	}
}

// RegisterRoutes registers the pattern handler's routes on the given mux.
func (h *PatternHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/patterns/analyze", h.authMW.RequireAuth(h.Analyze))
	mux.HandleFunc("GET /api/patterns/current", h.authMW.RequireAuth(h.Current))
	mux.HandleFunc("GET /api/patterns/history", h.authMW.RequireAuth(h.History))
	mux.HandleFunc("GET /api/credits", h.authMW.RequireAuth(h.Credits))
	mux.HandleFunc("GET /api/usage", h.authMW.RequireAuth(h.Usage))
}

// Analyze handles POST /api/patterns/analyze.
func (h *PatternHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserUUIDFromContext(r.Context())
	if !ok {
		h.writeAuthError(w)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		_ = WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error":     "invalid request body",
			"errorCode": "BadRequest",
		})
		return
	}

	result, err := h.service.Analyze(r.Context(), userID, req.ForceRefresh)
	if err != nil {
		h.logger.Info("Pattern analysis failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		_ = WritePipelineError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, analyzeResponse(result)); err != nil {
		h.logger.Error("Failed to encode analyze response", zap.Error(err))
	}
}

// Current handles GET /api/patterns/current. The read is free and never
// triggers generation.
func (h *PatternHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserUUIDFromContext(r.Context())
	if !ok {
		h.writeAuthError(w)
		return
	}

	result, err := h.service.Current(r.Context(), userID)
	if err != nil {
		_ = WritePipelineError(w, err)
		return
	}
	if result == nil {
		_ = WriteJSON(w, http.StatusNotFound, map[string]string{
			"error":     "no pattern analysis exists yet",
			"errorCode": "NotFound",
		})
		return
	}

	if err := WriteJSON(w, http.StatusOK, analyzeResponse(result)); err != nil {
		h.logger.Error("Failed to encode current-analysis response", zap.Error(err))
	}
}

// History handles GET /api/patterns/history. Superseded rows are retained
// and listed newest first.
func (h *PatternHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserUUIDFromContext(r.Context())
	if !ok {
		h.writeAuthError(w)
		return
	}

	analyses, err := h.patternRepo.ListHistory(r.Context(), userID, historyLimit)
	if err != nil {
		_ = WritePipelineError(w, err)
		return
	}

	items := make([]HistoryItem, 0, len(analyses))
	for _, a := range analyses {
		items = append(items, HistoryItem{
			ID:              a.ID,
			SchemaVersion:   a.SchemaVersion,
			Language:        string(a.Language),
			GeneratedAt:     a.CreatedAt,
			EntriesAnalyzed: a.EntriesCovered,
		})
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"analyses": items}); err != nil {
		h.logger.Error("Failed to encode history response", zap.Error(err))
	}
}

// Usage handles GET /api/usage.
func (h *PatternHandler) Usage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserUUIDFromContext(r.Context())
	if !ok {
		h.writeAuthError(w)
		return
	}

	entries, err := h.usageRepo.ListByUser(r.Context(), userID, historyLimit)
	if err != nil {
		_ = WritePipelineError(w, err)
		return
	}

	items := make([]UsageItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, UsageItem{
			Action:         string(e.Action),
			CreditsCharged: e.CreditsCharged,
			CreatedAt:      e.CreatedAt,
		})
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"usage": items}); err != nil {
		h.logger.Error("Failed to encode usage response", zap.Error(err))
	}
}

// Credits handles GET /api/credits.
func (h *PatternHandler) Credits(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserUUIDFromContext(r.Context())
	if !ok {
		h.writeAuthError(w)
		return
	}

	balance, err := h.creditRepo.Get(r.Context(), userID)
	if err != nil {
		_ = WritePipelineError(w, err)
		return
	}

	resp := CreditsResponse{
		Remaining:      balance.Remaining,
		UsedThisPeriod: balance.UsedThisPeriod,
		LastResetDate:  balance.LastResetDate,
	}
	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode credits response", zap.Error(err))
	}
}

func (h *PatternHandler) writeAuthError(w http.ResponseWriter) {
	_ = WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":     "authentication required",
		"errorCode": "AuthError",
	})
}

// analyzeResponse converts a pipeline result to its HTTP shape.
func analyzeResponse(result *services.AnalyzeResult) AnalyzeResponse {
	return AnalyzeResponse{
		Analysis:         result.Analysis.Payload,
		SchemaVersion:    result.Analysis.SchemaVersion,
		Language:         string(result.Analysis.Language),
		GeneratedAt:      result.Analysis.CreatedAt,
		Cached:           result.Cached,
		UpgradeAvailable: result.UpgradeAvailable,
		CreditsUsed:      result.CreditsUsed,
		EntriesAnalyzed:  result.EntriesAnalyzed,
		SettlementError:  result.SettlementFailed,
	}
}
