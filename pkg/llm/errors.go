package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/inkwell-ai/inkwell-engine/pkg/apperrors"
)

// ClassifyError maps a provider failure onto the pipeline error taxonomy:
// timeouts, rate limits, and exhausted quotas get distinct codes so the
// caller can advise "retry shortly" vs. "contact support"; everything else
// is a generic provider error.
func ClassifyError(ctx context.Context, err error) *apperrors.PipelineError {
	if err == nil {
		return nil
	}

	// Already classified upstream.
	var pe *apperrors.PipelineError
	if errors.As(err, &pe) {
		return pe
	}

	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.Wrap(apperrors.CodeModelTimeout, "model invocation timed out", err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case isQuotaError(apiErr):
			return apperrors.Wrap(apperrors.CodeModelQuotaExceeded, "model provider quota exhausted", err)
		case apiErr.HTTPStatusCode == 429:
			return apperrors.Wrap(apperrors.CodeModelRateLimited, "model provider rate limited", err)
		}
		return apperrors.Wrap(apperrors.CodeModelProviderError, "model provider request failed", err)
	}

	// Some transports surface plain errors; fall back to string matching
	// the way provider SDK errors actually read.
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "deadline exceeded") || strings.Contains(lower, "timeout"):
		return apperrors.Wrap(apperrors.CodeModelTimeout, "model invocation timed out", err)
	case strings.Contains(lower, "insufficient_quota") || strings.Contains(lower, "quota"):
		return apperrors.Wrap(apperrors.CodeModelQuotaExceeded, "model provider quota exhausted", err)
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		return apperrors.Wrap(apperrors.CodeModelRateLimited, "model provider rate limited", err)
	}

	return apperrors.Wrap(apperrors.CodeModelProviderError, "model provider request failed", err)
}

// isQuotaError reports whether an API error indicates an exhausted quota
// rather than a transient rate limit.
func isQuotaError(apiErr *openai.APIError) bool {
	code, ok := apiErr.Code.(string)
	if ok && strings.Contains(code, "insufficient_quota") {
		return true
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "quota")
}
