package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-ai/inkwell-engine/pkg/apperrors"
)

func TestClassifyErrorNil(t *testing.T) {
	assert.Nil(t, ClassifyError(context.Background(), nil))
}

func TestClassifyErrorPassesThroughPipelineErrors(t *testing.T) {
	original := apperrors.New(apperrors.CodeModelRateLimited, "already classified")
	got := ClassifyError(context.Background(), fmt.Errorf("wrapped: %w", original))
	assert.Same(t, original, got)
}

func TestClassifyErrorContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	got := ClassifyError(ctx, ctx.Err())
	require.NotNil(t, got)
	assert.Equal(t, apperrors.CodeModelTimeout, got.Code)
}

func TestClassifyErrorContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := ClassifyError(ctx, errors.New("request aborted"))
	require.NotNil(t, got)
	assert.Equal(t, apperrors.CodeModelTimeout, got.Code)
}

func TestClassifyErrorAPIError(t *testing.T) {
	tests := []struct {
		name   string
		apiErr *openai.APIError
		want   apperrors.ErrorCode
	}{
		{
			name:   "rate limited",
			apiErr: &openai.APIError{HTTPStatusCode: 429, Message: "Rate limit reached for requests"},
			want:   apperrors.CodeModelRateLimited,
		},
		{
			name:   "quota exhausted by code",
			apiErr: &openai.APIError{HTTPStatusCode: 429, Code: "insufficient_quota", Message: "You exceeded your current quota"},
			want:   apperrors.CodeModelQuotaExceeded,
		},
		{
			name:   "quota exhausted by message",
			apiErr: &openai.APIError{HTTPStatusCode: 403, Message: "Monthly quota exceeded"},
			want:   apperrors.CodeModelQuotaExceeded,
		},
		{
			name:   "server error",
			apiErr: &openai.APIError{HTTPStatusCode: 500, Message: "The server had an error"},
			want:   apperrors.CodeModelProviderError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(context.Background(), tt.apiErr)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Code)
		})
	}
}

func TestClassifyErrorStringFallbacks(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.ErrorCode
	}{
		{"timeout text", errors.New("Post \"https://api.example.com\": context deadline exceeded"), apperrors.CodeModelTimeout},
		{"quota text", errors.New("error, status code: 429, message: insufficient_quota"), apperrors.CodeModelQuotaExceeded},
		{"rate limit text", errors.New("upstream returned rate limit error"), apperrors.CodeModelRateLimited},
		{"unknown", errors.New("connection refused"), apperrors.CodeModelProviderError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(context.Background(), tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Code)
			assert.True(t, errors.Is(got, tt.err), "classified error should wrap the original")
		})
	}
}
