package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{
			name:     "bare JSON object",
			response: `{"themes": []}`,
			want:     `{"themes": []}`,
		},
		{
			name:     "json code fence",
			response: "```json\n{\"themes\": []}\n```",
			want:     `{"themes": []}`,
		},
		{
			name:     "plain code fence",
			response: "```\n{\"overview\": \"x\"}\n```",
			want:     `{"overview": "x"}`,
		},
		{
			name:     "surrounding prose",
			response: "Here is the analysis you asked for:\n{\"overview\": \"x\"}\nLet me know if you need more.",
			want:     `{"overview": "x"}`,
		},
		{
			name:     "think tag prefix",
			response: "<think>\nThe user wants structured output.\n</think>\n{\"themes\": []}",
			want:     `{"themes": []}`,
		},
		{
			name:     "think tag then fence",
			response: "<think>reasoning</think>\n```json\n{\"a\": 1}\n```",
			want:     `{"a": 1}`,
		},
		{
			name:     "nested objects and arrays",
			response: `{"themes": [{"name": "growth", "meta": {"n": 1}}]}`,
			want:     `{"themes": [{"name": "growth", "meta": {"n": 1}}]}`,
		},
		{
			name:     "braces inside string literals",
			response: `{"overview": "he wrote {notes} and \"quotes\" here"}`,
			want:     `{"overview": "he wrote {notes} and \"quotes\" here"}`,
		},
		{
			name:     "no JSON at all",
			response: "I'm sorry, I cannot produce that.",
			wantErr:  true,
		},
		{
			name:     "unbalanced object",
			response: `{"themes": [`,
			wantErr:  true,
		},
		{
			name:     "empty response",
			response: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.response)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONPrefersFirstBalancedObject(t *testing.T) {
	response := `{"first": true} trailing {"second": true}`
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, `{"first": true}`, got)
}
