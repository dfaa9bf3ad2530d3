package llm

import "context"

// MockClient is a configurable mock for testing pipeline LLM usage.
// Set the function fields to control behavior in tests.
type MockClient struct {
	// CompleteFunc is called when Complete is invoked.
	// If nil, returns empty string and nil error.
	CompleteFunc func(ctx context.Context, systemMessage, prompt string) (string, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Endpoint is returned by GetEndpoint. Defaults to "http://mock-endpoint".
	Endpoint string

	// CompleteCalls counts invocations for verification.
	CompleteCalls int
}

// NewMockClient creates a new mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Model:    "mock-model",
		Endpoint: "http://mock-endpoint",
	}
}

var _ Client = (*MockClient)(nil)

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, systemMessage, prompt string) (string, error) {
	m.CompleteCalls++
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemMessage, prompt)
	}
	return "", nil
}

// GetModel implements Client.
func (m *MockClient) GetModel() string {
	return m.Model
}

// GetEndpoint implements Client.
func (m *MockClient) GetEndpoint() string {
	return m.Endpoint
}
