package ai

import (
	"context"

	"clyptusrank/internal/types"
)

// ExtractInput carries a document to an extraction oracle: plain text, or a
// data URI when Embedded is set.
type ExtractInput struct {
	Content   string
	Embedded  bool
	MediaType string
}

// ExtractionOracle turns documents into structured records
type ExtractionOracle interface {
	ExtractResume(ctx context.Context, input ExtractInput) (types.ExtractedResume, *TokenUsage, error)
	ExtractJobDescription(ctx context.Context, input ExtractInput) (types.ExtractedJobDescription, *TokenUsage, error)
}

// ScoringOracle grades a resume against a job description
type ScoringOracle interface {
	ScoreResume(ctx context.Context, input types.ScoreInput) (types.ScoreResult, *TokenUsage, error)
	// RescoreResume is asked to be encouraging; callers must not assume the result is higher
	RescoreResume(ctx context.Context, input types.ScoreInput) (types.ScoreResult, *TokenUsage, error)
}

// AIProvider is implemented by every oracle backend.
// Token usage may be nil when the backend does not report it.
type AIProvider interface {
	ExtractionOracle
	ScoringOracle
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// breakerReporter is implemented by providers that guard calls with circuit breakers
type breakerReporter interface {
	GetCircuitBreakerStats() map[string]any
}
