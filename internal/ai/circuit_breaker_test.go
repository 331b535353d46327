package ai

import (
	stderrors "errors"
	"testing"
	"time"

	"clyptusrank/internal/config"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"
)

func breakerConfig(minRequests uint32, threshold float64) *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider: config.ProviderGemini,
		Model:    "gemini-2.0-flash",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      minRequests,
			FailureThreshold: threshold,
		},
	}
}

func TestIndependentCircuitBreakers(t *testing.T) {
	extractCB := NewAICircuitBreaker(config.OperationExtract, breakerConfig(2, 0.5), nil)
	scoreCB := NewAICircuitBreaker(config.OperationScore, breakerConfig(3, 0.6), nil)

	tests := []struct {
		name     string
		cb       *AICircuitBreaker
		expected string
	}{
		{"extract", extractCB, "AI-extract"},
		{"score", scoreCB, "AI-score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := tt.cb.GetStats()
			if name, _ := stats["name"].(string); name != tt.expected {
				t.Errorf("Expected circuit breaker name '%s', got '%s'", tt.expected, name)
			}
			if state, _ := stats["state"].(string); state != "closed" {
				t.Errorf("Expected initial state 'closed', got '%s'", state)
			}
			if enabled, _ := stats["enabled"].(bool); !enabled {
				t.Error("Circuit breaker should be enabled")
			}
		})
	}

	failing := func() (*genai.GenerateContentResponse, error) {
		return nil, stderrors.New("upstream unavailable")
	}
	for range 2 {
		_, _ = extractCB.Execute(failing)
	}

	if extractCB.IsHealthy() {
		t.Error("Extract circuit breaker should have opened after repeated failures")
	}
	if !scoreCB.IsHealthy() {
		t.Error("Score circuit breaker must not be affected by extract failures")
	}

	_, err := extractCB.Execute(func() (*genai.GenerateContentResponse, error) {
		t.Fatal("open breaker must not call through")
		return nil, nil
	})
	if !stderrors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Expected open state error, got %v", err)
	}
}

func TestCircuitBreakerBelowMinRequests(t *testing.T) {
	cb := NewAICircuitBreaker("score", breakerConfig(3, 0.5), nil)

	for range 2 {
		_, _ = cb.Execute(func() (*genai.GenerateContentResponse, error) {
			return nil, stderrors.New("boom")
		})
	}
	if !cb.IsHealthy() {
		t.Error("Breaker should stay closed until the minimum request count is reached")
	}
}

func TestModelCircuitBreaker(t *testing.T) {
	cb := NewModelCircuitBreaker("extract", breakerConfig(1, 0.1), newTestLogger())

	if name, _ := cb.GetModelStats()["name"].(string); name != "AI-Model-extract" {
		t.Errorf("Expected model breaker name 'AI-Model-extract', got '%s'", name)
	}

	failing := func() (*genai.Model, error) { return nil, stderrors.New("lookup failed") }
	for range modelBreakerMinRequests - 1 {
		_, _ = cb.ExecuteModel(failing)
	}
	if !cb.IsModelHealthy() {
		t.Error("Model breaker uses its own lenient trip settings")
	}
	_, _ = cb.ExecuteModel(failing)
	if cb.IsModelHealthy() {
		t.Error("Model breaker should open once its own threshold is reached")
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	disabled := &config.OperationAIConfig{Provider: config.ProviderGemini, Model: "test-model"}

	cb := NewAICircuitBreaker("disabled", disabled, nil)
	if cb != nil {
		t.Fatal("Circuit breaker should be nil when disabled")
	}

	called := false
	if _, err := cb.Execute(func() (*genai.GenerateContentResponse, error) {
		called = true
		return &genai.GenerateContentResponse{}, nil
	}); err != nil {
		t.Fatalf("nil breaker should call through, got %v", err)
	}
	if !called {
		t.Error("nil breaker should call through")
	}
	if !cb.IsHealthy() {
		t.Error("nil breaker is always healthy")
	}
	if enabled, _ := cb.GetStats()["enabled"].(bool); enabled {
		t.Error("nil breaker reports disabled")
	}

	var model *ModelCircuitBreaker
	if !model.IsModelHealthy() {
		t.Error("nil model breaker is always healthy")
	}
}
