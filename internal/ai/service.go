package ai

import (
	"context"
	"fmt"
	"time"

	"clyptusrank/internal/config"
	"clyptusrank/internal/errors"
	"clyptusrank/internal/observability"
	"clyptusrank/internal/types"
)

// Service routes oracle calls to the provider configured for each operation,
// bounds every call by the operation timeout and records AI metrics.
type Service struct {
	extract        AIProvider
	score          AIProvider
	extractTimeout time.Duration
	scoreTimeout   time.Duration
	obs            *observability.ObservabilityManager
	logger         *errors.Logger
}

var (
	_ ExtractionOracle = (*Service)(nil)
	_ ScoringOracle    = (*Service)(nil)
)

// NewProvider creates the provider named by cfg.Provider for one operation
func NewProvider(cfg *config.OperationAIConfig, operation string, logger *errors.Logger) (AIProvider, error) {
	logger.Debug("Initializing AI provider",
		"provider", cfg.Provider,
		"operation", operation,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"use_system_prompts", *cfg.UseSystemPrompts)

	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiProvider(cfg, operation, logger)
	case config.ProviderFake:
		return NewFakeProvider(), nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}

// NewService builds the extract and score providers from the configuration
func NewService(cfg *config.Config, obs *observability.ObservabilityManager, logger *errors.Logger) (*Service, error) {
	extractCfg := cfg.GetExtractConfig()
	extract, err := NewProvider(&extractCfg, config.OperationExtract, logger)
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create extraction provider", err)
	}

	scoreCfg := cfg.GetScoreConfig()
	score, err := NewProvider(&scoreCfg, config.OperationScore, logger)
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create scoring provider", err)
	}

	return &Service{
		extract:        extract,
		score:          score,
		extractTimeout: *extractCfg.Timeout,
		scoreTimeout:   *scoreCfg.Timeout,
		obs:            obs,
		logger:         logger,
	}, nil
}

// NewServiceWithProviders assembles a Service around existing providers.
// A zero timeout leaves calls bounded only by the caller's context.
func NewServiceWithProviders(extract, score AIProvider, extractTimeout, scoreTimeout time.Duration, obs *observability.ObservabilityManager, logger *errors.Logger) *Service {
	return &Service{
		extract:        extract,
		score:          score,
		extractTimeout: extractTimeout,
		scoreTimeout:   scoreTimeout,
		obs:            obs,
		logger:         logger,
	}
}

// ExtractResume implements ExtractionOracle
func (s *Service) ExtractResume(ctx context.Context, input ExtractInput) (types.ExtractedResume, *TokenUsage, error) {
	return call(s, ctx, "extract_resume", s.extractTimeout, func(ctx context.Context) (types.ExtractedResume, *TokenUsage, error) {
		return s.extract.ExtractResume(ctx, input)
	})
}

// ExtractJobDescription implements ExtractionOracle
func (s *Service) ExtractJobDescription(ctx context.Context, input ExtractInput) (types.ExtractedJobDescription, *TokenUsage, error) {
	return call(s, ctx, "extract_job_description", s.extractTimeout, func(ctx context.Context) (types.ExtractedJobDescription, *TokenUsage, error) {
		return s.extract.ExtractJobDescription(ctx, input)
	})
}

// ScoreResume implements ScoringOracle
func (s *Service) ScoreResume(ctx context.Context, input types.ScoreInput) (types.ScoreResult, *TokenUsage, error) {
	return call(s, ctx, "score_resume", s.scoreTimeout, func(ctx context.Context) (types.ScoreResult, *TokenUsage, error) {
		return s.score.ScoreResume(ctx, input)
	})
}

// RescoreResume implements ScoringOracle
func (s *Service) RescoreResume(ctx context.Context, input types.ScoreInput) (types.ScoreResult, *TokenUsage, error) {
	return call(s, ctx, "rescore_resume", s.scoreTimeout, func(ctx context.Context) (types.ScoreResult, *TokenUsage, error) {
		return s.score.RescoreResume(ctx, input)
	})
}

func call[Out any](s *Service, ctx context.Context, operation string, timeout time.Duration, fn func(context.Context) (Out, *TokenUsage, error)) (Out, *TokenUsage, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var (
		output Out
		usage  *TokenUsage
	)
	err := s.obs.GetMetrics().TrackAIOperationWithTokens(ctx, operation, func(ctx context.Context) *observability.AIOperationResult {
		var callErr error
		output, usage, callErr = fn(ctx)
		result := &observability.AIOperationResult{Error: callErr}
		if usage != nil {
			result.TokenUsage = &observability.TokenUsage{
				InputTokens:  usage.InputTokens,
				OutputTokens: usage.OutputTokens,
				TotalTokens:  usage.TotalTokens,
			}
		}
		return result
	}, s.obs)
	if err != nil {
		s.logger.LogError(err, "AI operation failed", "operation", operation)
		var zero Out
		return zero, nil, err
	}

	return output, usage, nil
}

// ModelInfo reports model availability per operation
func (s *Service) ModelInfo(ctx context.Context) map[string]*ModelInfo {
	return map[string]*ModelInfo{
		config.OperationExtract: s.extract.GetModelInfo(ctx),
		config.OperationScore:   s.score.GetModelInfo(ctx),
	}
}

// CircuitBreakerStats reports breaker state for providers that have breakers
func (s *Service) CircuitBreakerStats() map[string]any {
	stats := make(map[string]any)
	for operation, provider := range map[string]AIProvider{
		config.OperationExtract: s.extract,
		config.OperationScore:   s.score,
	} {
		if reporter, ok := provider.(breakerReporter); ok {
			stats[operation] = reporter.GetCircuitBreakerStats()
		}
	}
	return stats
}

// Close releases both providers
func (s *Service) Close() error {
	extractErr := s.extract.Close()
	if err := s.score.Close(); err != nil {
		return err
	}
	return extractErr
}
