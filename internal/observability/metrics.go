package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Business metric kinds accepted by RecordBusinessMetric
const (
	MetricAnalysisCompleted = "analysis_completed"
	MetricDocumentIngested  = "document_ingested"
	MetricRescoreCompleted  = "rescore_completed"
	MetricSkillAdded        = "skill_added"
	MetricRateLimitHit      = "rate_limit_hit"
)

// Metrics holds all custom instruments. Unset instruments are skipped.
type Metrics struct {
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	AnalysesCompleted metric.Int64Counter
	DocumentsIngested metric.Int64Counter
	RescoresCompleted metric.Int64Counter
	SkillsAdded       metric.Int64Counter
	ContentSize       metric.Int64Histogram

	RateLimitHits  metric.Int64Counter
	ActiveSessions metric.Int64UpDownCounter
}

// AIOperationResult holds the result of an AI operation including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

func (om *ObservabilityManager) initCustomMetrics() error {
	meter := om.meterProvider.Meter(om.config.ServiceName)
	om.metrics = &Metrics{}

	for _, create := range []func(metric.Meter) error{
		om.createAIMetrics,
		om.createBusinessMetrics,
		om.createInfrastructureMetrics,
	} {
		if err := create(meter); err != nil {
			return err
		}
	}
	return nil
}

func (om *ObservabilityManager) createAIMetrics(meter metric.Meter) error {
	var err error

	if om.metrics.AIProcessingTime, err = meter.Float64Histogram(
		"clyptusrank_ai_processing_duration_seconds",
		metric.WithDescription("Time spent waiting on AI oracle calls"),
		metric.WithUnit("s"),
	); err != nil {
		return fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	if om.metrics.AIRequestCount, err = meter.Int64Counter(
		"clyptusrank_ai_requests_total",
		metric.WithDescription("Total number of AI oracle calls"),
	); err != nil {
		return fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	if om.metrics.AIErrorCount, err = meter.Int64Counter(
		"clyptusrank_ai_errors_total",
		metric.WithDescription("Total number of failed AI oracle calls"),
	); err != nil {
		return fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	if om.metrics.AITokenUsage, err = meter.Int64Histogram(
		"clyptusrank_ai_token_usage",
		metric.WithDescription("Token usage per AI oracle call"),
		metric.WithUnit("tokens"),
	); err != nil {
		return fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	return nil
}

func (om *ObservabilityManager) createBusinessMetrics(meter metric.Meter) error {
	var err error

	if om.metrics.AnalysesCompleted, err = meter.Int64Counter(
		"clyptusrank_analyses_total",
		metric.WithDescription("Total number of resume analyses"),
	); err != nil {
		return fmt.Errorf("failed to create analyses metric: %w", err)
	}

	if om.metrics.DocumentsIngested, err = meter.Int64Counter(
		"clyptusrank_documents_ingested_total",
		metric.WithDescription("Total number of ingested documents"),
	); err != nil {
		return fmt.Errorf("failed to create ingestion metric: %w", err)
	}

	if om.metrics.RescoresCompleted, err = meter.Int64Counter(
		"clyptusrank_rescores_total",
		metric.WithDescription("Total number of rescoring calls"),
	); err != nil {
		return fmt.Errorf("failed to create rescore metric: %w", err)
	}

	if om.metrics.SkillsAdded, err = meter.Int64Counter(
		"clyptusrank_skills_added_total",
		metric.WithDescription("Total number of skills added during refinement"),
	); err != nil {
		return fmt.Errorf("failed to create skills added metric: %w", err)
	}

	if om.metrics.ContentSize, err = meter.Int64Histogram(
		"clyptusrank_content_size_bytes",
		metric.WithDescription("Size of uploaded documents"),
		metric.WithUnit("By"),
	); err != nil {
		return fmt.Errorf("failed to create content size metric: %w", err)
	}

	return nil
}

func (om *ObservabilityManager) createInfrastructureMetrics(meter metric.Meter) error {
	var err error

	if om.metrics.RateLimitHits, err = meter.Int64Counter(
		"clyptusrank_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	); err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	if om.metrics.ActiveSessions, err = meter.Int64UpDownCounter(
		"clyptusrank_active_sessions",
		metric.WithDescription("Number of live refinement sessions"),
	); err != nil {
		return fmt.Errorf("failed to create active sessions metric: %w", err)
	}

	return nil
}

// GetMetrics returns the metrics instance, empty when metrics are off
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om == nil || om.metrics == nil {
		return &Metrics{}
	}
	return om.metrics
}

// TrackAIOperationWithTokens instruments an AI operation with tracing, metrics and token usage
func (m *Metrics) TrackAIOperationWithTokens(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult, om *ObservabilityManager) error {
	if m.AIProcessingTime == nil {
		if result := fn(ctx); result != nil {
			return result.Error
		}
		return nil
	}

	ctx, span := otel.Tracer("clyptusrank.ai").Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	span.SetAttributes(attrs...)

	if om.aiMetricsEnabled() {
		if om.trackAIDuration() {
			m.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
		}
		m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		if err != nil {
			m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
		if result != nil && result.TokenUsage != nil && om.trackTokenUsage() {
			m.recordTokenMetrics(ctx, result.TokenUsage, attrs)
		}
	}

	if result != nil && result.TokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", result.TokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", result.TokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", result.TokenUsage.TotalTokens),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}

	return err
}

func (m *Metrics) recordTokenMetrics(ctx context.Context, usage *TokenUsage, attrs []attribute.KeyValue) {
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		tokenAttrs := append(append([]attribute.KeyValue{}, attrs...), attribute.String("token_type", tt.tokenType))
		m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
	}
}

// RecordBusinessMetric increments the counter behind metricType
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, om *ObservabilityManager, attributes ...attribute.KeyValue) {
	var counter metric.Int64Counter
	switch metricType {
	case MetricAnalysisCompleted:
		counter = m.AnalysesCompleted
	case MetricDocumentIngested:
		counter = m.DocumentsIngested
	case MetricRescoreCompleted:
		counter = m.RescoresCompleted
	case MetricSkillAdded:
		counter = m.SkillsAdded
	case MetricRateLimitHit:
		if !om.infrastructureEnabled(func(c infraSwitches) bool { return c.rateLimits }) {
			return
		}
		counter = m.RateLimitHits
	}
	if counter == nil {
		return
	}
	if metricType != MetricRateLimitHit && !om.businessMetricsEnabled() {
		return
	}

	attrs := attributes
	if om.trackSuccessRates() {
		attrs = append([]attribute.KeyValue{attribute.Bool("success", success)}, attributes...)
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordContentSize records the size of an uploaded document
func (m *Metrics) RecordContentSize(ctx context.Context, kind string, size int64, om *ObservabilityManager) {
	if m.ContentSize == nil || !om.businessMetricsEnabled() || !om.trackContentSizes() {
		return
	}
	m.ContentSize.Record(ctx, size, metric.WithAttributes(attribute.String("document", kind)))
}

// AdjustActiveSessions moves the live session gauge by delta
func (m *Metrics) AdjustActiveSessions(ctx context.Context, delta int64, om *ObservabilityManager) {
	if m.ActiveSessions == nil || !om.infrastructureEnabled(func(c infraSwitches) bool { return c.sessions }) {
		return
	}
	m.ActiveSessions.Add(ctx, delta)
}

type infraSwitches struct {
	rateLimits bool
	sessions   bool
}

// The switches below treat a manager without configuration as fully enabled

func (om *ObservabilityManager) aiMetricsEnabled() bool {
	return om == nil || om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.AIOperations.Enabled
}

func (om *ObservabilityManager) trackAIDuration() bool {
	return om == nil || om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.AIOperations.TrackDuration
}

func (om *ObservabilityManager) trackTokenUsage() bool {
	return om == nil || om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.AIOperations.TrackTokenUsage
}

func (om *ObservabilityManager) businessMetricsEnabled() bool {
	return om == nil || om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.BusinessMetrics.Enabled
}

func (om *ObservabilityManager) trackSuccessRates() bool {
	return om == nil || om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.BusinessMetrics.TrackSuccessRates
}

func (om *ObservabilityManager) trackContentSizes() bool {
	return om == nil || om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.BusinessMetrics.TrackContentSizes
}

func (om *ObservabilityManager) infrastructureEnabled(pick func(infraSwitches) bool) bool {
	if om == nil || om.fullConfig == nil {
		return true
	}
	infra := om.fullConfig.Observability.CustomMetrics.Infrastructure
	return infra.Enabled && pick(infraSwitches{rateLimits: infra.TrackRateLimits, sessions: infra.TrackSessions})
}
