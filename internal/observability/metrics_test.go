package observability

import (
	"context"
	stderrors "errors"
	"testing"

	"clyptusrank/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestManager wires the custom instruments to a manual reader
func newTestManager(t *testing.T, cfg *config.Config) (*ObservabilityManager, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	om := &ObservabilityManager{
		config:        ObservabilityConfig{ServiceName: "clyptusrank-test", Enabled: true},
		fullConfig:    cfg,
		meterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
	require.NoError(t, om.initCustomMetrics())
	return om, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := make(map[string]metricdata.Aggregation)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			found[m.Name] = m.Data
		}
	}
	return found
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestTrackAIOperationWithTokens(t *testing.T) {
	om, reader := newTestManager(t, nil)
	m := om.GetMetrics()

	err := m.TrackAIOperationWithTokens(context.Background(), "extract_resume", func(ctx context.Context) *AIOperationResult {
		return &AIOperationResult{TokenUsage: &TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}
	}, om)
	require.NoError(t, err)

	failure := stderrors.New("quota")
	err = m.TrackAIOperationWithTokens(context.Background(), "score_resume", func(ctx context.Context) *AIOperationResult {
		return &AIOperationResult{Error: failure}
	}, om)
	assert.ErrorIs(t, err, failure)

	found := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, found["clyptusrank_ai_requests_total"]))
	assert.Equal(t, int64(1), sumOf(t, found["clyptusrank_ai_errors_total"]))
	assert.Contains(t, found, "clyptusrank_ai_processing_duration_seconds")

	tokens, ok := found["clyptusrank_ai_token_usage"].(metricdata.Histogram[int64])
	require.True(t, ok)
	assert.Len(t, tokens.DataPoints, 3, "one series per token type")
}

func TestRecordBusinessMetrics(t *testing.T) {
	om, reader := newTestManager(t, nil)
	m := om.GetMetrics()
	ctx := context.Background()

	m.RecordBusinessMetric(ctx, MetricAnalysisCompleted, true, om)
	m.RecordBusinessMetric(ctx, MetricAnalysisCompleted, false, om)
	m.RecordBusinessMetric(ctx, MetricSkillAdded, true, om)
	m.RecordBusinessMetric(ctx, MetricRateLimitHit, false, om)
	m.RecordBusinessMetric(ctx, "unknown", true, om)
	m.RecordContentSize(ctx, "resume", 2048, om)
	m.AdjustActiveSessions(ctx, 2, om)
	m.AdjustActiveSessions(ctx, -1, om)

	found := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, found["clyptusrank_analyses_total"]))
	assert.Equal(t, int64(1), sumOf(t, found["clyptusrank_skills_added_total"]))
	assert.Equal(t, int64(1), sumOf(t, found["clyptusrank_rate_limit_hits_total"]))
	assert.Equal(t, int64(1), sumOf(t, found["clyptusrank_active_sessions"]))
	assert.Contains(t, found, "clyptusrank_content_size_bytes")
}

func TestMetricSwitches(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.CustomMetrics.AIOperations.Enabled = false
	cfg.Observability.CustomMetrics.Infrastructure.Enabled = true
	cfg.Observability.CustomMetrics.Infrastructure.TrackRateLimits = false

	om, reader := newTestManager(t, cfg)
	m := om.GetMetrics()
	ctx := context.Background()

	_ = m.TrackAIOperationWithTokens(ctx, "score_resume", func(ctx context.Context) *AIOperationResult { return nil }, om)
	m.RecordBusinessMetric(ctx, MetricRateLimitHit, false, om)
	m.RecordBusinessMetric(ctx, MetricRescoreCompleted, true, om)

	found := collect(t, reader)
	assert.NotContains(t, found, "clyptusrank_ai_requests_total")
	assert.NotContains(t, found, "clyptusrank_rate_limit_hits_total")
	assert.NotContains(t, found, "clyptusrank_rescores_total", "business metrics are disabled in this config")
}

func TestDisabledManager(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{ServiceName: "clyptusrank"}, nil)
	require.NoError(t, err)

	m := om.GetMetrics()
	called := false
	err = m.TrackAIOperationWithTokens(context.Background(), "extract_resume", func(ctx context.Context) *AIOperationResult {
		called = true
		return nil
	}, om)
	assert.NoError(t, err)
	assert.True(t, called)

	m.RecordBusinessMetric(context.Background(), MetricAnalysisCompleted, true, om)
	m.AdjustActiveSessions(context.Background(), 1, om)
	assert.NoError(t, om.Shutdown(context.Background()))

	var nilManager *ObservabilityManager
	assert.NotNil(t, nilManager.GetMetrics())
	assert.NotNil(t, nilManager.Tracer("x"))
}

func TestGetObservabilityConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.ServiceName = "clyptusrank"
	cfg.Observability.SampleRate = 1
	cfg.Observability.Tracing.SampleRate = 0.25
	cfg.Observability.Console.Enabled = true

	obs := GetObservabilityConfig(cfg, "1.2.3")
	assert.Equal(t, "1.2.3", obs.ServiceVersion)
	assert.Equal(t, 0.25, obs.SampleRate)
	assert.True(t, obs.ConsoleOutput)

	fallback := GetObservabilityConfig(nil, "dev")
	assert.False(t, fallback.Enabled)
	assert.Equal(t, "/metrics", fallback.Prometheus.Endpoint)
}
