package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clyptusrank/internal/config"
	appErrors "clyptusrank/internal/errors"
	"clyptusrank/internal/ingestion"
	"clyptusrank/internal/types"

	"github.com/sony/gobreaker/v2"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const defaultModelCheckTimeout = 10 * time.Second

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	config         *config.OperationAIConfig
	operation      string
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *appErrors.Logger
}

var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider for one operation (extract or score)
func NewGeminiProvider(cfg *config.OperationAIConfig, operation string, logger *appErrors.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		operation:      operation,
		circuitBreaker: NewAICircuitBreaker(operation, cfg, logger),
		modelBreaker:   NewModelCircuitBreaker(operation, cfg, logger),
		logger:         logger,
	}, nil
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{Name: g.config.Model}

	timeout := g.config.ModelCheckTimeout
	if timeout <= 0 {
		timeout = defaultModelCheckTimeout
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"operation", g.operation,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"operation", g.operation,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// executeAIOperation runs one structured-output call: tracing, circuit
// breaker, schema validation of the raw response and decoding.
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	contents []*genai.Content,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	schema gojsonschema.JSONLoader,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	ctx, span := otel.Tracer("clyptusrank.ai.gemini").Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", config.ProviderGemini),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	fail := func(err error, description string) (Out, *TokenUsage, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, description)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, err
	}

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.client.Models.GenerateContent(ctx, g.config.Model, contents, genaiConfig)
	})
	if err != nil {
		return fail(classifyGeminiError(err, operationName), "generate content failed")
	}

	text := cleanJSON(result.Text())
	if text == "" {
		return fail(appErrors.NewAIError(appErrors.ErrCodeAIResponseInvalid,
			"Empty AI response for "+operationName, nil), "empty response")
	}
	if err := validateResponse(schema, text); err != nil {
		return fail(appErrors.NewAIError(appErrors.ErrCodeAIResponseInvalid,
			"Invalid AI response for "+operationName, err), "schema validation failed")
	}
	if err := json.Unmarshal([]byte(text), &output); err != nil {
		return fail(appErrors.NewAIError(appErrors.ErrCodeAIResponseInvalid,
			"Failed to parse AI response for "+operationName, err), "decode failed")
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// ExtractResume implements ExtractionOracle
func (g *GeminiProvider) ExtractResume(ctx context.Context, input ExtractInput) (types.ExtractedResume, *TokenUsage, error) {
	contents, systemPrompt, err := g.extractionContents(promptExtractResume, input)
	if err != nil {
		return types.ExtractedResume{}, nil, appErrors.NewExtractionError(appErrors.ErrCodeExtractionFailed,
			"Failed to prepare resume for extraction", err)
	}

	output, tokenUsage, err := executeAIOperation[types.ExtractedResume](
		g, ctx, "extract_resume", contents, systemPrompt,
		g.generateConfig(resumeResponseSchema), resumeSchemaLoader,
		attribute.Bool("input.embedded", input.Embedded),
		attribute.Int("input.length", len(input.Content)),
	)
	if err != nil {
		return types.ExtractedResume{}, nil, appErrors.NewExtractionError(
			specificCode(err, appErrors.ErrCodeExtractionFailed), "Failed to extract resume", err)
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("resume.skills", len(output.Skills)))
	}
	return normalizeResume(output), tokenUsage, nil
}

// ExtractJobDescription implements ExtractionOracle
func (g *GeminiProvider) ExtractJobDescription(ctx context.Context, input ExtractInput) (types.ExtractedJobDescription, *TokenUsage, error) {
	contents, systemPrompt, err := g.extractionContents(promptExtractJobDescription, input)
	if err != nil {
		return types.ExtractedJobDescription{}, nil, appErrors.NewExtractionError(appErrors.ErrCodeExtractionFailed,
			"Failed to prepare job description for extraction", err)
	}

	output, tokenUsage, err := executeAIOperation[types.ExtractedJobDescription](
		g, ctx, "extract_job_description", contents, systemPrompt,
		g.generateConfig(jobDescriptionResponseSchema), jobDescriptionSchemaLoader,
		attribute.Bool("input.embedded", input.Embedded),
		attribute.Int("input.length", len(input.Content)),
	)
	if err != nil {
		return types.ExtractedJobDescription{}, nil, appErrors.NewExtractionError(
			specificCode(err, appErrors.ErrCodeExtractionFailed), "Failed to extract job description", err)
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("job.skills", len(output.Skills)))
	}
	return normalizeJobDescription(output), tokenUsage, nil
}

// ScoreResume implements ScoringOracle
func (g *GeminiProvider) ScoreResume(ctx context.Context, input types.ScoreInput) (types.ScoreResult, *TokenUsage, error) {
	return g.score(ctx, "score_resume", promptScoreResume, input)
}

// RescoreResume implements ScoringOracle
func (g *GeminiProvider) RescoreResume(ctx context.Context, input types.ScoreInput) (types.ScoreResult, *TokenUsage, error) {
	return g.score(ctx, "rescore_resume", promptRescoreResume, input)
}

func (g *GeminiProvider) score(ctx context.Context, operationName string, kind promptKind, input types.ScoreInput) (types.ScoreResult, *TokenUsage, error) {
	systemPrompt, userTemplate := g.prompts(kind)
	userPrompt := fillTemplate(userTemplate, input.ResumeText, input.JobDescriptionText)

	output, tokenUsage, err := executeAIOperation[types.ScoreResult](
		g, ctx, operationName, genai.Text(userPrompt), systemPrompt,
		g.generateConfig(scoreResponseSchema), scoreSchemaLoader,
		attribute.Int("input.resume_length", len(input.ResumeText)),
		attribute.Int("input.job_length", len(input.JobDescriptionText)),
	)
	if err != nil {
		return types.ScoreResult{}, nil, appErrors.NewAIError(
			specificCode(err, appErrors.ErrCodeScoringFailed), "Failed to score resume", err)
	}
	if err := ValidateScoreRange(output); err != nil {
		return types.ScoreResult{}, tokenUsage, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Float64("score.value", output.Score),
			attribute.Float64("score.ats", output.ATSScore),
		)
	}
	return normalizeScoreResult(output), tokenUsage, nil
}

// extractionContents builds the request body: plain text goes inside the
// prompt, embedded documents travel as an inline part after it.
func (g *GeminiProvider) extractionContents(kind promptKind, input ExtractInput) ([]*genai.Content, string, error) {
	systemPrompt, userTemplate := g.prompts(kind)

	if !input.Embedded {
		return genai.Text(fillTemplate(userTemplate, input.Content)), systemPrompt, nil
	}

	mediaType, data, err := ingestion.ParseDataURI(input.Content)
	if err != nil {
		return nil, "", err
	}
	if input.MediaType != "" {
		mediaType = input.MediaType
	}
	parts := []*genai.Part{
		genai.NewPartFromText(fillTemplate(userTemplate, embeddedDocumentPlaceholder)),
		genai.NewPartFromBytes(data, mediaType),
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, systemPrompt, nil
}

// generateConfig creates the structured-output request configuration
func (g *GeminiProvider) generateConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if *g.config.Temperature > 0 {
		cfg.Temperature = g.config.Temperature
	}
	return cfg
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsModelHealthy(),
	}
}

// Close implements AIProvider
func (g *GeminiProvider) Close() error {
	return nil
}

type promptKind int

const (
	promptExtractResume promptKind = iota
	promptExtractJobDescription
	promptScoreResume
	promptRescoreResume
)

func (p PromptSet) get(kind promptKind) string {
	switch kind {
	case promptExtractResume:
		return p.ExtractResume
	case promptExtractJobDescription:
		return p.ExtractJobDescription
	case promptScoreResume:
		return p.ScoreResume
	case promptRescoreResume:
		return p.RescoreResume
	default:
		return ""
	}
}

func fromLoaded(s config.LoadedPromptSet) PromptSet {
	return PromptSet{
		ExtractResume:         s.ExtractResume,
		ExtractJobDescription: s.ExtractJobDescription,
		ScoreResume:           s.ScoreResume,
		RescoreResume:         s.RescoreResume,
	}
}

func fromConfig(s config.PromptSet) PromptSet {
	return PromptSet{
		ExtractResume:         s.ExtractResume,
		ExtractJobDescription: s.ExtractJobDescription,
		ScoreResume:           s.ScoreResume,
		RescoreResume:         s.RescoreResume,
	}
}

// prompts returns the system prompt and user template for kind. Loaded files
// are read on every call so a hot reload takes effect immediately.
func (g *GeminiProvider) prompts(kind promptKind) (string, string) {
	loaded := config.GetPromptsForOperation(g.operation)
	custom := g.config.CustomPrompts

	system := resolvePrompt(
		fromLoaded(loaded.SystemPrompts).get(kind),
		fromConfig(custom.SystemPrompts).get(kind),
		DefaultSystemPrompts.get(kind),
	)
	user := resolvePrompt(
		fromLoaded(loaded.UserPrompts).get(kind),
		fromConfig(custom.UserPrompts).get(kind),
		DefaultUserPrompts.get(kind),
	)
	return system, user
}

// fillTemplate substitutes args into the %s verbs of a template. Arguments
// the template has no verb for are appended so custom prompts cannot drop
// the document.
func fillTemplate(template string, args ...string) string {
	verbs := min(strings.Count(template, "%s"), len(args))
	values := make([]any, verbs)
	for i := range verbs {
		values[i] = args[i]
	}

	var b strings.Builder
	if verbs > 0 {
		b.WriteString(fmt.Sprintf(template, values...))
	} else {
		b.WriteString(template)
	}
	for _, extra := range args[verbs:] {
		b.WriteString("\n\n")
		b.WriteString(extra)
	}
	return b.String()
}

// classifyGeminiError maps transport failures to AI error codes. Nothing is retried.
func classifyGeminiError(err error, operationName string) *appErrors.AppError {
	code := appErrors.ErrCodeAIServiceFailed
	message := "AI service failed during " + operationName

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = appErrors.ErrCodeAITimeout
		message = "AI service timed out during " + operationName
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		message = "AI service circuit breaker is open for " + operationName
	default:
		switch apiStatusCode(err) {
		case http.StatusTooManyRequests:
			code = appErrors.ErrCodeAIQuotaExceeded
			message = "AI service quota exceeded during " + operationName
		case http.StatusUnauthorized, http.StatusForbidden:
			code = appErrors.ErrCodeAIUnauthorized
			message = "AI service rejected the API key during " + operationName
		case http.StatusGatewayTimeout:
			code = appErrors.ErrCodeAITimeout
			message = "AI service timed out during " + operationName
		}
	}

	return appErrors.NewAIError(code, message, err)
}

func apiStatusCode(err error) int {
	var googleErr *googleapi.Error
	if errors.As(err, &googleErr) {
		return googleErr.Code
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}

// specificCode keeps a precise classification and falls back otherwise
func specificCode(err error, fallback string) string {
	if appErr, ok := appErrors.AsAppError(err); ok && appErr.Code != appErrors.ErrCodeAIServiceFailed {
		return appErr.Code
	}
	return fallback
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
