package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clyptusrank/internal/config"
	"clyptusrank/internal/errors"
	"clyptusrank/internal/ingestion"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func testOperationConfig() *config.OperationAIConfig {
	timeout := 30 * time.Second
	return &config.OperationAIConfig{
		Provider:         config.ProviderGemini,
		Model:            "gemini-2.0-flash",
		APIKey:           "test-key",
		Timeout:          &timeout,
		Temperature:      float32Ptr(0.2),
		UseSystemPrompts: boolPtr(true),
	}
}

func TestNewGeminiProviderWithoutNetwork(t *testing.T) {
	cfg := testOperationConfig()
	cfg.CircuitBreaker = config.CircuitBreakerConfig{Enabled: true, MaxRequests: 3, MinRequests: 3, FailureThreshold: 0.6}

	provider, err := NewGeminiProvider(cfg, config.OperationScore, newTestLogger())
	require.NoError(t, err)
	defer provider.Close()

	stats := provider.GetCircuitBreakerStats()
	assert.Equal(t, true, stats["overall_healthy"])
	aiStats, ok := stats["ai_operations"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "AI-score", aiStats["name"])
}

func TestGenerateConfig(t *testing.T) {
	g := &GeminiProvider{config: testOperationConfig()}

	cfg := g.generateConfig(scoreResponseSchema)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	assert.Same(t, scoreResponseSchema, cfg.ResponseSchema)
	require.NotNil(t, cfg.Temperature)
	assert.Equal(t, float32(0.2), *cfg.Temperature)

	g.config.Temperature = float32Ptr(0)
	assert.Nil(t, g.generateConfig(scoreResponseSchema).Temperature, "zero temperature leaves the model default")
}

func TestPromptResolution(t *testing.T) {
	cfg := testOperationConfig()
	g := &GeminiProvider{config: cfg, operation: config.OperationScore}

	system, user := g.prompts(promptRescoreResume)
	assert.Equal(t, DefaultSystemPrompts.RescoreResume, system)
	assert.Equal(t, DefaultUserPrompts.RescoreResume, user)

	cfg.CustomPrompts.UserPrompts.RescoreResume = "inline %s / %s"
	_, user = g.prompts(promptRescoreResume)
	assert.Equal(t, "inline %s / %s", user)

	promptFile := filepath.Join(t.TempDir(), "rescore.txt")
	require.NoError(t, os.WriteFile(promptFile, []byte("from file %s %s\n"), 0600))
	full := &config.Config{AI: config.AIConfig{Score: config.OperationAIConfig{
		CustomPrompts: config.PromptConfig{UserPrompts: config.PromptSet{RescoreResumeFile: promptFile}},
	}}}
	require.NoError(t, full.ReloadPrompts())
	t.Cleanup(func() { _ = (&config.Config{}).ReloadPrompts() })

	_, user = g.prompts(promptRescoreResume)
	assert.Equal(t, "from file %s %s", user, "a loaded file wins over inline configuration")

	_, user = g.prompts(promptScoreResume)
	assert.Equal(t, DefaultUserPrompts.ScoreResume, user)
}

func TestFillTemplate(t *testing.T) {
	assert.Equal(t, "R: a J: b", fillTemplate("R: %s J: %s", "a", "b"))
	assert.Equal(t, "Resume: a\n\nb", fillTemplate("Resume: %s", "a", "b"))
	assert.Equal(t, "No verbs\n\na\n\nb", fillTemplate("No verbs", "a", "b"))
	assert.Equal(t, "x", fillTemplate("x"))
}

func TestExtractionContents(t *testing.T) {
	g := &GeminiProvider{config: testOperationConfig(), operation: config.OperationExtract}

	t.Run("plain text goes inside the prompt", func(t *testing.T) {
		contents, system, err := g.extractionContents(promptExtractResume, ExtractInput{Content: "Skills: Go"})
		require.NoError(t, err)
		assert.Equal(t, DefaultSystemPrompts.ExtractResume, system)
		require.Len(t, contents, 1)
		require.Len(t, contents[0].Parts, 1)
		assert.Contains(t, contents[0].Parts[0].Text, "Skills: Go")
	})

	t.Run("embedded document becomes an inline part", func(t *testing.T) {
		pdf := []byte("%PDF-1.4 fake")
		contents, _, err := g.extractionContents(promptExtractJobDescription, ExtractInput{
			Content:   ingestion.DataURI(ingestion.MediaTypePDF, pdf),
			Embedded:  true,
			MediaType: ingestion.MediaTypePDF,
		})
		require.NoError(t, err)
		require.Len(t, contents, 1)
		parts := contents[0].Parts
		require.Len(t, parts, 2)
		assert.Contains(t, parts[0].Text, embeddedDocumentPlaceholder)
		require.NotNil(t, parts[1].InlineData)
		assert.Equal(t, pdf, parts[1].InlineData.Data)
		assert.Equal(t, ingestion.MediaTypePDF, parts[1].InlineData.MIMEType)
		assert.Equal(t, "user", contents[0].Role)
	})

	t.Run("malformed data URI", func(t *testing.T) {
		_, _, err := g.extractionContents(promptExtractResume, ExtractInput{Content: "not a uri", Embedded: true})
		assert.Error(t, err)
	})
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"bare", ` {"a":1} `, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"single line fence", "```json{\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		schema  string
		doc     string
		wantErr string
	}{
		{
			name:   "valid resume",
			schema: "resume",
			doc:    `{"name":"Jane","email":"","phone":"","experience":[],"education":[],"skills":["Go"]}`,
		},
		{
			name:    "resume missing skills",
			schema:  "resume",
			doc:     `{"name":"Jane","email":"","phone":"","experience":[],"education":[]}`,
			wantErr: "skills",
		},
		{
			name:    "empty job text",
			schema:  "jd",
			doc:     `{"requirements":[],"skills":[],"extractedText":""}`,
			wantErr: "extractedText",
		},
		{
			name:   "score with skills",
			schema: "score",
			doc:    `{"score":80,"atsScore":70.5,"breakdown":"ok","primarySkills":[{"name":"Go","hasSkill":true}],"secondarySkills":[]}`,
		},
		{
			name:    "skill without flag",
			schema:  "score",
			doc:     `{"score":80,"atsScore":70,"breakdown":"ok","primarySkills":[{"name":"Go"}],"secondarySkills":[]}`,
			wantErr: "hasSkill",
		},
		{
			name:    "score as string",
			schema:  "score",
			doc:     `{"score":"80","atsScore":70,"breakdown":"ok","primarySkills":[],"secondarySkills":[]}`,
			wantErr: "score",
		},
		{
			name:    "not json",
			schema:  "score",
			doc:     `score: 80`,
			wantErr: "not valid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := resumeSchemaLoader
			switch tt.schema {
			case "jd":
				schema = jobDescriptionSchemaLoader
			case "score":
				schema = scoreSchemaLoader
			}
			err := validateResponse(schema, tt.doc)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestClassifyGeminiError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), errors.ErrCodeAITimeout},
		{"breaker open", gobreaker.ErrOpenState, errors.ErrCodeAIServiceFailed},
		{"googleapi quota", &googleapi.Error{Code: http.StatusTooManyRequests}, errors.ErrCodeAIQuotaExceeded},
		{"genai unauthorized", genai.APIError{Code: http.StatusForbidden, Message: "denied"}, errors.ErrCodeAIUnauthorized},
		{"genai pointer", &genai.APIError{Code: http.StatusUnauthorized}, errors.ErrCodeAIUnauthorized},
		{"gateway timeout", &googleapi.Error{Code: http.StatusGatewayTimeout}, errors.ErrCodeAITimeout},
		{"server error", &googleapi.Error{Code: http.StatusInternalServerError}, errors.ErrCodeAIServiceFailed},
		{"plain", stderrors.New("connection reset"), errors.ErrCodeAIServiceFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyGeminiError(tt.err, "score_resume")
			assert.Equal(t, errors.ErrorTypeAI, got.Type)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.err, got.Cause)
		})
	}
}

func TestSpecificCode(t *testing.T) {
	quota := errors.NewAIError(errors.ErrCodeAIQuotaExceeded, "quota", nil)
	generic := errors.NewAIError(errors.ErrCodeAIServiceFailed, "failed", nil)

	assert.Equal(t, errors.ErrCodeAIQuotaExceeded, specificCode(quota, errors.ErrCodeExtractionFailed))
	assert.Equal(t, errors.ErrCodeExtractionFailed, specificCode(generic, errors.ErrCodeExtractionFailed))
	assert.Equal(t, errors.ErrCodeScoringFailed, specificCode(stderrors.New("x"), errors.ErrCodeScoringFailed))
}

func TestExtractTokenUsage(t *testing.T) {
	assert.Nil(t, extractTokenUsage(nil))
	assert.Nil(t, extractTokenUsage(&genai.GenerateContentResponse{}))

	usage := extractTokenUsage(&genai.GenerateContentResponse{UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     120,
		CandidatesTokenCount: 30,
		TotalTokenCount:      150,
	}})
	require.NotNil(t, usage)
	assert.Equal(t, int64(150), usage.TotalTokens)
}
