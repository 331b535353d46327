package server

import (
	"context"
	"reflect"
	"strings"
	"time"

	"clyptusrank/internal/ai"
	"clyptusrank/internal/analysis"
	"clyptusrank/internal/config"
	"clyptusrank/internal/errors"
	"clyptusrank/internal/formatters"
	"clyptusrank/internal/observability"
	"clyptusrank/internal/refine"
	"clyptusrank/internal/types"

	"github.com/go-playground/validator/v10"
)

// SkillRequest is the body of POST /sessions/{id}/skills
type SkillRequest struct {
	Skill string `json:"skill" validate:"required,max=200"`
}

// RescoreRequest is the body of POST /rescore
type RescoreRequest struct {
	ResumeText         string `json:"resumeText" validate:"required"`
	JobDescriptionText string `json:"jobDescriptionText" validate:"required"`
}

// AnalyzeResponse is returned by POST /analyze
type AnalyzeResponse struct {
	SessionID string               `json:"sessionId"`
	Result    types.AnalysisResult `json:"result"`
}

// SessionResponse describes a refinement session
type SessionResponse struct {
	SessionID     string               `json:"sessionId"`
	State         string               `json:"state"`
	AddedSkills   []string             `json:"addedSkills"`
	MissingSkills []string             `json:"missingSkills"`
	Result        types.AnalysisResult `json:"result"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message,omitempty"`
	Code    string              `json:"code,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// Analyzer runs a full analysis
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*types.AnalysisResult, error)
}

// AIStatus reports oracle model availability and breaker state
type AIStatus interface {
	ModelInfo(ctx context.Context) map[string]*ai.ModelInfo
	CircuitBreakerStats() map[string]any
}

// Dependencies are the domain components the HTTP layer drives
type Dependencies struct {
	Analyzer      Analyzer
	Scorer        ai.ScoringOracle
	AIStatus      AIStatus
	Sessions      *refine.Store
	Observability *observability.ObservabilityManager
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	AppConfig *config.Config
	TLSConfig config.TLSConfig

	APIKeys map[string]bool

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	MaxFileSize    int64
	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	analyzer     Analyzer
	scorer       ai.ScoringOracle
	aiStatus     AIStatus
	sessions     *refine.Store
	sessionOpts  refine.Options
	om           *observability.ObservabilityManager
	registry     *formatters.FormatterRegistry
	validate     *validator.Validate
	promptWatch  *config.PromptWatcher
	healthBudget time.Duration

	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host            string
	Port            string
	Version         string
	TLSConfig       config.TLSConfig
	APIKeys         []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxFileSize     int64
	RateLimit       *config.RateLimitConfig
}

// multipartOverhead is added to the two file limits for form boundaries and text fields
const multipartOverhead = 1 << 20

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Dependencies, logger *errors.Logger) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			10*cfg.RateLimit.Window,
			logger,
		)
	}

	maxFileSize := cfg.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = config.DefaultMaxFileSize
	}

	s := &Server{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Version:         cfg.Version,
		AppConfig:       appCfg,
		TLSConfig:       cfg.TLSConfig,
		APIKeys:         apiKeyMap,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		MaxFileSize:     maxFileSize,
		MaxRequestSize:  2*maxFileSize + multipartOverhead,
		RateLimit:       cfg.RateLimit,
		RateLimiter:     rateLimiter,
		analyzer:        deps.Analyzer,
		scorer:          deps.Scorer,
		aiStatus:        deps.AIStatus,
		sessions:        deps.Sessions,
		om:              deps.Observability,
		registry:        formatters.GlobalRegistry,
		validate:        newValidator(),
		healthBudget:    10 * time.Second,
		Logger:          logger,
	}

	if appCfg != nil {
		s.sessionOpts = refine.Options{EnforceNonDecreasing: appCfg.GetScoreConfig().EnforceNonDecreasing}
		if timeout := appCfg.AI.ModelCheckTimeout; timeout > 0 {
			s.healthBudget = timeout
		}
	}
	if s.ShutdownTimeout <= 0 {
		s.ShutdownTimeout = 30 * time.Second
	}

	return s
}

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
