package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"

	"clyptusrank/internal/errors"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// healthHandler reports oracle model availability and breaker state
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "clyptusrank",
		"version": s.Version,
	}

	overallHealthy := true
	if s.aiStatus != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.healthBudget)
		defer cancel()

		models := s.aiStatus.ModelInfo(ctx)
		for _, info := range models {
			if info == nil || !info.Available {
				overallHealthy = false
			}
		}
		response["ai_models"] = models
		response["circuit_breakers"] = s.aiStatus.CircuitBreakerStats()
	}

	status := http.StatusOK
	if !overallHealthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "clyptusrank",
		"version": s.Version,
		"server": map[string]any{
			"max_file_size_bytes":    s.MaxFileSize,
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.sessions != nil {
		response["sessions"] = s.sessions.GetStats()
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes a JSON request body into v
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Content-Type must be application/json.", err)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return errors.NewValidationError(errors.ErrCodeFileTooLarge,
				fmt.Sprintf("Request body too large (limit is %d bytes).", maxBytesErr.Limit), err)
		}
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Failed to read request body.", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Request body is not valid JSON.", err)
	}
	return nil
}

// validateRequest runs struct validation and reports failures keyed by JSON field
func (s *Server) validateRequest(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Invalid request.", err)
	}

	fields := errors.FieldErrors{}
	for _, fe := range validationErrors {
		fields.Add(fe.Field(), validationMessage(fe))
	}
	return errors.NewFieldValidationError(fields)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s).", fe.Field(), fe.Tag())
	}
}

// statusForError maps the error taxonomy onto HTTP status codes
func statusForError(err error) int {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.ErrCodeRescoreInFlight, errors.ErrCodeSessionReset:
		return http.StatusConflict
	case errors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case errors.ErrCodeAIQuotaExceeded:
		return http.StatusTooManyRequests
	case errors.ErrCodeAITimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeAIServiceFailed:
		return http.StatusServiceUnavailable
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeIngestion:
		return http.StatusUnprocessableEntity
	case errors.ErrorTypeExtraction, errors.ErrorTypeScoreRange, errors.ErrorTypeRescore, errors.ErrorTypeAI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError records err on the span and writes the user-facing error body
func (s *Server) writeError(w http.ResponseWriter, span trace.Span, err error) {
	status := statusForError(err)

	span.RecordError(err)
	span.SetStatus(codes.Error, http.StatusText(status))

	body := ErrorResponse{Error: errors.UserMessage(err)}
	if appErr, ok := errors.AsAppError(err); ok {
		body.Code = appErr.Code
		if len(appErr.Fields) > 0 {
			body.Fields = appErr.Fields
		}
	}

	if status >= http.StatusInternalServerError || status == http.StatusBadGateway {
		s.Logger.LogError(err, "Request failed", "status", status)
	} else {
		s.Logger.Debug("Request rejected", "status", status, "error", err.Error())
	}

	writeErrorResponse(w, body, status)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, body ErrorResponse, statusCode int) {
	writeJSON(w, statusCode, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
