package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIngestion  ErrorType = "ingestion"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeScoreRange ErrorType = "score_range"
	ErrorTypeRescore    ErrorType = "rescore"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeAI         ErrorType = "ai"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// FieldErrors maps an input field name to the messages reported for it.
type FieldErrors map[string][]string

// Add appends a message for a field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Fields returns the field names in sorted order.
func (f FieldErrors) Fields() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String renders the messages as "[field: msg; field: msg]" in field order.
func (f FieldErrors) String() string {
	var parts []string
	for _, name := range f.Fields() {
		for _, message := range f[name] {
			parts = append(parts, name+": "+message)
		}
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
	Fields  FieldErrors    `json:"fields,omitempty"`
}

func (e *AppError) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		msg += " " + e.Fields.String()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// newAppError is an unexported helper to create AppError instances
func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error constructors for different types
func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

// NewFieldValidationError reports user-correctable input problems keyed by field.
func NewFieldValidationError(fields FieldErrors) *AppError {
	err := newAppError(ErrorTypeValidation, ErrCodeInvalidForm, MsgInvalidForm, nil)
	err.Fields = fields
	return err
}

// NewFileTooLargeError reports an upload over the size limit against its form field.
func NewFileTooLargeError(field, message string, cause error) *AppError {
	err := newAppError(ErrorTypeValidation, ErrCodeFileTooLarge, MsgInvalidForm, cause)
	err.Fields = FieldErrors{field: {message}}
	return err
}

func NewIngestionError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIngestion, code, message, cause)
}

// NewUnsupportedFormatError is an ingestion error for documents whose declared
// format yields no readable text.
func NewUnsupportedFormatError(message string, cause error) *AppError {
	return newAppError(ErrorTypeIngestion, ErrCodeUnsupportedFormat, message, cause)
}

func NewExtractionError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeExtraction, code, message, cause)
}

func NewInvalidScoreRangeError(message string) *AppError {
	return newAppError(ErrorTypeScoreRange, ErrCodeInvalidScoreRange, message, nil)
}

func NewRescoreError(message string, cause error) *AppError {
	return newAppError(ErrorTypeRescore, ErrCodeRescoreFailed, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewAIError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeAI, code, message, cause)
}

func NewNetworkError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNetwork, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err's chain holds an AppError of the given type.
func IsType(err error, typ ErrorType) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Type == typ
}

// HasCode reports whether err's chain holds an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// UserMessage returns the single consolidated message shown to end users.
func UserMessage(err error) string {
	appErr, ok := AsAppError(err)
	if !ok {
		return MsgAnalysisFailed
	}
	switch appErr.Type {
	case ErrorTypeValidation, ErrorTypeRescore:
		return appErr.Message
	default:
		return MsgAnalysisFailed
	}
}

// Logger wraps slog with application-specific methods
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a new structured logger
func NewLogger(level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(handler)

	return &Logger{logger: logger}
}

// LogError logs an application error with appropriate level and context
func (l *Logger) LogError(err error, message string, args ...any) {
	if appErr, ok := AsAppError(err); ok {
		logArgs := []any{
			"error_type", appErr.Type,
			"error_code", appErr.Code,
			"error_message", appErr.Message,
		}
		if appErr.Cause != nil {
			logArgs = append(logArgs, "error_cause", appErr.Cause.Error())
		}

		for key, value := range appErr.Context {
			logArgs = append(logArgs, key, value)
		}
		if len(appErr.Fields) > 0 {
			logArgs = append(logArgs, "fields", map[string][]string(appErr.Fields))
		}

		logArgs = append(logArgs, args...)

		l.logger.Error(message, logArgs...)
	} else {
		logArgs := append([]any{"error", err.Error()}, args...)
		l.logger.Error(message, logArgs...)
	}
}

func (l *Logger) Info(message string, args ...any) {
	l.logger.Info(message, args...)
}

func (l *Logger) Debug(message string, args ...any) {
	l.logger.Debug(message, args...)
}

func (l *Logger) Warn(message string, args ...any) {
	l.logger.Warn(message, args...)
}

// With returns a logger that always includes the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}

// New creates a new logger instance
func New(level string) (*Logger, error) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	return NewLogger(slogLevel), nil
}

// Common error codes
const (
	ErrCodeFileNotFound      = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable   = "FILE_NOT_READABLE"
	ErrCodeFileTooLarge      = "FILE_TOO_LARGE"
	ErrCodeInvalidFormat     = "INVALID_FORMAT"
	ErrCodeInvalidForm       = "INVALID_FORM"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeIngestionFailed   = "INGESTION_FAILED"
	ErrCodeExtractionFailed  = "EXTRACTION_FAILED"
	ErrCodeInvalidScoreRange = "INVALID_SCORE_RANGE"
	ErrCodeScoringFailed     = "SCORING_FAILED"
	ErrCodeRescoreFailed     = "RESCORE_FAILED"
	ErrCodeRescoreInFlight   = "RESCORE_IN_FLIGHT"
	ErrCodeSessionReset      = "SESSION_RESET"
	ErrCodeSessionNotFound   = "SESSION_NOT_FOUND"
	ErrCodeAIServiceFailed   = "AI_SERVICE_FAILED"
	ErrCodeAITimeout         = "AI_TIMEOUT"
	ErrCodeAIQuotaExceeded   = "AI_QUOTA_EXCEEDED"
	ErrCodeAIUnauthorized    = "AI_UNAUTHORIZED"
	ErrCodeAIResponseInvalid = "AI_RESPONSE_INVALID"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeMissingAPIKey     = "MISSING_API_KEY"
	ErrCodeNetworkTimeout    = "NETWORK_TIMEOUT"
	ErrCodeInvalidConfig     = "INVALID_CONFIG"
)

// User-facing messages
const (
	MsgFileRequired      = "File is required."
	MsgMaxFileSize       = "Max file size is 10MB."
	MsgJDRequired        = "Either job description text or a file is required."
	MsgJDExclusive       = "Provide job description text or a file, not both."
	MsgInvalidForm       = "Invalid form data. Please check your inputs."
	MsgAnalysisFailed    = "An unexpected error occurred during analysis. Please try again."
	MsgRescoreMissing    = "Missing data for re-scoring."
	MsgRescoreFailed     = "Failed to re-score resume."
	MsgRescoreInProgress = "A re-score is already in progress."
	MsgSessionReset      = "The analysis was replaced before the re-score finished."
	MsgResumeFileTypes   = "Accepted file types: pdf, vnd.openxmlformats-officedocument.wordprocessingml.document, plain"
	MsgJDFileTypes       = "Unsupported file type. Accepted types are: application/pdf, application/vnd.openxmlformats-officedocument.wordprocessingml.document, text/plain, image/jpeg, image/png"
)
