package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorUnwrapAndMatch(t *testing.T) {
	cause := fmt.Errorf("upstream quota")
	err := NewExtractionError(ErrCodeExtractionFailed, "Failed to extract resume", cause)
	wrapped := fmt.Errorf("analysis: %w", err)

	assert.True(t, stderrors.Is(wrapped, cause))
	assert.True(t, IsType(wrapped, ErrorTypeExtraction))
	assert.False(t, IsType(wrapped, ErrorTypeIngestion))
	assert.True(t, HasCode(wrapped, ErrCodeExtractionFailed))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "Failed to extract resume", appErr.Message)
	assert.Contains(t, err.Error(), "caused by: upstream quota")
}

func TestUnsupportedFormatIsIngestion(t *testing.T) {
	err := NewUnsupportedFormatError("no readable text", nil)
	assert.True(t, IsType(err, ErrorTypeIngestion))
	assert.Equal(t, ErrCodeUnsupportedFormat, err.Code)
	assert.Equal(t, "UNSUPPORTED_FORMAT: no readable text", err.Error())
}

func TestFieldErrors(t *testing.T) {
	fields := FieldErrors{}
	fields.Add("resume", MsgFileRequired)
	fields.Add("jobDescriptionText", MsgJDRequired)
	fields.Add("resume", MsgMaxFileSize)

	err := NewFieldValidationError(fields)
	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, []string{"jobDescriptionText", "resume"}, err.Fields.Fields())
	assert.Equal(t, []string{MsgFileRequired, MsgMaxFileSize}, err.Fields["resume"])
	assert.Equal(t, "INVALID_FORM: "+MsgInvalidForm+" [jobDescriptionText: "+MsgJDRequired+
		"; resume: "+MsgFileRequired+"; resume: "+MsgMaxFileSize+"]", err.Error())
}

func TestFileTooLargeError(t *testing.T) {
	err := NewFileTooLargeError("resume", MsgMaxFileSize, nil)

	assert.True(t, IsType(err, ErrorTypeValidation))
	assert.True(t, HasCode(err, ErrCodeFileTooLarge))
	assert.Equal(t, FieldErrors{"resume": {MsgMaxFileSize}}, err.Fields)
	assert.Equal(t, MsgInvalidForm, UserMessage(err))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "validation keeps its message",
			err:      NewFieldValidationError(FieldErrors{"resume": {MsgFileRequired}}),
			expected: MsgInvalidForm,
		},
		{
			name:     "rescore keeps its message",
			err:      NewRescoreError(MsgRescoreFailed, fmt.Errorf("boom")),
			expected: MsgRescoreFailed,
		},
		{
			name:     "extraction is consolidated",
			err:      NewExtractionError(ErrCodeExtractionFailed, "schema mismatch", nil),
			expected: MsgAnalysisFailed,
		},
		{
			name:     "plain error is consolidated",
			err:      fmt.Errorf("plain"),
			expected: MsgAnalysisFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(level)
		require.NoError(t, err, level)
		require.NotNil(t, logger)
	}

	_, err := New("verbose")
	assert.EqualError(t, err, "invalid log level: verbose")
}
