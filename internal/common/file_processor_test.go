package common

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"clyptusrank/internal/ai"
	"clyptusrank/internal/errors"
	"clyptusrank/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger, _ = errors.New("debug")

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestReadDocument(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		data      []byte
		mediaType string
	}{
		{"plain text", "resume.txt", []byte("Name: Jane Doe\nSkills: Python\n"), "text/plain"},
		{"markdown by content", "resume.md", []byte("# Jane Doe\n\n- Python\n"), "text/plain"},
		{"pdf by content", "resume.bin", []byte("%PDF-1.7\n%âãÏÓ\n1 0 obj\n"), "application/pdf"},
		{"png by content", "posting", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), "image/png"},
		{"zip container falls back to extension", "resume.docx", []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00"), "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, tt.filename, tt.data)

			doc, err := NewFileProcessor(testLogger).ReadDocument(path, "resume", 1024)
			require.NoError(t, err)
			assert.Equal(t, tt.mediaType, doc.MediaType)
			assert.Equal(t, tt.filename, doc.Filename)
			assert.Equal(t, tt.data, doc.Data)
		})
	}
}

func TestReadDocumentTooLarge(t *testing.T) {
	path := writeTemp(t, "resume.txt", bytes.Repeat([]byte("a"), 2048))

	_, err := NewFileProcessor(testLogger).ReadDocument(path, "jobDescriptionFile", 1024)
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileTooLarge))
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	require.Len(t, appErr.Fields["jobDescriptionFile"], 1)
	assert.Contains(t, appErr.Fields["jobDescriptionFile"][0], "2.0 KB")

	_, err = NewFileProcessor(testLogger).ReadDocument(path, "resume", 0)
	assert.NoError(t, err, "zero disables the limit")
}

func TestReadDocumentMissing(t *testing.T) {
	_, err := NewFileProcessor(testLogger).ReadDocument(filepath.Join(t.TempDir(), "nope.pdf"), "resume", 0)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestReadTextFiles(t *testing.T) {
	a := writeTemp(t, "a.txt", []byte("one"))
	b := writeTemp(t, "b.txt", []byte("two"))

	contents, err := NewFileProcessor(nil).ReadTextFiles(a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, contents)
}

func TestHandleOutput(t *testing.T) {
	score := types.ScoreResult{Score: 80, ATSScore: 75, Breakdown: "Good."}

	var stdout bytes.Buffer
	handler := NewOutputHandlerTo(&stdout, testLogger)
	require.NoError(t, handler.HandleOutput(score, CommandConfig{OutputFormat: "text"}))
	assert.Contains(t, stdout.String(), "Overall Score: 80/100")

	out := filepath.Join(t.TempDir(), "out", "score.json")
	require.NoError(t, handler.HandleOutput(score, CommandConfig{OutputFormat: "json", OutputFile: out}))
	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(written), `"score": 80`)

	err = handler.HandleOutput(score, CommandConfig{OutputFormat: "yaml"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))
}

func TestWriteResumePDF(t *testing.T) {
	out := filepath.Join(t.TempDir(), "updated-resume.pdf")

	require.NoError(t, NewOutputHandler(testLogger).WriteResumePDF("Skills: Python\n\n# Added by Clyptus Rank:\n- Go", out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRunAICommand(t *testing.T) {
	resume := writeTemp(t, "resume.txt", []byte("Skills: Go"))
	provider := ai.NewFakeProvider()

	var (
		stdout bytes.Buffer
		logged types.ScoreInput
	)
	err := RunAICommand(context.Background(), testLogger,
		CommandConfig{OutputFormat: "text", Stdout: &stdout},
		func(files *FileProcessor) (types.ScoreInput, error) {
			contents, err := files.ReadTextFiles(resume)
			if err != nil {
				return types.ScoreInput{}, err
			}
			return types.ScoreInput{ResumeText: contents[0], JobDescriptionText: "Requires: Go, Rust"}, nil
		},
		provider.RescoreResume,
		func(input types.ScoreInput, cfg CommandConfig) { logged = input },
	)
	require.NoError(t, err)

	assert.Equal(t, "Skills: Go", logged.ResumeText)
	assert.Contains(t, stdout.String(), "Overall Score: 50/100")
	assert.Contains(t, stdout.String(), "Missing Skills: Rust")
}

func TestRunAICommandPropagatesErrors(t *testing.T) {
	provider := ai.NewFakeProvider()
	provider.RescoreResumeFunc = func(ctx context.Context, input types.ScoreInput) (types.ScoreResult, error) {
		return types.ScoreResult{}, errors.NewAIError(errors.ErrCodeAIQuotaExceeded, "quota", nil)
	}

	err := RunAICommand(context.Background(), testLogger, CommandConfig{OutputFormat: "text"},
		func(files *FileProcessor) (types.ScoreInput, error) {
			return types.ScoreInput{ResumeText: "x", JobDescriptionText: "y"}, nil
		},
		provider.RescoreResume, nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAIQuotaExceeded))
}
