package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(file, []byte("Skills: Go"), 0600))

	assert.NoError(t, ValidateInputFile(file))
	assert.ErrorContains(t, ValidateInputFile(""), "filename cannot be empty")
	assert.ErrorContains(t, ValidateInputFile(filepath.Join(dir, "missing.txt")), "file does not exist")
	assert.ErrorContains(t, ValidateInputFile(dir), "path is a directory")
}

func TestValidateOutputFileCreatesDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports", "nested", "report.txt")

	require.NoError(t, ValidateOutputFile(out))
	info, err := os.Stat(filepath.Dir(out))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.NoError(t, ValidateOutputFile(""))
}

func TestMediaTypeFromExtension(t *testing.T) {
	tests := map[string]string{
		"resume.PDF":   "application/pdf",
		"resume.docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"notes.md":     "text/plain",
		"posting.jpeg": "image/jpeg",
		"posting.gif":  "",
		"no-extension": "",
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, MediaTypeFromExtension(name))
		})
	}
}

func TestIsTextFile(t *testing.T) {
	assert.True(t, IsTextFile("resume.TXT"))
	assert.True(t, IsTextFile("resume.markdown"))
	assert.False(t, IsTextFile("resume.pdf"))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "10.0 MB", FormatFileSize(10*1024*1024))
}
