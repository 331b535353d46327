package common

import (
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectedError    string
	}{
		{name: "json", format: "json", supportedFormats: supported},
		{name: "markdown", format: "markdown", supportedFormats: supported},
		{
			name:             "pdf is not a report format",
			format:           "pdf",
			supportedFormats: supported,
			expectedError:    "unsupported output format 'pdf'. Supported formats: [json text markdown]",
		},
		{
			name:             "case sensitive",
			format:           "TEXT",
			supportedFormats: supported,
			expectedError:    "unsupported output format 'TEXT'. Supported formats: [json text markdown]",
		},
		{name: "no restrictions configured", format: "xml", supportedFormats: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)

			if tt.expectedError == "" {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
				return
			}
			if err == nil {
				t.Errorf("Expected error but got none")
				return
			}
			if err.Error() != tt.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tt.expectedError, err.Error())
			}
		})
	}
}

func TestValidateJobDescriptionSource(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		file      string
		expectErr bool
	}{
		{name: "text only", text: "Requires: Go"},
		{name: "file only", file: "jd.pdf"},
		{name: "both", text: "Requires: Go", file: "jd.pdf", expectErr: true},
		{name: "neither", expectErr: true},
		{name: "blank text counts as absent", text: "  \n", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJobDescriptionSource(tt.text, tt.file)
			if tt.expectErr && err == nil {
				t.Errorf("Expected error but got none")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "text", "markdown"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", supportedFormats)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supportedFormats)
		}
	})
}
