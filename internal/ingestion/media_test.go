package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMediaType(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"text/plain; charset=utf-8", "text/plain"},
		{"  Application/PDF ", "application/pdf"},
		{"", ""},
		{"text/plain;;;", "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMediaType(tt.in))
		})
	}
}

func TestAcceptedTypes(t *testing.T) {
	assert.True(t, IsAcceptedResumeType(MediaTypeDOCX))
	assert.True(t, IsAcceptedResumeType("text/plain; charset=utf-8"))
	assert.False(t, IsAcceptedResumeType(MediaTypePNG))

	assert.True(t, IsAcceptedJobDescriptionType(MediaTypePNG))
	assert.True(t, IsAcceptedJobDescriptionType(MediaTypeJPEG))
	assert.False(t, IsAcceptedJobDescriptionType("image/gif"))

	types := ResumeMediaTypes()
	types[0] = "mutated"
	assert.Equal(t, MediaTypePDF, ResumeMediaTypes()[0])
}

func TestResolveMediaType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	assert.Equal(t, MediaTypePDF, ResolveMediaType([]byte("anything"), "application/pdf"))
	assert.Equal(t, MediaTypePNG, ResolveMediaType(png, "application/octet-stream"))
	assert.Equal(t, MediaTypePNG, ResolveMediaType(png, ""))
	assert.Equal(t, MediaTypeText, ResolveMediaType([]byte("Skills: Go, Python\n"), ""))
	assert.Equal(t, MediaTypePDF, DetectMediaType([]byte("%PDF-1.7\n%âãÏÓ\n")))
}
