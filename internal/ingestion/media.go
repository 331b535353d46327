package ingestion

import (
	"mime"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Media types the form boundary accepts
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeText = "text/plain"
	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"

	mediaTypeOctetStream = "application/octet-stream"
)

var (
	resumeMediaTypes         = []string{MediaTypePDF, MediaTypeDOCX, MediaTypeText}
	jobDescriptionMediaTypes = []string{MediaTypePDF, MediaTypeDOCX, MediaTypeText, MediaTypeJPEG, MediaTypePNG}
)

// ResumeMediaTypes returns the media types accepted for a resume upload
func ResumeMediaTypes() []string { return slices.Clone(resumeMediaTypes) }

// JobDescriptionMediaTypes returns the media types accepted for a job description upload
func JobDescriptionMediaTypes() []string { return slices.Clone(jobDescriptionMediaTypes) }

// IsAcceptedResumeType reports whether mediaType may be uploaded as a resume
func IsAcceptedResumeType(mediaType string) bool {
	return slices.Contains(resumeMediaTypes, NormalizeMediaType(mediaType))
}

// IsAcceptedJobDescriptionType reports whether mediaType may be uploaded as a job description
func IsAcceptedJobDescriptionType(mediaType string) bool {
	return slices.Contains(jobDescriptionMediaTypes, NormalizeMediaType(mediaType))
}

// NormalizeMediaType lowercases a media type and strips its parameters
func NormalizeMediaType(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		return parsed
	}
	base, _, _ := strings.Cut(mediaType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// ResolveMediaType keeps a meaningful declared type and sniffs the content otherwise
func ResolveMediaType(data []byte, declared string) string {
	declared = NormalizeMediaType(declared)
	if declared != "" && declared != mediaTypeOctetStream {
		return declared
	}
	return DetectMediaType(data)
}

// DetectMediaType sniffs the media type from content alone
func DetectMediaType(data []byte) string {
	return NormalizeMediaType(mimetype.Detect(data).String())
}
