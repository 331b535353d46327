package common

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ValidateJobDescriptionSource requires exactly one of inline text and a file
func ValidateJobDescriptionSource(text, file string) error {
	hasText, hasFile := strings.TrimSpace(text) != "", file != ""
	switch {
	case hasText && hasFile:
		return fmt.Errorf("use either --jd-text or --jd-file, not both")
	case !hasText && !hasFile:
		return fmt.Errorf("a job description is required: pass --jd-text or --jd-file")
	}
	return nil
}
