package analysis

import (
	"strings"

	"clyptusrank/internal/types"
)

// BuildRawResume rebuilds plain resume text from extracted fields. It is
// used when the uploaded resume was embedded rather than read as text.
func BuildRawResume(resume types.ExtractedResume) string {
	var b strings.Builder
	b.WriteString(resume.Name)
	b.WriteString("\n")
	b.WriteString(resume.Email)
	b.WriteString("\n")
	b.WriteString(resume.Phone)
	b.WriteString("\n\nExperience:\n")
	b.WriteString(strings.Join(resume.Experience, "\n\n"))
	b.WriteString("\n\nEducation:\n")
	b.WriteString(strings.Join(resume.Education, "\n\n"))
	b.WriteString("\n\nSkills:\n")
	b.WriteString(strings.Join(resume.Skills, ", "))
	return b.String()
}
