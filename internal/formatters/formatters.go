package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"clyptusrank/internal/types"
)

// Download names offered for reports and the updated resume
const (
	ReportFileName    = "clyptus-rank-report.txt"
	ResumePDFFileName = "updated-resume.pdf"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisResult", &ReportTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisResult", &ReportMarkdownFormatter{})
	registry.RegisterFormatter("text", "ScoreResult", &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", "ScoreResult", &ScoreMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// ContentType returns the media type used when serving a formatted report
func ContentType(format string) string {
	switch format {
	case "json":
		return "application/json; charset=utf-8"
	case "markdown":
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// ReportFileNameFor names a downloaded report in the given format
func ReportFileNameFor(format string) string {
	switch format {
	case "json":
		return "clyptus-rank-report.json"
	case "markdown":
		return "clyptus-rank-report.md"
	default:
		return ReportFileName
	}
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResult, *types.AnalysisResult:
		return "AnalysisResult"
	case types.ScoreResult, *types.ScoreResult:
		return "ScoreResult"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ReportTextFormatter renders the downloadable plain-text analysis report
type ReportTextFormatter struct{}

func (rtf *ReportTextFormatter) Format(data any) (string, error) {
	result, err := asAnalysisResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("Clyptus Rank Analysis Report\n")
	output.WriteString("=============================\n\n")
	output.WriteString(fmt.Sprintf("Overall Score: %s/100\n", formatScore(result.Score.Score)))
	output.WriteString(fmt.Sprintf("ATS Friendliness: %s/100\n\n", formatScore(result.Score.ATSScore)))

	output.WriteString("AI Breakdown:\n")
	output.WriteString("----------------\n")
	output.WriteString(result.Score.Breakdown)
	output.WriteString("\n\n")

	output.WriteString("Primary Skills Match:\n")
	output.WriteString("---------------------\n")
	output.WriteString(skillMarks(result.Score.PrimarySkills))
	output.WriteString("\n\n")

	output.WriteString("Secondary Skills Match:\n")
	output.WriteString("-----------------------\n")
	output.WriteString(skillMarks(result.Score.SecondarySkills))
	output.WriteString("\n\n")

	resume := result.Resume
	output.WriteString("Extracted Resume Details:\n")
	output.WriteString("-------------------------\n")
	output.WriteString("Name: " + resume.Name + "\n")
	output.WriteString("Contact: " + resume.Email + " | " + resume.Phone + "\n")
	output.WriteString("Experience:\n")
	output.WriteString(bulletList(resume.Experience, "- "))
	output.WriteString("\nEducation:\n")
	output.WriteString(bulletList(resume.Education, "- "))
	output.WriteString("\nSkills: " + strings.Join(resume.Skills, ", ") + "\n\n")

	output.WriteString("Job Description Requirements:\n")
	output.WriteString("-----------------------------\n")
	output.WriteString(bulletList(result.JobDescription.Requirements, "- "))
	output.WriteString("\n")

	return output.String(), nil
}

func (rtf *ReportTextFormatter) SupportedType() string {
	return "AnalysisResult"
}

// ReportMarkdownFormatter renders the analysis report as markdown
type ReportMarkdownFormatter struct{}

func (rmf *ReportMarkdownFormatter) Format(data any) (string, error) {
	result, err := asAnalysisResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# Clyptus Rank Analysis Report\n\n")
	output.WriteString(fmt.Sprintf("**Overall Score:** %s/100\n\n", formatScore(result.Score.Score)))
	output.WriteString(fmt.Sprintf("**ATS Friendliness:** %s/100\n\n", formatScore(result.Score.ATSScore)))

	output.WriteString("## AI Breakdown\n\n")
	output.WriteString(result.Score.Breakdown)
	output.WriteString("\n\n")

	writeMarkdownSkills(&output, "Primary Skills Match", result.Score.PrimarySkills)
	writeMarkdownSkills(&output, "Secondary Skills Match", result.Score.SecondarySkills)

	resume := result.Resume
	output.WriteString("## Extracted Resume Details\n\n")
	output.WriteString("**Name:** " + resume.Name + "\n\n")
	output.WriteString("**Contact:** " + resume.Email + " | " + resume.Phone + "\n\n")
	if len(resume.Experience) > 0 {
		output.WriteString("### Experience\n\n")
		output.WriteString(bulletList(resume.Experience, "- "))
		output.WriteString("\n\n")
	}
	if len(resume.Education) > 0 {
		output.WriteString("### Education\n\n")
		output.WriteString(bulletList(resume.Education, "- "))
		output.WriteString("\n\n")
	}
	output.WriteString("**Skills:** " + strings.Join(resume.Skills, ", ") + "\n\n")

	output.WriteString("## Job Description Requirements\n\n")
	if len(result.JobDescription.Requirements) > 0 {
		output.WriteString(bulletList(result.JobDescription.Requirements, "- "))
		output.WriteString("\n")
	} else {
		output.WriteString("_None listed._\n")
	}

	return output.String(), nil
}

func (rmf *ReportMarkdownFormatter) SupportedType() string {
	return "AnalysisResult"
}

// ScoreTextFormatter handles text formatting for a standalone rescore
type ScoreTextFormatter struct{}

func (stf *ScoreTextFormatter) Format(data any) (string, error) {
	score, err := asScoreResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("Overall Score: %s/100\n", formatScore(score.Score)))
	output.WriteString(fmt.Sprintf("ATS Friendliness: %s/100\n\n", formatScore(score.ATSScore)))
	output.WriteString(score.Breakdown)
	output.WriteString("\n")
	if missing := score.MissingSkills(); len(missing) > 0 {
		output.WriteString("\nMissing Skills: " + strings.Join(missing, ", ") + "\n")
	}
	return output.String(), nil
}

func (stf *ScoreTextFormatter) SupportedType() string {
	return "ScoreResult"
}

// ScoreMarkdownFormatter handles markdown formatting for a standalone rescore
type ScoreMarkdownFormatter struct{}

func (smf *ScoreMarkdownFormatter) Format(data any) (string, error) {
	score, err := asScoreResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString("# Score\n\n")
	output.WriteString(fmt.Sprintf("**Overall Score:** %s/100\n\n", formatScore(score.Score)))
	output.WriteString(fmt.Sprintf("**ATS Friendliness:** %s/100\n\n", formatScore(score.ATSScore)))
	output.WriteString(score.Breakdown)
	output.WriteString("\n\n")
	writeMarkdownSkills(&output, "Primary Skills Match", score.PrimarySkills)
	writeMarkdownSkills(&output, "Secondary Skills Match", score.SecondarySkills)
	return strings.TrimRight(output.String(), "\n") + "\n", nil
}

func (smf *ScoreMarkdownFormatter) SupportedType() string {
	return "ScoreResult"
}

func asAnalysisResult(data any) (types.AnalysisResult, error) {
	switch v := data.(type) {
	case types.AnalysisResult:
		return v, nil
	case *types.AnalysisResult:
		if v != nil {
			return *v, nil
		}
	}
	return types.AnalysisResult{}, fmt.Errorf("expected AnalysisResult, got %T", data)
}

func asScoreResult(data any) (types.ScoreResult, error) {
	switch v := data.(type) {
	case types.ScoreResult:
		return v, nil
	case *types.ScoreResult:
		if v != nil {
			return *v, nil
		}
	}
	return types.ScoreResult{}, fmt.Errorf("expected ScoreResult, got %T", data)
}

// formatScore prints whole scores without a fractional part
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func skillMarks(skills []types.SkillAssessment) string {
	lines := make([]string, 0, len(skills))
	for _, skill := range skills {
		lines = append(lines, skill.Name+": "+checkMark(skill.HasSkill))
	}
	return strings.Join(lines, "\n")
}

func writeMarkdownSkills(output *strings.Builder, title string, skills []types.SkillAssessment) {
	if len(skills) == 0 {
		return
	}
	output.WriteString("## " + title + "\n\n")
	output.WriteString("| Skill | Match |\n")
	output.WriteString("|-------|-------|\n")
	for _, skill := range skills {
		output.WriteString("| " + skill.Name + " | " + checkMark(skill.HasSkill) + " |\n")
	}
	output.WriteString("\n")
}

func checkMark(has bool) string {
	if has {
		return "✓"
	}
	return "✗"
}

func bulletList(items []string, prefix string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, prefix+item)
	}
	return strings.Join(lines, "\n")
}

// GlobalRegistry is the shared registry used by CLI output and HTTP report downloads
var GlobalRegistry = NewFormatterRegistry()
