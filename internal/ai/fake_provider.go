package ai

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"clyptusrank/internal/errors"
	"clyptusrank/internal/ingestion"
	"clyptusrank/internal/types"
)

// FakeProvider is a deterministic AIProvider. It reads labelled lines
// ("Name:", "Skills:", "Requires:", ...) from the documents and scores by
// case-insensitive keyword presence. Any method can be replaced through the
// exported hooks.
type FakeProvider struct {
	ExtractResumeFunc         func(ctx context.Context, input ExtractInput) (types.ExtractedResume, error)
	ExtractJobDescriptionFunc func(ctx context.Context, input ExtractInput) (types.ExtractedJobDescription, error)
	ScoreResumeFunc           func(ctx context.Context, input types.ScoreInput) (types.ScoreResult, error)
	RescoreResumeFunc         func(ctx context.Context, input types.ScoreInput) (types.ScoreResult, error)

	// Latency delays every call; the wait honours ctx
	Latency time.Duration

	extractResumeCalls atomic.Int64
	extractJobCalls    atomic.Int64
	scoreCalls         atomic.Int64
	rescoreCalls       atomic.Int64
}

var _ AIProvider = (*FakeProvider)(nil)

// NewFakeProvider creates a FakeProvider with the built-in behaviour
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{}
}

// ExtractResume implements ExtractionOracle
func (f *FakeProvider) ExtractResume(ctx context.Context, input ExtractInput) (types.ExtractedResume, *TokenUsage, error) {
	f.extractResumeCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return types.ExtractedResume{}, nil, errors.NewExtractionError(errors.ErrCodeAITimeout, "Failed to extract resume", err)
	}
	if f.ExtractResumeFunc != nil {
		resume, err := f.ExtractResumeFunc(ctx, input)
		return resume, nil, err
	}

	text, err := fakeDocumentText(input)
	if err != nil {
		return types.ExtractedResume{}, nil, errors.NewExtractionError(errors.ErrCodeExtractionFailed, "Failed to extract resume", err)
	}

	resume := types.ExtractedResume{}
	for _, line := range strings.Split(text, "\n") {
		label, value, ok := labelledLine(line)
		if !ok {
			continue
		}
		switch label {
		case "name":
			resume.Name = value
		case "email":
			resume.Email = value
		case "phone":
			resume.Phone = value
		case "skills":
			resume.Skills = append(resume.Skills, splitList(value)...)
		case "experience":
			resume.Experience = append(resume.Experience, value)
		case "education":
			resume.Education = append(resume.Education, value)
		}
	}
	return normalizeResume(resume), fakeUsage(text), nil
}

// ExtractJobDescription implements ExtractionOracle
func (f *FakeProvider) ExtractJobDescription(ctx context.Context, input ExtractInput) (types.ExtractedJobDescription, *TokenUsage, error) {
	f.extractJobCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return types.ExtractedJobDescription{}, nil, errors.NewExtractionError(errors.ErrCodeAITimeout, "Failed to extract job description", err)
	}
	if f.ExtractJobDescriptionFunc != nil {
		jd, err := f.ExtractJobDescriptionFunc(ctx, input)
		return jd, nil, err
	}

	text, err := fakeDocumentText(input)
	if err != nil {
		return types.ExtractedJobDescription{}, nil, errors.NewExtractionError(errors.ErrCodeExtractionFailed, "Failed to extract job description", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return types.ExtractedJobDescription{}, nil, errors.NewExtractionError(errors.ErrCodeExtractionFailed,
			"Failed to extract job description", fmt.Errorf("job description is empty"))
	}

	jd := types.ExtractedJobDescription{ExtractedText: text}
	for _, line := range strings.Split(text, "\n") {
		label, value, ok := labelledLine(line)
		if !ok {
			continue
		}
		switch label {
		case "requires", "skills":
			jd.Skills = append(jd.Skills, splitList(value)...)
		case "requirement", "requirements":
			jd.Requirements = append(jd.Requirements, value)
		}
	}
	return normalizeJobDescription(jd), fakeUsage(text), nil
}

// ScoreResume implements ScoringOracle
func (f *FakeProvider) ScoreResume(ctx context.Context, input types.ScoreInput) (types.ScoreResult, *TokenUsage, error) {
	f.scoreCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return types.ScoreResult{}, nil, errors.NewAIError(errors.ErrCodeAITimeout, "Failed to score resume", err)
	}
	if f.ScoreResumeFunc != nil {
		result, err := f.ScoreResumeFunc(ctx, input)
		if err == nil {
			err = ValidateScoreRange(result)
		}
		return result, nil, err
	}
	return keywordScore(input), fakeUsage(input.ResumeText + input.JobDescriptionText), nil
}

// RescoreResume implements ScoringOracle
func (f *FakeProvider) RescoreResume(ctx context.Context, input types.ScoreInput) (types.ScoreResult, *TokenUsage, error) {
	f.rescoreCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return types.ScoreResult{}, nil, errors.NewAIError(errors.ErrCodeAITimeout, "Failed to rescore resume", err)
	}
	if f.RescoreResumeFunc != nil {
		result, err := f.RescoreResumeFunc(ctx, input)
		if err == nil {
			err = ValidateScoreRange(result)
		}
		return result, nil, err
	}
	return keywordScore(input), fakeUsage(input.ResumeText + input.JobDescriptionText), nil
}

// GetModelInfo implements AIProvider
func (f *FakeProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	return &ModelInfo{Name: "fake", DisplayName: "Deterministic fake", Available: true}
}

// Close implements AIProvider
func (f *FakeProvider) Close() error {
	return nil
}

// Calls reports how often each oracle method was invoked
func (f *FakeProvider) Calls() map[string]int64 {
	return map[string]int64{
		"extract_resume":          f.extractResumeCalls.Load(),
		"extract_job_description": f.extractJobCalls.Load(),
		"score_resume":            f.scoreCalls.Load(),
		"rescore_resume":          f.rescoreCalls.Load(),
	}
}

func (f *FakeProvider) wait(ctx context.Context) error {
	if f.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(f.Latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// keywordScore marks each job skill present when the resume mentions it.
// Score and ATS score are the matched share as a percentage.
func keywordScore(input types.ScoreInput) types.ScoreResult {
	jd := input.JobDescriptionText
	var skills []string
	for _, line := range strings.Split(jd, "\n") {
		if label, value, ok := labelledLine(line); ok && (label == "requires" || label == "skills") {
			skills = append(skills, splitList(value)...)
		}
	}

	resume := strings.ToLower(input.ResumeText)
	result := types.ScoreResult{
		PrimarySkills:   []types.SkillAssessment{},
		SecondarySkills: []types.SkillAssessment{},
	}
	matched := 0
	for _, skill := range skills {
		has := strings.Contains(resume, strings.ToLower(skill))
		if has {
			matched++
		}
		result.PrimarySkills = append(result.PrimarySkills, types.SkillAssessment{Name: skill, HasSkill: has})
	}

	if len(skills) > 0 {
		result.Score = 100 * float64(matched) / float64(len(skills))
	}
	result.ATSScore = result.Score
	result.Breakdown = fmt.Sprintf("Matched %d of %d job skills.", matched, len(skills))
	return result
}

func fakeDocumentText(input ExtractInput) (string, error) {
	if !input.Embedded {
		return input.Content, nil
	}
	_, data, err := ingestion.ParseDataURI(input.Content)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// labelledLine splits "Label: value" into a lower-case label and trimmed value
func labelledLine(line string) (string, string, bool) {
	label, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	label = strings.ToLower(strings.TrimSpace(label))
	value = strings.TrimSpace(value)
	if label == "" || value == "" || strings.ContainsAny(label, " \t") {
		return "", "", false
	}
	return label, value, true
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func fakeUsage(text string) *TokenUsage {
	tokens := int64(len(strings.Fields(text)))
	return &TokenUsage{InputTokens: tokens, OutputTokens: tokens / 4, TotalTokens: tokens + tokens/4}
}
