package ai

import (
	"fmt"
	"math"

	"clyptusrank/internal/errors"
	"clyptusrank/internal/types"
)

const (
	MinScore = 0.0
	MaxScore = 100.0
)

// ValidateScoreRange rejects a score result whose score or ATS score falls
// outside [0, 100]. NaN is out of range.
func ValidateScoreRange(result types.ScoreResult) error {
	for _, field := range []struct {
		name  string
		value float64
	}{
		{"score", result.Score},
		{"atsScore", result.ATSScore},
	} {
		if math.IsNaN(field.value) || field.value < MinScore || field.value > MaxScore {
			return errors.NewInvalidScoreRangeError(
				fmt.Sprintf("%s %v is outside the range %v-%v", field.name, field.value, MinScore, MaxScore)).
				WithContext("field", field.name)
		}
	}
	return nil
}

// normalizeScoreResult replaces missing skill lists with empty ones
func normalizeScoreResult(result types.ScoreResult) types.ScoreResult {
	if result.PrimarySkills == nil {
		result.PrimarySkills = []types.SkillAssessment{}
	}
	if result.SecondarySkills == nil {
		result.SecondarySkills = []types.SkillAssessment{}
	}
	return result
}

func normalizeResume(resume types.ExtractedResume) types.ExtractedResume {
	resume.Experience = nonNil(resume.Experience)
	resume.Education = nonNil(resume.Education)
	resume.Skills = nonNil(resume.Skills)
	return resume
}

func normalizeJobDescription(jd types.ExtractedJobDescription) types.ExtractedJobDescription {
	jd.Requirements = nonNil(jd.Requirements)
	jd.Skills = nonNil(jd.Skills)
	return jd
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
