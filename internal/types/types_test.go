package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalysisResultCloneIsDeep(t *testing.T) {
	original := AnalysisResult{
		Score: ScoreResult{
			Score:         40,
			PrimarySkills: []SkillAssessment{{Name: "Go", HasSkill: false}},
		},
		Resume:         ExtractedResume{Skills: []string{"Python"}},
		JobDescription: ExtractedJobDescription{Skills: []string{"Go"}},
		RawResume:      "Skills: Python",
	}

	clone := original.Clone()
	clone.Score.PrimarySkills[0].HasSkill = true
	clone.Resume.Skills[0] = "Rust"
	clone.JobDescription.Skills = append(clone.JobDescription.Skills, "SQL")

	assert.False(t, original.Score.PrimarySkills[0].HasSkill)
	assert.Equal(t, []string{"Python"}, original.Resume.Skills)
	assert.Equal(t, []string{"Go"}, original.JobDescription.Skills)
}

func TestMissingSkills(t *testing.T) {
	score := ScoreResult{
		PrimarySkills: []SkillAssessment{
			{Name: "Go", HasSkill: false},
			{Name: "Python", HasSkill: true},
		},
		SecondarySkills: []SkillAssessment{
			{Name: "Kubernetes", HasSkill: false},
			{Name: "Go", HasSkill: false},
		},
	}

	assert.Equal(t, []string{"Go", "Kubernetes"}, score.MissingSkills())
	assert.Empty(t, ScoreResult{}.MissingSkills())
}

func TestUploadedDocumentSize(t *testing.T) {
	var nilDoc *UploadedDocument
	assert.Equal(t, int64(0), nilDoc.Size())
	assert.Equal(t, int64(3), (&UploadedDocument{Data: []byte("abc")}).Size())
}
