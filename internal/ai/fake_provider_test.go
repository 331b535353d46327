package ai

import (
	"context"
	"testing"
	"time"

	"clyptusrank/internal/errors"
	"clyptusrank/internal/ingestion"
	"clyptusrank/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const janeResume = `Name: Jane Doe
Email: jane@example.com
Phone: +1 555 0100
Experience: Backend engineer, Acme (2019-2024)
Education: BSc Computer Science
Skills: Python, SQL`

func TestFakeExtractResume(t *testing.T) {
	f := NewFakeProvider()

	resume, usage, err := f.ExtractResume(context.Background(), ExtractInput{Content: janeResume})
	require.NoError(t, err)
	assert.NotNil(t, usage)

	assert.Equal(t, "Jane Doe", resume.Name)
	assert.Equal(t, "jane@example.com", resume.Email)
	assert.Equal(t, "+1 555 0100", resume.Phone)
	assert.Equal(t, []string{"Backend engineer, Acme (2019-2024)"}, resume.Experience)
	assert.Equal(t, []string{"BSc Computer Science"}, resume.Education)
	assert.Equal(t, []string{"Python", "SQL"}, resume.Skills)
	assert.Equal(t, int64(1), f.Calls()["extract_resume"])
}

func TestFakeExtractEmbedded(t *testing.T) {
	f := NewFakeProvider()

	resume, _, err := f.ExtractResume(context.Background(), ExtractInput{
		Content:  ingestion.DataURI(ingestion.MediaTypePDF, []byte(janeResume)),
		Embedded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", resume.Name)

	_, _, err = f.ExtractResume(context.Background(), ExtractInput{Content: "garbage", Embedded: true})
	assert.True(t, errors.IsType(err, errors.ErrorTypeExtraction))
}

func TestFakeExtractJobDescription(t *testing.T) {
	f := NewFakeProvider()

	jd, _, err := f.ExtractJobDescription(context.Background(), ExtractInput{
		Content: "  Senior Engineer\nRequires: Go, Kubernetes\nRequirement: 5 years experience\n",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Kubernetes"}, jd.Skills)
	assert.Equal(t, []string{"5 years experience"}, jd.Requirements)
	assert.Equal(t, "Senior Engineer\nRequires: Go, Kubernetes\nRequirement: 5 years experience", jd.ExtractedText)

	_, _, err = f.ExtractJobDescription(context.Background(), ExtractInput{Content: "   "})
	assert.True(t, errors.IsType(err, errors.ErrorTypeExtraction))
}

func TestFakeScoreByKeywords(t *testing.T) {
	f := NewFakeProvider()
	input := types.ScoreInput{ResumeText: janeResume, JobDescriptionText: "Requires: Python, Go"}

	result, _, err := f.ScoreResume(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.Score)
	assert.Equal(t, 50.0, result.ATSScore)
	assert.Equal(t, []types.SkillAssessment{{Name: "Python", HasSkill: true}, {Name: "Go", HasSkill: false}}, result.PrimarySkills)
	assert.Empty(t, result.SecondarySkills)
	assert.Equal(t, []string{"Go"}, result.MissingSkills())

	input.ResumeText += "\n\n# Added by Clyptus Rank:\n- Go"
	rescored, _, err := f.RescoreResume(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rescored.Score)
	assert.Empty(t, rescored.MissingSkills())
}

func TestFakeOverridesAreRangeChecked(t *testing.T) {
	f := NewFakeProvider()
	f.ScoreResumeFunc = func(ctx context.Context, input types.ScoreInput) (types.ScoreResult, error) {
		return types.ScoreResult{Score: 140, ATSScore: 50}, nil
	}

	_, _, err := f.ScoreResume(context.Background(), types.ScoreInput{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeScoreRange))
}

func TestFakeLatencyHonoursContext(t *testing.T) {
	f := NewFakeProvider()
	f.Latency = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := f.ScoreResume(ctx, types.ScoreInput{})
	assert.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestFakeModelInfo(t *testing.T) {
	info := NewFakeProvider().GetModelInfo(context.Background())
	assert.True(t, info.Available)
	assert.NoError(t, NewFakeProvider().Close())
}
