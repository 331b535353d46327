package analysis

import (
	"bytes"
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"clyptusrank/internal/ai"
	"clyptusrank/internal/config"
	"clyptusrank/internal/errors"
	"clyptusrank/internal/ingestion"
	"clyptusrank/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger, _ = errors.New("debug")

func newTestAnalyzer(provider *ai.FakeProvider) *Analyzer {
	return NewAnalyzer(ingestion.NewIngester(testLogger), provider, provider, config.DefaultMaxFileSize, nil, testLogger)
}

func textResume(content string) *types.UploadedDocument {
	return &types.UploadedDocument{Data: []byte(content), MediaType: "text/plain", Filename: "resume.txt"}
}

func TestAnalyzeJaneDoe(t *testing.T) {
	provider := ai.NewFakeProvider()
	analyzer := newTestAnalyzer(provider)

	result, err := analyzer.Analyze(context.Background(), Request{
		Resume:             textResume("Name: Jane Doe\nSkills: Python"),
		JobDescriptionText: "Requires: Python, Go",
	})
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", result.Resume.Name)
	assert.Contains(t, result.Resume.Skills, "Python")
	assert.Subset(t, result.JobDescription.Skills, []string{"Go", "Python"})
	assert.Contains(t, result.Score.PrimarySkills, types.SkillAssessment{Name: "Go", HasSkill: false})
	assert.Contains(t, result.Score.PrimarySkills, types.SkillAssessment{Name: "Python", HasSkill: true})
	assert.Equal(t, "Name: Jane Doe\nSkills: Python", result.RawResume, "text resumes are used verbatim")

	assert.GreaterOrEqual(t, result.Score.Score, 0.0)
	assert.LessOrEqual(t, result.Score.Score, 100.0)
	assert.GreaterOrEqual(t, result.Score.ATSScore, 0.0)
	assert.LessOrEqual(t, result.Score.ATSScore, 100.0)
}

func TestAnalyzeEmbeddedResumeRebuildsRawText(t *testing.T) {
	provider := ai.NewFakeProvider()
	analyzer := newTestAnalyzer(provider)

	result, err := analyzer.Analyze(context.Background(), Request{
		Resume: &types.UploadedDocument{
			Data:      []byte("Name: Jane Doe\nEmail: jane@example.com\nPhone: 555\nExperience: Acme\nExperience: Initech\nEducation: BSc\nSkills: Python, SQL"),
			MediaType: ingestion.MediaTypePDF,
		},
		JobDescriptionText: "Requires: Python",
	})
	require.NoError(t, err)

	want := "Jane Doe\njane@example.com\n555\n\nExperience:\nAcme\n\nInitech\n\nEducation:\nBSc\n\nSkills:\nPython, SQL"
	assert.Equal(t, want, result.RawResume)
	assert.Equal(t, 100.0, result.Score.Score)
}

func TestAnalyzeJobDescriptionFile(t *testing.T) {
	provider := ai.NewFakeProvider()
	var jdInput ai.ExtractInput
	provider.ExtractJobDescriptionFunc = func(ctx context.Context, input ai.ExtractInput) (types.ExtractedJobDescription, error) {
		jdInput = input
		return types.ExtractedJobDescription{Skills: []string{"Go"}, Requirements: []string{}, ExtractedText: "Requires: Go"}, nil
	}

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 16)...)
	result, err := newTestAnalyzer(provider).Analyze(context.Background(), Request{
		Resume:             textResume("Skills: Go"),
		JobDescriptionFile: &types.UploadedDocument{Data: png, MediaType: "application/octet-stream", Filename: "jd.png"},
	})
	require.NoError(t, err)

	assert.True(t, jdInput.Embedded)
	assert.Equal(t, ingestion.MediaTypePNG, jdInput.MediaType, "octet-stream uploads are sniffed")
	assert.Equal(t, 100.0, result.Score.Score)
}

func TestAnalyzeValidation(t *testing.T) {
	oversized := &types.UploadedDocument{Data: make([]byte, config.DefaultMaxFileSize+1), MediaType: "text/plain"}

	tests := []struct {
		name    string
		req     Request
		field   string
		message string
	}{
		{
			name:    "missing resume",
			req:     Request{JobDescriptionText: "Requires: Go"},
			field:   FieldResume,
			message: errors.MsgFileRequired,
		},
		{
			name:    "oversized resume",
			req:     Request{Resume: oversized, JobDescriptionText: "Requires: Go"},
			field:   FieldResume,
			message: errors.MsgMaxFileSize,
		},
		{
			name:    "image resume",
			req:     Request{Resume: &types.UploadedDocument{Data: []byte{0xff, 0xd8, 0xff}, MediaType: "image/jpeg"}, JobDescriptionText: "x"},
			field:   FieldResume,
			message: errors.MsgResumeFileTypes,
		},
		{
			name:    "no job description",
			req:     Request{Resume: textResume("Skills: Go"), JobDescriptionText: "   "},
			field:   FieldJobDescriptionText,
			message: errors.MsgJDRequired,
		},
		{
			name:    "empty job description file counts as absent",
			req:     Request{Resume: textResume("Skills: Go"), JobDescriptionFile: &types.UploadedDocument{MediaType: "text/plain"}},
			field:   FieldJobDescriptionText,
			message: errors.MsgJDRequired,
		},
		{
			name: "both job description inputs",
			req: Request{
				Resume:             textResume("Skills: Go"),
				JobDescriptionText: "Requires: Go",
				JobDescriptionFile: &types.UploadedDocument{Data: []byte("Requires: Go"), MediaType: "text/plain"},
			},
			field:   FieldJobDescriptionText,
			message: errors.MsgJDExclusive,
		},
		{
			name: "gif job description",
			req: Request{
				Resume:             textResume("Skills: Go"),
				JobDescriptionFile: &types.UploadedDocument{Data: []byte("GIF89a"), MediaType: "image/gif"},
			},
			field:   FieldJobDescriptionFile,
			message: errors.MsgJDFileTypes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := ai.NewFakeProvider()
			_, err := newTestAnalyzer(provider).Analyze(context.Background(), tt.req)
			require.Error(t, err)

			appErr, ok := errors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
			assert.Equal(t, errors.MsgInvalidForm, appErr.Message)
			assert.Contains(t, appErr.Fields[tt.field], tt.message)

			for op, calls := range provider.Calls() {
				assert.Zero(t, calls, "%s must not run when validation fails", op)
			}
		})
	}
}

func TestAnalyzeFailsWithoutPartialResult(t *testing.T) {
	extractionFailure := errors.NewExtractionError(errors.ErrCodeExtractionFailed, "boom", nil)

	tests := []struct {
		name    string
		setup   func(p *ai.FakeProvider)
		errType errors.ErrorType
	}{
		{
			name: "resume extraction",
			setup: func(p *ai.FakeProvider) {
				p.ExtractResumeFunc = func(ctx context.Context, input ai.ExtractInput) (types.ExtractedResume, error) {
					return types.ExtractedResume{}, extractionFailure
				}
			},
			errType: errors.ErrorTypeExtraction,
		},
		{
			name: "score out of range",
			setup: func(p *ai.FakeProvider) {
				p.ScoreResumeFunc = func(ctx context.Context, input types.ScoreInput) (types.ScoreResult, error) {
					return types.ScoreResult{Score: 250}, nil
				}
			},
			errType: errors.ErrorTypeScoreRange,
		},
		{
			name: "scoring transport",
			setup: func(p *ai.FakeProvider) {
				p.ScoreResumeFunc = func(ctx context.Context, input types.ScoreInput) (types.ScoreResult, error) {
					return types.ScoreResult{}, errors.NewAIError(errors.ErrCodeAIQuotaExceeded, "quota", nil)
				}
			},
			errType: errors.ErrorTypeAI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := ai.NewFakeProvider()
			tt.setup(provider)

			result, err := newTestAnalyzer(provider).Analyze(context.Background(), Request{
				Resume:             textResume("Skills: Go"),
				JobDescriptionText: "Requires: Go",
			})
			assert.Nil(t, result)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
			assert.Equal(t, errors.MsgAnalysisFailed, errors.UserMessage(err))
		})
	}
}

func TestExtractionFailureCancelsSibling(t *testing.T) {
	provider := ai.NewFakeProvider()
	var cancelled atomic.Bool

	provider.ExtractResumeFunc = func(ctx context.Context, input ai.ExtractInput) (types.ExtractedResume, error) {
		select {
		case <-ctx.Done():
			cancelled.Store(true)
			return types.ExtractedResume{}, ctx.Err()
		case <-time.After(5 * time.Second):
			return types.ExtractedResume{}, nil
		}
	}
	provider.ExtractJobDescriptionFunc = func(ctx context.Context, input ai.ExtractInput) (types.ExtractedJobDescription, error) {
		return types.ExtractedJobDescription{}, errors.NewExtractionError(errors.ErrCodeExtractionFailed, "bad jd", stderrors.New("schema"))
	}

	start := time.Now()
	_, err := newTestAnalyzer(provider).Analyze(context.Background(), Request{
		Resume:             textResume("Skills: Go"),
		JobDescriptionText: "Requires: Go",
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeExtractionFailed))
	assert.True(t, cancelled.Load(), "the resume extraction sees the group cancellation")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Zero(t, provider.Calls()["score_resume"])
}

func TestAnalyzeUnreadableDocx(t *testing.T) {
	provider := ai.NewFakeProvider()
	_, err := newTestAnalyzer(provider).Analyze(context.Background(), Request{
		Resume:             &types.UploadedDocument{Data: []byte("PK\x03\x04 broken"), MediaType: ingestion.MediaTypeDOCX},
		JobDescriptionText: "Requires: Go",
	})
	assert.True(t, errors.IsType(err, errors.ErrorTypeIngestion))
	assert.Zero(t, provider.Calls()["extract_resume"])
}

func TestBuildRawResumeEmptyFields(t *testing.T) {
	got := BuildRawResume(types.ExtractedResume{Name: "Jane"})
	assert.Equal(t, "Jane\n\n\n\nExperience:\n\n\nEducation:\n\n\nSkills:\n", got)
}
