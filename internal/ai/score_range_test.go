package ai

import (
	"math"
	"testing"

	"clyptusrank/internal/errors"
	"clyptusrank/internal/types"
)

func TestValidateScoreRange(t *testing.T) {
	tests := []struct {
		name    string
		score   float64
		ats     float64
		wantErr bool
	}{
		{"lower bound", 0, 0, false},
		{"upper bound", 100, 100, false},
		{"fractional", 72.5, 64.25, false},
		{"negative score", -1, 50, true},
		{"score above range", 100.5, 50, true},
		{"ats above range", 50, 101, true},
		{"nan", math.NaN(), 50, true},
		{"infinite ats", 50, math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScoreRange(types.ScoreResult{Score: tt.score, ATSScore: tt.ats})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				if !errors.IsType(err, errors.ErrorTypeScoreRange) {
					t.Errorf("expected a score range error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeLists(t *testing.T) {
	score := normalizeScoreResult(types.ScoreResult{})
	if score.PrimarySkills == nil || score.SecondarySkills == nil {
		t.Error("skill lists should be empty, not nil")
	}

	resume := normalizeResume(types.ExtractedResume{Skills: []string{"Go", "Go"}})
	if resume.Experience == nil || resume.Education == nil {
		t.Error("resume lists should be empty, not nil")
	}
	if len(resume.Skills) != 2 {
		t.Error("duplicates must be kept")
	}

	jd := normalizeJobDescription(types.ExtractedJobDescription{ExtractedText: "x"})
	if jd.Requirements == nil || jd.Skills == nil {
		t.Error("job description lists should be empty, not nil")
	}
}
