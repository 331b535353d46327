package refine

import (
	"context"
	"strings"

	"clyptusrank/internal/ai"
	"clyptusrank/internal/errors"
	"clyptusrank/internal/types"
)

// SkillMarker precedes every skill appended to a resume
const SkillMarker = "\n\n# Added by Clyptus Rank:\n- "

// AppendSkill returns resumeText with skill appended under the marker
func AppendSkill(resumeText, skill string) string {
	return resumeText + SkillMarker + skill
}

// Rescore scores input once with the rescoring oracle. Blank inputs are
// rejected before the oracle is called, and every oracle failure is reported
// as a RescoreError.
func Rescore(ctx context.Context, scorer ai.ScoringOracle, input types.ScoreInput) (types.ScoreResult, error) {
	if strings.TrimSpace(input.ResumeText) == "" || strings.TrimSpace(input.JobDescriptionText) == "" {
		err := errors.NewRescoreError(errors.MsgRescoreMissing, nil)
		err.Code = errors.ErrCodeInvalidRequest
		return types.ScoreResult{}, err
	}

	score, _, err := scorer.RescoreResume(ctx, input)
	if err == nil {
		err = ai.ValidateScoreRange(score)
	}
	if err != nil {
		return types.ScoreResult{}, errors.NewRescoreError(errors.MsgRescoreFailed, err)
	}
	return score, nil
}
