package refine

import (
	"context"
	"strings"
	"sync"

	"clyptusrank/internal/ai"
	"clyptusrank/internal/errors"
	"clyptusrank/internal/observability"
	"clyptusrank/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// FieldSkill is the request field reported when a skill name is rejected
const FieldSkill = "skill"

// State is the refinement state of a Session
type State int

const (
	StateIdle State = iota
	StateRescoring
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRescoring:
		return "rescoring"
	default:
		return "unknown"
	}
}

// Options tune rescoring behaviour
type Options struct {
	// EnforceNonDecreasing keeps a rescore from lowering the score
	EnforceNonDecreasing bool
}

// Session holds one analysis result while the user adds skills to it.
// Only one rescore runs at a time; further AddSkill calls wait their turn.
type Session struct {
	scorer ai.ScoringOracle
	opts   Options
	obs    *observability.ObservabilityManager
	logger *errors.Logger

	slot chan struct{}

	mu     sync.RWMutex
	result types.AnalysisResult
	added  []string
	state  State
	// generation changes on Reset so an in-flight rescore cannot land on a newer result
	generation uint64
}

// NewSession creates a Session around result. obs may be nil.
func NewSession(result types.AnalysisResult, scorer ai.ScoringOracle, opts Options, obs *observability.ObservabilityManager, logger *errors.Logger) *Session {
	return &Session{
		scorer: scorer,
		opts:   opts,
		obs:    obs,
		logger: logger,
		slot:   make(chan struct{}, 1),
		result: result.Clone(),
	}
}

// AddSkill appends skill, exactly as given, to the resume text and rescores it
// against the unchanged job description. On failure the previous score stays
// in place while the appended text and the recorded skill are kept. A Reset
// during the rescore discards it and reports SESSION_RESET.
func (s *Session) AddSkill(ctx context.Context, skill string) (*types.AnalysisResult, error) {
	if strings.TrimSpace(skill) == "" {
		fields := errors.FieldErrors{}
		fields.Add(FieldSkill, "Skill name is required.")
		return nil, errors.NewFieldValidationError(fields)
	}

	ctx, span := otel.Tracer("clyptusrank.refine").Start(ctx, "refine.add_skill")
	defer span.End()
	span.SetAttributes(attribute.String("skill.name", skill))

	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		err := errors.NewRescoreError(errors.MsgRescoreInProgress, ctx.Err())
		err.Code = errors.ErrCodeRescoreInFlight
		span.RecordError(err)
		span.SetStatus(codes.Error, "gave up waiting for rescore slot")
		return nil, err
	}
	defer func() { <-s.slot }()

	s.mu.Lock()
	s.result.RawResume = AppendSkill(s.result.RawResume, skill)
	s.added = append(s.added, skill)
	s.state = StateRescoring
	input := types.ScoreInput{
		ResumeText:         s.result.RawResume,
		JobDescriptionText: s.result.JobDescription.ExtractedText,
	}
	previous := s.result.Score.Score
	generation := s.generation
	s.mu.Unlock()

	metrics := s.obs.GetMetrics()
	metrics.RecordBusinessMetric(ctx, observability.MetricSkillAdded, true, s.obs)

	score, err := Rescore(ctx, s.scorer, input)
	metrics.RecordBusinessMetric(ctx, observability.MetricRescoreCompleted, err == nil, s.obs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rescore failed")
		s.logger.LogError(err, "Rescore failed, keeping previous score", "skill", skill)
		return nil, err
	}

	if generation != s.generation {
		s.logger.Debug("Discarding rescore for a result that was reset", "skill", skill)
		resetErr := errors.NewRescoreError(errors.MsgSessionReset, nil)
		resetErr.Code = errors.ErrCodeSessionReset
		span.RecordError(resetErr)
		span.SetStatus(codes.Error, "session reset during rescore")
		return nil, resetErr
	}

	if s.opts.EnforceNonDecreasing && score.Score < previous {
		s.logger.Debug("Clamping rescore to previous score", "previous", previous, "rescored", score.Score)
		score.Score = previous
	}
	s.result.Score = score

	span.SetAttributes(
		attribute.Float64("score.previous", previous),
		attribute.Float64("score.value", score.Score),
	)
	s.logger.Info("Skill added", "skill", skill, "previous_score", previous, "score", score.Score)

	snapshot := s.result.Clone()
	return &snapshot, nil
}

// Reset installs a new analysis result and forgets every added skill
func (s *Session) Reset(result types.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result.Clone()
	s.added = nil
	s.generation++
}

// Snapshot returns a copy of the current result, including the amended resume text
func (s *Session) Snapshot() types.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result.Clone()
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// AddedSkills lists skills in the order they were added, repeats included
func (s *Session) AddedSkills() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.added...)
}

func (s *Session) MissingSkills() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result.Score.MissingSkills()
}
