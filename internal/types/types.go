package types

// UploadedDocument is a file received at the form boundary
type UploadedDocument struct {
	Data      []byte `json:"-"`
	MediaType string `json:"mediaType"`
	Filename  string `json:"filename"`
}

// Size returns the number of bytes in the document
func (d *UploadedDocument) Size() int64 {
	if d == nil {
		return 0
	}
	return int64(len(d.Data))
}

// ExtractedResume holds the structured fields pulled out of a resume
type ExtractedResume struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Experience []string `json:"experience"`
	Education  []string `json:"education"`
	Skills     []string `json:"skills"`
}

// ExtractedJobDescription holds the structured fields pulled out of a job description
type ExtractedJobDescription struct {
	Requirements  []string `json:"requirements"`
	Skills        []string `json:"skills"`
	ExtractedText string   `json:"extractedText"`
}

// SkillAssessment records whether a job skill is present in the resume
type SkillAssessment struct {
	Name     string `json:"name"`
	HasSkill bool   `json:"hasSkill"`
}

// ScoreResult is the scoring oracle's verdict for one resume/job pair
type ScoreResult struct {
	Score           float64           `json:"score"`
	ATSScore        float64           `json:"atsScore"`
	Breakdown       string            `json:"breakdown"`
	PrimarySkills   []SkillAssessment `json:"primarySkills"`
	SecondarySkills []SkillAssessment `json:"secondarySkills"`
}

// ScoreInput is the request shape for scoring and rescoring
type ScoreInput struct {
	ResumeText         string `json:"resumeText"`
	JobDescriptionText string `json:"jobDescriptionText"`
}

// AnalysisResult aggregates everything produced by one analysis
type AnalysisResult struct {
	Score          ScoreResult             `json:"score"`
	Resume         ExtractedResume         `json:"resume"`
	JobDescription ExtractedJobDescription `json:"jobDescription"`
	RawResume      string                  `json:"rawResume"`
}

// Clone returns a deep copy so callers can hold results without sharing slices
func (r AnalysisResult) Clone() AnalysisResult {
	return AnalysisResult{
		Score:          r.Score.Clone(),
		Resume:         r.Resume.Clone(),
		JobDescription: r.JobDescription.Clone(),
		RawResume:      r.RawResume,
	}
}

func (s ScoreResult) Clone() ScoreResult {
	s.PrimarySkills = cloneSlice(s.PrimarySkills)
	s.SecondarySkills = cloneSlice(s.SecondarySkills)
	return s
}

func (r ExtractedResume) Clone() ExtractedResume {
	r.Experience = cloneSlice(r.Experience)
	r.Education = cloneSlice(r.Education)
	r.Skills = cloneSlice(r.Skills)
	return r
}

func (j ExtractedJobDescription) Clone() ExtractedJobDescription {
	j.Requirements = cloneSlice(j.Requirements)
	j.Skills = cloneSlice(j.Skills)
	return j
}

// MissingSkills lists skills the score marked absent, primary first, without repeats
func (s ScoreResult) MissingSkills() []string {
	seen := make(map[string]bool)
	var missing []string
	for _, list := range [][]SkillAssessment{s.PrimarySkills, s.SecondarySkills} {
		for _, skill := range list {
			if skill.HasSkill || seen[skill.Name] {
				continue
			}
			seen[skill.Name] = true
			missing = append(missing, skill.Name)
		}
	}
	return missing
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
