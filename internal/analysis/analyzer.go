package analysis

import (
	"context"
	"fmt"

	"clyptusrank/internal/ai"
	"clyptusrank/internal/errors"
	"clyptusrank/internal/ingestion"
	"clyptusrank/internal/observability"
	"clyptusrank/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Analyzer runs one analysis: ingest both documents, extract both in
// parallel, then score the resume against the job description.
type Analyzer struct {
	ingester    *ingestion.Ingester
	extractor   ai.ExtractionOracle
	scorer      ai.ScoringOracle
	maxFileSize int64
	obs         *observability.ObservabilityManager
	logger      *errors.Logger
}

// NewAnalyzer creates an Analyzer. obs may be nil.
func NewAnalyzer(ingester *ingestion.Ingester, extractor ai.ExtractionOracle, scorer ai.ScoringOracle, maxFileSize int64, obs *observability.ObservabilityManager, logger *errors.Logger) *Analyzer {
	return &Analyzer{
		ingester:    ingester,
		extractor:   extractor,
		scorer:      scorer,
		maxFileSize: maxFileSize,
		obs:         obs,
		logger:      logger,
	}
}

// Analyze validates req and produces a complete AnalysisResult. Any failure
// aborts the whole analysis; partial results are never returned.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*types.AnalysisResult, error) {
	ctx, span := otel.Tracer("clyptusrank.analysis").Start(ctx, "analysis.analyze")
	defer span.End()

	result, err := a.analyze(ctx, req)

	metrics := a.obs.GetMetrics()
	metrics.RecordBusinessMetric(ctx, observability.MetricAnalysisCompleted, err == nil, a.obs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		a.logger.LogError(err, "Analysis failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Float64("score.value", result.Score.Score),
		attribute.Float64("score.ats", result.Score.ATSScore),
		attribute.Int("score.missing_skills", len(result.Score.MissingSkills())),
	)
	a.logger.Info("Analysis completed",
		"score", result.Score.Score,
		"ats_score", result.Score.ATSScore,
		"resume_skills", len(result.Resume.Skills),
		"job_skills", len(result.JobDescription.Skills))

	return result, nil
}

func (a *Analyzer) analyze(ctx context.Context, req Request) (*types.AnalysisResult, error) {
	req = resolveMediaTypes(req)
	if err := ValidateRequest(req, a.maxFileSize); err != nil {
		return nil, err
	}
	a.recordSizes(ctx, req)

	resumeDoc, jdInput, err := a.ingest(ctx, req)
	if err != nil {
		return nil, err
	}

	resume, jd, err := a.extract(ctx, ai.ExtractInput{
		Content:   resumeDoc.Content,
		Embedded:  resumeDoc.Embedded,
		MediaType: resumeDoc.MediaType,
	}, jdInput)
	if err != nil {
		return nil, err
	}

	rawResume := resumeDoc.Content
	if resumeDoc.Embedded {
		rawResume = BuildRawResume(resume)
	}

	score, _, err := a.scorer.ScoreResume(ctx, types.ScoreInput{
		ResumeText:         rawResume,
		JobDescriptionText: jd.ExtractedText,
	})
	if err != nil {
		return nil, err
	}
	if err := ai.ValidateScoreRange(score); err != nil {
		return nil, err
	}

	return &types.AnalysisResult{
		Score:          score,
		Resume:         resume,
		JobDescription: jd,
		RawResume:      rawResume,
	}, nil
}

// ingest converts the resume and, when uploaded, the job description file
// concurrently. Job description text is passed through untouched.
func (a *Analyzer) ingest(ctx context.Context, req Request) (ingestion.Ingested, ai.ExtractInput, error) {
	var (
		resumeDoc ingestion.Ingested
		jdInput   = ai.ExtractInput{Content: req.JobDescriptionText}
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		doc, err := a.ingestOne(gCtx, *req.Resume, "resume")
		if err != nil {
			return err
		}
		resumeDoc = doc
		return nil
	})

	if req.hasJobDescriptionFile() {
		g.Go(func() error {
			doc, err := a.ingestOne(gCtx, *req.JobDescriptionFile, "job_description")
			if err != nil {
				return err
			}
			jdInput = ai.ExtractInput{Content: doc.Content, Embedded: doc.Embedded, MediaType: doc.MediaType}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return ingestion.Ingested{}, ai.ExtractInput{}, err
	}
	return resumeDoc, jdInput, nil
}

func (a *Analyzer) ingestOne(ctx context.Context, doc types.UploadedDocument, kind string) (ingestion.Ingested, error) {
	result, err := a.ingester.Ingest(ctx, doc)
	a.obs.GetMetrics().RecordBusinessMetric(ctx, observability.MetricDocumentIngested, err == nil, a.obs,
		attribute.String("document", kind),
		attribute.String("media_type", ingestion.NormalizeMediaType(doc.MediaType)))
	if err == nil {
		return result, nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return ingestion.Ingested{}, err
	}
	return ingestion.Ingested{}, errors.NewIngestionError(errors.ErrCodeIngestionFailed,
		fmt.Sprintf("Failed to ingest %s", kind), err)
}

// extract runs both extraction calls; the first failure cancels the other
func (a *Analyzer) extract(ctx context.Context, resumeInput, jdInput ai.ExtractInput) (types.ExtractedResume, types.ExtractedJobDescription, error) {
	var (
		resume types.ExtractedResume
		jd     types.ExtractedJobDescription
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out, _, err := a.extractor.ExtractResume(gCtx, resumeInput)
		if err != nil {
			return err
		}
		resume = out
		return nil
	})

	g.Go(func() error {
		out, _, err := a.extractor.ExtractJobDescription(gCtx, jdInput)
		if err != nil {
			return err
		}
		jd = out
		return nil
	})

	if err := g.Wait(); err != nil {
		return types.ExtractedResume{}, types.ExtractedJobDescription{}, err
	}
	return resume, jd, nil
}

func (a *Analyzer) recordSizes(ctx context.Context, req Request) {
	metrics := a.obs.GetMetrics()
	metrics.RecordContentSize(ctx, "resume", req.Resume.Size(), a.obs)
	if req.hasJobDescriptionFile() {
		metrics.RecordContentSize(ctx, "job_description", req.JobDescriptionFile.Size(), a.obs)
	}
}
