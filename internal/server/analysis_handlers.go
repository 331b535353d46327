package server

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"

	"clyptusrank/internal/analysis"
	"clyptusrank/internal/errors"
	"clyptusrank/internal/formatters"
	"clyptusrank/internal/refine"
	"clyptusrank/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// analyzeHandler accepts the multipart analysis form and opens a refinement session
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer("clyptusrank.api").Start(r.Context(), "api.analyze")
	defer span.End()

	req, cleanup, err := s.parseAnalyzeForm(r)
	defer cleanup()
	if err != nil {
		s.writeError(w, span, err)
		return
	}

	span.SetAttributes(
		attribute.Int64("request.resume_size", req.Resume.Size()),
		attribute.Bool("request.jd_file", req.JobDescriptionFile != nil),
		attribute.Int("request.jd_text_length", len(req.JobDescriptionText)),
	)

	result, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		s.writeError(w, span, err)
		return
	}

	session := refine.NewSession(*result, s.scorer, s.sessionOpts, s.om, s.Logger)
	id := s.sessions.Add(session)
	span.SetAttributes(attribute.String("session.id", id))

	writeJSON(w, http.StatusOK, AnalyzeResponse{SessionID: id, Result: session.Snapshot()})
}

// parseAnalyzeForm reads the resume, jobDescriptionText and jobDescriptionFile fields.
// Presence, size and type rules are left to the analyzer.
func (s *Server) parseAnalyzeForm(r *http.Request) (analysis.Request, func(), error) {
	noop := func() {}

	if err := r.ParseMultipartForm(s.MaxFileSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			// the cap covers the whole form, so the resume is the upload held responsible
			return analysis.Request{}, noop, errors.NewFileTooLargeError(analysis.FieldResume,
				analysis.MaxFileSizeMessage(s.MaxFileSize), err)
		}
		return analysis.Request{}, noop, errors.NewValidationError(errors.ErrCodeInvalidForm, errors.MsgInvalidForm, err)
	}
	cleanup := func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.Logger.Warn("Failed to remove multipart temp files", "error", err)
		}
	}

	resume, err := readFormFile(r.MultipartForm, analysis.FieldResume)
	if err != nil {
		return analysis.Request{}, cleanup, err
	}
	jdFile, err := readFormFile(r.MultipartForm, analysis.FieldJobDescriptionFile)
	if err != nil {
		return analysis.Request{}, cleanup, err
	}

	req := analysis.Request{
		Resume:             resume,
		JobDescriptionFile: jdFile,
	}
	if values := r.MultipartForm.Value[analysis.FieldJobDescriptionText]; len(values) > 0 {
		req.JobDescriptionText = values[0]
	}
	return req, cleanup, nil
}

func readFormFile(form *multipart.Form, field string) (*types.UploadedDocument, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	header := headers[0]

	file, err := header.Open()
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidForm, errors.MsgInvalidForm, err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidForm, errors.MsgInvalidForm, err)
	}

	return &types.UploadedDocument{
		Data:      data,
		MediaType: header.Header.Get("Content-Type"),
		Filename:  header.Filename,
	}, nil
}

// rescoreHandler scores a resume text against a job description without a session
func (s *Server) rescoreHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer("clyptusrank.api").Start(r.Context(), "api.rescore")
	defer span.End()

	var req RescoreRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, span, err)
		return
	}
	if err := s.validateRequest(req); err != nil {
		missing := errors.NewRescoreError(errors.MsgRescoreMissing, err)
		missing.Code = errors.ErrCodeInvalidRequest
		s.writeError(w, span, missing)
		return
	}

	score, err := refine.Rescore(ctx, s.scorer, types.ScoreInput{
		ResumeText:         req.ResumeText,
		JobDescriptionText: req.JobDescriptionText,
	})
	if err != nil {
		s.writeError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.om.Tracer("clyptusrank.api").Start(r.Context(), "api.session.get")
	defer span.End()

	id := r.PathValue("id")
	session, err := s.sessions.Get(id)
	if err != nil {
		s.writeError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(id, session, session.Snapshot()))
}

func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.om.Tracer("clyptusrank.api").Start(r.Context(), "api.session.delete")
	defer span.End()

	id := r.PathValue("id")
	if !s.sessions.Delete(id) {
		s.writeError(w, span, errors.NewValidationError(errors.ErrCodeSessionNotFound, "Session not found.", nil))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// addSkillHandler appends a skill to the session's resume and rescores it
func (s *Server) addSkillHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer("clyptusrank.api").Start(r.Context(), "api.session.add_skill")
	defer span.End()

	id := r.PathValue("id")
	session, err := s.sessions.Get(id)
	if err != nil {
		s.writeError(w, span, err)
		return
	}

	var req SkillRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, span, err)
		return
	}
	if err := s.validateRequest(req); err != nil {
		s.writeError(w, span, err)
		return
	}

	result, err := session.AddSkill(ctx, req.Skill)
	if err != nil {
		s.writeError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(id, session, *result))
}

// reportHandler serves the analysis report as a download
func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.om.Tracer("clyptusrank.api").Start(r.Context(), "api.session.report")
	defer span.End()

	session, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, span, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "text"
	}
	if !slices.Contains(s.registry.GetSupportedFormats(), format) {
		s.writeError(w, span, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Unsupported report format %q.", format), nil))
		return
	}
	span.SetAttributes(attribute.String("report.format", format))

	report, err := s.registry.Format(session.Snapshot(), format)
	if err != nil {
		s.writeError(w, span, errors.NewInternalError("REPORT_FAILED", "Failed to render report.", err))
		return
	}

	w.Header().Set("Content-Type", formatters.ContentType(format))
	w.Header().Set("Content-Disposition", attachment(formatters.ReportFileNameFor(format)))
	_, _ = io.WriteString(w, report)
}

// resumePDFHandler serves the amended resume once at least one skill was added
func (s *Server) resumePDFHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.om.Tracer("clyptusrank.api").Start(r.Context(), "api.session.resume_pdf")
	defer span.End()

	session, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, span, err)
		return
	}

	if len(session.AddedSkills()) == 0 {
		writeErrorResponse(w, ErrorResponse{
			Error: "No skills have been added to this resume yet.",
			Code:  "NO_UPDATED_RESUME",
		}, http.StatusConflict)
		return
	}

	var buf bytes.Buffer
	if err := formatters.RenderResumePDF(&buf, session.Snapshot().RawResume); err != nil {
		s.writeError(w, span, errors.NewInternalError("PDF_RENDER_FAILED", "Failed to render updated resume.", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(formatters.ResumePDFFileName))
	_, _ = w.Write(buf.Bytes())
}

func sessionResponse(id string, session *refine.Session, result types.AnalysisResult) SessionResponse {
	missing := result.Score.MissingSkills()
	if missing == nil {
		missing = []string{}
	}
	return SessionResponse{
		SessionID:     id,
		State:         session.State().String(),
		AddedSkills:   session.AddedSkills(),
		MissingSkills: missing,
		Result:        result,
	}
}

func attachment(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
