package analysis

import (
	"fmt"
	"strings"

	"clyptusrank/internal/config"
	"clyptusrank/internal/errors"
	"clyptusrank/internal/ingestion"
	"clyptusrank/internal/types"
)

// Form field names reported in validation errors
const (
	FieldResume             = "resume"
	FieldJobDescriptionText = "jobDescriptionText"
	FieldJobDescriptionFile = "jobDescriptionFile"
)

// Request is one analysis submission. Exactly one of JobDescriptionText and
// JobDescriptionFile must be supplied.
type Request struct {
	Resume             *types.UploadedDocument
	JobDescriptionText string
	JobDescriptionFile *types.UploadedDocument
}

// hasJobDescriptionFile treats an empty upload as absent
func (r Request) hasJobDescriptionFile() bool {
	return r.JobDescriptionFile != nil && len(r.JobDescriptionFile.Data) > 0
}

func (r Request) hasJobDescriptionText() bool {
	return strings.TrimSpace(r.JobDescriptionText) != ""
}

// ValidateRequest checks presence, size and media type of every input and
// reports all problems at once, keyed by form field.
func ValidateRequest(req Request, maxFileSize int64) error {
	fields := errors.FieldErrors{}

	if req.Resume == nil || len(req.Resume.Data) == 0 {
		fields.Add(FieldResume, errors.MsgFileRequired)
	} else {
		if req.Resume.Size() > maxFileSize {
			fields.Add(FieldResume, MaxFileSizeMessage(maxFileSize))
		}
		if !ingestion.IsAcceptedResumeType(req.Resume.MediaType) {
			fields.Add(FieldResume, errors.MsgResumeFileTypes)
		}
	}

	switch hasText, hasFile := req.hasJobDescriptionText(), req.hasJobDescriptionFile(); {
	case !hasText && !hasFile:
		fields.Add(FieldJobDescriptionText, errors.MsgJDRequired)
	case hasText && hasFile:
		fields.Add(FieldJobDescriptionText, errors.MsgJDExclusive)
	case hasFile:
		if req.JobDescriptionFile.Size() > maxFileSize {
			fields.Add(FieldJobDescriptionFile, MaxFileSizeMessage(maxFileSize))
		}
		if !ingestion.IsAcceptedJobDescriptionType(req.JobDescriptionFile.MediaType) {
			fields.Add(FieldJobDescriptionFile, errors.MsgJDFileTypes)
		}
	}

	if len(fields) > 0 {
		return errors.NewFieldValidationError(fields)
	}
	return nil
}

// MaxFileSizeMessage is the field message for an upload over maxFileSize
func MaxFileSizeMessage(maxFileSize int64) string {
	if maxFileSize == config.DefaultMaxFileSize {
		return errors.MsgMaxFileSize
	}
	if maxFileSize < 1<<20 {
		return fmt.Sprintf("Max file size is %d bytes.", maxFileSize)
	}
	return fmt.Sprintf("Max file size is %dMB.", maxFileSize/(1<<20))
}

// resolveMediaTypes fills in sniffed media types for uploads that arrived
// without a usable one
func resolveMediaTypes(req Request) Request {
	if req.Resume != nil {
		resume := *req.Resume
		resume.MediaType = ingestion.ResolveMediaType(resume.Data, resume.MediaType)
		req.Resume = &resume
	}
	if req.JobDescriptionFile != nil {
		jd := *req.JobDescriptionFile
		jd.MediaType = ingestion.ResolveMediaType(jd.Data, jd.MediaType)
		req.JobDescriptionFile = &jd
	}
	return req
}
