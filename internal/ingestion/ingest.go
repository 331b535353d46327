package ingestion

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"clyptusrank/internal/errors"
	"clyptusrank/internal/types"

	"github.com/ledongthuc/pdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Ingested is the textual form of an uploaded document handed to the oracles.
// When Embedded is set, Content is a data URI carrying the original bytes.
type Ingested struct {
	Content   string
	Embedded  bool
	MediaType string
	Pages     int
}

// Ingester turns uploaded documents into oracle-ready content
type Ingester struct {
	logger *errors.Logger
}

// NewIngester creates an Ingester
func NewIngester(logger *errors.Logger) *Ingester {
	return &Ingester{logger: logger}
}

// Ingest converts doc according to its media type. Word-processing documents
// are reduced to their text, text types pass through verbatim, and everything
// else is embedded as a base64 data URI.
func (i *Ingester) Ingest(ctx context.Context, doc types.UploadedDocument) (Ingested, error) {
	ctx, span := otel.Tracer("clyptusrank.ingestion").Start(ctx, "ingestion.ingest")
	defer span.End()

	mediaType := NormalizeMediaType(doc.MediaType)
	span.SetAttributes(
		attribute.String("document.media_type", mediaType),
		attribute.Int("document.size", len(doc.Data)),
	)

	if err := ctx.Err(); err != nil {
		return Ingested{}, err
	}

	var (
		result Ingested
		err    error
	)
	switch {
	case mediaType == MediaTypeDOCX:
		result, err = i.ingestDocx(doc)
	case strings.HasPrefix(mediaType, "text/"):
		result = Ingested{Content: string(doc.Data), MediaType: mediaType}
	default:
		result = i.embed(doc.Data, mediaType)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingestion failed")
		return Ingested{}, err
	}

	span.SetAttributes(
		attribute.Bool("document.embedded", result.Embedded),
		attribute.Int("document.content_length", len(result.Content)),
	)
	if result.Pages > 0 {
		span.SetAttributes(attribute.Int("document.pages", result.Pages))
	}

	i.logger.Debug("Document ingested",
		"filename", doc.Filename,
		"media_type", mediaType,
		"embedded", result.Embedded,
		"pages", result.Pages,
		"content_length", len(result.Content))

	return result, nil
}

func (i *Ingester) ingestDocx(doc types.UploadedDocument) (Ingested, error) {
	text, err := extractDocxText(doc.Data)
	if err != nil {
		return Ingested{}, errors.NewUnsupportedFormatError(
			fmt.Sprintf("could not read word-processing document %q", doc.Filename), err)
	}
	if text == "" {
		return Ingested{}, errors.NewUnsupportedFormatError(
			fmt.Sprintf("word-processing document %q contains no text", doc.Filename), nil)
	}
	return Ingested{Content: text, MediaType: MediaTypeDOCX}, nil
}

func (i *Ingester) embed(data []byte, mediaType string) Ingested {
	if mediaType == "" {
		mediaType = mediaTypeOctetStream
	}
	result := Ingested{
		Content:   DataURI(mediaType, data),
		Embedded:  true,
		MediaType: mediaType,
	}
	if mediaType == MediaTypePDF {
		pages, err := pdfPageCount(data)
		if err != nil {
			i.logger.Debug("Could not read PDF page count", "error", err.Error())
		}
		result.Pages = pages
	}
	return result
}

// DataURI renders data as data:<media type>;base64,<payload>
func DataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI splits a base64 data URI into its media type and decoded bytes
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI has no payload separator")
	}
	mediaType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URI payload: %w", err)
	}
	return mediaType, data, nil
}

// pdfPageCount is informational only; the PDF itself is never rejected here
func pdfPageCount(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("pdf reader panicked: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return reader.NumPage(), nil
}
