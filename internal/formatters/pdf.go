package formatters

import (
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin     = 10.0
	pdfFontSize   = 11.0
	pdfLineHeight = 5.0
)

// RenderResumePDF writes text as a single-column A4 document, wrapping long
// lines and breaking pages as needed.
func RenderResumePDF(w io.Writer, text string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Updated Resume", true)
	pdf.SetCreator("Clyptus Rank", true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", pdfFontSize)

	// core fonts are cp1252; characters outside it degrade rather than fail
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	pdf.MultiCell(0, pdfLineHeight, translate(text), "", "L", false)

	return pdf.Output(w)
}
