package common

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"clyptusrank/internal/errors"
	"clyptusrank/internal/formatters"
)

// CommandConfig holds common configuration for commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
	// Stdout receives output when OutputFile is empty; defaults to the handler's writer
	Stdout io.Writer
}

// OutputHandler handles formatting and writing output
type OutputHandler struct {
	fileProcessor *FileProcessor
	registry      *formatters.FormatterRegistry
	logger        *errors.Logger
	stdout        io.Writer
}

// NewOutputHandler creates a new output handler writing to stdout
func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return NewOutputHandlerTo(os.Stdout, logger)
}

// NewOutputHandlerTo creates an output handler that prints to w when no output file is set
func NewOutputHandlerTo(w io.Writer, logger *errors.Logger) *OutputHandler {
	return &OutputHandler{
		fileProcessor: NewFileProcessor(logger),
		registry:      formatters.GlobalRegistry,
		logger:        logger,
		stdout:        w,
	}
}

// HandleOutput formats data and writes it to the configured file or stdout
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	if err := oh.fileProcessor.ValidateOutputFile(config.OutputFile); err != nil {
		return err
	}

	output, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}

	if config.OutputFile == "" {
		w := oh.stdout
		if config.Stdout != nil {
			w = config.Stdout
		}
		_, err := fmt.Fprint(w, output)
		return err
	}

	if err := oh.fileProcessor.WriteFile(config.OutputFile, []byte(output)); err != nil {
		return err
	}
	oh.logger.Info("Output written successfully",
		"file", config.OutputFile, "format", config.OutputFormat)
	return nil
}

// WriteResumePDF renders resumeText as the updated-resume document at filename
func (oh *OutputHandler) WriteResumePDF(resumeText, filename string) error {
	if err := oh.fileProcessor.ValidateOutputFile(filename); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatters.RenderResumePDF(&buf, resumeText); err != nil {
		return errors.NewIOError("PDF_RENDER_FAILED", "Failed to render updated resume", err)
	}
	if err := oh.fileProcessor.WriteFile(filename, buf.Bytes()); err != nil {
		return err
	}
	oh.logger.Info("Updated resume written", "file", filename, "size", buf.Len())
	return nil
}

// GetSupportedFormats returns all supported output formats
func (oh *OutputHandler) GetSupportedFormats() []string {
	return oh.registry.GetSupportedFormats()
}
