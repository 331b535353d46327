package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"clyptusrank/internal/errors"
	"clyptusrank/internal/ingestion"
	"clyptusrank/internal/types"
	"clyptusrank/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFile reads a text file
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	data, err := fp.readBytes(filename, "", 0)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadDocument reads an uploadable document and determines its media type.
// Files larger than maxSize are rejected against field before they are read;
// zero disables the check.
func (fp *FileProcessor) ReadDocument(filename, field string, maxSize int64) (*types.UploadedDocument, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	data, err := fp.readBytes(filename, field, maxSize)
	if err != nil {
		return nil, err
	}

	mediaType := documentMediaType(filename, data)
	if fp.logger != nil {
		fp.logger.Debug("Document read",
			"filename", filename,
			"media_type", mediaType,
			"size", utils.FormatFileSize(int64(len(data))))
	}

	return &types.UploadedDocument{
		Data:      data,
		MediaType: mediaType,
		Filename:  filepath.Base(filename),
	}, nil
}

// documentMediaType trusts content sniffing unless it only recognises a
// generic container, in which case the file extension decides
func documentMediaType(filename string, data []byte) string {
	sniffed := ingestion.DetectMediaType(data)
	switch sniffed {
	case "", "application/octet-stream", "application/zip":
		if byName := utils.MediaTypeFromExtension(filename); byName != "" {
			return byName
		}
	}
	return sniffed
}

func (fp *FileProcessor) readBytes(filename, field string, maxSize int64) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil && fp.logger != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	if maxSize > 0 {
		if info, err := file.Stat(); err == nil && info.Size() > maxSize {
			message := fmt.Sprintf("File %s is %s, the limit is %s", filename,
				utils.FormatFileSize(info.Size()), utils.FormatFileSize(maxSize))
			if field != "" {
				return nil, errors.NewFileTooLargeError(field, message, nil)
			}
			return nil, errors.NewValidationError(errors.ErrCodeFileTooLarge, message, nil)
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	return data, nil
}

// WriteFile writes content to a file, creating its directory
func (fp *FileProcessor) WriteFile(filename string, content []byte) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, content, 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

// ReadTextFiles validates and reads several text inputs
func (fp *FileProcessor) ReadTextFiles(filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))

	for i, filename := range filenames {
		if err := utils.ValidateInputFile(filename); err != nil {
			return nil, errors.NewValidationError("INVALID_INPUT_FILE",
				fmt.Sprintf("Invalid file %s", filename), err)
		}

		if !utils.IsTextFile(filename) {
			if fp.logger != nil {
				fp.logger.Warn("File may not be a text file", "filename", filename)
			} else {
				fmt.Fprintf(os.Stderr, "Warning: %s may not be a text file\n", filename)
			}
		}

		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		contents[i] = content
	}

	return contents, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}
	return nil
}
