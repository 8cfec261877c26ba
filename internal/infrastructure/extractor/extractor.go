// Package extractor validates uploaded files and pulls plain text out of
// PDF and DOCX containers.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docflow-labs/docflow/internal/core/domain"
)

// MaxFileSize caps uploads at 16 MiB.
const MaxFileSize = 16 * 1024 * 1024

var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
}

type Extractor struct {
	maxSize int64
}

func New() *Extractor {
	return &Extractor{maxSize: MaxFileSize}
}

// Validate checks the file before any extraction attempt: it must exist,
// be a regular file with a supported extension, and fit the size cap.
func (e *Extractor) Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.WrapError(domain.ErrValidation, "validate file", errors.New("file does not exist"))
		}
		return domain.WrapError(domain.ErrValidation, "validate file", err)
	}
	if !info.Mode().IsRegular() {
		return domain.WrapError(domain.ErrValidation, "validate file", errors.New("path is not a regular file"))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return domain.WrapError(domain.ErrValidation, "validate file",
			fmt.Errorf("unsupported file type: %s", ext))
	}
	if info.Size() > e.maxSize {
		return domain.WrapError(domain.ErrValidation, "validate file",
			fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), e.maxSize))
	}
	return nil
}

func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractFromPDF(path)
	case ".docx":
		return extractFromDOCX(path)
	default:
		return "", domain.WrapError(domain.ErrExtraction, "extract text",
			fmt.Errorf("unsupported file type: %s", filepath.Ext(path)))
	}
}
