package extractor

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/docflow-labs/docflow/internal/core/domain"
)

func extractFromPDF(path string) (text string, err error) {
	// The pdf reader panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = domain.WrapError(domain.ErrExtraction, "extract pdf text",
				fmt.Errorf("malformed pdf: %v", r))
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "extract pdf text", err)
	}
	defer file.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "extract pdf text", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "extract pdf text", err)
	}
	return buf.String(), nil
}
