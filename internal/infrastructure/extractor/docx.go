package extractor

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/docflow-labs/docflow/internal/core/domain"
)

// extractFromDOCX reads word/document.xml out of the docx zip container
// and concatenates the text runs, one line per paragraph.
func extractFromDOCX(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "extract docx text", err)
	}
	defer archive.Close()

	var document *zip.File
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			document = file
			break
		}
	}
	if document == nil {
		return "", domain.WrapError(domain.ErrExtraction, "extract docx text",
			errors.New("missing word/document.xml"))
	}

	reader, err := document.Open()
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "extract docx text", err)
	}
	defer reader.Close()

	text, err := collectTextRuns(reader)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "extract docx text", err)
	}
	return text, nil
}

func collectTextRuns(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var builder strings.Builder
	inTextRun := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch element := token.(type) {
		case xml.StartElement:
			if element.Name.Local == "t" {
				inTextRun = true
			}
		case xml.EndElement:
			switch element.Name.Local {
			case "t":
				inTextRun = false
			case "p":
				builder.WriteByte('\n')
			}
		case xml.CharData:
			if inTextRun {
				builder.Write(element)
			}
		}
	}
	return builder.String(), nil
}
