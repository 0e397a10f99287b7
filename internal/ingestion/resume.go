package ingestion

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// MaxResumeBytes is the largest upload the extractor will accept.
const MaxResumeBytes = 5 << 20

// ErrUnsupportedFormat is returned for uploads that are neither PDF nor text.
type ErrUnsupportedFormat struct {
	Detected string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported resume format: %s (PDF or plain text expected)", e.Detected)
}

// ExtractResumeText sniffs the upload format and returns cleaned plain text.
func ExtractResumeText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty resume upload")
	}
	if len(data) > MaxResumeBytes {
		return "", fmt.Errorf("resume exceeds %d byte limit", MaxResumeBytes)
	}

	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return extractPDF(data)
	}

	if !utf8.Valid(data) {
		return "", &ErrUnsupportedFormat{Detected: "binary"}
	}

	text := CleanText(string(data))
	if text == "" {
		return "", fmt.Errorf("resume contains no text")
	}
	return text, nil
}

// extractPDF pulls the plain text stream out of a PDF upload.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	text := CleanText(buf.String())
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("PDF contains no extractable text")
	}
	return text, nil
}
