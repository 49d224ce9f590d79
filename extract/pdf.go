package extract

import (
	"bytes"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

// extractPDF pulls the plain text out of a PDF body.
func extractPDF(body []byte) (*models.Extraction, error) {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, models.NewSolveError(models.ErrCodeExtraction, "malformed PDF", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return nil, models.NewSolveError(models.ErrCodeExtraction, "PDF text extraction failed", err)
	}

	text, err := io.ReadAll(textReader)
	if err != nil {
		return nil, models.NewSolveError(models.ErrCodeExtraction, "reading PDF text failed", err)
	}

	return &models.Extraction{
		Text: capPromptText(strings.TrimSpace(string(text))),
	}, nil
}
