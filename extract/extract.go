// Package extract normalizes fetched content (HTML, PDF, spreadsheet,
// JSON) into a structured representation the classifier and answer engine
// can work with: a prompt-ready text summary plus structured payloads for
// deterministic computation.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

// Extractor dispatches over content kinds. The Markdown converter is
// created once and reused across all requests (goroutine-safe).
type Extractor struct {
	mdConverter *converter.Converter
}

// New initialises the Extractor with a pre-configured Markdown converter.
func New() *Extractor {
	return &Extractor{mdConverter: newMarkdownConverter()}
}

// Extract normalizes raw content of the given kind. Malformed input yields
// an EXTRACTION_FAILED error; extraction is never retried (the fetch is
// retried, not re-extraction of the same bytes).
func (e *Extractor) Extract(kind models.ContentKind, body []byte, sourceURL string) (*models.Extraction, error) {
	switch kind {
	case models.KindHTML:
		return e.extractHTML(body, sourceURL)
	case models.KindPDF:
		return extractPDF(body)
	case models.KindCSV:
		return extractCSV(body)
	case models.KindXLSX:
		return extractXLSX(body)
	case models.KindJSON:
		return extractJSON(body)
	default:
		return nil, models.NewSolveError(models.ErrCodeExtraction,
			fmt.Sprintf("unsupported content kind %q", kind), nil)
	}
}

// extractJSON decodes a JSON document and re-renders it as indented text.
func extractJSON(body []byte) (*models.Extraction, error) {
	var obj any
	if err := json.Unmarshal(bytes.TrimSpace(body), &obj); err != nil {
		return nil, models.NewSolveError(models.ErrCodeExtraction, "malformed JSON", err)
	}

	pretty, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return nil, models.NewSolveError(models.ErrCodeExtraction, "re-encoding JSON failed", err)
	}

	return &models.Extraction{
		Text:   capPromptText(string(pretty)),
		Object: obj,
	}, nil
}
