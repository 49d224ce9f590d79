package extract

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

// maxTextRows bounds how many data rows are rendered into prompt text.
const maxTextRows = 100

// extractCSV parses comma-separated data into a Table.
func extractCSV(body []byte) (*models.Extraction, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1 // tolerate ragged quiz data

	records, err := r.ReadAll()
	if err != nil {
		return nil, models.NewSolveError(models.ErrCodeExtraction, "malformed CSV", err)
	}
	if len(records) == 0 {
		return nil, models.NewSolveError(models.ErrCodeExtraction, "empty CSV", nil)
	}

	return tabularExtraction(records)
}

// extractXLSX parses the first sheet of an xlsx workbook into a Table.
func extractXLSX(body []byte) (*models.Extraction, error) {
	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		return nil, models.NewSolveError(models.ErrCodeExtraction, "malformed spreadsheet", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, models.NewSolveError(models.ErrCodeExtraction, "spreadsheet has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, models.NewSolveError(models.ErrCodeExtraction, "reading sheet rows failed", err)
	}
	if len(rows) == 0 {
		return nil, models.NewSolveError(models.ErrCodeExtraction, "spreadsheet sheet is empty", nil)
	}

	return tabularExtraction(rows)
}

// tabularExtraction builds an Extraction from raw records. The first row is
// treated as the header when it contains any non-numeric cell; otherwise
// synthetic column names are generated.
func tabularExtraction(records [][]string) (*models.Extraction, error) {
	t := &models.Table{}

	if headerRow(records[0]) {
		t.Headers = records[0]
		t.Rows = records[1:]
	} else {
		t.Headers = make([]string, len(records[0]))
		for i := range t.Headers {
			t.Headers[i] = "col" + strconv.Itoa(i+1)
		}
		t.Rows = records
	}

	return &models.Extraction{
		Text:  capPromptText(TableText(t, maxTextRows)),
		Table: t,
	}, nil
}

// headerRow reports whether a row looks like column names rather than data.
func headerRow(row []string) bool {
	for _, cell := range row {
		if _, err := parseNumber(cell); err != nil {
			return true
		}
	}
	return false
}
