package extract

import (
	"strings"
	"testing"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

const quizPage = `<!DOCTYPE html>
<html>
<head><title>Quiz 3</title></head>
<body>
<div id="question">
	<p>What is the sum of the Value column in the table below?
	Post your answer to https://quiz.example.com/submit when done.</p>
	<table>
		<tr><th>Name</th><th>Value</th></tr>
		<tr><td>alpha</td><td>10</td></tr>
		<tr><td>beta</td><td>32</td></tr>
	</table>
	<a href="/files/extra.csv">supporting data</a>
	<a href="/about">about this quiz</a>
</div>
</body>
</html>`

func TestExtractHTML(t *testing.T) {
	ex, err := New().Extract(models.KindHTML, []byte(quizPage), "https://quiz.example.com/q/3")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	if ex.Table == nil {
		t.Fatal("expected a table")
	}
	if len(ex.Table.Headers) != 2 || ex.Table.Headers[1] != "Value" {
		t.Errorf("unexpected headers: %v", ex.Table.Headers)
	}
	if len(ex.Table.Rows) != 2 {
		t.Errorf("expected 2 data rows, got %d", len(ex.Table.Rows))
	}

	if ex.SubmitURL != "https://quiz.example.com/submit" {
		t.Errorf("SubmitURL = %q", ex.SubmitURL)
	}

	if len(ex.FileLinks) != 1 || ex.FileLinks[0] != "https://quiz.example.com/files/extra.csv" {
		t.Errorf("FileLinks = %v", ex.FileLinks)
	}

	if !strings.Contains(ex.Text, "sum of the Value column") {
		t.Errorf("prompt text lost the question: %q", ex.Text)
	}
}

func TestExtractHTML_SubmitFromFormAction(t *testing.T) {
	page := `<html><body>
		<p>Answer the question in the form. This page has enough text for the
		region matcher to accept it as real content.</p>
		<form action="/grade/submit" method="post"><input name="answer"></form>
	</body></html>`

	ex, err := New().Extract(models.KindHTML, []byte(page), "https://quiz.example.com/q/4")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if ex.SubmitURL != "https://quiz.example.com/grade/submit" {
		t.Errorf("SubmitURL = %q", ex.SubmitURL)
	}
}

func TestExtractHTML_NoTableNoSubmit(t *testing.T) {
	page := `<html><body><p>Who painted the ceiling of the Sistine Chapel?</p></body></html>`

	ex, err := New().Extract(models.KindHTML, []byte(page), "https://quiz.example.com/q/5")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if ex.Table != nil {
		t.Errorf("expected no table, got %v", ex.Table)
	}
	if ex.SubmitURL != "" {
		t.Errorf("expected no submit URL, got %q", ex.SubmitURL)
	}
}

func TestExtractCSV(t *testing.T) {
	csv := "city,population\nreykjavik,139000\nakureyri,19000\n"

	ex, err := New().Extract(models.KindCSV, []byte(csv), "https://quiz.example.com/data.csv")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if ex.Table == nil {
		t.Fatal("expected a table")
	}
	if ex.Table.Headers[0] != "city" || ex.Table.Headers[1] != "population" {
		t.Errorf("unexpected headers: %v", ex.Table.Headers)
	}
	if len(ex.Table.Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(ex.Table.Rows))
	}
}

func TestExtractCSV_NoHeaderRow(t *testing.T) {
	csv := "1,2\n3,4\n"

	ex, err := New().Extract(models.KindCSV, []byte(csv), "https://quiz.example.com/data.csv")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if ex.Table == nil {
		t.Fatal("expected a table")
	}
	// All-numeric first row means there is no header; synthetic names apply.
	if ex.Table.Headers[0] != "col1" {
		t.Errorf("expected synthetic headers, got %v", ex.Table.Headers)
	}
	if len(ex.Table.Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(ex.Table.Rows))
	}
}

func TestExtractJSON(t *testing.T) {
	ex, err := New().Extract(models.KindJSON, []byte(`{"answer_hint": 42, "items": [1, 2, 3]}`), "")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if ex.Object == nil {
		t.Error("expected a decoded object")
	}
	if !strings.Contains(ex.Text, "answer_hint") {
		t.Errorf("text should include the rendered JSON, got %q", ex.Text)
	}
}

func TestExtractJSON_Malformed(t *testing.T) {
	_, err := New().Extract(models.KindJSON, []byte(`{"broken`), "")
	se, ok := err.(*models.SolveError)
	if !ok || se.Code != models.ErrCodeExtraction {
		t.Errorf("expected EXTRACTION_FAILED, got %v", err)
	}
}

func TestExtract_UnsupportedKind(t *testing.T) {
	_, err := New().Extract(models.ContentKind("zip"), []byte("x"), "")
	se, ok := err.(*models.SolveError)
	if !ok || se.Code != models.ErrCodeExtraction {
		t.Errorf("expected EXTRACTION_FAILED, got %v", err)
	}
}
