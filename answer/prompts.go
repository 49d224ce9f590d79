package answer

import (
	"fmt"
	"strings"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/extract"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

// SchemaHint is the response contract sent to the reasoning service.
const SchemaHint = `{"answer": <number, string, or boolean>, "next_url": <string, optional — only when the task points at a follow-up URL>}`

// schemaReminder is appended to the prompt on reformulation attempts after
// a malformed response.
const schemaReminder = "\n\nREMINDER: your previous reply did not match the required schema. " +
	"Respond with a single JSON object containing an \"answer\" field " +
	"(and \"next_url\" only if the task names a follow-up URL). No prose, no markdown fences."

// taskInstructions maps each task kind to its prompt preamble.
var taskInstructions = map[models.TaskKind]string{
	models.TaskScrape:    "Extract the requested data from the table below. If no explicit question is asked, return the table's key values as the answer.",
	models.TaskStatistic: "Answer the statistical question using the data below. Prefer the pre-computed column statistics when they match the question; report plain numbers without units unless the question asks otherwise.",
	models.TaskFileParse: "The page references a data file whose parsed contents are included below. Answer the question using that data.",
	models.TaskLookup:    "Answer the question below directly and concisely using the page content.",
	models.TaskUnknown:   "Work out what this page is asking for and provide your best answer.",
}

// buildPrompt assembles the task-kind-specific prompt from the extracted
// content.
func buildPrompt(task *models.QuizTask) string {
	var b strings.Builder

	b.WriteString(taskInstructions[task.TaskKind])
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Task URL: %s\n\n", task.URL)

	if task.Extraction != nil {
		if task.TaskKind == models.TaskStatistic && task.Extraction.Table != nil {
			if stats := extract.NumericStats(task.Extraction.Table); len(stats) > 0 {
				b.WriteString(extract.StatsText(stats))
				b.WriteByte('\n')
			}
		}
		if task.Extraction.Table != nil {
			b.WriteString("Table data:\n")
			b.WriteString(extract.TableText(task.Extraction.Table, 100))
			b.WriteByte('\n')
		}
		b.WriteString("Page content:\n")
		b.WriteString(task.Extraction.Text)
	}

	return b.String()
}
