// Package classify assigns a task kind to an extracted quiz step based on
// observable evidence in the content. No classification is fatal: pages
// that defeat every rule degrade to TaskUnknown, which the answer engine
// still answers best-effort.
package classify

import (
	"regexp"
	"strings"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

var (
	reStatPhrase = regexp.MustCompile(`(?i)\b(sum|total|average|mean|median|count|how many|minimum|maximum|std(?:\s+dev)?|variance|difference|product)\b`)
	reQuestion   = regexp.MustCompile(`(?i)(\?|^\s*(what|which|how|who|when|where|find|calculate|compute|list|give)\b)`)
)

// Classify inspects the extracted content and question text and returns a
// task kind.
//
// Evidence rules, in priority order:
//   - a statistical question phrase         -> statistic
//   - a linked data file                    -> file_parse
//   - a table with no explicit question     -> scrape
//   - an explicit question, nothing tabular -> lookup
//   - otherwise                            -> unknown
func Classify(text string, ex *models.Extraction) models.TaskKind {
	hasQuestion := hasQuestionPhrase(text)

	if reStatPhrase.MatchString(text) && ((ex != nil && ex.Table != nil) || hasNumbers(text)) {
		return models.TaskStatistic
	}
	if ex != nil && len(ex.FileLinks) > 0 {
		return models.TaskFileParse
	}
	if ex != nil && ex.Table != nil && !hasQuestion {
		return models.TaskScrape
	}
	if hasQuestion {
		return models.TaskLookup
	}
	return models.TaskUnknown
}

func hasQuestionPhrase(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if reQuestion.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

// hasNumbers reports whether the text carries enough digits to make a
// statistical question answerable without a table.
func hasNumbers(text string) bool {
	count := 0
	for _, r := range text {
		if r >= '0' && r <= '9' {
			count++
			if count >= 4 {
				return true
			}
		}
	}
	return false
}
