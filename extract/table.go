package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

// ColumnStats holds deterministic statistics for one numeric table column.
// The answer engine embeds these in statistic prompts so the model reports
// a pre-computed value instead of doing arithmetic.
type ColumnStats struct {
	Name  string
	Count int
	Sum   float64
	Mean  float64
	Min   float64
	Max   float64
}

// NumericStats computes per-column statistics for every column where at
// least one cell parses as a number. Non-numeric cells are skipped, not
// treated as zero.
func NumericStats(t *models.Table) []ColumnStats {
	if t == nil || len(t.Headers) == 0 {
		return nil
	}

	stats := make([]ColumnStats, 0, len(t.Headers))
	for col, name := range t.Headers {
		cs := ColumnStats{Name: strings.TrimSpace(name)}
		for _, row := range t.Rows {
			if col >= len(row) {
				continue
			}
			v, err := parseNumber(row[col])
			if err != nil {
				continue
			}
			if cs.Count == 0 || v < cs.Min {
				cs.Min = v
			}
			if cs.Count == 0 || v > cs.Max {
				cs.Max = v
			}
			cs.Sum += v
			cs.Count++
		}
		if cs.Count > 0 {
			cs.Mean = cs.Sum / float64(cs.Count)
			stats = append(stats, cs)
		}
	}
	return stats
}

// parseNumber parses a cell value, tolerating thousands separators,
// currency symbols, and percent signs.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "$€£%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(s, 64)
}

// StatsText renders column statistics as a compact text block for prompting.
func StatsText(stats []ColumnStats) string {
	if len(stats) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Pre-computed column statistics:\n")
	for _, cs := range stats {
		fmt.Fprintf(&b, "- %s: count=%d sum=%s mean=%s min=%s max=%s\n",
			cs.Name, cs.Count,
			formatNumber(cs.Sum), formatNumber(cs.Mean),
			formatNumber(cs.Min), formatNumber(cs.Max))
	}
	return b.String()
}

// TableText renders a table as pipe-delimited text, capped at maxRows data
// rows to bound prompt size.
func TableText(t *models.Table, maxRows int) string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Join(t.Headers, " | "))
	b.WriteByte('\n')
	for i, row := range t.Rows {
		if maxRows > 0 && i >= maxRows {
			fmt.Fprintf(&b, "... (%d more rows)\n", len(t.Rows)-maxRows)
			break
		}
		b.WriteString(strings.Join(row, " | "))
		b.WriteByte('\n')
	}
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
