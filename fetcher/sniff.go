package fetcher

import (
	"bytes"
	"encoding/json"
	"net/url"
	"path"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

// DetectKind infers the content kind from the Content-Type header, then the
// URL extension, then magic bytes / shape sniffing. HTML is the fallback —
// quiz pages that defeat every other test are still prompt-able as markup.
func DetectKind(contentType string, body []byte, rawURL string) models.ContentKind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "text/html"), strings.Contains(ct, "application/xhtml+xml"):
		return models.KindHTML
	case strings.Contains(ct, "application/pdf"):
		return models.KindPDF
	case strings.Contains(ct, "text/csv"):
		return models.KindCSV
	case strings.Contains(ct, "spreadsheetml"), strings.Contains(ct, "ms-excel"):
		return models.KindXLSX
	case strings.Contains(ct, "application/json"):
		return models.KindJSON
	}

	if kind, ok := kindFromExtension(rawURL); ok {
		return kind
	}
	return sniffKind(body)
}

// kindFromExtension maps a URL path extension to a content kind.
func kindFromExtension(rawURL string) (models.ContentKind, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".pdf":
		return models.KindPDF, true
	case ".csv":
		return models.KindCSV, true
	case ".xlsx", ".xls":
		return models.KindXLSX, true
	case ".json":
		return models.KindJSON, true
	case ".html", ".htm":
		return models.KindHTML, true
	}
	return "", false
}

// sniffKind inspects the body itself.
func sniffKind(body []byte) models.ContentKind {
	trimmed := bytes.TrimSpace(body)
	switch {
	case bytes.HasPrefix(trimmed, []byte("%PDF-")):
		return models.KindPDF
	case bytes.HasPrefix(trimmed, []byte("PK\x03\x04")):
		// xlsx is a zip container; bare zips without a spreadsheet inside
		// will fail extraction with a clear error.
		return models.KindXLSX
	case len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '['):
		if json.Valid(trimmed) {
			return models.KindJSON
		}
	}

	lower := bytes.ToLower(trimmed)
	if bytes.Contains(lower, []byte("<html")) || bytes.HasPrefix(lower, []byte("<!doctype")) {
		return models.KindHTML
	}
	if looksLikeCSV(trimmed) {
		return models.KindCSV
	}
	return models.KindHTML
}

// looksLikeCSV checks whether the first few lines are consistently
// comma-delimited with the same field count.
func looksLikeCSV(body []byte) bool {
	lines := bytes.SplitN(body, []byte("\n"), 4)
	if len(lines) < 2 {
		return false
	}
	want := bytes.Count(lines[0], []byte(","))
	if want == 0 {
		return false
	}
	for _, line := range lines[1:] {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if bytes.Count(line, []byte(",")) != want {
			return false
		}
	}
	return true
}

var reNoscript = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)

var emptyRoots = []string{
	`<div id="root"></div>`,
	`<div id="app"></div>`,
	`<div id="__next"></div>`,
}

// NeedsRender reports whether statically fetched HTML likely needs a
// browser to produce real content (SPA shell, noscript warning, JS-heavy
// page with almost no visible text).
func NeedsRender(body []byte) bool {
	bodyText := extractVisibleText(body)
	if len(bodyText) < 200 {
		return true
	}

	lower := strings.ToLower(string(body))
	for _, root := range emptyRoots {
		if strings.Contains(lower, root) {
			return true
		}
	}
	if reNoscript.MatchString(lower) {
		return true
	}

	if strings.Count(lower, "<script") > 10 && len(bodyText) < 500 {
		return true
	}
	return false
}

// extractTitle extracts the <title> content from raw HTML bytes.
func extractTitle(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				if tokenizer.Next() == html.TextToken {
					return strings.TrimSpace(string(tokenizer.Text()))
				}
				return ""
			}
		}
	}
}

// extractVisibleText extracts the visible text from within <body>, stripping
// all tags and <script>/<style> content. Used for heuristic analysis only.
func extractVisibleText(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "body" {
				inBody = true
			}
			if tag == "script" || tag == "style" || tag == "noscript" {
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "script" || tag == "style" || tag == "noscript" {
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
