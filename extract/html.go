package extract

import (
	"bytes"
	"log/slog"
	nurl "net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

// minContentLength is the minimum readability TextContent length (in
// characters) to be considered valid. Below this we assume the algorithm
// failed to locate the main content and fall back.
const minContentLength = 50

// reSubmitURL matches the grading endpoint quiz pages advertise.
var reSubmitURL = regexp.MustCompile(`https?://[^\s"'<>]+/submit\b`)

// questionRegions are tried in order when readability can't isolate the
// main content. Compiled once; quiz pages are small and repetitive enough
// that these cover the common layouts.
var questionRegions = []cascadia.Sel{
	mustSel("#question"),
	mustSel(".question"),
	mustSel("main"),
	mustSel("article"),
}

func mustSel(s string) cascadia.Sel {
	sel, err := cascadia.Parse(s)
	if err != nil {
		panic(err)
	}
	return sel
}

// dataFileExts are the extensions treated as downloadable data files.
var dataFileExts = map[string]struct{}{
	".csv": {}, ".xlsx": {}, ".xls": {}, ".pdf": {}, ".json": {},
}

// extractHTML normalizes an HTML page into prompt text, the largest table
// on the page, data-file links, and the advertised submit endpoint.
func (e *Extractor) extractHTML(body []byte, sourceURL string) (*models.Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, models.NewSolveError(models.ErrCodeExtraction, "malformed HTML", err)
	}

	ex := &models.Extraction{
		Table:     largestTable(doc),
		FileLinks: dataFileLinks(doc, sourceURL),
		SubmitURL: findSubmitURL(body, doc, sourceURL),
	}

	content := mainContentHTML(body, sourceURL)
	md, err := toMarkdown(e.mdConverter, content, sourceURL)
	if err != nil {
		slog.Warn("markdown conversion failed, using plain text", "url", sourceURL, "error", err)
		md = strings.TrimSpace(doc.Text())
	}
	ex.Text = capPromptText(md)

	return ex, nil
}

// mainContentHTML isolates the question-bearing region of the page:
// readability first, then known question-container selectors, then the
// whole page.
func mainContentHTML(body []byte, sourceURL string) string {
	rawHTML := string(body)

	if parsedURL, err := nurl.Parse(sourceURL); err == nil {
		article, rerr := readability.FromReader(bytes.NewReader(body), parsedURL)
		if rerr == nil && len(strings.TrimSpace(article.TextContent)) >= minContentLength {
			return article.Content
		}
	}

	if region := matchRegion(body); region != "" {
		return region
	}
	return rawHTML
}

// matchRegion returns the outer HTML of the first question-region selector
// that matches and carries enough text.
func matchRegion(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	for _, sel := range questionRegions {
		node := cascadia.Query(doc, sel)
		if node == nil {
			continue
		}
		var buf bytes.Buffer
		if err := html.Render(&buf, node); err != nil {
			continue
		}
		if len(strings.TrimSpace(buf.String())) >= minContentLength {
			return buf.String()
		}
	}
	return ""
}

// largestTable parses every <table> on the page and returns the one with
// the most rows, or nil when there is none.
func largestTable(doc *goquery.Document) *models.Table {
	var best *models.Table

	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		t := parseTable(sel)
		if t == nil {
			return
		}
		if best == nil || len(t.Rows) > len(best.Rows) {
			best = t
		}
	})
	return best
}

// parseTable converts one <table> selection into a Table. Headers come
// from <th> cells, or the first row when the table has none.
func parseTable(sel *goquery.Selection) *models.Table {
	t := &models.Table{}

	sel.Find("th").Each(func(_ int, th *goquery.Selection) {
		t.Headers = append(t.Headers, strings.TrimSpace(th.Text()))
	})

	sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			row = append(row, strings.TrimSpace(td.Text()))
		})
		if len(row) > 0 {
			t.Rows = append(t.Rows, row)
		}
	})

	if len(t.Rows) == 0 {
		return nil
	}
	if len(t.Headers) == 0 {
		t.Headers = t.Rows[0]
		t.Rows = t.Rows[1:]
		if len(t.Rows) == 0 {
			return nil
		}
	}
	return t
}

// dataFileLinks collects absolute URLs of linked data files.
func dataFileLinks(doc *goquery.Document, sourceURL string) []string {
	base, err := nurl.Parse(sourceURL)
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil || (resolved.Scheme != "http" && resolved.Scheme != "https") {
			return
		}
		if _, ok := dataFileExts[strings.ToLower(path.Ext(resolved.Path))]; !ok {
			return
		}
		abs := resolved.String()
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})
	return links
}

// findSubmitURL looks for the grading endpoint: first in the raw markup
// (quiz pages usually spell it out in the instructions), then in form
// actions and links.
func findSubmitURL(body []byte, doc *goquery.Document, sourceURL string) string {
	if m := reSubmitURL.Find(body); m != nil {
		return string(m)
	}

	base, err := nurl.Parse(sourceURL)
	if err != nil {
		return ""
	}

	found := ""
	doc.Find("form[action], a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		target, ok := s.Attr("action")
		if !ok {
			target, _ = s.Attr("href")
		}
		resolved, err := base.Parse(target)
		if err != nil {
			return true
		}
		if strings.HasSuffix(resolved.Path, "/submit") {
			found = resolved.String()
			return false
		}
		return true
	})
	return found
}
