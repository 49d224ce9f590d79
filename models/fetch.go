package models

// FetchResult is the unified output of the page fetcher, whichever engine
// produced it.
type FetchResult struct {
	// Kind is the detected content kind of Body.
	Kind ContentKind

	// Body is the raw fetched content (rendered HTML for the browser path).
	Body []byte

	// Title is the page title, when the content is HTML.
	Title string

	// FinalURL is the URL after redirects.
	FinalURL string

	// StatusCode is the HTTP status of the final response (0 when the
	// browser path could not observe it).
	StatusCode int

	// Engine records which engine produced the result: "static" or "browser".
	Engine string
}
