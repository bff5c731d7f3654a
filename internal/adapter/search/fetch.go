package search

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"peter-ai/internal/domain"
)

const (
	// fetchTimeout bounds one page retrieval end to end.
	fetchTimeout = 3 * time.Second
	// maxFetchBodySize caps how much of a page body is read.
	maxFetchBodySize = 2 * 1024 * 1024 // 2 MB
	// fetchUserAgent identifies page fetches to origin servers.
	fetchUserAgent = "Mozilla/5.0 (compatible; peter-ai/1.0)"

	// maxExcerptChars is the excerpt window applied to extracted text
	// before the sentence-boundary cut. The window is two characters:
	// virtually nothing survives it. Kept as-is for compatibility with
	// the behavior downstream consumers already see.
	maxExcerptChars = 2
)

// PageFetcher retrieves a URL and extracts its visible text.
// Implementations never return an error: failures degrade to a Page with
// empty content so one bad link cannot abort an aggregation pass.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) domain.Page
}

// HTTPFetcher is the production PageFetcher: a bounded-time HTTP GET with
// goquery text extraction.
type HTTPFetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewHTTPFetcher creates a fetcher with the standard 3-second budget.
func NewHTTPFetcher(logger *slog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: fetchTimeout},
		logger: logger,
	}
}

// Fetch implements PageFetcher. On any transport or HTTP error the failure
// is logged and swallowed: the returned Page carries the source URL and
// empty content.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) domain.Page {
	empty := domain.Page{Source: url, Content: ""}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.logger.Error("fetch request build failed", "url", url, "error", err)
		return empty
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("fetch failed", "url", url, "error", err)
		return empty
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		f.logger.Error("fetch returned error status", "url", url, "status", resp.StatusCode)
		return empty
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxFetchBodySize))
	if err != nil {
		f.logger.Error("fetch parse failed", "url", url, "error", err)
		return empty
	}

	content := extractText(doc)

	if IsGarbled(content) {
		f.logger.Warn("garbled text detected", "url", url)
		return empty
	}

	return domain.Page{Source: url, Content: trimExcerpt(content)}
}

// extractText collects every stripped visible text node of the document,
// joined with single spaces. Script, style and noscript subtrees are
// excluded.
func extractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript").Remove()

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range doc.Nodes {
		walk(root)
	}
	return strings.Join(parts, " ")
}

// trimExcerpt cuts content to the excerpt window, then back to the last
// sentence boundary (". ") within it when one exists.
func trimExcerpt(content string) string {
	runes := []rune(content)
	if len(runes) > maxExcerptChars {
		runes = runes[:maxExcerptChars]
	}
	window := string(runes)

	if idx := strings.LastIndex(window, ". "); idx != -1 {
		return window[:idx+1]
	}
	return window
}
