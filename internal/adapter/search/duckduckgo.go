package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"peter-ai/internal/domain"
)

const (
	ddgHTMLEndpoint   = "https://html.duckduckgo.com/html/"
	ddgBaseEndpoint   = "https://duckduckgo.com/"
	ddgNewsEndpoint   = "https://duckduckgo.com/news.js"
	ddgVideosEndpoint = "https://duckduckgo.com/v.js"

	ddgTimeout     = 3 * time.Second
	maxDDGBodySize = 512 * 1024 // 512KB
)

// ddgVQDPattern extracts the request token DuckDuckGo embeds in its search
// page; the JSON endpoints refuse requests without it.
var ddgVQDPattern = regexp.MustCompile(`vqd=['"]?([\d-]+)['"]?`)

// DuckDuckGoBackend searches DuckDuckGo's HTML and JSON surfaces.
type DuckDuckGoBackend struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewDuckDuckGoBackend creates a backend with the standard timeout.
func NewDuckDuckGoBackend(logger *slog.Logger) *DuckDuckGoBackend {
	return &DuckDuckGoBackend{
		client: &http.Client{Timeout: ddgTimeout},
		logger: logger,
	}
}

func (b *DuckDuckGoBackend) Name() string { return "duckduckgo" }

// Text implements Backend via the HTML results endpoint. Hits carry the
// keys title, href and body.
func (b *DuckDuckGoBackend) Text(ctx context.Context, query, region string, max int) ([]domain.Hit, error) {
	form := url.Values{}
	form.Set("q", query)
	form.Set("kl", region)

	endpoint := b.endpoint(ddgHTMLEndpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("text search failed (HTTP %d)", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxDDGBodySize))
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	hits := make([]domain.Hit, 0, max)
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		anchor := sel.Find("a.result__a").First()
		href, _ := anchor.Attr("href")
		href = resolveDDGRedirect(href)
		if href == "" {
			return true
		}
		hits = append(hits, domain.Hit{
			"title": strings.TrimSpace(anchor.Text()),
			"href":  href,
			"body":  strings.TrimSpace(sel.Find("a.result__snippet").First().Text()),
		})
		return len(hits) < max
	})

	b.logger.Debug("ddg text search completed", "query", query, "results", len(hits))
	return hits, nil
}

// News implements Backend via the news JSON endpoint. Hits carry the keys
// date, title, body, url, image and source.
func (b *DuckDuckGoBackend) News(ctx context.Context, query, region string, max int) ([]domain.Hit, error) {
	vqd, err := b.vqd(ctx, query)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("l", region)
	params.Set("o", "json")
	params.Set("noamp", "1")
	params.Set("q", query)
	params.Set("vqd", vqd)
	params.Set("p", "-2")

	var payload struct {
		Results []struct {
			Date    int64  `json:"date"`
			Title   string `json:"title"`
			Excerpt string `json:"excerpt"`
			URL     string `json:"url"`
			Image   string `json:"image"`
			Source  string `json:"source"`
		} `json:"results"`
	}
	if err := b.getJSON(ctx, b.endpoint(ddgNewsEndpoint), params, &payload); err != nil {
		return nil, fmt.Errorf("news search: %w", err)
	}

	hits := make([]domain.Hit, 0, max)
	for _, r := range payload.Results {
		if len(hits) >= max {
			break
		}
		hits = append(hits, domain.Hit{
			"date":   time.Unix(r.Date, 0).UTC().Format(time.RFC3339),
			"title":  r.Title,
			"body":   r.Excerpt,
			"url":    r.URL,
			"image":  r.Image,
			"source": r.Source,
		})
	}

	b.logger.Debug("ddg news search completed", "query", query, "results", len(hits))
	return hits, nil
}

// Videos implements Backend via the video JSON endpoint. Hits keep the
// surface's raw shape: content (the video URL), title, description,
// images, statistics, published, publisher and uploader.
func (b *DuckDuckGoBackend) Videos(ctx context.Context, query string, max int) ([]domain.Hit, error) {
	vqd, err := b.vqd(ctx, query)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("l", "wt-wt")
	params.Set("o", "json")
	params.Set("q", query)
	params.Set("vqd", vqd)
	params.Set("p", "-2")

	var payload struct {
		Results []struct {
			Content     string            `json:"content"`
			Title       string            `json:"title"`
			Description string            `json:"description"`
			Images      map[string]string `json:"images"`
			Statistics  map[string]any    `json:"statistics"`
			Published   string            `json:"published"`
			Publisher   string            `json:"publisher"`
			Uploader    string            `json:"uploader"`
		} `json:"results"`
	}
	if err := b.getJSON(ctx, b.endpoint(ddgVideosEndpoint), params, &payload); err != nil {
		return nil, fmt.Errorf("video search: %w", err)
	}

	hits := make([]domain.Hit, 0, max)
	for _, r := range payload.Results {
		if len(hits) >= max {
			break
		}
		images := make(map[string]any, len(r.Images))
		for k, v := range r.Images {
			images[k] = v
		}
		hits = append(hits, domain.Hit{
			"content":     r.Content,
			"title":       r.Title,
			"description": r.Description,
			"images":      images,
			"statistics":  r.Statistics,
			"published":   r.Published,
			"publisher":   r.Publisher,
			"uploader":    r.Uploader,
		})
	}

	b.logger.Debug("ddg video search completed", "query", query, "results", len(hits))
	return hits, nil
}

// vqd performs the token handshake: fetch the search page for the query
// and pull the embedded vqd value out of it.
func (b *DuckDuckGoBackend) vqd(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint(ddgBaseEndpoint)+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("vqd handshake: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDDGBodySize))
	if err != nil {
		return "", fmt.Errorf("read handshake body: %w", err)
	}

	m := ddgVQDPattern.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("vqd token not found for query %q", query)
	}
	return string(m[1]), nil
}

func (b *DuckDuckGoBackend) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDDGBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// endpoint rebases a production endpoint onto baseURL when one is set.
// Tests point baseURL at an httptest server.
func (b *DuckDuckGoBackend) endpoint(prod string) string {
	if b.baseURL == "" {
		return prod
	}
	u, err := url.Parse(prod)
	if err != nil {
		return prod
	}
	return strings.TrimRight(b.baseURL, "/") + u.Path
}

// resolveDDGRedirect unwraps the uddg redirect parameter the HTML endpoint
// wraps external links in.
func resolveDDGRedirect(href string) string {
	if href == "" {
		return ""
	}
	if !strings.Contains(href, "uddg=") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
