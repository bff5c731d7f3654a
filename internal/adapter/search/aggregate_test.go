package search

import (
	"context"
	"testing"

	"peter-ai/internal/domain"
)

// stubFetcher returns canned content per URL and records fetch order.
type stubFetcher struct {
	content map[string]string
	fetched []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) domain.Page {
	f.fetched = append(f.fetched, url)
	return domain.Page{Source: url, Content: f.content[url]}
}

func hitsFor(linkKey string, links ...string) []domain.Hit {
	hits := make([]domain.Hit, 0, len(links))
	for _, l := range links {
		hits = append(hits, domain.Hit{linkKey: l, "title": "t"})
	}
	return hits
}

func TestEnrichCapsOnePerDomain(t *testing.T) {
	fetcher := &stubFetcher{content: map[string]string{
		"https://a.com/1": "x",
		"https://a.com/2": "y",
		"https://b.com/1": "z",
	}}
	agg := NewAggregator(fetcher, newTestLogger())

	out := agg.Enrich(context.Background(), hitsFor("href",
		"https://a.com/1", "https://a.com/2", "https://b.com/1"), "href")

	if len(out) != 2 {
		t.Fatalf("got %d hits, want 2", len(out))
	}
	if out[0].String("href") != "https://a.com/1" || out[1].String("href") != "https://b.com/1" {
		t.Errorf("kept %q and %q, want first a.com hit then b.com hit",
			out[0].String("href"), out[1].String("href"))
	}
	if out[0].String("content") != "x" || out[1].String("content") != "z" {
		t.Errorf("content = %q, %q; want fetched page text attached",
			out[0].String("content"), out[1].String("content"))
	}
}

func TestEnrichDomainCapSkipsWithoutFetching(t *testing.T) {
	fetcher := &stubFetcher{content: map[string]string{
		"https://a.com/1": "x",
		"https://b.com/1": "z",
	}}
	agg := NewAggregator(fetcher, newTestLogger())

	agg.Enrich(context.Background(), hitsFor("href",
		"https://a.com/1", "https://a.com/2", "https://b.com/1"), "href")

	for _, url := range fetcher.fetched {
		if url == "https://a.com/2" {
			t.Error("capped hit was fetched; skip should happen before the fetch")
		}
	}
}

func TestEnrichDropsEmptyContentWithoutConsumingSlot(t *testing.T) {
	fetcher := &stubFetcher{content: map[string]string{
		"https://a.com/1": "",
		"https://a.com/2": "y",
		"https://b.com/1": "z",
	}}
	agg := NewAggregator(fetcher, newTestLogger())

	out := agg.Enrich(context.Background(), hitsFor("href",
		"https://a.com/1", "https://a.com/2", "https://b.com/1"), "href")

	// The empty a.com/1 does not count against a.com's budget, so a.com/2
	// can still contribute.
	if len(out) != 2 {
		t.Fatalf("got %d hits, want 2", len(out))
	}
	if out[0].String("href") != "https://a.com/2" || out[1].String("href") != "https://b.com/1" {
		t.Errorf("kept %q and %q", out[0].String("href"), out[1].String("href"))
	}
}

func TestEnrichStopsAtValidContentLimit(t *testing.T) {
	fetcher := &stubFetcher{content: map[string]string{
		"https://a.com/": "a", "https://b.com/": "b",
		"https://c.com/": "c", "https://d.com/": "d",
	}}
	agg := NewAggregator(fetcher, newTestLogger())

	out := agg.Enrich(context.Background(), hitsFor("url",
		"https://a.com/", "https://b.com/", "https://c.com/", "https://d.com/"), "url")

	if len(out) != domain.ValidContentLimit {
		t.Fatalf("got %d hits, want %d", len(out), domain.ValidContentLimit)
	}
	if len(fetcher.fetched) != domain.ValidContentLimit {
		t.Errorf("fetched %d pages, want to stop after %d good ones",
			len(fetcher.fetched), domain.ValidContentLimit)
	}
}

func TestEnrichExaminesAtMostMaxResults(t *testing.T) {
	links := []string{
		"https://a.com/", "https://b.com/", "https://c.com/",
		"https://d.com/", "https://e.com/", "https://f.com/", "https://g.com/",
	}
	fetcher := &stubFetcher{content: map[string]string{}} // everything empty
	agg := NewAggregator(fetcher, newTestLogger())

	out := agg.Enrich(context.Background(), hitsFor("href", links...), "href")

	if len(out) != 0 {
		t.Errorf("got %d hits, want 0 when every page is empty", len(out))
	}
	if len(fetcher.fetched) > domain.MaxResults {
		t.Errorf("fetched %d pages, want at most %d", len(fetcher.fetched), domain.MaxResults)
	}
}

func TestEnrichEmptyInput(t *testing.T) {
	agg := NewAggregator(&stubFetcher{}, newTestLogger())
	out := agg.Enrich(context.Background(), nil, "href")
	if len(out) != 0 {
		t.Errorf("got %d hits, want 0", len(out))
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.example.com/path?q=1", "example.com"},
		{"http://example.com", "example.com"},
		{"https://sub.example.co.uk/a/b", "sub.example.co.uk"},
		{"www.example.com/path", "example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractDomain(tt.in); got != tt.want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
