package search

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"peter-ai/internal/domain"
)

// Aggregator caps, deduplicates by domain, and enriches a ranked hit list
// with fetched page content. Fetches run serially in ranked order.
type Aggregator struct {
	fetcher PageFetcher
	logger  *slog.Logger
}

// NewAggregator creates an aggregator backed by the given fetcher.
func NewAggregator(fetcher PageFetcher, logger *slog.Logger) *Aggregator {
	return &Aggregator{fetcher: fetcher, logger: logger}
}

// Enrich processes at most the first MaxResults hits in order. Each hit's
// URL is read from linkKey. A domain that already contributed MaxPerDomain
// hits is skipped without consuming a slot; otherwise the page is fetched
// and its content attached under "content". Hits whose content is blank
// after trimming are dropped entirely. Processing stops once
// ValidContentLimit hits with non-empty content have been collected.
func (a *Aggregator) Enrich(ctx context.Context, hits []domain.Hit, linkKey string) []domain.Hit {
	if len(hits) > domain.MaxResults {
		hits = hits[:domain.MaxResults]
	}

	out := make([]domain.Hit, 0, domain.ValidContentLimit)
	domainCount := make(map[string]int)
	validCount := 0

	for _, hit := range hits {
		link := hit.String(linkKey)
		host := ExtractDomain(link)

		if domainCount[host] >= domain.MaxPerDomain {
			a.logger.Debug("domain cap reached, skipping hit", "domain", host, "link", link)
			continue
		}

		page := a.fetcher.Fetch(ctx, link)
		hit["content"] = page.Content

		if strings.TrimSpace(page.Content) == "" {
			continue
		}

		domainCount[host]++
		out = append(out, hit)
		validCount++
		if validCount >= domain.ValidContentLimit {
			break
		}
	}

	return out
}

// ExtractDomain returns the coarse domain of a URL: scheme and path
// stripped, leading "www." removed. Malformed input degrades to treating
// the whole string (minus any scheme/path-looking parts) as the domain.
func ExtractDomain(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return strings.TrimPrefix(u.Host, "www.")
	}

	host := raw
	if i := strings.LastIndex(host, "//"); i != -1 {
		host = host[i+2:]
	}
	if i := strings.Index(host, "/"); i != -1 {
		host = host[:i]
	}
	return strings.TrimPrefix(host, "www.")
}
