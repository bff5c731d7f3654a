package domain

// Search result categories as they appear in outbound payloads.
const (
	CategoryWeb    = "web"
	CategoryNews   = "news"
	CategoryVideos = "videos"
)

// Aggregation limits applied to every ranked result list.
const (
	// MaxResults is the number of ranked hits even considered.
	MaxResults = 5
	// MaxPerDomain caps how many hits one web domain may contribute.
	MaxPerDomain = 1
	// ValidContentLimit stops aggregation once this many hits carry
	// non-empty fetched content.
	ValidContentLimit = 2
)

// Hit is one entry in a search provider's ranked result list. Keys are
// provider-specific (title, href/url, body, source, ...); the aggregator
// adds a "content" key with fetched page text.
type Hit map[string]any

// String returns the hit's value for key as a string, or "" when the key
// is absent or not a string.
func (h Hit) String(key string) string {
	if v, ok := h[key].(string); ok {
		return v
	}
	return ""
}

// SearchResults maps a category name to its ordered, capped hit list.
type SearchResults map[string][]Hit

// Page is the outcome of fetching one URL: the source URL and whatever
// visible text survived extraction, sanitization and trimming. Content is
// empty when the fetch failed or the text was discarded.
type Page struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}
