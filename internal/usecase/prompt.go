package usecase

import (
	"fmt"
	"sort"
	"strings"

	"peter-ai/internal/domain"
)

// responseTemplate is the llama-3 instruction template a turn is rendered
// into. The search_results header carries the three category blocks; the
// model answers as the assistant persona.
const responseTemplate = `<|begin_of_text|>
<|start_header_id|>system<|end_header_id|>
You are an helpful assistant Peter. Your role is to answer questions and provide information to the user.
And help them acheive their goals.
<|eot_id|>

<|start_header_id|>search_results<|end_header_id|>
Video  Search Results :
%s

News Search Results :
%s

Web Search Results :
%s
<|eot_id|>

<|start_header_id|>user<|end_header_id|>
Question : %s
<|eot_id|>
<|start_header_id|>assistant<|end_header_id|>
`

// BuildPrompt renders the user message and per-category search results
// into the instruction template. A nil or empty result set leaves all
// three blocks blank.
func BuildPrompt(userMessage string, results domain.SearchResults) string {
	var videos, news, web string
	if len(results) > 0 {
		videos = flattenHits(results[domain.CategoryVideos])
		news = flattenHits(results[domain.CategoryNews])
		web = flattenHits(results[domain.CategoryWeb])
	}
	return fmt.Sprintf(responseTemplate, videos, news, web, userMessage)
}

// flattenHits renders each hit as one "key: value" line per field. Keys
// are sorted so the same hit always renders the same text.
func flattenHits(hits []domain.Hit) string {
	var sb strings.Builder
	for _, hit := range hits {
		keys := make([]string, 0, len(hit))
		for k := range hit {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "%s: %v\n", k, hit[k])
		}
	}
	return sb.String()
}
