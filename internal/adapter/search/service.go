package search

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"peter-ai/internal/domain"
	"peter-ai/internal/infra/tracer"
)

// Per-category result counts requested from the backend.
const (
	webResultCount   = 2
	newsResultCount  = 2
	videoResultCount = 5
)

// defaultChannel is used when a video hit carries no uploader name.
const defaultChannel = "YouTube"

// Provider runs the three category searches and the aggregation pipeline.
// Every method fails closed: errors are logged and degrade to an empty
// list, never propagated to the session loop.
type Provider interface {
	Web(ctx context.Context, query string) []domain.Hit
	News(ctx context.Context, query string) []domain.Hit
	Videos(ctx context.Context, query string) []domain.Hit
	All(ctx context.Context, query string) domain.SearchResults
}

// Service is the production Provider, backed by a search Backend and the
// Aggregator.
type Service struct {
	backend Backend
	agg     *Aggregator
	region  string
	logger  *slog.Logger
}

// NewService wires a Provider from its parts.
func NewService(backend Backend, agg *Aggregator, region string, logger *slog.Logger) *Service {
	if region == "" {
		region = "wt-wt"
	}
	return &Service{backend: backend, agg: agg, region: region, logger: logger}
}

// Web returns up to two text-search hits enriched by the aggregator,
// keyed on "href".
func (s *Service) Web(ctx context.Context, query string) []domain.Hit {
	ctx, span := tracer.StartSpan(ctx, "search.web",
		trace.WithAttributes(tracer.StringAttr("search.query", query)),
	)
	defer span.End()

	hits, err := s.backend.Text(ctx, query, s.region, webResultCount)
	if err != nil {
		tracer.RecordError(span, err)
		s.logger.Error("web search failed", "query", query, "error", err)
		return []domain.Hit{}
	}

	out := s.agg.Enrich(ctx, hits, "href")
	span.SetAttributes(tracer.IntAttr("search.results", len(out)))
	tracer.SetOK(span)
	return out
}

// News returns up to two news hits enriched by the aggregator, keyed on
// "url".
func (s *Service) News(ctx context.Context, query string) []domain.Hit {
	ctx, span := tracer.StartSpan(ctx, "search.news",
		trace.WithAttributes(tracer.StringAttr("search.query", query)),
	)
	defer span.End()

	hits, err := s.backend.News(ctx, query, s.region, newsResultCount)
	if err != nil {
		tracer.RecordError(span, err)
		s.logger.Error("news search failed", "query", query, "error", err)
		return []domain.Hit{}
	}

	out := s.agg.Enrich(ctx, hits, "url")
	span.SetAttributes(tracer.IntAttr("search.results", len(out)))
	tracer.SetOK(span)
	return out
}

// Videos returns up to five normalized video records. The query is scoped
// to YouTube; hits whose content URL is not a youtube.com link are
// filtered out. Video metadata is used directly: no page fetch, no
// aggregation.
func (s *Service) Videos(ctx context.Context, query string) []domain.Hit {
	ctx, span := tracer.StartSpan(ctx, "search.videos",
		trace.WithAttributes(tracer.StringAttr("search.query", query)),
	)
	defer span.End()

	hits, err := s.backend.Videos(ctx, "youtube: "+query, videoResultCount)
	if err != nil {
		tracer.RecordError(span, err)
		s.logger.Error("video search failed", "query", query, "error", err)
		return []domain.Hit{}
	}

	out := make([]domain.Hit, 0, len(hits))
	for _, hit := range hits {
		if !strings.Contains(hit.String("content"), "youtube.com") {
			continue
		}
		out = append(out, normalizeVideo(hit))
	}

	span.SetAttributes(tracer.IntAttr("search.results", len(out)))
	tracer.SetOK(span)
	return out
}

// All runs the three category searches sequentially and assembles the
// result mapping.
func (s *Service) All(ctx context.Context, query string) domain.SearchResults {
	web := s.Web(ctx, query)
	videos := s.Videos(ctx, query)
	news := s.News(ctx, query)

	return domain.SearchResults{
		domain.CategoryWeb:    web,
		domain.CategoryNews:   news,
		domain.CategoryVideos: videos,
	}
}

// normalizeVideo reshapes a raw video hit into the record the client
// renders: video id, thumbnail list, title, description, channel,
// publish time, link and source.
func normalizeVideo(hit domain.Hit) domain.Hit {
	content := hit.String("content")

	id := content
	if i := strings.LastIndex(content, "v="); i != -1 {
		id = content[i+2:]
	}

	var thumbnails []any
	if images, ok := hit["images"].(map[string]any); ok {
		if medium, ok := images["medium"]; ok {
			thumbnails = append(thumbnails, medium)
		}
	}

	channel := defaultChannel
	if stats, ok := hit["statistics"].(map[string]any); ok {
		if uploader, ok := stats["uploader"].(string); ok && uploader != "" {
			channel = uploader
		}
	}

	return domain.Hit{
		"id":           id,
		"thumbnails":   thumbnails,
		"title":        hit.String("title"),
		"description":  hit.String("description"),
		"channel":      channel,
		"publish_time": hit.String("published"),
		"link":         content,
		"source":       hit.String("publisher"),
	}
}
