package search

import (
	"context"

	"peter-ai/internal/domain"
)

// Backend abstracts the external search surface. Each method returns a
// ranked list of raw hits with the surface's own field names; callers in
// this package apply capping, aggregation and normalization on top.
type Backend interface {
	// Text performs a web text search.
	Text(ctx context.Context, query, region string, max int) ([]domain.Hit, error)
	// News performs a news search.
	News(ctx context.Context, query, region string, max int) ([]domain.Hit, error)
	// Videos performs a video search.
	Videos(ctx context.Context, query string, max int) ([]domain.Hit, error)
	// Name returns the backend identifier (e.g. "duckduckgo").
	Name() string
}
