package projections

import (
	"context"
	"fmt"

	"formations/internal/adapters/metrics"
	"formations/internal/application/catalog"
)

// CatalogSource serves the published catalog, usually a *catalog.Cache.
type CatalogSource interface {
	Entries(ctx context.Context) ([]catalog.Entry, error)
}

// CatalogDeps holds dependencies for QueryCatalog.
type CatalogDeps struct {
	Catalog CatalogSource
}

// QueryCatalog filters and sorts the published catalog.
// PRE: criteria.Sort is a known sort (see catalog.ParseSort)
// POST: Result lists matching published courses; Empty is set when nothing matches
func QueryCatalog(ctx context.Context, criteria catalog.Criteria, deps CatalogDeps) (catalog.Result, error) {
	entries, err := deps.Catalog.Entries(ctx)
	if err != nil {
		return catalog.Result{}, err
	}
	return catalog.Search(entries, criteria), nil
}

// NewCatalogLoader reads published courses in relevance order and joins their
// rating summaries. It backs the catalog cache.
func NewCatalogLoader(courses PublishedCourseLister, ratings RatingSummarizer, m *metrics.Metrics) catalog.Loader {
	return func(ctx context.Context) ([]catalog.Entry, error) {
		published, err := courses.ListPublished(ctx)
		if err != nil {
			return nil, fmt.Errorf("load published courses: %w", err)
		}
		summaries, err := ratings.Summaries(ctx)
		if err != nil {
			return nil, fmt.Errorf("load rating summaries: %w", err)
		}

		entries := make([]catalog.Entry, 0, len(published))
		for _, c := range published {
			entries = append(entries, catalog.Entry{Course: c, Rating: summaries[c.ID]})
		}
		m.CatalogLoad()
		return entries, nil
	}
}
