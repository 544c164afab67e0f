package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jorisv/dienst-catalogus/internal/models"
)

// ErrStoreUnavailable wraps any failure of the document store round trip.
// The request fails atomically; retry policy belongs to the caller.
var ErrStoreUnavailable = errors.New("document store unavailable")

// StoreHit is one raw hit from the document store. TextScore is nil when the
// executed sort did not produce a text-relevance score.
type StoreHit struct {
	Dienst    models.Dienst
	TextScore *float64
}

// StoreResult is the store's raw response: hits, the unpaginated total, and
// the facet aggregations over the full filtered set.
type StoreResult struct {
	Hits   []StoreHit
	Total  int
	Facets Facets
}

// DocumentStore executes a composed query in a single round trip. Full-text
// matching, filtering and facet bucketing are its business; eligibility
// ranking is not.
type DocumentStore interface {
	Search(ctx context.Context, q ComposedQuery) (*StoreResult, error)
}

// Searcher ties the composer, the store and the assembler together.
type Searcher struct {
	store   DocumentStore
	timeout time.Duration
}

const defaultStoreTimeout = 10 * time.Second

func NewSearcher(store DocumentStore, timeout time.Duration) *Searcher {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &Searcher{store: store, timeout: timeout}
}

// Search runs one search call: compose, a single store round trip under the
// configured timeout, then assembly. An empty result set is not an error.
func (s *Searcher) Search(ctx context.Context, req Request) (*Result, error) {
	q, err := Compose(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.store.Search(ctx, *q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return assemble(*q, raw), nil
}
