package search

import (
	"fmt"
	"strings"

	"github.com/jorisv/dienst-catalogus/internal/models"
)

// Recognized sort fields. Anything else is passed through to the store as a
// literal field sort; the store rejects truly invalid fields.
const (
	SortRelevance    = "relevance"
	SortName         = "naam"
	SortLastModified = "laatste_wijzigingsdatum"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Request is the caller-facing search request.
type Request struct {
	Query        string                     `json:"query,omitempty"`
	Themes       []string                   `json:"themas,omitempty"`
	Municipality string                     `json:"gemeente,omitempty"`
	Profile      *models.AssociationProfile `json:"profiel,omitempty"`
	SortBy       string                     `json:"sort,omitempty"`
	SortOrder    string                     `json:"order,omitempty"`
	Offset       int                        `json:"offset"`
	Limit        int                        `json:"limit"`
}

// ComposedQuery is the structured query handed to the document store in a
// single round trip: the base predicate (text + filters), the three facet
// aggregations (always requested), and the sort/pagination to push down.
//
// When RankByProfile is set the store must return the full filtered candidate
// set in a deterministic order and leave Offset/Limit alone; ranking by
// eligibility score happens in process.
type ComposedQuery struct {
	Text         string
	Themes       []string
	Municipality string
	Profile      *models.AssociationProfile

	SortField string // empty when RankByProfile
	SortOrder string
	Offset    int
	Limit     int

	RankByProfile bool
}

// Compose builds the composite query for a request. Presence of a profile
// switches the relevance criterion from text score to eligibility score; the
// base predicate still restricts the candidate set either way.
func Compose(req Request) (*ComposedQuery, error) {
	if req.Offset < 0 {
		return nil, fmt.Errorf("offset must be >= 0, got %d", req.Offset)
	}
	if req.Limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0, got %d", req.Limit)
	}

	sortBy := strings.TrimSpace(req.SortBy)
	if sortBy == "" {
		sortBy = SortRelevance
	}
	order := strings.ToLower(strings.TrimSpace(req.SortOrder))
	switch order {
	case OrderAsc, OrderDesc:
	case "":
		order = OrderAsc
	default:
		return nil, fmt.Errorf("unknown sort order %q", req.SortOrder)
	}

	q := &ComposedQuery{
		Text:         strings.TrimSpace(req.Query),
		Themes:       cleanValues(req.Themes),
		Municipality: strings.TrimSpace(req.Municipality),
		Profile:      req.Profile,
		Offset:       req.Offset,
		Limit:        req.Limit,
	}

	switch {
	case sortBy == SortRelevance && req.Profile != nil:
		q.RankByProfile = true
	case sortBy == SortRelevance:
		// Relevance maps to the store's text score, always descending.
		q.SortField = SortRelevance
		q.SortOrder = OrderDesc
	default:
		q.SortField = sortBy
		q.SortOrder = order
	}

	return q, nil
}

// cleanValues trims entries and drops empties, preserving order.
func cleanValues(values []string) []string {
	var clean []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			clean = append(clean, v)
		}
	}
	return clean
}
