package search

import (
	"sort"

	"github.com/jorisv/dienst-catalogus/internal/models"
)

// Hit pairs a dienst with its ranking score. Score is nil when the store
// supplied no score for the sort in effect (field sorts without a profile).
type Hit struct {
	Dienst models.Dienst `json:"dienst"`
	Score  *float64      `json:"score"`
}

// Facets holds the three aggregations returned with every search, computed
// over the full filtered set rather than the page window.
type Facets struct {
	Themes         []models.Facet `json:"themas"`
	Municipalities []models.Facet `json:"gemeentes"`
	Types          []models.Facet `json:"types"`
}

// Result is the shaped search response.
type Result struct {
	Hits   []Hit  `json:"hits"`
	Facets Facets `json:"facets"`
	Total  int    `json:"total"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// assemble shapes the store's raw response. For profile-ranked queries it
// scores every candidate, orders by score, and applies the offset/limit
// window here; otherwise the store already sorted and paginated and hits are
// only annotated.
func assemble(q ComposedQuery, raw *StoreResult) *Result {
	result := &Result{
		Facets: raw.Facets,
		Total:  raw.Total,
		Offset: q.Offset,
		Limit:  q.Limit,
	}

	if q.RankByProfile {
		result.Hits = rankByEligibility(raw.Hits, q.Profile, q.Offset, q.Limit)
		return result
	}

	hits := make([]Hit, 0, len(raw.Hits))
	for _, h := range raw.Hits {
		hit := Hit{Dienst: h.Dienst, Score: h.TextScore}
		if q.Profile != nil {
			// Field-sorted page, but a concrete vereniging is known: each
			// hit still carries its eligibility score for display.
			score := ScoreEligibility(h.Dienst.Conditions, q.Profile)
			hit.Score = &score
		}
		hits = append(hits, hit)
	}
	result.Hits = hits
	return result
}

// rankByEligibility scores the full candidate set, sorts descending by score
// with name as the deterministic tie-break, and cuts the requested window. An
// offset beyond the set yields an empty page; facets are untouched.
func rankByEligibility(candidates []StoreHit, profile *models.AssociationProfile, offset, limit int) []Hit {
	scored := make([]Hit, 0, len(candidates))
	for _, c := range candidates {
		score := ScoreEligibility(c.Dienst.Conditions, profile)
		scored = append(scored, Hit{Dienst: c.Dienst, Score: &score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if *scored[i].Score != *scored[j].Score {
			return *scored[i].Score > *scored[j].Score
		}
		return scored[i].Dienst.Name < scored[j].Dienst.Name
	})

	if offset >= len(scored) {
		return []Hit{}
	}
	end := offset + limit
	if end > len(scored) {
		end = len(scored)
	}
	return scored[offset:end]
}
