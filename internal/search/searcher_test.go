package search

import (
	"context"
	"errors"
	"testing"

	"github.com/jorisv/dienst-catalogus/internal/models"
)

type fakeStore struct {
	result *StoreResult
	err    error
	gotQ   ComposedQuery
}

func (f *fakeStore) Search(ctx context.Context, q ComposedQuery) (*StoreResult, error) {
	f.gotQ = q
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func candidate(id, name string, conditions ...models.EligibilityCondition) StoreHit {
	return StoreHit{Dienst: models.Dienst{ID: id, Name: name, Conditions: conditions}}
}

func TestSearcherProfileRanking(t *testing.T) {
	facets := Facets{Themes: []models.Facet{{Value: "Sport", Count: 3}}}
	store := &fakeStore{result: &StoreResult{
		Hits: []StoreHit{
			candidate("1", "Aanbod A", themeCond("Sport")),                   // 20
			candidate("2", "Aanbod B", regionCond("Leuven"), formCond("VZW")), // 80
			candidate("3", "Aanbod C"),                                       // 10
			candidate("4", "Aanbod D", regionCond("Leuven")),                 // 60
		},
		Total:  4,
		Facets: facets,
	}}

	searcher := NewSearcher(store, 0)
	profile := &models.AssociationProfile{
		WorkingRegions: []string{"Leuven"},
		LegalForms:     []string{"VZW"},
	}

	result, err := searcher.Search(context.Background(), Request{Profile: profile, Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !store.gotQ.RankByProfile {
		t.Fatal("store should have been asked for the full candidate set")
	}
	if len(result.Hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(result.Hits))
	}
	wantOrder := []string{"2", "4", "1"}
	for i, want := range wantOrder {
		if result.Hits[i].Dienst.ID != want {
			t.Errorf("position %d: expected dienst %s, got %s", i, want, result.Hits[i].Dienst.ID)
		}
	}
	if *result.Hits[0].Score != 80 {
		t.Errorf("expected top score 80, got %v", *result.Hits[0].Score)
	}
	if result.Total != 4 {
		t.Errorf("total must cover the full filtered set, got %d", result.Total)
	}
}

func TestSearcherOffsetBeyondSet(t *testing.T) {
	facets := Facets{Municipalities: []models.Facet{{Value: "Leuven", Count: 2}}}
	store := &fakeStore{result: &StoreResult{
		Hits: []StoreHit{
			candidate("1", "Aanbod A"),
			candidate("2", "Aanbod B"),
		},
		Total:  2,
		Facets: facets,
	}}

	searcher := NewSearcher(store, 0)
	result, err := searcher.Search(context.Background(), Request{
		Profile: &models.AssociationProfile{},
		Offset:  10,
		Limit:   5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Hits) != 0 {
		t.Fatalf("expected empty page, got %d hits", len(result.Hits))
	}
	// Facets and total still describe the full set.
	if result.Total != 2 {
		t.Errorf("expected total 2, got %d", result.Total)
	}
	if len(result.Facets.Municipalities) != 1 {
		t.Error("facets must survive an out-of-range offset")
	}
}

func TestSearcherTextScorePassthrough(t *testing.T) {
	score := 0.42
	store := &fakeStore{result: &StoreResult{
		Hits:  []StoreHit{{Dienst: models.Dienst{ID: "1", Name: "Aanbod A"}, TextScore: &score}},
		Total: 1,
	}}

	searcher := NewSearcher(store, 0)
	result, err := searcher.Search(context.Background(), Request{Query: "sport", Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.gotQ.RankByProfile {
		t.Fatal("no profile, store should sort and paginate itself")
	}
	if result.Hits[0].Score == nil || *result.Hits[0].Score != 0.42 {
		t.Errorf("expected text score 0.42, got %v", result.Hits[0].Score)
	}
}

func TestSearcherFieldSortAnnotatesEligibility(t *testing.T) {
	store := &fakeStore{result: &StoreResult{
		Hits:  []StoreHit{candidate("1", "Aanbod A", themeCond("Sport"))},
		Total: 1,
	}}

	searcher := NewSearcher(store, 0)
	result, err := searcher.Search(context.Background(), Request{
		Profile: &models.AssociationProfile{MainActivities: []string{"Sport"}},
		SortBy:  SortName,
		Limit:   10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.gotQ.RankByProfile {
		t.Fatal("field sort must be pushed to the store")
	}
	if result.Hits[0].Score == nil || *result.Hits[0].Score != 20 {
		t.Errorf("expected annotated eligibility score 20, got %v", result.Hits[0].Score)
	}
}

func TestSearcherStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	searcher := NewSearcher(store, 0)

	_, err := searcher.Search(context.Background(), Request{Limit: 10})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSearcherRejectsBadRequestBeforeStore(t *testing.T) {
	store := &fakeStore{}
	searcher := NewSearcher(store, 0)

	_, err := searcher.Search(context.Background(), Request{Offset: -1})
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrStoreUnavailable) {
		t.Fatal("validation errors must not be reported as store failures")
	}
}
