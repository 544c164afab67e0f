package search

import (
	"testing"

	"github.com/jorisv/dienst-catalogus/internal/models"
)

func TestComposeDefaults(t *testing.T) {
	q, err := Compose(Request{Query: "  subsidie  ", Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text != "subsidie" {
		t.Errorf("expected trimmed text, got %q", q.Text)
	}
	if q.RankByProfile {
		t.Error("no profile given, RankByProfile should be false")
	}
	if q.SortField != SortRelevance || q.SortOrder != OrderDesc {
		t.Errorf("expected relevance desc default, got %s %s", q.SortField, q.SortOrder)
	}
}

func TestComposeValidation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"negative offset", Request{Offset: -1}},
		{"negative limit", Request{Limit: -5}},
		{"unknown order", Request{SortBy: "naam", SortOrder: "sideways"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compose(tt.req); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestComposeProfileSwitchesRanking(t *testing.T) {
	profile := &models.AssociationProfile{WorkingRegions: []string{"Leuven"}}

	q, err := Compose(Request{Profile: profile, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.RankByProfile {
		t.Fatal("relevance sort with a profile must rank by eligibility")
	}
	if q.SortField != "" {
		t.Errorf("profile ranking should leave SortField empty, got %q", q.SortField)
	}

	// An explicit field sort wins over the profile.
	q, err = Compose(Request{Profile: profile, SortBy: SortName, SortOrder: OrderDesc, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.RankByProfile {
		t.Fatal("field sort must not rank by eligibility")
	}
	if q.SortField != SortName || q.SortOrder != OrderDesc {
		t.Errorf("expected naam desc, got %s %s", q.SortField, q.SortOrder)
	}
	if q.Profile == nil {
		t.Error("profile must still be carried for score annotation")
	}
}

func TestComposePassthroughSort(t *testing.T) {
	q, err := Compose(Request{SortBy: "gemeente", Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.SortField != "gemeente" || q.SortOrder != OrderAsc {
		t.Errorf("expected gemeente asc passthrough, got %s %s", q.SortField, q.SortOrder)
	}
}

func TestComposeCleansFilters(t *testing.T) {
	q, err := Compose(Request{
		Themes:       []string{" Sport ", "", "Cultuur"},
		Municipality: " Leuven ",
		Limit:        10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Themes) != 2 || q.Themes[0] != "Sport" || q.Themes[1] != "Cultuur" {
		t.Errorf("unexpected themes: %v", q.Themes)
	}
	if q.Municipality != "Leuven" {
		t.Errorf("unexpected municipality: %q", q.Municipality)
	}
}
