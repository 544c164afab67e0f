package ingest

import (
	"testing"

	"github.com/jorisv/dienst-catalogus/internal/models"
)

func findCondition(conditions []models.EligibilityCondition, kind models.ConditionKind) []string {
	for _, c := range conditions {
		if c.Kind == kind {
			return c.Values
		}
	}
	return nil
}

func TestCleanRecordBasics(t *testing.T) {
	rec := DienstRecord{Product: Product{
		ID:           "dienst-1",
		Naam:         "  Subsidie   jeugdwerk  ",
		Type:         "Subsidie",
		Omschrijving: "<p>Een <strong>toelage</strong> voor jeugdverenigingen.</p><script>alert(1)</script>",
		Metadata:     Metadata{LaatsteWijzigingsdatum: "2026-05-14T09:30:00+02:00"},
		Partners:     []Partner{{Naam: ""}, {Naam: " Leuven "}, {Naam: "Herent"}},
		Themas: ThemaList{Elementen: []Thema{
			{Naam: "Jeugd"}, {Naam: "Jeugd"}, {Naam: "Sport"},
		}},
	}}

	d := CleanRecord(rec)

	if d.ID != "dienst-1" {
		t.Errorf("unexpected id %q", d.ID)
	}
	if d.Name != "Subsidie jeugdwerk" {
		t.Errorf("expected collapsed name, got %q", d.Name)
	}
	if d.Description != "Een toelage voor jeugdverenigingen." {
		t.Errorf("expected stripped description, got %q", d.Description)
	}
	if d.Municipality != "Leuven" {
		t.Errorf("expected first non-empty partner, got %q", d.Municipality)
	}
	if d.LastModified != "2026-05-14" {
		t.Errorf("expected truncated date, got %q", d.LastModified)
	}
	if len(d.Themes) != 2 {
		t.Errorf("expected deduplicated themes, got %v", d.Themes)
	}
}

func TestCleanRecordConditions(t *testing.T) {
	rec := DienstRecord{Product: Product{
		ID:   "dienst-2",
		Naam: "Erkenning sportclub",
		Voorwaarden: VoorwaardeList{Elementen: []map[string]interface{}{
			{"tekst": "<p>Je club is <em>erkend</em>.</p>"},
			{"vorm": "VZW"},
			{"regio": []interface{}{"Leuven", "Herent", "Leuven"}},
			{"iets_onbekends": "genegeerd"},
			{"vereniging": []interface{}{"LIGHT MODELS AERO CLUB", 42}},
		}},
		Themas: ThemaList{Elementen: []Thema{{Naam: "Sport"}}},
	}}

	d := CleanRecord(rec)

	if got := findCondition(d.Conditions, models.ConditionLegalForm); len(got) != 1 || got[0] != "VZW" {
		t.Errorf("unexpected vorm values: %v", got)
	}
	if got := findCondition(d.Conditions, models.ConditionRegion); len(got) != 2 {
		t.Errorf("expected deduplicated regions, got %v", got)
	}
	if got := findCondition(d.Conditions, models.ConditionNamedAssociation); len(got) != 1 || got[0] != "LIGHT MODELS AERO CLUB" {
		t.Errorf("non-string entries must be dropped, got %v", got)
	}

	// Theme labels join the thema condition group so the theme dimension can
	// be scored without an explicit thema voorwaarde.
	if got := findCondition(d.Conditions, models.ConditionTheme); len(got) != 1 || got[0] != "Sport" {
		t.Errorf("expected theme label in thema group, got %v", got)
	}
}

func TestCleanRecordThemeUnion(t *testing.T) {
	rec := DienstRecord{Product: Product{
		ID:   "dienst-3",
		Naam: "Cultuurtoelage",
		Voorwaarden: VoorwaardeList{Elementen: []map[string]interface{}{
			{"thema": []interface{}{"Cultuur", "Erfgoed"}},
		}},
		Themas: ThemaList{Elementen: []Thema{{Naam: "Cultuur"}, {Naam: "Toerisme"}}},
	}}

	d := CleanRecord(rec)

	got := findCondition(d.Conditions, models.ConditionTheme)
	if len(got) != 3 {
		t.Fatalf("expected union of condition themas and labels, got %v", got)
	}
	want := map[string]bool{"Cultuur": true, "Erfgoed": true, "Toerisme": true}
	for _, v := range got {
		if !want[v] {
			t.Errorf("unexpected theme value %q", v)
		}
	}
}

func TestExtractKeywords(t *testing.T) {
	text := "Een subsidie voor sportverenigingen, sportverenigingen die werken met jongeren."
	keywords := extractKeywords(text)

	seen := map[string]bool{}
	for _, k := range keywords {
		if seen[k] {
			t.Errorf("duplicate keyword %q", k)
		}
		seen[k] = true
	}
	if !seen["subsidie"] || !seen["sportverenigingen"] || !seen["jongeren"] {
		t.Errorf("expected content tokens, got %v", keywords)
	}
	if seen["voor"] || seen["met"] || seen["die"] {
		t.Errorf("stopwords must be dropped, got %v", keywords)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "gewoon tekst", "gewoon tekst"},
		{"markup", "<ul>\n<li>eerste</li>\n<li>tweede</li>\n</ul>", "eerste tweede"},
		{"script stripped", `<p>ok</p><script>alert("x")</script>`, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripHTML(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
