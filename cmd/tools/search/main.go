package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/jorisv/dienst-catalogus/internal/config"
	"github.com/jorisv/dienst-catalogus/internal/db"
	"github.com/jorisv/dienst-catalogus/internal/models"
	"github.com/jorisv/dienst-catalogus/internal/search"
)

// profileFile is the on-disk shape of an association profile for -profiel.
type profileFile struct {
	Werkingsgebieden  []string          `yaml:"werkingsgebieden"`
	TypeVereniging    []string          `yaml:"type_vereniging"`
	Hoofdactiviteiten []string          `yaml:"hoofdactiviteiten"`
	Namen             map[string]string `yaml:"namen"`
}

type themeFlags []string

func (t *themeFlags) String() string { return strings.Join(*t, ",") }

func (t *themeFlags) Set(v string) error {
	*t = append(*t, v)
	return nil
}

func main() {
	var themes themeFlags
	query := flag.String("q", "", "full-text query")
	flag.Var(&themes, "thema", "theme filter (repeatable)")
	gemeente := flag.String("gemeente", "", "municipality filter")
	sortBy := flag.String("sort", "", "sort field (relevance, naam, laatste_wijzigingsdatum)")
	order := flag.String("order", "", "sort order (asc, desc)")
	offset := flag.Int("offset", 0, "result offset")
	limit := flag.Int("limit", 10, "result limit")
	profilePath := flag.String("profiel", "", "path to a YAML association profile")
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var profile *models.AssociationProfile
	if *profilePath != "" {
		data, err := os.ReadFile(*profilePath)
		if err != nil {
			log.Fatalf("Failed to read profile: %v", err)
		}
		var pf profileFile
		if err := yaml.Unmarshal(data, &pf); err != nil {
			log.Fatalf("Failed to parse profile: %v", err)
		}
		profile = &models.AssociationProfile{
			WorkingRegions: pf.Werkingsgebieden,
			LegalForms:     pf.TypeVereniging,
			MainActivities: pf.Hoofdactiviteiten,
			Names:          pf.Namen,
		}
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	searcher := search.NewSearcher(db.NewStore(pool), time.Duration(cfg.StoreTimeoutSeconds)*time.Second)
	result, err := searcher.Search(ctx, search.Request{
		Query:        *query,
		Themes:       themes,
		Municipality: *gemeente,
		Profile:      profile,
		SortBy:       *sortBy,
		SortOrder:    *order,
		Offset:       *offset,
		Limit:        *limit,
	})
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	fmt.Printf("Total: %d (showing %d from offset %d)\n\n", result.Total, len(result.Hits), result.Offset)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Score", "Naam", "Type", "Gemeente", "Themas", "Gewijzigd"})
	for _, hit := range result.Hits {
		score := "-"
		if hit.Score != nil {
			score = fmt.Sprintf("%.1f", *hit.Score)
		}
		t.AppendRow(table.Row{
			score,
			truncate(hit.Dienst.Name, 60),
			hit.Dienst.Type,
			hit.Dienst.Municipality,
			truncate(strings.Join(hit.Dienst.Themes, ", "), 40),
			hit.Dienst.LastModified,
		})
	}
	t.Render()

	fmt.Println()
	renderFacets("Themas", result.Facets.Themes)
	renderFacets("Gemeentes", result.Facets.Municipalities)
	renderFacets("Types", result.Facets.Types)
}

func renderFacets(title string, facets []models.Facet) {
	if len(facets) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{title, "Count"})
	for _, f := range facets {
		t.AppendRow(table.Row{f.Value, f.Count})
	}
	t.Render()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
