package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jorisv/dienst-catalogus/internal/models"
)

// Indexer replaces the indexed catalog with a full snapshot.
type Indexer interface {
	IndexAll(ctx context.Context, diensten []models.Dienst) error
}

// Stats summarizes one pipeline run.
type Stats struct {
	RecordsFetched int `json:"records_fetched"`
	RecordsIndexed int `json:"records_indexed"`
	Skipped        int `json:"skipped"`
}

// Pipeline runs fetch -> clean -> reindex. Offerings are replaced wholesale;
// there is no incremental merge.
type Pipeline struct {
	fetcher *Fetcher
	indexer Indexer
}

func NewPipeline(fetcher *Fetcher, indexer Indexer) *Pipeline {
	return &Pipeline{fetcher: fetcher, indexer: indexer}
}

func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	records, err := p.fetcher.FetchAll(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch failed: %w", err)
	}
	stats.RecordsFetched = len(records)

	diensten := make([]models.Dienst, 0, len(records))
	for _, rec := range records {
		d := CleanRecord(rec)
		if strings.TrimSpace(d.ID) == "" || d.Name == "" {
			stats.Skipped++
			continue
		}
		diensten = append(diensten, d)
	}

	if err := p.indexer.IndexAll(ctx, diensten); err != nil {
		return stats, fmt.Errorf("reindex failed: %w", err)
	}
	stats.RecordsIndexed = len(diensten)

	log.Printf("[ingest] reindexed %d diensten (%d fetched, %d skipped)",
		stats.RecordsIndexed, stats.RecordsFetched, stats.Skipped)
	return stats, nil
}
