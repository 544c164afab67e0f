package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/jorisv/dienst-catalogus/internal/config"
	"github.com/jorisv/dienst-catalogus/internal/db"
	"github.com/jorisv/dienst-catalogus/internal/ingest"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	srcCfg, err := ingest.LoadSourceConfig()
	if err != nil {
		log.Fatalf("Failed to load source config: %v", err)
	}
	if cfg.CMSBaseURL != "" {
		srcCfg.BaseURL = cfg.CMSBaseURL
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	pipeline := ingest.NewPipeline(ingest.NewFetcher(*srcCfg), db.NewStore(pool))
	stats, err := pipeline.Run(ctx)
	if err != nil {
		log.Fatalf("Reindex failed: %v", err)
	}

	fmt.Printf("Fetched: %d\n", stats.RecordsFetched)
	fmt.Printf("Indexed: %d\n", stats.RecordsIndexed)
	fmt.Printf("Skipped: %d\n", stats.Skipped)
}
