package main

import (
	"context"
	"flag"
	"log"

	"github.com/jorisv/dienst-catalogus/internal/api"
	"github.com/jorisv/dienst-catalogus/internal/config"
	"github.com/jorisv/dienst-catalogus/internal/db"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
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

	srv, err := api.NewServer(pool, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}
	log.Printf("Server starting on port %s...", cfg.Port)
	if err := srv.Start(cfg.Port); err != nil {
		log.Fatal(err)
	}
}
