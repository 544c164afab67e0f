package ingest

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed config/source.yaml
var sourceYAML embed.FS

// SourceConfig defines the upstream catalog source and how to page through it.
type SourceConfig struct {
	BaseURL        string `yaml:"base_url"`
	PageSize       int    `yaml:"page_size"`
	MaxPages       int    `yaml:"max_pages"`
	StartAt        int    `yaml:"start_at"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Referer        string `yaml:"referer"`
	UserAgent      string `yaml:"user_agent"`
}

type registry struct {
	Source SourceConfig `yaml:"source"`
}

// LoadSourceConfig reads the embedded source defaults.
func LoadSourceConfig() (*SourceConfig, error) {
	data, err := sourceYAML.ReadFile("config/source.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded source config: %w", err)
	}

	var reg registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse source config: %w", err)
	}

	cfg := reg.Source
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("source config missing base_url")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 50
	}
	if cfg.StartAt <= 0 {
		cfg.StartAt = 1
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}

	return &cfg, nil
}
