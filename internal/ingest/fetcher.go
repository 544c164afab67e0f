package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Fetcher pages through the Verenigingsloket CMS catalog endpoint.
type Fetcher struct {
	Client *http.Client
	Config SourceConfig
}

func NewFetcher(cfg SourceConfig) *Fetcher {
	return &Fetcher{
		Client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		Config: cfg,
	}
}

// FetchPage fetches a single page of records. Page numbering is 1-based.
func (f *Fetcher) FetchPage(ctx context.Context, page int) ([]DienstRecord, error) {
	u, err := url.Parse(f.Config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	params := url.Values{}
	params.Set("index", strconv.Itoa(page))
	params.Set("limiet", strconv.Itoa(f.Config.PageSize))
	params.Set("sorteeroptie", "last-changed")
	params.Set("_format", "json")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")
	if f.Config.Referer != "" {
		req.Header.Set("Referer", f.Config.Referer)
	}
	if f.Config.UserAgent != "" {
		req.Header.Set("User-Agent", f.Config.UserAgent)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("CMS returned %d: %s", resp.StatusCode, string(body))
	}

	var payload cmsPage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding page %d: %w", page, err)
	}

	return payload.Inhoud.Elementen, nil
}

// FetchAll pages from StartAt until an empty page or MaxPages.
func (f *Fetcher) FetchAll(ctx context.Context) ([]DienstRecord, error) {
	var all []DienstRecord
	for i := 0; i < f.Config.MaxPages; i++ {
		page := f.Config.StartAt + i

		records, err := f.FetchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}
		if len(records) == 0 {
			log.Printf("[ingest] no more records at page %d", page)
			break
		}

		log.Printf("[ingest] page %d: %d records", page, len(records))
		all = append(all, records...)
	}
	return all, nil
}
