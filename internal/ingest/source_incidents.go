package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/david/tender-tracker/internal/models"
	"github.com/david/tender-tracker/internal/store"
)

// IncidentFeed downloads the open-source incident feed, caching the raw
// payload on disk for CacheTTL.
type IncidentFeed struct {
	Fetcher  Fetcher
	Endpoint string
	Cache    *store.FileCache // nil disables caching
	Impact   string           // keep only incidents with this impact; empty keeps all
}

// NewIncidentFeed builds a feed from a registry source entry.
func NewIncidentFeed(cfg SourceConfig, fetcher Fetcher) *IncidentFeed {
	feed := &IncidentFeed{
		Fetcher:  fetcher,
		Endpoint: cfg.BaseURL,
		Impact:   cfg.Filter.Impact,
	}
	if cfg.Cache.Dir != "" {
		ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
		if ttl == 0 {
			ttl = 24 * time.Hour
		}
		feed.Cache = store.NewFileCache(cfg.Cache.Dir, ttl)
	}
	return feed
}

// Load returns the feed incidents, clamped and filtered. forceRefresh skips
// the cache read but still refreshes the cached copy.
func (f *IncidentFeed) Load(ctx context.Context, forceRefresh bool) ([]models.Incident, RunStats, error) {
	var stats RunStats

	raw, err := f.payload(ctx, forceRefresh)
	if err != nil {
		return nil, stats, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, stats, fmt.Errorf("decode incident feed: %w", err)
	}

	incidents := make([]models.Incident, 0, len(items))
	for i, item := range items {
		stats.Found++
		var inc models.Incident
		if err := json.Unmarshal(item, &inc); err != nil {
			log.Printf("[Incidents] skipping item %d: %v", i, err)
			stats.Skipped++
			continue
		}
		if f.Impact != "" && !inc.HasImpact(f.Impact) {
			stats.Skipped++
			continue
		}
		clampCoordinates(&inc)
		incidents = append(incidents, inc)
		stats.Saved++
	}

	log.Printf("[Incidents] original: %d, kept: %d", stats.Found, stats.Saved)
	return incidents, stats, nil
}

func (f *IncidentFeed) payload(ctx context.Context, forceRefresh bool) ([]byte, error) {
	key := store.SHA256Key(f.Endpoint)
	if f.Cache != nil && !forceRefresh {
		if data, ok := f.Cache.Get(key); ok && json.Valid(data) {
			log.Printf("[Incidents] using cached feed %s", key[:12])
			return data, nil
		}
	}

	doc, err := f.Fetcher.Fetch(ctx, f.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch incident feed: %w", err)
	}
	defer doc.Body.Close()

	data, err := io.ReadAll(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("read incident feed: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("incident feed returned invalid JSON")
	}

	if f.Cache != nil {
		if err := f.Cache.Put(key, data); err != nil {
			log.Printf("[Incidents] cache write failed: %v", err)
		}
	}
	return data, nil
}

func clampCoordinates(inc *models.Incident) {
	if inc.Longitude != nil {
		*inc.Longitude = models.Coordinate(clamp(float64(*inc.Longitude), -180, 180))
	}
	if inc.Latitude != nil {
		*inc.Latitude = models.Coordinate(clamp(float64(*inc.Latitude), -90, 90))
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
