package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/david/tender-tracker/internal/models"
	"github.com/david/tender-tracker/internal/store"
)

// BuildingFilter decides whether a tender title concerns residential buildings.
type BuildingFilter interface {
	IsBuilding(ctx context.Context, text string) (bool, error)
}

// CoordinateGuesser places a serialized tender record on the map.
type CoordinateGuesser interface {
	Guess(ctx context.Context, record []byte) (lon, lat float64, ok bool, err error)
}

// ExtractFile parses one saved tender page.
func ExtractFile(path string) (models.Tender, []error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Tender{}, []error{&FieldExtractionError{Section: "document", Err: err}}
	}
	defer f.Close()
	return ExtractTender(f)
}

// ExtractDir converts every *.html page in inDir to <stem>.json in outDir.
// Section failures are logged and the partial record is still written.
func ExtractDir(ctx context.Context, inDir, outDir string) (RunStats, error) {
	var stats RunStats

	names, err := store.ListFiles(inDir, ".html")
	if err != nil {
		return stats, fmt.Errorf("list %s: %w", inDir, err)
	}

	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Found++
		log.Printf("[Extract] %d/%d: %s", i+1, len(names), name)

		tender, errs := ExtractFile(filepath.Join(inDir, name))
		if len(errs) > 0 {
			log.Printf("[Extract] %s: %d section(s) failed", name, len(errs))
		}
		if tender.TenderID == "" && tender.Title == "" {
			log.Printf("[Extract] %s: no tender header, skipping", name)
			stats.Skipped++
			continue
		}

		out := filepath.Join(outDir, strings.TrimSuffix(name, ".html")+".json")
		if err := store.WriteJSON(out, tender); err != nil {
			log.Printf("[Extract] %v", err)
			stats.Skipped++
			continue
		}
		stats.Saved++
	}

	log.Printf("[Extract] done: %s", stats)
	return stats, nil
}

// Scraper searches Prozorro, optionally filters hits by title, and saves the
// detail page of every kept tender.
type Scraper struct {
	Client *ProzorroClient
	Filter BuildingFilter // nil keeps every hit
	OutDir string
}

func (s *Scraper) Run(ctx context.Context, text, region string) (RunStats, error) {
	var stats RunStats

	log.Printf("[Scrape] Starting tender search with text=%q, regions=%s", text, region)
	hits, err := s.Client.SearchAll(ctx, text, region)
	if err != nil && len(hits) == 0 {
		return stats, fmt.Errorf("search tenders: %w", err)
	}
	if err != nil {
		log.Printf("[Scrape] search stopped early, continuing with %d hits: %v", len(hits), err)
	}

	for _, hit := range hits {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		stats.Found++

		if s.Filter != nil {
			ok, err := s.Filter.IsBuilding(ctx, hit.Title)
			if err != nil {
				log.Printf("[Scrape] classify %s: %v", hit.TenderID, err)
				stats.Skipped++
				continue
			}
			if !ok {
				stats.Skipped++
				continue
			}
		}

		path, err := s.Client.DownloadTender(ctx, hit.TenderID, s.OutDir)
		if err != nil {
			log.Printf("[Scrape] Error saving HTML for tender %s: %v", hit.TenderID, err)
			stats.Skipped++
			continue
		}
		log.Printf("[Scrape] Saved HTML for tender %s to %s", hit.TenderID, path)
		stats.Saved++
	}

	log.Printf("[Scrape] done: %s", stats)
	return stats, nil
}

// LocateDir asks the guesser for coordinates of every tender JSON in dir and
// rewrites each file. Without an answer the coordinates are cleared and the
// file is still rewritten.
func LocateDir(ctx context.Context, dir string, guesser CoordinateGuesser) (RunStats, error) {
	var stats RunStats

	names, err := store.ListFiles(dir, ".json")
	if err != nil {
		return stats, fmt.Errorf("list %s: %w", dir, err)
	}

	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Found++
		path := filepath.Join(dir, name)
		log.Printf("[Locate] %d/%d: %s", i+1, len(names), path)

		var tender models.Tender
		if err := store.ReadJSON(path, &tender); err != nil {
			log.Printf("[Locate] %v", err)
			stats.Skipped++
			continue
		}

		record, err := json.Marshal(tender)
		if err != nil {
			stats.Skipped++
			continue
		}

		lon, lat, ok, err := guesser.Guess(ctx, record)
		if err != nil {
			log.Printf("[Locate] %s: %v", name, err)
			stats.Skipped++
			continue
		}
		if ok {
			tender.Longitude = models.NewCoordinate(lon)
			tender.Latitude = models.NewCoordinate(lat)
		} else {
			log.Printf("[Locate] Could not find coordinates for %s", name)
			tender.Longitude, tender.Latitude = nil, nil
		}

		if err := store.WriteJSON(path, tender); err != nil {
			log.Printf("[Locate] %v", err)
			stats.Skipped++
			continue
		}
		stats.Saved++
	}

	log.Printf("[Locate] done: %s", stats)
	return stats, nil
}
