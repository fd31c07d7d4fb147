package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/david/tender-tracker/internal/db"
	"github.com/david/tender-tracker/internal/ingest"
	"github.com/david/tender-tracker/internal/models"
	"github.com/david/tender-tracker/internal/store"
	"github.com/david/tender-tracker/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	sourcesFile := flag.String("sources", "", "Registry YAML (default: embedded)")
	path := flag.String("buildings", "data/buildings.json", "Cleaned buildings file, rewritten in place")
	rps := flag.Float64("rps", 1, "Requests per second against t.me")
	record := flag.Bool("db", false, "Record the run and store the extended buildings in Postgres")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg, err := ingest.LoadRegistry(*sourcesFile)
	if err != nil {
		log.Fatal(err)
	}

	var buildings []models.CleanedIncident
	if err := store.ReadJSON(*path, &buildings); err != nil {
		log.Fatal(err)
	}

	fetcher := ingest.NewRateLimitedFetcher(ingest.FetchConfig{
		RateLimitRPS: *rps,
		Accept:       "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8",
	})
	scraper := telegram.NewScraper(fetcher, reg.Telegram.CacheDir)

	var rec *db.Recorder
	if *record {
		if rec, err = db.StartRecording(ctx, "extend_sources"); err != nil {
			log.Fatalf("Failed to start run recording: %v", err)
		}
	}

	stats := scraper.ExtendSources(ctx, buildings)
	err = store.WriteJSON(*path, buildings)
	if err == nil && rec != nil {
		_, err = rec.Store().SaveBuildings(ctx, rec.RunID(), buildings)
	}

	saved := stats.Fetched + stats.Cached
	rec.Finish(context.Background(), db.RunCounts{Found: saved + stats.Failed, Saved: saved, Skipped: stats.Failed}, err)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[Telegram] items=%d fetched=%d cached=%d failed=%d", stats.Items, stats.Fetched, stats.Cached, stats.Failed)
}
