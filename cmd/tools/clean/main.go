package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/david/tender-tracker/internal/clean"
	"github.com/david/tender-tracker/internal/db"
	"github.com/david/tender-tracker/internal/geocode"
	"github.com/david/tender-tracker/internal/ingest"
	"github.com/david/tender-tracker/internal/models"
	"github.com/david/tender-tracker/internal/store"
)

func main() {
	_ = godotenv.Load()

	sourcesFile := flag.String("sources", "", "Registry YAML (default: embedded)")
	incidentsPath := flag.String("incidents", "data/matched.json", "Matched incident corpus")
	tendersPath := flag.String("tenders", "data/merged.json", "Merged tender corpus")
	outDir := flag.String("out", "data", "Directory for buildings.json and tenders.json")
	record := flag.Bool("db", false, "Record the run and store cleaned corpora in Postgres")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg, err := ingest.LoadRegistry(*sourcesFile)
	if err != nil {
		log.Fatal(err)
	}
	geocoder, err := newGeocoder(reg.Geocoder)
	if err != nil {
		log.Fatal(err)
	}

	incidents, _, err := store.LoadIncidents(*incidentsPath)
	if err != nil {
		log.Fatal(err)
	}
	tenders, err := store.LoadCorpus(*tendersPath)
	if err != nil {
		log.Fatal(err)
	}

	var rec *db.Recorder
	if *record {
		if rec, err = db.StartRecording(ctx, "clean"); err != nil {
			log.Fatalf("Failed to start run recording: %v", err)
		}
	}

	buildings, stats := clean.CleanIncidents(ctx, incidents, geocoder)
	cleanedTenders := clean.CleanTenders(tenders)

	err = store.WriteJSON(filepath.Join(*outDir, "buildings.json"), buildings)
	if err == nil {
		err = store.WriteJSON(filepath.Join(*outDir, "tenders.json"), cleanedTenders)
	}
	if err == nil && rec != nil {
		err = saveToDB(ctx, rec, cleanedTenders, buildings)
	}

	rec.Finish(context.Background(), db.RunCounts{Found: stats.Found, Saved: stats.Cleaned, Skipped: stats.Skipped}, err)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[Clean] buildings: succeeded=%d skipped=%d; tenders: %d", stats.Cleaned, stats.Skipped, len(cleanedTenders))
}

func newGeocoder(cfg ingest.GeocoderConfig) (*geocode.Client, error) {
	gc := geocode.Config{
		BaseURL:     cfg.BaseURL,
		AccessToken: cfg.AccessToken,
		Language:    cfg.Language,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	if gc.AccessToken == "" {
		signer, err := geocode.NewTokenSignerFromFile(cfg.TeamID, cfg.KeyID, cfg.PrivateKeyPath)
		if err != nil {
			return nil, err
		}
		gc.Signer = signer
	}
	return geocode.NewClient(gc)
}

func saveToDB(ctx context.Context, rec *db.Recorder, tenders []models.CleanedTender, buildings []models.CleanedIncident) error {
	n, err := rec.Store().SaveTenders(ctx, rec.RunID(), tenders)
	if err != nil {
		return err
	}
	log.Printf("[DB] saved %d tenders", n)

	n, err = rec.Store().SaveBuildings(ctx, rec.RunID(), buildings)
	if err != nil {
		return err
	}
	log.Printf("[DB] saved %d buildings", n)
	return nil
}
