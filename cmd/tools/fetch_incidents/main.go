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
	"github.com/david/tender-tracker/internal/store"
)

func main() {
	_ = godotenv.Load()

	sourcesFile := flag.String("sources", "", "Registry YAML (default: embedded)")
	sourceID := flag.String("source", "bellingcat", "Incident feed source id")
	outPath := flag.String("out", "data/incidents.json", "Filtered incident corpus output")
	refresh := flag.Bool("refresh", false, "Ignore the cached feed and download again")
	impact := flag.String("impact", "", "Override the impact filter from the registry")
	record := flag.Bool("db", false, "Record the run in Postgres")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg, err := ingest.LoadRegistry(*sourcesFile)
	if err != nil {
		log.Fatal(err)
	}
	src, err := reg.Source(*sourceID)
	if err != nil {
		log.Fatal(err)
	}

	feed := ingest.NewIncidentFeed(src, ingest.NewRateLimitedFetcher(src.Fetch))
	if *impact != "" {
		feed.Impact = *impact
	}

	var rec *db.Recorder
	if *record {
		if rec, err = db.StartRecording(ctx, "fetch_incidents"); err != nil {
			log.Fatalf("Failed to start run recording: %v", err)
		}
	}

	incidents, stats, err := feed.Load(ctx, *refresh)
	if err == nil {
		err = store.WriteJSON(*outPath, incidents)
	}
	rec.Finish(context.Background(), db.RunCounts{Found: stats.Found, Saved: stats.Saved, Skipped: stats.Skipped}, err)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Saved %d incidents to %s (%s)", len(incidents), *outPath, stats)
}
