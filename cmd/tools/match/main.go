package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/david/tender-tracker/internal/db"
	"github.com/david/tender-tracker/internal/geo"
	"github.com/david/tender-tracker/internal/ingest"
	"github.com/david/tender-tracker/internal/store"
)

func main() {
	_ = godotenv.Load()

	sourcesFile := flag.String("sources", "", "Registry YAML (default: embedded)")
	tendersPath := flag.String("tenders", "data/merged.json", "Merged tender corpus")
	incidentsPath := flag.String("incidents", "data/incidents.json", "Incident corpus")
	outPath := flag.String("out", "data/matched.json", "Matched corpus output")
	direction := flag.String("direction", "incidents", "Driving side: incidents (first match wins) or tenders (all matches)")
	threshold := flag.Float64("threshold", 0, "Match radius in meters (default from registry)")
	noise := flag.Float64("noise", -1, "Probability of linking a pair beyond the radius (default from registry)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Seed for the noise draw")
	record := flag.Bool("db", false, "Record the run in Postgres")
	flag.Parse()

	reg, err := ingest.LoadRegistry(*sourcesFile)
	if err != nil {
		log.Fatal(err)
	}
	dir, err := geo.ParseDirection(*direction)
	if err != nil {
		log.Fatal(err)
	}
	if *threshold <= 0 {
		*threshold = reg.Matcher.ThresholdMeters
	}
	if *noise < 0 {
		*noise = reg.Matcher.NoiseProbability
	}

	tenders, err := store.LoadCorpus(*tendersPath)
	if err != nil {
		log.Fatal(err)
	}
	incidents, loadStats, err := store.LoadIncidents(*incidentsPath)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[Match] %d tenders, %d incidents (%d skipped)", len(tenders), loadStats.Loaded, loadStats.Skipped)

	ctx := context.Background()
	var rec *db.Recorder
	if *record {
		if rec, err = db.StartRecording(ctx, "match"); err != nil {
			log.Fatalf("Failed to start run recording: %v", err)
		}
	}

	matcher := geo.NewMatcher(*threshold, *noise, *seed)
	result, err := matcher.Match(dir, incidents, tenders)
	if err == nil {
		if dir == geo.TenderDriven {
			err = store.WriteJSON(*outPath, result.Tenders)
		} else {
			err = store.WriteJSON(*outPath, result.Incidents)
		}
	}

	s := result.Stats
	rec.Finish(ctx, db.RunCounts{Found: s.Considered + s.Skipped, Saved: s.Matched, Skipped: s.Skipped}, err)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[Match] direction=%s considered=%d matched=%d links=%d noise=%d skipped=%d",
		dir, s.Considered, s.Matched, s.Links, s.Noise, s.Skipped)
}
