package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/david/tender-tracker/internal/db"
	"github.com/david/tender-tracker/internal/store"
)

func main() {
	_ = godotenv.Load()

	inDir := flag.String("in", "data/tenders_json", "Directory of per-tender JSON records")
	outPath := flag.String("out", "data/merged.json", "Merged corpus output")
	record := flag.Bool("db", false, "Record the run in Postgres")
	flag.Parse()

	ctx := context.Background()
	var rec *db.Recorder
	if *record {
		var err error
		if rec, err = db.StartRecording(ctx, "merge"); err != nil {
			log.Fatalf("Failed to start run recording: %v", err)
		}
	}

	tenders, stats, err := store.LoadTenders(*inDir)
	if err == nil {
		err = store.WriteJSON(*outPath, tenders)
	}
	rec.Finish(ctx, db.RunCounts{Found: stats.Found, Saved: stats.Loaded, Skipped: stats.Skipped}, err)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[Merger] Merged %d files into %s (succeeded=%d skipped=%d)", stats.Found, *outPath, stats.Loaded, stats.Skipped)
}
