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
)

func main() {
	_ = godotenv.Load()

	inDir := flag.String("in", "data/tenders_html", "Directory of saved tender pages")
	outDir := flag.String("out", "data/tenders_json", "Directory for per-tender JSON records")
	record := flag.Bool("db", false, "Record the run in Postgres")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var rec *db.Recorder
	if *record {
		var err error
		if rec, err = db.StartRecording(ctx, "extract"); err != nil {
			log.Fatalf("Failed to start run recording: %v", err)
		}
	}

	stats, err := ingest.ExtractDir(ctx, *inDir, *outDir)
	rec.Finish(context.Background(), db.RunCounts{Found: stats.Found, Saved: stats.Saved, Skipped: stats.Skipped}, err)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Extraction finished: %s", stats)
}
