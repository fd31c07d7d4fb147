package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/david/tender-tracker/internal/ai"
	"github.com/david/tender-tracker/internal/db"
	"github.com/david/tender-tracker/internal/ingest"
)

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", "data/tenders_json", "Directory of per-tender JSON records, rewritten in place")
	model := flag.String("model", os.Getenv("OLLAMA_MODEL"), "Ollama model used to guess coordinates")
	record := flag.Bool("db", false, "Record the run in Postgres")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	guesser := ai.NewCoordinateGuesser(ai.NewOllamaClient(os.Getenv("OLLAMA_HOST"), *model))

	var rec *db.Recorder
	if *record {
		var err error
		if rec, err = db.StartRecording(ctx, "locate"); err != nil {
			log.Fatalf("Failed to start run recording: %v", err)
		}
	}

	stats, err := ingest.LocateDir(ctx, *dir, guesser)
	rec.Finish(context.Background(), db.RunCounts{Found: stats.Found, Saved: stats.Saved, Skipped: stats.Skipped}, err)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Locate finished: %s", stats)
}
