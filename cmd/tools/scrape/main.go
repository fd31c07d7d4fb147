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

	sourcesFile := flag.String("sources", "", "Registry YAML (default: embedded)")
	outDir := flag.String("out", "data/tenders_html", "Directory for downloaded tender pages")
	text := flag.String("text", "", "Search text (default from registry)")
	region := flag.String("region", "", "Region code range, e.g. 61-64 (default from registry)")
	maxPages := flag.Int("max-pages", -1, "Maximum result pages, 0 = all (default from registry)")
	filter := flag.Bool("filter", false, "Keep only titles the LLM classifies as residential buildings")
	record := flag.Bool("db", false, "Record the run in Postgres")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg, err := ingest.LoadRegistry(*sourcesFile)
	if err != nil {
		log.Fatal(err)
	}
	src, err := reg.Source("prozorro")
	if err != nil {
		log.Fatal(err)
	}
	if *text == "" {
		*text = src.Search.Text
	}
	if *region == "" {
		*region = src.Search.Region
	}

	pages := ingest.NewCollyFetcher()
	client := ingest.NewProzorroClient(src, ingest.NewRateLimitedFetcher(src.Fetch), pages)
	if *maxPages >= 0 {
		client.MaxPages = *maxPages
	}

	scraper := &ingest.Scraper{Client: client, OutDir: *outDir}
	if *filter {
		llm := ai.NewOllamaClient(os.Getenv("OLLAMA_HOST"), os.Getenv("OLLAMA_MODEL"))
		scraper.Filter = ai.NewBuildingClassifier(llm)
	}

	var rec *db.Recorder
	if *record {
		if rec, err = db.StartRecording(ctx, "scrape"); err != nil {
			log.Fatalf("Failed to start run recording: %v", err)
		}
	}

	stats, err := scraper.Run(ctx, *text, *region)
	rec.Finish(context.Background(), db.RunCounts{Found: stats.Found, Saved: stats.Saved, Skipped: stats.Skipped}, err)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Scrape finished: %s", stats)
}
