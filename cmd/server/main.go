package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/david/tender-tracker/internal/analysis"
	"github.com/david/tender-tracker/internal/api"
	"github.com/david/tender-tracker/internal/db"
	"github.com/david/tender-tracker/internal/ingest"
	"github.com/david/tender-tracker/internal/store"
)

func main() {
	_ = godotenv.Load()

	dataDir := flag.String("data", "data", "Directory holding tenders.json, buildings.json and reports")
	mergedPath := flag.String("merged", "data/merged.json", "Merged tender corpus used by the analyze job")
	useDB := flag.Bool("db", false, "Serve corpora from Postgres instead of files")
	flag.Parse()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	reg, err := ingest.LoadRegistry(os.Getenv("SOURCES_FILE"))
	if err != nil {
		log.Fatalf("Failed to load registry: %v", err)
	}

	hash, err := api.AdminSecretHashFromEnv()
	if err != nil {
		log.Fatalf("Admin secret: %v", err)
	}

	cfg := api.Config{
		AdminSecretHash: hash,
		CORSOrigins:     splitCSV(os.Getenv("CORS_ORIGINS")),
	}

	var dbStore *db.Store
	if *useDB {
		ctx := context.Background()
		pool, err := db.Connect(ctx)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		if err := db.ApplyMigrations(ctx, pool); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		dbStore = db.NewStore(pool)
		cfg.Source = &api.DBSource{Store: dbStore}
		cfg.Runs = dbStore
	} else {
		cfg.Source = &api.FileSource{
			TendersPath:   filepath.Join(*dataDir, "tenders.json"),
			BuildingsPath: filepath.Join(*dataDir, "buildings.json"),
			SummaryPath:   filepath.Join(*dataDir, "summary_report.json"),
		}
	}

	cfg.Analyze = func(ctx context.Context) (any, error) {
		tenders, err := store.LoadCorpus(*mergedPath)
		if err != nil {
			return nil, err
		}
		result, err := analysis.Summarize(ctx, tenders, analysis.NewKeywordClassifier(reg.Analysis.DamageKeywords), reg.Analysis.TopN)
		if err != nil {
			return nil, err
		}
		if err := store.WriteJSON(filepath.Join(*dataDir, "summary_report.json"), result.Summary); err != nil {
			return nil, err
		}
		if dbStore != nil {
			if err := dbStore.SaveReport(ctx, uuid.Nil, api.SummaryReportName, result.Summary); err != nil {
				return nil, err
			}
		}
		return result.Summary, nil
	}

	srv := api.NewServer(cfg)
	log.Printf("Server starting on port %s...", port)
	if err := srv.Start(port); err != nil {
		log.Fatal(err)
	}
}

func splitCSV(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
