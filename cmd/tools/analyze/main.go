package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"

	"github.com/david/tender-tracker/internal/ai"
	"github.com/david/tender-tracker/internal/analysis"
	"github.com/david/tender-tracker/internal/api"
	"github.com/david/tender-tracker/internal/db"
	"github.com/david/tender-tracker/internal/ingest"
	"github.com/david/tender-tracker/internal/store"
)

func main() {
	_ = godotenv.Load()

	sourcesFile := flag.String("sources", "", "Registry YAML (default: embedded)")
	tendersPath := flag.String("tenders", "data/merged.json", "Merged tender corpus")
	outDir := flag.String("out", "data", "Directory for the report files")
	useLLM := flag.Bool("llm", false, "Classify damaged buildings with the LLM instead of keywords")
	topN := flag.Int("top", 0, "Number of top suppliers/customers (default from registry)")
	record := flag.Bool("db", false, "Record the run and store the summary in Postgres")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg, err := ingest.LoadRegistry(*sourcesFile)
	if err != nil {
		log.Fatal(err)
	}
	if *topN <= 0 {
		*topN = reg.Analysis.TopN
	}

	tenders, err := store.LoadCorpus(*tendersPath)
	if err != nil {
		log.Fatal(err)
	}

	var classifier analysis.Classifier = analysis.NewKeywordClassifier(reg.Analysis.DamageKeywords)
	if *useLLM {
		llm := ai.NewOllamaClient(os.Getenv("OLLAMA_HOST"), os.Getenv("OLLAMA_MODEL"))
		classifier = &analysis.LLMClassifier{Judge: ai.NewBuildingClassifier(llm)}
	}

	var rec *db.Recorder
	if *record {
		if rec, err = db.StartRecording(ctx, "analyze"); err != nil {
			log.Fatalf("Failed to start run recording: %v", err)
		}
	}

	result, classifyErr := analysis.Summarize(ctx, tenders, classifier, *topN)
	if classifyErr != nil {
		log.Printf("[Analyze] classification failures:\n%v", classifyErr)
	}

	err = writeReports(*outDir, result)
	if err == nil && rec != nil {
		err = rec.Store().SaveReport(ctx, rec.RunID(), api.SummaryReportName, result.Summary)
	}

	rec.Finish(context.Background(), db.RunCounts{
		Found:   len(tenders),
		Saved:   len(tenders) - countJoined(classifyErr),
		Skipped: countJoined(classifyErr),
	}, errors.Join(err, classifyErr))
	if err != nil {
		log.Fatal(err)
	}

	render(result.Summary)
}

func writeReports(dir string, result analysis.Result) error {
	files := map[string]any{
		"summary_report.json":    result.Summary,
		"damaged_buildings.json": result.DamagedBuildings,
		"regions.json":           result.Regions,
	}
	for name, v := range files {
		if err := store.WriteJSON(filepath.Join(dir, name), v); err != nil {
			return err
		}
		log.Printf("[Analyze] wrote %s", filepath.Join(dir, name))
	}
	return nil
}

func countJoined(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}

func render(s analysis.SummaryReport) {
	overview := table.NewWriter()
	overview.SetOutputMirror(os.Stdout)
	overview.SetTitle("Tender summary")
	overview.AppendRows([]table.Row{
		{"Tenders", s.TenderCount},
		{"Regions", len(s.Regions)},
		{"Damaged buildings", s.DamagedBuildings.Count},
		{"Total value", fmt.Sprintf("%.2f %s", s.Values.Total, s.Values.Currency)},
		{"Average value", fmt.Sprintf("%.2f %s", s.Values.Average, s.Values.Currency)},
	})
	overview.Render()

	for _, section := range []struct {
		title   string
		parties []analysis.PartyStats
	}{
		{"Top suppliers", s.TopSuppliers},
		{"Top customers", s.TopCustomers},
	} {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle(section.title)
		t.AppendHeader(table.Row{"#", "Name", "Tenders", "Total value"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 4, Align: text.AlignRight},
		})
		for i, p := range section.parties {
			t.AppendRow(table.Row{i + 1, p.Name, p.TenderCount, fmt.Sprintf("%.2f", p.TotalValue)})
		}
		t.Render()
	}
}
