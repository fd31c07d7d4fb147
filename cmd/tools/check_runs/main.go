package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	"github.com/david/tender-tracker/internal/db"
)

func main() {
	_ = godotenv.Load()

	limit := flag.Int("n", 10, "Number of recent runs to show")
	flag.Parse()

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	runs, err := db.NewStore(pool).ListRuns(ctx, *limit)
	if err != nil {
		log.Fatal(err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Stage", "Found", "Succeeded", "Skipped", "Duration", "Started At", "Error"})

	for _, r := range runs {
		duration := "Running..."
		if r.FinishedAt != nil {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		errMsg := ""
		if r.Error != nil {
			errMsg = *r.Error
		}
		t.AppendRow(table.Row{r.Stage, r.Found, r.Saved, r.Skipped, duration, r.StartedAt.Format("2006-01-02 15:04:05"), errMsg})
	}
	t.Render()
}
