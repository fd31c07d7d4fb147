package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/david/tender-tracker/internal/models"
)

func TestListParamsDefaults(t *testing.T) {
	tests := []struct {
		params    ListParams
		limit     int
		direction string
	}{
		{ListParams{}, DefaultLimit, "ASC"},
		{ListParams{Limit: -5}, DefaultLimit, "ASC"},
		{ListParams{Limit: 7, Descending: true}, 7, "DESC"},
	}
	for _, tt := range tests {
		if got := tt.params.limit(); got != tt.limit {
			t.Errorf("%+v: limit = %d, expected %d", tt.params, got, tt.limit)
		}
		if got := tt.params.direction(); got != tt.direction {
			t.Errorf("%+v: direction = %s, expected %s", tt.params, got, tt.direction)
		}
	}
}

func TestNullableRun(t *testing.T) {
	if nullableRun(uuid.Nil) != nil {
		t.Error("expected nil for the zero run id")
	}
	id := uuid.New()
	if got := nullableRun(id); got == nil || *got != id {
		t.Errorf("expected %s, got %v", id, got)
	}
}

func connectOrSkip(t *testing.T) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	pool, err := Connect(ctx)
	if err != nil {
		t.Skip("Database not available, skipping integration test")
	}
	t.Cleanup(pool.Close)

	if err := ApplyMigrations(context.Background(), pool); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}
	return NewStore(pool)
}

func TestStoreRoundTrip(t *testing.T) {
	store := connectOrSkip(t)
	ctx := context.Background()

	runID, err := store.StartRun(ctx, "test")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	amount := 1500.0
	tenderID := "UA-TEST-" + runID.String()[:8]
	incidentID := "TEST-" + runID.String()[:8]

	if n, err := store.SaveTenders(ctx, runID, []models.CleanedTender{{
		ID: tenderID, Title: "Ремонт", Status: "Завершена", ExpectedCostUAH: &amount, Awards: []models.Award{},
	}}); err != nil || n != 1 {
		t.Fatalf("SaveTenders = %d, %v", n, err)
	}
	if n, err := store.SaveBuildings(ctx, runID, []models.CleanedIncident{{
		Date:           "2999-01-01",
		Bellingcat:     models.IncidentSource{ID: incidentID},
		ProzorroTender: &models.TenderRef{ID: tenderID},
	}}); err != nil || n != 1 {
		t.Fatalf("SaveBuildings = %d, %v", n, err)
	}

	buildings, err := store.ListBuildings(ctx, ListParams{Limit: 1, Descending: true})
	if err != nil {
		t.Fatalf("ListBuildings failed: %v", err)
	}
	if len(buildings) != 1 || buildings[0].ProzorroTender == nil || buildings[0].ProzorroTender.ID != tenderID {
		t.Fatalf("expected resolved building for %s, got %+v", tenderID, buildings)
	}

	if err := store.FinishRun(ctx, runID, RunCounts{Found: 2, Saved: 2}, errors.New("partial")); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	runs, err := store.ListRuns(ctx, 50)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	for _, r := range runs {
		if r.ID == runID {
			if r.Saved != 2 || r.Error == nil || *r.Error != "partial" {
				t.Errorf("unexpected run %+v", r)
			}
			return
		}
	}
	t.Errorf("run %s not listed", runID)
}

func TestReportNotFound(t *testing.T) {
	store := connectOrSkip(t)
	_, err := store.Report(context.Background(), "missing-"+uuid.NewString())
	if !errors.Is(err, ErrReportNotFound) {
		t.Errorf("expected ErrReportNotFound, got %v", err)
	}
}
