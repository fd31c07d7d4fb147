package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/david/tender-tracker/internal/clean"
	"github.com/david/tender-tracker/internal/db"
	"github.com/david/tender-tracker/internal/models"
	"github.com/david/tender-tracker/internal/store"
)

// ErrNotFound is returned when the requested dataset has not been produced yet.
var ErrNotFound = errors.New("not found")

// Source serves the published corpora.
type Source interface {
	Tenders(ctx context.Context, p db.ListParams) ([]models.CleanedTender, error)
	Buildings(ctx context.Context, p db.ListParams) ([]models.Building, error)
	Summary(ctx context.Context) (json.RawMessage, error)
}

// FileSource reads the cleaned JSON files on every request, so a batch run
// that rewrites them is picked up without a restart.
type FileSource struct {
	TendersPath   string
	BuildingsPath string
	SummaryPath   string
}

func (f *FileSource) Tenders(_ context.Context, p db.ListParams) ([]models.CleanedTender, error) {
	var tenders []models.CleanedTender
	if err := readFile(f.TendersPath, &tenders); err != nil {
		return nil, err
	}

	sort.SliceStable(tenders, func(i, j int) bool {
		if p.Descending {
			return tenders[i].ID > tenders[j].ID
		}
		return tenders[i].ID < tenders[j].ID
	})
	return truncate(tenders, p.Limit), nil
}

func (f *FileSource) Buildings(_ context.Context, p db.ListParams) ([]models.Building, error) {
	var incidents []models.CleanedIncident
	if err := readFile(f.BuildingsPath, &incidents); err != nil {
		return nil, err
	}
	var tenders []models.CleanedTender
	if err := readFile(f.TendersPath, &tenders); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	buildings := clean.ResolveBuildings(incidents, tenders)
	clean.SortBuildings(buildings, p.Descending)
	return truncate(buildings, p.Limit), nil
}

func (f *FileSource) Summary(_ context.Context) (json.RawMessage, error) {
	data, err := os.ReadFile(f.SummaryPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, f.SummaryPath)
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON in %s", f.SummaryPath)
	}
	return data, nil
}

func readFile(path string, v any) error {
	err := store.ReadJSON(path, v)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return err
}

func truncate[T any](items []T, limit int) []T {
	if items == nil {
		return []T{}
	}
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// DBSource serves corpora saved by the batch tools into Postgres.
type DBSource struct {
	Store *db.Store
}

func (d *DBSource) Tenders(ctx context.Context, p db.ListParams) ([]models.CleanedTender, error) {
	return d.Store.ListTenders(ctx, p)
}

func (d *DBSource) Buildings(ctx context.Context, p db.ListParams) ([]models.Building, error) {
	return d.Store.ListBuildings(ctx, p)
}

func (d *DBSource) Summary(ctx context.Context) (json.RawMessage, error) {
	raw, err := d.Store.Report(ctx, SummaryReportName)
	if errors.Is(err, db.ErrReportNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return raw, err
}
