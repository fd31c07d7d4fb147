package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/david/tender-tracker/internal/models"
)

// ErrReportNotFound is returned when no report with the requested name was saved.
var ErrReportNotFound = errors.New("report not found")

const DefaultLimit = 100

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Run is one recorded execution of a pipeline stage.
type Run struct {
	ID         uuid.UUID  `json:"id"`
	Stage      string     `json:"stage"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Found      int        `json:"found"`
	Saved      int        `json:"saved"`
	Skipped    int        `json:"skipped"`
	Error      *string    `json:"error"`
}

// RunCounts are the final counters reported by a stage.
type RunCounts struct {
	Found   int
	Saved   int
	Skipped int
}

// ListParams controls paging and ordering of list queries.
type ListParams struct {
	Limit      int
	Descending bool
}

func (p ListParams) limit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}
	return p.Limit
}

func (p ListParams) direction() string {
	if p.Descending {
		return "DESC"
	}
	return "ASC"
}

// StartRun records the start of a stage and returns its run id.
func (s *Store) StartRun(ctx context.Context, stage string) (uuid.UUID, error) {
	id := uuid.New()
	if _, err := s.pool.Exec(ctx,
		"INSERT INTO pipeline_runs (id, stage, started_at) VALUES ($1, $2, NOW())",
		id, stage,
	); err != nil {
		return uuid.Nil, fmt.Errorf("start run %s: %w", stage, err)
	}
	return id, nil
}

// FinishRun stores the final counters of a run. A non-nil runErr is kept as
// the run's error message.
func (s *Store) FinishRun(ctx context.Context, id uuid.UUID, counts RunCounts, runErr error) error {
	var msg *string
	if runErr != nil {
		m := runErr.Error()
		msg = &m
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE pipeline_runs
		SET finished_at = NOW(), found = $2, saved = $3, skipped = $4, error = $5
		WHERE id = $1
	`, id, counts.Found, counts.Saved, counts.Skipped, msg)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finish run %s: %w", id, pgx.ErrNoRows)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, stage, started_at, finished_at, found, saved, skipped, error
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Stage, &r.StartedAt, &r.FinishedAt, &r.Found, &r.Saved, &r.Skipped, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return runs, nil
}

// SaveTenders upserts cleaned tenders in one transaction and returns the
// number written.
func (s *Store) SaveTenders(ctx context.Context, runID uuid.UUID, tenders []models.CleanedTender) (int, error) {
	batch := &pgx.Batch{}
	for _, t := range tenders {
		payload, err := json.Marshal(t)
		if err != nil {
			return 0, fmt.Errorf("encode tender %s: %w", t.ID, err)
		}
		batch.Queue(`
			INSERT INTO tenders (id, run_id, title, status, expected_cost_uah, payload, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6::jsonb, NOW())
			ON CONFLICT (id) DO UPDATE SET
				run_id = EXCLUDED.run_id,
				title = EXCLUDED.title,
				status = EXCLUDED.status,
				expected_cost_uah = EXCLUDED.expected_cost_uah,
				payload = EXCLUDED.payload,
				updated_at = NOW()
		`, t.ID, nullableRun(runID), t.Title, t.Status, t.ExpectedCostUAH, string(payload))
	}
	return s.sendBatch(ctx, batch)
}

// SaveBuildings upserts cleaned incidents keyed by their feed id.
func (s *Store) SaveBuildings(ctx context.Context, runID uuid.UUID, items []models.CleanedIncident) (int, error) {
	batch := &pgx.Batch{}
	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return 0, fmt.Errorf("encode building %s: %w", item.Bellingcat.ID, err)
		}

		var tenderID *string
		if item.ProzorroTender != nil {
			tenderID = &item.ProzorroTender.ID
		}
		var date *time.Time
		if d, ok := item.ParsedDate(); ok {
			date = &d
		}

		batch.Queue(`
			INSERT INTO buildings (incident_id, run_id, tender_id, incident_date, payload, updated_at)
			VALUES ($1, $2, $3, $4, $5::jsonb, NOW())
			ON CONFLICT (incident_id) DO UPDATE SET
				run_id = EXCLUDED.run_id,
				tender_id = EXCLUDED.tender_id,
				incident_date = EXCLUDED.incident_date,
				payload = EXCLUDED.payload,
				updated_at = NOW()
		`, item.Bellingcat.ID, nullableRun(runID), tenderID, date, string(payload))
	}
	return s.sendBatch(ctx, batch)
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) (int, error) {
	if batch.Len() == 0 {
		return 0, nil
	}

	written := 0
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("batch item %d: %w", i, err)
			}
			written++
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// ListTenders returns cleaned tenders ordered by id.
func (s *Store) ListTenders(ctx context.Context, p ListParams) ([]models.CleanedTender, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT payload FROM tenders ORDER BY id %s LIMIT $1", p.direction()),
		p.limit(),
	)
	if err != nil {
		return nil, fmt.Errorf("query tenders: %w", err)
	}
	defer rows.Close()

	tenders := []models.CleanedTender{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan tender: %w", err)
		}
		var t models.CleanedTender
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode tender: %w", err)
		}
		tenders = append(tenders, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return tenders, nil
}

// ListBuildings returns cleaned incidents with their tender reference
// resolved to the stored cleaned tender, ordered by incident date.
func (s *Store) ListBuildings(ctx context.Context, p ListParams) ([]models.Building, error) {
	q := fmt.Sprintf(`
		SELECT b.payload, t.payload
		FROM buildings b
		LEFT JOIN tenders t ON t.id = b.tender_id
		ORDER BY b.incident_date %s NULLS LAST, b.incident_id
		LIMIT $1
	`, p.direction())

	rows, err := s.pool.Query(ctx, q, p.limit())
	if err != nil {
		return nil, fmt.Errorf("query buildings: %w", err)
	}
	defer rows.Close()

	buildings := []models.Building{}
	for rows.Next() {
		var incidentRaw, tenderRaw []byte
		if err := rows.Scan(&incidentRaw, &tenderRaw); err != nil {
			return nil, fmt.Errorf("scan building: %w", err)
		}

		var b models.Building
		if err := json.Unmarshal(incidentRaw, &b.CleanedIncident); err != nil {
			return nil, fmt.Errorf("decode building: %w", err)
		}
		if tenderRaw != nil {
			var t models.CleanedTender
			if err := json.Unmarshal(tenderRaw, &t); err != nil {
				return nil, fmt.Errorf("decode building tender: %w", err)
			}
			b.ProzorroTender = &t
		}
		buildings = append(buildings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return buildings, nil
}

// SaveReport stores a named report, replacing any earlier one.
func (s *Store) SaveReport(ctx context.Context, runID uuid.UUID, name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", name, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO reports (name, run_id, payload, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (name) DO UPDATE SET run_id = EXCLUDED.run_id, payload = EXCLUDED.payload, updated_at = NOW()
	`, name, nullableRun(runID), string(payload))
	if err != nil {
		return fmt.Errorf("save report %s: %w", name, err)
	}
	return nil
}

// Report returns the raw JSON of a named report.
func (s *Store) Report(ctx context.Context, name string) (json.RawMessage, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, "SELECT payload FROM reports WHERE name = $1", name).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", name, err)
	}
	return raw, nil
}

func nullableRun(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
