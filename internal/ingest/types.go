package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// FetchedDocument represents the raw result of a fetch operation.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
	Headers     map[string][]string
}

// Fetcher retrieves raw content from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}

// RunStats holds metrics about one batch stage run.
type RunStats struct {
	Found   int
	Saved   int
	Skipped int
}

func (s RunStats) String() string {
	return fmt.Sprintf("found=%d succeeded=%d skipped=%d", s.Found, s.Saved, s.Skipped)
}

// FieldExtractionError reports a page section whose markup did not match the
// expected template. The section is left empty and extraction continues.
type FieldExtractionError struct {
	Section string
	Err     error
}

func (e *FieldExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Section, e.Err)
}

func (e *FieldExtractionError) Unwrap() error {
	return e.Err
}

// ErrUnknownSource is returned when a registry lookup names no configured source.
var ErrUnknownSource = errors.New("unknown source")
