package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/david/tender-tracker/internal/models"
)

// Stats counts records seen by a loader.
type Stats struct {
	Found   int
	Loaded  int
	Skipped int
}

// LoadTenders reads every *.json file in dir, in directory-listing order,
// into one corpus. Unreadable or undecodable files are logged and skipped.
// Records without a tender_id and later files carrying an already-seen
// tender_id are dropped.
func LoadTenders(dir string) ([]models.Tender, Stats, error) {
	var stats Stats

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, stats, fmt.Errorf("%w: %s does not exist", ErrEmptyCorpus, dir)
		}
		return nil, stats, fmt.Errorf("list %s: %w", dir, err)
	}

	tenders := make([]models.Tender, 0, len(entries))
	seen := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		stats.Found++
		path := filepath.Join(dir, entry.Name())

		var t models.Tender
		if err := ReadJSON(path, &t); err != nil {
			log.Printf("[Merger] %v", &LoadError{Path: path, Err: err})
			stats.Skipped++
			continue
		}

		if strings.TrimSpace(t.TenderID) == "" {
			log.Printf("[Merger] %v", &LoadError{Path: path, Err: ErrMissingTenderID})
			stats.Skipped++
			continue
		}
		if first, dup := seen[t.TenderID]; dup {
			log.Printf("[Merger] duplicate tender %s in %s (first seen in %s), skipping", t.TenderID, path, first)
			stats.Skipped++
			continue
		}
		seen[t.TenderID] = path

		tenders = append(tenders, t)
		stats.Loaded++
	}

	if len(tenders) == 0 {
		return nil, stats, fmt.Errorf("%w: no tender records in %s", ErrEmptyCorpus, dir)
	}

	return tenders, stats, nil
}

// LoadCorpus reads a merged tender array written by WriteJSON. A missing or
// empty corpus is ErrEmptyCorpus.
func LoadCorpus(path string) ([]models.Tender, error) {
	var tenders []models.Tender
	if err := ReadJSON(path, &tenders); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrEmptyCorpus, path)
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	if len(tenders) == 0 {
		return nil, fmt.Errorf("%w: no tender records in %s", ErrEmptyCorpus, path)
	}
	return tenders, nil
}

// LoadIncidents reads an incident array. Elements that fail to decode are
// logged and skipped.
func LoadIncidents(path string) ([]models.Incident, Stats, error) {
	var stats Stats

	var raw []json.RawMessage
	if err := ReadJSON(path, &raw); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, stats, fmt.Errorf("%w: %s does not exist", ErrEmptyCorpus, path)
		}
		return nil, stats, &LoadError{Path: path, Err: err}
	}

	incidents := make([]models.Incident, 0, len(raw))
	for i, msg := range raw {
		stats.Found++
		var inc models.Incident
		if err := json.Unmarshal(msg, &inc); err != nil {
			log.Printf("[Merger] %v", &LoadError{Path: fmt.Sprintf("%s[%d]", path, i), Err: err})
			stats.Skipped++
			continue
		}
		incidents = append(incidents, inc)
		stats.Loaded++
	}

	return incidents, stats, nil
}

// ListFiles returns the names of files in dir with the given suffix, sorted.
func ListFiles(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
