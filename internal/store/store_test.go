package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWriteJSONFormatting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	v := map[string]string{"title": "Ремонт <даху> & вікон"}

	if err := WriteJSON(path, v); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n    \"title\": \"Ремонт <даху> & вікон\"\n}\n"
	if string(data) != want {
		t.Errorf("unexpected output:\n%s\nexpected:\n%s", data, want)
	}

	var back map[string]string
	if err := ReadJSON(path, &back); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if diff := cmp.Diff(v, back); diff != "" {
		t.Errorf("read back mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTenders(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `{"tender_id": "UA-1", "title": "Перший"}`)
	writeFile(t, filepath.Join(dir, "b.json"), `{"tender_id": "UA-2", "title": "Другий"}`)
	writeFile(t, filepath.Join(dir, "c.json"), `{"tender_id": "UA-1", "title": "Дублікат"}`)
	writeFile(t, filepath.Join(dir, "d.json"), `{not json`)
	writeFile(t, filepath.Join(dir, "e.txt"), `{"tender_id": "UA-3"}`)
	writeFile(t, filepath.Join(dir, "f.json"), `{"title": "Без ідентифікатора"}`)
	writeFile(t, filepath.Join(dir, "g.json"), `{"tender_id": "  ", "title": "Порожній"}`)

	tenders, stats, err := LoadTenders(dir)
	if err != nil {
		t.Fatalf("LoadTenders failed: %v", err)
	}

	want := Stats{Found: 6, Loaded: 2, Skipped: 4}
	if stats != want {
		t.Errorf("stats = %+v, expected %+v", stats, want)
	}
	if len(tenders) != 2 || tenders[0].Title != "Перший" || tenders[1].TenderID != "UA-2" {
		t.Errorf("unexpected tenders %+v", tenders)
	}
}

func TestLoadTendersEmptyCorpus(t *testing.T) {
	if _, _, err := LoadTenders(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("missing dir: expected ErrEmptyCorpus, got %v", err)
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.json"), `[]garbage`)
	if _, _, err := LoadTenders(dir); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("unreadable records: expected ErrEmptyCorpus, got %v", err)
	}
}

func TestLoadTendersOnlyMissingIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `{"title": "Без ідентифікатора"}`)

	_, stats, err := LoadTenders(dir)
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("expected ErrEmptyCorpus, got %v", err)
	}
	if stats.Skipped != 1 {
		t.Errorf("expected the id-less record to be skipped, got %+v", stats)
	}
}

func TestLoadCorpus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merged.json")

	if _, err := LoadCorpus(path); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("missing file: expected ErrEmptyCorpus, got %v", err)
	}

	writeFile(t, path, `[]`)
	if _, err := LoadCorpus(path); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("empty array: expected ErrEmptyCorpus, got %v", err)
	}

	writeFile(t, path, `[{"tender_id": "UA-1"}, {"tender_id": "UA-2"}]`)
	tenders, err := LoadCorpus(path)
	if err != nil || len(tenders) != 2 {
		t.Fatalf("LoadCorpus = %d tenders, %v", len(tenders), err)
	}
}

func TestLoadIncidents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "incidents.json")
	writeFile(t, path, `[
		{"id": "A1", "latitude": 50.1, "longitude": 36.2},
		{"id": "A2", "latitude": "oops"},
		{"id": "A3"}
	]`)

	incidents, stats, err := LoadIncidents(path)
	if err != nil {
		t.Fatalf("LoadIncidents failed: %v", err)
	}
	if stats.Found != 3 || stats.Loaded != 2 || stats.Skipped != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if _, _, ok := incidents[1].Coordinates(); ok {
		t.Error("expected A3 without coordinates")
	}
}

func TestLoadIncidentsErrors(t *testing.T) {
	if _, _, err := LoadIncidents(filepath.Join(t.TempDir(), "none.json")); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("expected ErrEmptyCorpus, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "obj.json")
	writeFile(t, path, `{"id": "A1"}`)
	_, _, err := LoadIncidents(path)
	var le *LoadError
	if !errors.As(err, &le) || le.Path != path {
		t.Errorf("expected LoadError for %s, got %v", path, err)
	}
}

func TestListFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.html", "a.html", "c.json"} {
		writeFile(t, filepath.Join(dir, name), "")
	}
	if err := os.Mkdir(filepath.Join(dir, "d.html"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := ListFiles(dir, ".html")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a.html", "b.html"}, names); diff != "" {
		t.Errorf("ListFiles mismatch (-want +got):\n%s", diff)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	now := time.Now()
	cache := NewFileCache(t.TempDir(), time.Hour)
	cache.Now = func() time.Time { return now }

	key := SHA256Key("https://feed.test/api.json")
	if _, ok := cache.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}
	if err := cache.Put(key, []byte(`[1]`)); err != nil {
		t.Fatal(err)
	}

	data, ok := cache.Get(key)
	if !ok || string(data) != "[1]" {
		t.Fatalf("expected hit, got %q %v", data, ok)
	}

	cache.Now = func() time.Time { return now.Add(2 * time.Hour) }
	if _, ok := cache.Get(key); ok {
		t.Error("expected stale entry to miss")
	}

	cache.TTL = 0
	if _, ok := cache.Get(key); !ok {
		t.Error("expected zero TTL to never expire")
	}

	if err := cache.Invalidate(key); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Get(key); ok {
		t.Error("expected miss after invalidate")
	}
	if err := cache.Invalidate(key); err != nil {
		t.Errorf("invalidating a missing key: %v", err)
	}
}

func TestCacheKeys(t *testing.T) {
	if got := MD5Key("https://t.me/ch/1"); len(got) != 32 || strings.ToLower(got) != got {
		t.Errorf("unexpected md5 key %q", got)
	}
	if got := SHA256Key("x"); len(got) != 64 {
		t.Errorf("unexpected sha256 key %q", got)
	}
}

