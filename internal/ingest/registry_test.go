package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedRegistry(t *testing.T) {
	reg, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}

	prozorro, err := reg.Source("prozorro")
	if err != nil {
		t.Fatalf("prozorro source missing: %v", err)
	}
	if prozorro.Kind != "prozorro_search" || prozorro.Search.Region != "61-64" || prozorro.Search.PerPage != 20 {
		t.Errorf("unexpected prozorro config %+v", prozorro)
	}

	feed, err := reg.Source("bellingcat")
	if err != nil {
		t.Fatalf("bellingcat source missing: %v", err)
	}
	if feed.Filter.Impact != "Residential" || feed.Cache.TTLHours != 24 {
		t.Errorf("unexpected feed config %+v", feed)
	}

	if reg.Matcher.ThresholdMeters != 5000 {
		t.Errorf("expected 5000m threshold, got %v", reg.Matcher.ThresholdMeters)
	}
	if reg.Analysis.TopN != 10 || len(reg.Analysis.DamageKeywords) == 0 {
		t.Errorf("unexpected analysis config %+v", reg.Analysis)
	}
}

func TestLoadRegistryExpandsEnv(t *testing.T) {
	t.Setenv("MAPKIT_TEAM_ID", "TEAM123")
	path := filepath.Join(t.TempDir(), "sources.yaml")
	yaml := "geocoder:\n  team_id: ${MAPKIT_TEAM_ID}\n  language: uk-UA\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	if reg.Geocoder.TeamID != "TEAM123" {
		t.Errorf("expected expanded team id, got %q", reg.Geocoder.TeamID)
	}
}

func TestRegistryUnknownSource(t *testing.T) {
	reg := &Registry{}
	if _, err := reg.Source("nope"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing registry file")
	}
}
