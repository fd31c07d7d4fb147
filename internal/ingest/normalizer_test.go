package ingest

import (
	"testing"

	"github.com/david/tender-tracker/internal/models"
)

func TestFixAwardDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"glued year and time", "07 червня 202313:24", "07 червня 2023 13:24"},
		{"already separated", "07 червня 2023 13:24", "07 червня 2023 13:24"},
		{"date only", "07  червня   2023", "07 червня 2023"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fixAwardDate(tt.input); got != tt.expected {
				t.Errorf("fixAwardDate(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeTender(t *testing.T) {
	tender := models.Tender{
		Dates: &models.TenderDates{PublicationDate: " 07 червня  2023 "},
		Awards: []models.Award{
			{PublicationDate: "01 липня 202410:00"},
			{PublicationDate: "02 липня 2024"},
		},
		Documents: []models.Document{{Date: "07.06.2023\n 13:24"}},
	}

	normalizeTender(&tender)

	if got := tender.Dates.PublicationDate; got != "07 червня 2023" {
		t.Errorf("publication date = %q", got)
	}
	if got := tender.Awards[0].PublicationDate; got != "01 липня 2024 10:00" {
		t.Errorf("award[0] date = %q", got)
	}
	if got := tender.Awards[1].PublicationDate; got != "02 липня 2024" {
		t.Errorf("award[1] date = %q", got)
	}
	if got := tender.Documents[0].Date; got != "07.06.2023 13:24" {
		t.Errorf("document date = %q", got)
	}
}

func TestNormalizeTenderWithoutSections(t *testing.T) {
	var tender models.Tender
	normalizeTender(&tender)
	if tender.Dates != nil || tender.Awards != nil {
		t.Fatalf("expected untouched tender, got %+v", tender)
	}
}
