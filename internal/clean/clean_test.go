package clean

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/david/tender-tracker/internal/models"
)

type stubGeocoder struct {
	fail  map[float64]bool
	calls int
}

func (g *stubGeocoder) ReverseGeocode(_ context.Context, lon, lat float64) (*models.Address, error) {
	g.calls++
	if g.fail[lat] {
		return nil, errors.New("geocoder unavailable")
	}
	return &models.Address{DisplayName: "Харків, Україна", Locality: "Харків", Longitude: lon, Latitude: lat}, nil
}

func TestCleanTenderAbsentAwards(t *testing.T) {
	cleaned := CleanTenders([]models.Tender{{TenderID: "UA-2023-06-07-000001-a", Title: "Ремонт даху"}})
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 tender, got %d", len(cleaned))
	}

	data, err := json.Marshal(cleaned[0])
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{`"awards":[]`, `"customer":null`, `"expected_cost_uah":null`, `"status":"Завершена"`, `"id":"UA-2023-06-07-000001-a"`} {
		if !strings.Contains(s, want) {
			t.Errorf("cleaned tender %s missing %s", s, want)
		}
	}
}

func TestCleanTenderFields(t *testing.T) {
	amount := 125000.5
	bid := 120000.0
	in := models.Tender{
		TenderID:     "UA-2023-06-07-000002-b",
		Title:        "Відновлення житлового будинку",
		Status:       "Активна",
		ExpectedCost: &models.Money{Amount: &amount, Currency: "UAH"},
		Customer:     &models.Customer{Name: "Харківська міська рада", EDRPOU: "04059243"},
		Awards:       []models.Award{{ParticipantName: "ТОВ Будівельник", Decision: "Переможець", BidAmount: &bid, BidCurrency: "UAH"}},
	}

	got := CleanTender(in)
	want := models.CleanedTender{
		ID:              in.TenderID,
		Title:           in.Title,
		Status:          CompletedStatus,
		ExpectedCostUAH: &amount,
		Customer:        &models.Customer{Name: "Харківська міська рада", EDRPOU: "04059243"},
		Awards:          in.Awards,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CleanTender mismatch (-want +got):\n%s", diff)
	}

	if c := CleanTender(models.Tender{Customer: &models.Customer{}}); c.Customer != nil {
		t.Errorf("empty customer should clean to null, got %+v", c.Customer)
	}
}

func TestCleanIncidents(t *testing.T) {
	incidents := []models.Incident{
		{
			ID:           "CIV0001",
			Impact:       []string{"Residential"},
			WeaponSystem: []string{"Missile", "Drone"},
			Date:         "2023-06-07",
			Latitude:     models.NewCoordinate(49.99),
			Longitude:    models.NewCoordinate(36.23),
			Description:  "Residential building hit",
			Sources:      []string{"https://t.me/channel/1"},
			TenderID:     "UA-2023-06-07-000001-a",
		},
		{
			ID:        "CIV0002",
			Impact:    []string{"Residential"},
			Latitude:  models.NewCoordinate(50.00),
			Longitude: models.NewCoordinate(36.24),
		},
		{
			ID:        "CIV0003",
			Latitude:  models.NewCoordinate(48.5),
			Longitude: models.NewCoordinate(35.0),
		},
		{ID: "CIV0004"},
	}

	geo := &stubGeocoder{fail: map[float64]bool{48.5: true}}
	out, stats := CleanIncidents(context.Background(), incidents, geo)

	if stats.Found != 4 || stats.Cleaned != 2 || stats.Skipped != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if geo.calls != 3 {
		t.Errorf("geocoder calls = %d, want 3", geo.calls)
	}

	first := out[0]
	if first.WeaponSystem != "Missile" {
		t.Errorf("WeaponSystem = %q, want first element", first.WeaponSystem)
	}
	if first.ProzorroTender == nil || first.ProzorroTender.ID != "UA-2023-06-07-000001-a" {
		t.Errorf("ProzorroTender = %+v", first.ProzorroTender)
	}
	if first.Location == nil || first.Location.Latitude != 49.99 {
		t.Errorf("Location = %+v", first.Location)
	}
	if first.Bellingcat.ID != "CIV0001" {
		t.Errorf("Bellingcat.ID = %q", first.Bellingcat.ID)
	}

	second := out[1]
	if second.WeaponSystem != UnknownWeapon {
		t.Errorf("WeaponSystem = %q, want %q", second.WeaponSystem, UnknownWeapon)
	}
	data, _ := json.Marshal(second)
	if !strings.Contains(string(data), `"prozorro_tender":null`) {
		t.Errorf("unmatched incident should carry a null tender ref: %s", data)
	}
}
