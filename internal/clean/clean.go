// Package clean reshapes matched corpora into their published form.
package clean

import (
	"context"
	"log"

	"github.com/david/tender-tracker/internal/models"
)

// CompletedStatus is the status label given to every published tender.
const CompletedStatus = "Завершена"

// UnknownWeapon is used when an incident lists no weapon system.
const UnknownWeapon = "Unknown"

// Geocoder resolves a coordinate into a postal address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lon, lat float64) (*models.Address, error)
}

// Stats counts records handled by a cleaning pass.
type Stats struct {
	Found   int
	Cleaned int
	Skipped int
}

// CleanIncidents reshapes matched incidents. Incidents without coordinates
// or whose reverse geocoding fails are logged and skipped.
func CleanIncidents(ctx context.Context, incidents []models.Incident, geocoder Geocoder) ([]models.CleanedIncident, Stats) {
	var stats Stats
	out := make([]models.CleanedIncident, 0, len(incidents))

	for i, inc := range incidents {
		if ctx.Err() != nil {
			log.Printf("[Cleaner] cancelled after %d/%d incidents", i, len(incidents))
			break
		}
		stats.Found++
		log.Printf("[Cleaner] %d/%d", i+1, len(incidents))

		lat, lon, ok := inc.Coordinates()
		if !ok {
			log.Printf("[Cleaner] incident %s has no coordinates, skipping", inc.ID)
			stats.Skipped++
			continue
		}

		addr, err := geocoder.ReverseGeocode(ctx, lon, lat)
		if err != nil {
			log.Printf("[Cleaner] reverse geocode incident %s: %v", inc.ID, err)
			stats.Skipped++
			continue
		}

		out = append(out, CleanIncident(inc, addr))
		stats.Cleaned++
	}

	return out, stats
}

// CleanIncident builds the published form of one incident.
func CleanIncident(inc models.Incident, addr *models.Address) models.CleanedIncident {
	c := models.CleanedIncident{
		Types:        inc.Impact,
		WeaponSystem: UnknownWeapon,
		Date:         inc.Date,
		Location:     addr,
		Bellingcat: models.IncidentSource{
			ID:          inc.ID,
			Description: inc.Description,
			Sources:     inc.Sources,
		},
	}
	if c.Types == nil {
		c.Types = []string{}
	}
	if c.Bellingcat.Sources == nil {
		c.Bellingcat.Sources = []string{}
	}
	if len(inc.WeaponSystem) > 0 && inc.WeaponSystem[0] != "" {
		c.WeaponSystem = inc.WeaponSystem[0]
	}
	if inc.TenderID != "" {
		c.ProzorroTender = &models.TenderRef{ID: inc.TenderID}
	}
	return c
}

// CleanTenders reshapes merged tenders. It never fails; absent sections map
// to null or empty values.
func CleanTenders(tenders []models.Tender) []models.CleanedTender {
	out := make([]models.CleanedTender, 0, len(tenders))
	for _, t := range tenders {
		out = append(out, CleanTender(t))
	}
	return out
}

func CleanTender(t models.Tender) models.CleanedTender {
	c := models.CleanedTender{
		ID:     t.TenderID,
		Title:  t.Title,
		Status: CompletedStatus,
		Awards: t.Awards,
	}
	if amount, ok := t.Amount(); ok {
		c.ExpectedCostUAH = &amount
	}
	if !t.Customer.IsEmpty() {
		cust := *t.Customer
		c.Customer = &cust
	}
	if c.Awards == nil {
		c.Awards = []models.Award{}
	}
	return c
}
