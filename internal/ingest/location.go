package ingest

import (
	"regexp"
	"strings"

	"github.com/david/tender-tracker/internal/models"
)

// Administrative-unit vocabulary used on tender pages.
var (
	postalCodeRegex     = regexp.MustCompile(`^(\d{5})`)
	regionRegex         = regexp.MustCompile(`Україна,\s+(.*?(?:область|місто|Київ|Крим))`)
	localityRegex       = regexp.MustCompile(`(?:область|місто|Київ|Крим),\s+(.*?район|.*?місто|.*?смт|.*?селище|.*?село)`)
	customerRegionRegex = regexp.MustCompile(`Україна[,\s]+(.*?обл\.)`)
)

// RegionFromDeliveryPlace extracts the region from a free-text delivery place.
func RegionFromDeliveryPlace(place string) string {
	if m := regionRegex.FindStringSubmatch(place); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// locationFromDeliveryPlace derives postal code, region and locality. A
// missing match leaves that field unset.
func locationFromDeliveryPlace(place string) *models.Location {
	loc := models.Location{}
	if m := postalCodeRegex.FindStringSubmatch(place); len(m) == 2 {
		loc.PostalCode = m[1]
	}
	loc.Region = RegionFromDeliveryPlace(place)
	if m := localityRegex.FindStringSubmatch(place); len(m) == 2 {
		loc.Locality = strings.TrimSpace(m[1])
	}
	if loc == (models.Location{}) {
		return nil
	}
	return &loc
}

func customerRegion(location string) string {
	if m := customerRegionRegex.FindStringSubmatch(location); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
