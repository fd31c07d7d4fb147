package models

import (
	"time"
)

// Incident is a geotagged damage report from the open-source incident feed.
type Incident struct {
	ID           string      `json:"id"`
	Impact       []string    `json:"impact"`
	WeaponSystem []string    `json:"weapon_system"`
	Date         string      `json:"date"`
	Latitude     *Coordinate `json:"latitude,omitempty"`
	Longitude    *Coordinate `json:"longitude,omitempty"`
	Description  string      `json:"description"`
	Sources      []string    `json:"sources"`
	TenderID     string      `json:"tender_id,omitempty"`
}

// Coordinates returns latitude and longitude when both are present.
func (i Incident) Coordinates() (lat, lon float64, ok bool) {
	if i.Latitude == nil || i.Longitude == nil {
		return 0, 0, false
	}
	return float64(*i.Latitude), float64(*i.Longitude), true
}

// HasImpact reports whether the incident lists the given impact type.
func (i Incident) HasImpact(impact string) bool {
	for _, v := range i.Impact {
		if v == impact {
			return true
		}
	}
	return false
}

// Address is a reverse-geocoded location.
type Address struct {
	DisplayName           string  `json:"display_name"`
	AdministrativeArea    string  `json:"administrative_area"`
	SubAdministrativeArea *string `json:"sub_administrative_area"`
	Locality              string  `json:"locality"`
	PostCode              string  `json:"post_code"`
	Thoroughfare          *string `json:"thoroughfare"`
	FullThoroughfare      *string `json:"full_thoroughfare"`
	Longitude             float64 `json:"longitude"`
	Latitude              float64 `json:"latitude"`
}

type IncidentSource struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Sources     []string `json:"sources"`
}

type TenderRef struct {
	ID string `json:"id"`
}

// CleanedIncident is the published building/incident shape.
type CleanedIncident struct {
	Types           []string       `json:"types"`
	WeaponSystem    string         `json:"weapon_system"`
	Date            string         `json:"date"`
	Location        *Address       `json:"location"`
	Bellingcat      IncidentSource `json:"bellingcat"`
	ProzorroTender  *TenderRef     `json:"prozorro_tender"`
	SourcesExtended []TelegramPost `json:"sources_extended,omitempty"`
}

// Building is a cleaned incident whose tender reference has been resolved.
type Building struct {
	CleanedIncident
	ProzorroTender *CleanedTender `json:"prozorro_tender"`
}

// ParsedDate returns the incident date as an ISO calendar day.
func (c CleanedIncident) ParsedDate() (time.Time, bool) {
	t, err := time.Parse("2006-01-02", c.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type Media struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// TelegramPost is one public channel post referenced by an incident source.
type TelegramPost struct {
	Text      string  `json:"text"`
	Link      string  `json:"link"`
	Media     []Media `json:"media"`
	CreatedAt *string `json:"created_at"`
}
