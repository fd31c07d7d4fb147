package geo

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/david/tender-tracker/internal/models"
)

// DefaultThresholdMeters is the distance within which an incident and a
// tender are considered the same place.
const DefaultThresholdMeters = 5000.0

// Direction selects which corpus drives the join.
type Direction int

const (
	// IncidentDriven annotates each incident with the first tender in range.
	IncidentDriven Direction = iota
	// TenderDriven annotates each tender with every incident in range.
	TenderDriven
)

func (d Direction) String() string {
	switch d {
	case IncidentDriven:
		return "incidents"
	case TenderDriven:
		return "tenders"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection maps a CLI value to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "incidents", "incident":
		return IncidentDriven, nil
	case "tenders", "tender":
		return TenderDriven, nil
	default:
		return 0, fmt.Errorf("unknown match direction %q", s)
	}
}

// MatchStats summarizes one matching run.
type MatchStats struct {
	Considered int // driving entries with coordinates
	Skipped    int // driving entries without coordinates
	Matched    int // driving entries that got at least one link
	Links      int // total links created
	Noise      int // links created by probabilistic inclusion
}

// Matcher joins incidents and tenders by distance. With NoiseProbability > 0
// a pair beyond the threshold is still linked with that probability, drawn
// once per pair from Rand.
type Matcher struct {
	ThresholdMeters  float64
	NoiseProbability float64
	Rand             *rand.Rand
}

func NewMatcher(thresholdMeters, noiseProbability float64, seed int64) *Matcher {
	if thresholdMeters <= 0 {
		thresholdMeters = DefaultThresholdMeters
	}
	return &Matcher{
		ThresholdMeters:  thresholdMeters,
		NoiseProbability: noiseProbability,
		Rand:             rand.New(rand.NewSource(seed)),
	}
}

func (m *Matcher) threshold() float64 {
	if m.ThresholdMeters <= 0 {
		return DefaultThresholdMeters
	}
	return m.ThresholdMeters
}

// linked reports whether a pair at distance d should be linked, and whether
// the link came from noise.
func (m *Matcher) linked(d float64) (ok, noise bool) {
	if d <= m.threshold() {
		return true, false
	}
	if m.NoiseProbability <= 0 || m.Rand == nil {
		return false, false
	}
	if m.Rand.Float64() < m.NoiseProbability {
		return true, true
	}
	return false, false
}

// MatchIncidents returns the incidents that have coordinates, each carrying
// the id of the first tender (in corpus order) it links to. Incidents
// without coordinates are dropped from the output.
func (m *Matcher) MatchIncidents(incidents []models.Incident, tenders []models.Tender) ([]models.Incident, MatchStats) {
	var stats MatchStats
	out := make([]models.Incident, 0, len(incidents))

	for _, inc := range incidents {
		lat, lon, ok := inc.Coordinates()
		if !ok {
			stats.Skipped++
			continue
		}
		stats.Considered++
		inc.TenderID = ""

		for _, t := range tenders {
			tlat, tlon, ok := t.Coordinates()
			if !ok {
				continue
			}
			linked, noise := m.linked(Distance(lat, lon, tlat, tlon))
			if !linked {
				continue
			}
			inc.TenderID = t.TenderID
			stats.Matched++
			stats.Links++
			if noise {
				stats.Noise++
			}
			break
		}

		out = append(out, inc)
	}

	log.Printf("[Matcher] incident-driven: %d considered, %d skipped, %d matched (%d noise)",
		stats.Considered, stats.Skipped, stats.Matched, stats.Noise)
	return out, stats
}

// MatchTenders returns the tenders that have coordinates, each carrying every
// incident it links to. Tenders without coordinates are dropped.
func (m *Matcher) MatchTenders(tenders []models.Tender, incidents []models.Incident) ([]models.Tender, MatchStats) {
	var stats MatchStats
	out := make([]models.Tender, 0, len(tenders))

	for _, t := range tenders {
		lat, lon, ok := t.Coordinates()
		if !ok {
			stats.Skipped++
			continue
		}
		stats.Considered++
		t.BellingcatItems = nil

		for _, inc := range incidents {
			ilat, ilon, ok := inc.Coordinates()
			if !ok {
				continue
			}
			linked, noise := m.linked(Distance(lat, lon, ilat, ilon))
			if !linked {
				continue
			}
			t.BellingcatItems = append(t.BellingcatItems, inc)
			stats.Links++
			if noise {
				stats.Noise++
			}
		}
		if len(t.BellingcatItems) > 0 {
			stats.Matched++
		}

		out = append(out, t)
	}

	log.Printf("[Matcher] tender-driven: %d considered, %d skipped, %d matched, %d links (%d noise)",
		stats.Considered, stats.Skipped, stats.Matched, stats.Links, stats.Noise)
	return out, stats
}

// Result holds the output of Match; only the slice for the chosen direction is set.
type Result struct {
	Incidents []models.Incident
	Tenders   []models.Tender
	Stats     MatchStats
}

// Match runs the join in the given direction.
func (m *Matcher) Match(dir Direction, incidents []models.Incident, tenders []models.Tender) (Result, error) {
	switch dir {
	case IncidentDriven:
		out, stats := m.MatchIncidents(incidents, tenders)
		return Result{Incidents: out, Stats: stats}, nil
	case TenderDriven:
		out, stats := m.MatchTenders(tenders, incidents)
		return Result{Tenders: out, Stats: stats}, nil
	default:
		return Result{}, fmt.Errorf("unknown match direction %v", dir)
	}
}
