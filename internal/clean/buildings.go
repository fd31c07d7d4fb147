package clean

import (
	"sort"

	"github.com/david/tender-tracker/internal/models"
)

// ResolveBuildings replaces each incident's tender reference with the full
// cleaned tender. References to unknown tenders resolve to null.
func ResolveBuildings(incidents []models.CleanedIncident, tenders []models.CleanedTender) []models.Building {
	byID := make(map[string]*models.CleanedTender, len(tenders))
	for i := range tenders {
		byID[tenders[i].ID] = &tenders[i]
	}

	out := make([]models.Building, 0, len(incidents))
	for _, inc := range incidents {
		b := models.Building{CleanedIncident: inc}
		if inc.ProzorroTender != nil {
			b.ProzorroTender = byID[inc.ProzorroTender.ID]
		}
		out = append(out, b)
	}
	return out
}

// SortBuildings orders buildings by incident date. Undated entries go last in
// either direction; ties keep their input order.
func SortBuildings(buildings []models.Building, descending bool) {
	sort.SliceStable(buildings, func(i, j int) bool {
		di, iok := buildings[i].ParsedDate()
		dj, jok := buildings[j].ParsedDate()
		if iok != jok {
			return iok
		}
		if !iok {
			return false
		}
		if descending {
			return di.After(dj)
		}
		return di.Before(dj)
	})
}
