package analysis

import (
	"context"

	"github.com/david/tender-tracker/internal/models"
)

// SummaryReport is regenerated wholesale on every run.
type SummaryReport struct {
	TenderCount      int                     `json:"tender_count"`
	Regions          map[string]int          `json:"regions"`
	ProcurementTypes map[string]int          `json:"procurement_types"`
	Categories       map[string]int          `json:"categories"`
	Values           ValueStats              `json:"values"`
	TopSuppliers     []PartyStats            `json:"top_suppliers"`
	TopCustomers     []PartyStats            `json:"top_customers"`
	DamagedBuildings DamagedBuildingsSummary `json:"damaged_buildings"`
}

type DamagedBuildingsSummary struct {
	Count int `json:"count"`
}

// Result bundles everything one analyzer run writes.
type Result struct {
	Summary          SummaryReport
	DamagedBuildings []DamagedTender
	Regions          map[string]int
}

// Summarize builds the summary report. Classification failures are returned
// alongside a complete report computed over the records that classified.
func Summarize(ctx context.Context, tenders []models.Tender, c Classifier, topN int) (Result, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}

	damaged, err := DamagedBuildings(ctx, tenders, c)
	if damaged == nil {
		damaged = []DamagedTender{}
	}

	regions := Regions(tenders)
	report := SummaryReport{
		TenderCount:      len(tenders),
		Regions:          regions,
		ProcurementTypes: ProcurementTypes(tenders),
		Categories:       Categories(tenders),
		Values:           Values(tenders),
		TopSuppliers:     TopSuppliers(tenders, topN),
		TopCustomers:     TopCustomers(tenders, topN),
		DamagedBuildings: DamagedBuildingsSummary{Count: len(damaged)},
	}

	return Result{Summary: report, DamagedBuildings: damaged, Regions: regions}, err
}
