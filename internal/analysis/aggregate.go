// Package analysis aggregates a tender corpus into summary reports.
package analysis

import (
	"sort"

	"github.com/david/tender-tracker/internal/ingest"
	"github.com/david/tender-tracker/internal/models"
)

const (
	// WinnerDecision is the award decision label of a winning bid.
	WinnerDecision = "Переможець"
	// DefaultCurrency is assumed when a record names none.
	DefaultCurrency = "UAH"
	// DefaultTopN bounds the supplier and customer rollups.
	DefaultTopN = 10
)

// ValueStats summarizes expected-cost amounts. Only tenders with an amount
// contribute.
type ValueStats struct {
	Total      float64            `json:"total"`
	Count      int                `json:"count"`
	Average    float64            `json:"average"`
	Min        float64            `json:"min"`
	Max        float64            `json:"max"`
	Currency   string             `json:"currency"`
	ByYear     map[string]float64 `json:"by_year"`
	ByMonth    map[string]float64 `json:"by_month"`
	ByCategory map[string]float64 `json:"by_category"`
}

// PartyStats is the rollup for one supplier or customer.
type PartyStats struct {
	Name        string   `json:"name"`
	TenderCount int      `json:"tender_count"`
	TotalValue  float64  `json:"total_value"`
	Currencies  []string `json:"currencies"`
	TenderIDs   []string `json:"tender_ids"`
	EDRPOU      string   `json:"edrpou,omitempty"`
	Region      string   `json:"region,omitempty"`
}

// partyAcc accumulates a PartyStats with set semantics for currencies and ids.
type partyAcc struct {
	stats      PartyStats
	currencies map[string]struct{}
	tenderIDs  map[string]struct{}
}

func newPartyAcc(name string) *partyAcc {
	return &partyAcc{
		stats:      PartyStats{Name: name},
		currencies: map[string]struct{}{},
		tenderIDs:  map[string]struct{}{},
	}
}

func (a *partyAcc) result() PartyStats {
	s := a.stats
	s.Currencies = sortedKeys(a.currencies)
	s.TenderIDs = sortedKeys(a.tenderIDs)
	return s
}

// Region returns the tender's region: location.region, then customer.region,
// then a pattern match on the delivery place.
func Region(t models.Tender) string {
	if t.Location != nil && t.Location.Region != "" {
		return t.Location.Region
	}
	if t.Customer != nil && t.Customer.Region != "" {
		return t.Customer.Region
	}
	if t.Subject != nil && t.Subject.DeliveryPlace != "" {
		return ingest.RegionFromDeliveryPlace(t.Subject.DeliveryPlace)
	}
	return ""
}

// Regions counts tenders per region. Tenders with no derivable region are
// not counted.
func Regions(tenders []models.Tender) map[string]int {
	out := map[string]int{}
	for _, t := range tenders {
		if r := Region(t); r != "" {
			out[r]++
		}
	}
	return out
}

// ProcurementTypes counts tenders per procurement procedure.
func ProcurementTypes(tenders []models.Tender) map[string]int {
	out := map[string]int{}
	for _, t := range tenders {
		if t.ProcurementType != "" {
			out[t.ProcurementType]++
		}
	}
	return out
}

// Categories counts tenders per classifier name.
func Categories(tenders []models.Tender) map[string]int {
	out := map[string]int{}
	for _, t := range tenders {
		if t.Subject != nil && t.Subject.ClassifierName != "" {
			out[t.Subject.ClassifierName]++
		}
	}
	return out
}

// Values computes expected-cost statistics. Unparseable publication dates
// still count toward the total but not toward by_year/by_month.
func Values(tenders []models.Tender) ValueStats {
	v := ValueStats{
		Currency:   DefaultCurrency,
		ByYear:     map[string]float64{},
		ByMonth:    map[string]float64{},
		ByCategory: map[string]float64{},
	}

	for _, t := range tenders {
		amount, ok := t.Amount()
		if !ok {
			continue
		}
		if v.Count == 0 || amount < v.Min {
			v.Min = amount
		}
		if v.Count == 0 || amount > v.Max {
			v.Max = amount
		}
		v.Total += amount
		v.Count++

		if t.Dates != nil {
			if d, ok := ParsePublicationDate(t.Dates.PublicationDate); ok {
				v.ByYear[d.Format("2006")] += amount
				v.ByMonth[d.Format("2006-01")] += amount
			}
		}
		if t.Subject != nil && t.Subject.ClassifierName != "" {
			v.ByCategory[t.Subject.ClassifierName] += amount
		}
	}

	if v.Count > 0 {
		v.Average = v.Total / float64(v.Count)
	}
	return v
}

// Suppliers rolls up winning awards per participant. Bid amounts are summed
// only when both amount and currency are present.
func Suppliers(tenders []models.Tender) map[string]PartyStats {
	accs := map[string]*partyAcc{}
	for _, t := range tenders {
		for _, a := range t.Awards {
			if a.ParticipantName == "" || a.Decision != WinnerDecision {
				continue
			}
			acc, ok := accs[a.ParticipantName]
			if !ok {
				acc = newPartyAcc(a.ParticipantName)
				accs[a.ParticipantName] = acc
			}
			acc.stats.TenderCount++
			if t.TenderID != "" {
				acc.tenderIDs[t.TenderID] = struct{}{}
			}
			if a.BidAmount != nil && a.BidCurrency != "" {
				acc.stats.TotalValue += *a.BidAmount
				acc.currencies[a.BidCurrency] = struct{}{}
			}
		}
	}
	return results(accs)
}

// Customers rolls up tenders per procuring entity, summing expected costs.
// The first non-empty EDRPOU and region seen for a name are kept.
func Customers(tenders []models.Tender) map[string]PartyStats {
	accs := map[string]*partyAcc{}
	for _, t := range tenders {
		if t.Customer == nil || t.Customer.Name == "" {
			continue
		}
		name := t.Customer.Name
		acc, ok := accs[name]
		if !ok {
			acc = newPartyAcc(name)
			accs[name] = acc
		}
		acc.stats.TenderCount++
		if t.TenderID != "" {
			acc.tenderIDs[t.TenderID] = struct{}{}
		}
		if t.ExpectedCost != nil {
			if t.ExpectedCost.Amount != nil {
				acc.stats.TotalValue += *t.ExpectedCost.Amount
			}
			currency := t.ExpectedCost.Currency
			if currency == "" {
				currency = DefaultCurrency
			}
			acc.currencies[currency] = struct{}{}
		}
		if acc.stats.EDRPOU == "" {
			acc.stats.EDRPOU = t.Customer.EDRPOU
		}
		if acc.stats.Region == "" {
			acc.stats.Region = t.Customer.Region
		}
	}
	return results(accs)
}

// Top returns the n parties with the largest total value, ties broken by name.
func Top(parties map[string]PartyStats, n int) []PartyStats {
	out := make([]PartyStats, 0, len(parties))
	for _, p := range parties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalValue != out[j].TotalValue {
			return out[i].TotalValue > out[j].TotalValue
		}
		return out[i].Name < out[j].Name
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func TopSuppliers(tenders []models.Tender, n int) []PartyStats {
	return Top(Suppliers(tenders), n)
}

func TopCustomers(tenders []models.Tender, n int) []PartyStats {
	return Top(Customers(tenders), n)
}

func results(accs map[string]*partyAcc) map[string]PartyStats {
	out := make(map[string]PartyStats, len(accs))
	for name, acc := range accs {
		out[name] = acc.result()
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
