package analysis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/david/tender-tracker/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestSummarizeEmptyCorpus(t *testing.T) {
	res, err := Summarize(context.Background(), nil, NewKeywordClassifier(nil), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := res.Summary
	if s.TenderCount != 0 || s.Values.Average != 0 || s.Values.Min != 0 || s.Values.Max != 0 {
		t.Fatalf("non-zero stats on empty corpus: %+v", s)
	}
	if len(s.Regions) != 0 || len(s.Categories) != 0 || len(s.TopSuppliers) != 0 || len(s.TopCustomers) != 0 {
		t.Fatalf("expected empty mappings, got %+v", s)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["regions"].(map[string]any); !ok {
		t.Errorf("regions should encode as an object, got %s", data)
	}
}

func TestSuppliersWinnerOnly(t *testing.T) {
	tenders := []models.Tender{{
		TenderID: "UA-2023-01-01-000001-a",
		Awards: []models.Award{
			{ParticipantName: "Acme", Decision: "Переможець", BidAmount: ptr(1000), BidCurrency: "UAH"},
			{ParticipantName: "Acme", Decision: "Дискваліфікований", BidAmount: ptr(5000), BidCurrency: "UAH"},
		},
	}}

	got := Suppliers(tenders)
	want := map[string]PartyStats{
		"Acme": {
			Name:        "Acme",
			TenderCount: 1,
			TotalValue:  1000,
			Currencies:  []string{"UAH"},
			TenderIDs:   []string{"UA-2023-01-01-000001-a"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Suppliers mismatch (-want +got):\n%s", diff)
	}
}

func TestSuppliersMissingCurrency(t *testing.T) {
	tenders := []models.Tender{
		{TenderID: "T1", Awards: []models.Award{{ParticipantName: "Acme", Decision: WinnerDecision, BidAmount: ptr(700)}}},
		{TenderID: "T1", Awards: []models.Award{{ParticipantName: "Acme", Decision: WinnerDecision, BidAmount: ptr(300), BidCurrency: "UAH"}}},
	}
	s := Suppliers(tenders)["Acme"]
	if s.TenderCount != 2 || s.TotalValue != 300 || len(s.TenderIDs) != 1 {
		t.Fatalf("unexpected rollup %+v", s)
	}
}

func TestValuesDates(t *testing.T) {
	tenders := []models.Tender{
		{ExpectedCost: &models.Money{Amount: ptr(100)}, Dates: &models.TenderDates{PublicationDate: "01.01.2023"}},
		{ExpectedCost: &models.Money{Amount: ptr(50)}, Dates: &models.TenderDates{PublicationDate: "07 червня 2023"}},
		{ExpectedCost: &models.Money{Amount: ptr(25)}, Dates: &models.TenderDates{PublicationDate: "2023/01/01"}},
		{ExpectedCost: &models.Money{Amount: ptr(10)}, Subject: &models.Subject{ClassifierName: "Будівельні роботи"}},
		{Title: "no amount", Dates: &models.TenderDates{PublicationDate: "01.02.2023"}},
	}

	v := Values(tenders)
	if v.Total != 185 || v.Count != 4 {
		t.Fatalf("total=%v count=%d, want 185/4", v.Total, v.Count)
	}
	if v.Min != 10 || v.Max != 100 || v.Average != 46.25 {
		t.Errorf("min=%v max=%v avg=%v", v.Min, v.Max, v.Average)
	}
	if diff := cmp.Diff(map[string]float64{"2023": 150}, v.ByYear); diff != "" {
		t.Errorf("ByYear (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]float64{"2023-01": 100, "2023-06": 50}, v.ByMonth); diff != "" {
		t.Errorf("ByMonth (-want +got):\n%s", diff)
	}
	if v.ByCategory["Будівельні роботи"] != 10 {
		t.Errorf("ByCategory = %v", v.ByCategory)
	}
}

func TestRegionsPriority(t *testing.T) {
	tenders := []models.Tender{
		{Location: &models.Location{Region: "Харківська область"}, Customer: &models.Customer{Region: "Київська обл."}},
		{Customer: &models.Customer{Region: "Харківська обл."}},
		{Subject: &models.Subject{DeliveryPlace: "61000, Україна, Харківська область, Харків"}},
		{Subject: &models.Subject{DeliveryPlace: "невідомо"}},
	}
	want := map[string]int{"Харківська область": 2, "Харківська обл.": 1}
	if diff := cmp.Diff(want, Regions(tenders)); diff != "" {
		t.Errorf("Regions (-want +got):\n%s", diff)
	}
}

func TestCustomersAndTop(t *testing.T) {
	tenders := []models.Tender{
		{TenderID: "T1", Customer: &models.Customer{Name: "B", EDRPOU: "1"}, ExpectedCost: &models.Money{Amount: ptr(100)}},
		{TenderID: "T2", Customer: &models.Customer{Name: "B", EDRPOU: "2", Region: "Харківська обл."}, ExpectedCost: &models.Money{Amount: ptr(50), Currency: "USD"}},
		{TenderID: "T3", Customer: &models.Customer{Name: "A"}, ExpectedCost: &models.Money{Amount: ptr(150)}},
		{TenderID: "T4", Customer: &models.Customer{Name: "C"}},
	}

	c := Customers(tenders)
	b := c["B"]
	if b.TotalValue != 150 || b.EDRPOU != "1" || b.Region != "Харківська обл." {
		t.Errorf("B rollup = %+v", b)
	}
	if diff := cmp.Diff([]string{"UAH", "USD"}, b.Currencies); diff != "" {
		t.Errorf("B currencies (-want +got):\n%s", diff)
	}

	top := Top(c, 2)
	if len(top) != 2 || top[0].Name != "A" || top[1].Name != "B" {
		t.Fatalf("Top = %+v, want A then B (tie broken by name)", top)
	}

	many := map[string]PartyStats{}
	for i := 0; i < 15; i++ {
		name := string(rune('a' + i))
		many[name] = PartyStats{Name: name, TotalValue: float64(i)}
	}
	if got := Top(many, DefaultTopN); len(got) != 10 || got[0].TotalValue != 14 {
		t.Fatalf("Top 10 = %+v", got)
	}
}
