package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCoordinateUnmarshal(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{`50.4501`, 50.4501, false},
		{`"30.5234"`, 30.5234, false},
		{`" 36.23 "`, 36.23, false},
		{`"-12"`, -12, false},
		{`"abc"`, 0, true},
		{`""`, 0, true},
		{`"NaN"`, 0, true},
		{`true`, 0, true},
	}

	for _, tt := range tests {
		var c Coordinate
		err := json.Unmarshal([]byte(tt.input), &c)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidCoordinate) {
				t.Errorf("%s: expected ErrInvalidCoordinate, got %v", tt.input, err)
			}
			continue
		}
		if err != nil || float64(c) != tt.want {
			t.Errorf("%s: got %v, %v; expected %v", tt.input, c, err, tt.want)
		}
	}
}

func TestCoordinateNullLeavesPointerNil(t *testing.T) {
	var inc Incident
	if err := json.Unmarshal([]byte(`{"id": "A1", "latitude": null, "longitude": "36.2"}`), &inc); err != nil {
		t.Fatal(err)
	}
	if inc.Latitude != nil {
		t.Errorf("expected nil latitude, got %v", *inc.Latitude)
	}
	if _, _, ok := inc.Coordinates(); ok {
		t.Error("expected incomplete coordinates")
	}
}

func TestCoordinateMarshalsAsNumber(t *testing.T) {
	data, err := json.Marshal(Tender{TenderID: "UA-1", Latitude: NewCoordinate(49.99), Longitude: NewCoordinate(36.23)})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"tender_id":"UA-1","latitude":49.99,"longitude":36.23}`
	if string(data) != want {
		t.Errorf("got %s, expected %s", data, want)
	}
}

func TestCustomerIsEmpty(t *testing.T) {
	var nilCustomer *Customer
	if !nilCustomer.IsEmpty() || !(&Customer{}).IsEmpty() {
		t.Error("expected nil and zero customers to be empty")
	}
	if (&Customer{Name: "Рада"}).IsEmpty() {
		t.Error("expected named customer to be non-empty")
	}
}

func TestIncidentHasImpact(t *testing.T) {
	inc := Incident{Impact: []string{"Residential", "Healthcare"}}
	if !inc.HasImpact("Residential") || inc.HasImpact("Industrial") {
		t.Errorf("unexpected HasImpact result for %v", inc.Impact)
	}
}

func TestParsedDate(t *testing.T) {
	if d, ok := (CleanedIncident{Date: "2023-06-07"}).ParsedDate(); !ok || d.Day() != 7 {
		t.Errorf("expected 2023-06-07, got %v %v", d, ok)
	}
	if _, ok := (CleanedIncident{Date: "07.06.2023"}).ParsedDate(); ok {
		t.Error("expected non-ISO date to be rejected")
	}
}
