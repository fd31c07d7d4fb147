package models

// Tender is one procurement record as extracted from a tender detail page.
// Optional sections are pointers so an absent section and an empty one stay
// distinguishable after a JSON round trip.
type Tender struct {
	TenderID        string        `json:"tender_id,omitempty"`
	TenderHash      string        `json:"tender_hash,omitempty"`
	Title           string        `json:"title,omitempty"`
	Status          string        `json:"status,omitempty"`
	ProcurementType string        `json:"procurement_type,omitempty"`
	ExpectedCost    *Money        `json:"expected_cost,omitempty"`
	Customer        *Customer     `json:"customer,omitempty"`
	Subject         *Subject      `json:"subject,omitempty"`
	Awards          []Award       `json:"awards,omitempty"`
	Dates           *TenderDates  `json:"dates,omitempty"`
	Documents       []Document    `json:"documents,omitempty"`
	Location        *Location     `json:"location,omitempty"`
	Latitude        *Coordinate   `json:"latitude,omitempty"`
	Longitude       *Coordinate   `json:"longitude,omitempty"`
	BellingcatItems []Incident    `json:"bellingcat_items,omitempty"`
}

type Money struct {
	Amount   *float64 `json:"amount,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

type Customer struct {
	Name         string `json:"name,omitempty"`
	EDRPOU       string `json:"edrpou,omitempty"`
	Location     string `json:"location,omitempty"`
	Region       string `json:"region,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	Category     string `json:"category,omitempty"`
}

// IsEmpty reports whether no customer field was extracted.
func (c *Customer) IsEmpty() bool {
	return c == nil || *c == Customer{}
}

type Subject struct {
	Type             string `json:"type,omitempty"`
	ClassifierCode   string `json:"classifier_code,omitempty"`
	ClassifierName   string `json:"classifier_name,omitempty"`
	DeliveryPlace    string `json:"delivery_place,omitempty"`
	DeliveryDeadline string `json:"delivery_deadline,omitempty"`
	Description      string `json:"description,omitempty"`
	Quantity         string `json:"quantity,omitempty"`
}

type Award struct {
	ParticipantName   string   `json:"participant_name,omitempty"`
	ParticipantEDRPOU string   `json:"participant_edrpou,omitempty"`
	Decision          string   `json:"decision"`
	BidAmount         *float64 `json:"bid_amount,omitempty"`
	BidCurrency       string   `json:"bid_currency,omitempty"`
	PublicationDate   string   `json:"publication_date,omitempty"`
}

type TenderDates struct {
	PublicationDate string `json:"publication_date,omitempty"`
}

type Document struct {
	Date  string `json:"date,omitempty"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

type Location struct {
	Region     string `json:"region,omitempty"`
	Locality   string `json:"locality,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// Amount returns the expected cost amount and whether it was present.
func (t Tender) Amount() (float64, bool) {
	if t.ExpectedCost == nil || t.ExpectedCost.Amount == nil {
		return 0, false
	}
	return *t.ExpectedCost.Amount, true
}

// Coordinates returns latitude and longitude when both are present.
func (t Tender) Coordinates() (lat, lon float64, ok bool) {
	if t.Latitude == nil || t.Longitude == nil {
		return 0, 0, false
	}
	return float64(*t.Latitude), float64(*t.Longitude), true
}

// CleanedTender is the published tender shape.
type CleanedTender struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Status          string    `json:"status"`
	ExpectedCostUAH *float64  `json:"expected_cost_uah"`
	Customer        *Customer `json:"customer"`
	Awards          []Award   `json:"awards"`
}
