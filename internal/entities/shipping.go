package entities

import "github.com/shopspring/decimal"

// ShippingAddress is a pure value type, stored on the order as it was at
// purchase time.
type ShippingAddress struct {
	Name    string
	Street1 string
	Street2 string
	City    string
	State   string
	ZIP     string
	Country string
}

// RateOption is a provider-quoted shipping rate. RateID is opaque and
// time-limited: the provider may reject it at label-purchase time.
type RateOption struct {
	RateID        string
	Provider      string
	ServiceLevel  string
	Amount        decimal.Decimal
	Currency      string
	EstimatedDays int
}

type ShippingLabel struct {
	TrackingNumber string
	LabelURL       string
	TrackingURL    string
}
