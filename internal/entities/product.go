package entities

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/shopspring/decimal"
)

// Dimensions are inches and pounds, matching what the shipping provider
// expects for parcels.
type Dimensions struct {
	Length float64
	Width  float64
	Height float64
	Weight float64
}

func (d Dimensions) Positive() bool {
	return d.Length > 0 && d.Width > 0 && d.Height > 0 && d.Weight > 0
}

type Product struct {
	ID          string
	SellerID    string
	Title       string
	Description string
	Category    string
	Price       decimal.Decimal
	Currency    string
	NFTEnabled  bool
	Images      []string
	Dimensions  Dimensions
	// ShipFrom is nil until the seller configures an origin address.
	ShipFrom  *ShippingAddress
	CreatedAt time.Time
}

func (p *Product) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Product) Unmarshal(data []byte) error {
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	return dec.Decode(p)
}

func init() {
	gob.Register(Product{})
	gob.Register(ShippingAddress{})
}
