package entities

import "time"

// MintRecord is created exactly once per order, after payment succeeded.
type MintRecord struct {
	OrderID         string
	TokenID         int64
	ContractAddress string
	OwnerAddress    string
	MetadataURI     string
	CID             string
	TxHash          string
	CreatedAt       time.Time
}

// PaymentProof is the rail-specific evidence a client submits with a payment
// attempt: a confirmed payment intent for card, a transaction hash plus payer
// wallet for crypto.
type PaymentProof struct {
	IntentID     string
	TxHash       string
	PayerAddress string
}
