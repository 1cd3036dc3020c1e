package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending           OrderStatus = "pending"
	OrderPaymentProcessing OrderStatus = "payment_processing"
	OrderPaid              OrderStatus = "paid"
	OrderPaymentFailed     OrderStatus = "payment_failed"
	OrderFulfilled         OrderStatus = "fulfilled"
	OrderShipped           OrderStatus = "shipped"
	OrderCancelled         OrderStatus = "cancelled"
)

type PaymentRail string

const (
	RailCard   PaymentRail = "card"
	RailCrypto PaymentRail = "crypto"
)

type MintState string

const (
	MintNone    MintState = "none"
	MintPending MintState = "pending"
	MintDone    MintState = "minted"
)

type Order struct {
	ID        string
	BuyerID   string
	SellerID  string
	ProductID string

	Rail            PaymentRail
	ShippingRateID  string
	ShippingAddress ShippingAddress
	ShippingCost    decimal.Decimal
	// Total = product price + shipping cost, fixed at creation and never
	// recomputed.
	Total    decimal.Decimal
	Currency string

	Status        OrderStatus
	FailureReason string

	PaymentIntentID string
	TxHash          string
	TrackingNumber  string

	MintState MintState

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPayment reports whether a successful payment is on record.
func (o Order) HasPayment() bool {
	switch o.Status {
	case OrderPaid, OrderFulfilled, OrderShipped:
		return true
	}
	return false
}

// Payable reports whether a payment attempt may start.
func (o Order) Payable() bool {
	return o.Status == OrderPending || o.Status == OrderPaymentFailed
}

// TotalMinorUnits returns the total in the currency's minor units (cents).
func (o Order) TotalMinorUnits() int64 {
	return o.Total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// OrderEvent is published to the audit topic on every lifecycle transition.
type OrderEvent struct {
	OrderID    string      `json:"order_id"`
	Status     OrderStatus `json:"status"`
	Rail       PaymentRail `json:"rail,omitempty"`
	Total      string      `json:"total"`
	Currency   string      `json:"currency"`
	OccurredAt time.Time   `json:"occurred_at"`
}
