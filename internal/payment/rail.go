package payment

import (
	"context"

	"github.com/craftchain/marketplace-service/internal/entities"
)

// Rail settles an order over one payment mechanism. Implementations verify
// the client-supplied proof against the provider's authoritative state; they
// never trust amounts or references from the request.
//
// Charge returns the provider's reference for the settled payment (payment
// intent id, transaction hash). Failure modes:
//   - entities.ErrPaymentDeclined / entities.ErrAmountMismatch: definitive
//     rail-reported failure, the order moves to payment_failed;
//   - entities.ErrPaymentProvider / entities.ErrTimeout: infrastructure
//     failure, the order stays retryable in its prior state.
type Rail interface {
	Charge(ctx context.Context, order entities.Order, proof entities.PaymentProof) (string, error)
}

// IntentRef identifies a created payment intent. The client secret is handed
// to the browser to confirm the intent; it is never persisted.
type IntentRef struct {
	ID           string
	ClientSecret string
}
