package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/craftchain/marketplace-service/internal/entities"

	"github.com/stripe/stripe-go/v76"
)

// StripeIntents is the slice of the Stripe API the card rail needs.
type StripeIntents interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type CardRail struct {
	logger  *slog.Logger
	intents StripeIntents
}

func NewCardRail(logger *slog.Logger, intents StripeIntents) *CardRail {
	return &CardRail{
		logger:  logger.With(slog.String("rail", "card")),
		intents: intents,
	}
}

// CreateIntent creates exactly one payment intent for an order. The intent id
// is stored on the order at creation; Charge later accepts only that id.
func (r *CardRail) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (IntentRef, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(currency)),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := r.intents.New(params)
	if err != nil {
		return IntentRef{}, classifyStripeErr(err)
	}

	return IntentRef{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// Charge verifies that the referenced intent was captured for the exact order
// total and currency. The client confirms the intent in the browser; the
// provider is the authority on whether money actually moved.
func (r *CardRail) Charge(ctx context.Context, order entities.Order, proof entities.PaymentProof) (string, error) {
	if proof.IntentID == "" {
		return "", fmt.Errorf("%w: missing payment intent reference", entities.ErrPaymentDeclined)
	}
	if order.PaymentIntentID != "" && proof.IntentID != order.PaymentIntentID {
		return "", fmt.Errorf("%w: intent does not belong to this order", entities.ErrPaymentDeclined)
	}

	pi, err := r.intents.Get(proof.IntentID, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return "", classifyStripeErr(err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
	case stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusCanceled:
		return "", fmt.Errorf("%w: intent status %s", entities.ErrPaymentDeclined, pi.Status)
	default:
		// Still settling (processing, requires_action, ...): retryable.
		return "", fmt.Errorf("%w: intent status %s", entities.ErrPaymentProvider, pi.Status)
	}

	if pi.Amount != order.TotalMinorUnits() || !strings.EqualFold(string(pi.Currency), order.Currency) {
		r.logger.Warn("intent amount mismatch",
			slog.String("order_id", order.ID),
			slog.String("intent_id", pi.ID),
			slog.Int64("intent_amount", pi.Amount),
			slog.Int64("order_amount", order.TotalMinorUnits()),
		)
		return "", fmt.Errorf("%w: intent %s", entities.ErrAmountMismatch, pi.ID)
	}

	return pi.ID, nil
}

func classifyStripeErr(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: unknown payment intent", entities.ErrPaymentDeclined)
		}
		if stripeErr.Type == stripe.ErrorTypeCard {
			return fmt.Errorf("%w: %s", entities.ErrPaymentDeclined, stripeErr.Code)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: stripe", entities.ErrTimeout)
	}
	return fmt.Errorf("%w: %v", entities.ErrPaymentProvider, err)
}
