package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/craftchain/marketplace-service/internal/entities"
	"github.com/craftchain/marketplace-service/internal/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderRepo interface {
	CreateOrder(ctx context.Context, o entities.Order) error
	GetOrderByID(ctx context.Context, id string) (entities.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]entities.Order, error)

	// Conditional status transitions. All return entities.ErrInvalidState
	// when the order is not in the expected source state.
	BeginPayment(ctx context.Context, id string, rail entities.PaymentRail) error
	SetPaid(ctx context.Context, id string, proof entities.PaymentProof) error
	SetPaymentFailed(ctx context.Context, id, reason string) error
	RevertPayment(ctx context.Context, id string, prev entities.OrderStatus) error
	SetFulfilled(ctx context.Context, id string) error
	SetShipped(ctx context.Context, id, trackingNumber string) error
}

type ProductGetter interface {
	GetProductByID(ctx context.Context, id string) (entities.Product, error)
}

type IntentCreator interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (payment.IntentRef, error)
}

type Rail interface {
	Charge(ctx context.Context, order entities.Order, proof entities.PaymentProof) (string, error)
}

type MintIssuer interface {
	IssueMint(ctx context.Context, orderID, ownerAddress string) (entities.MintRecord, error)
}

type LabelPurchaser interface {
	PurchaseLabel(ctx context.Context, rateID string) (entities.ShippingLabel, error)
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, evt entities.OrderEvent) error
}

// orderService owns the order lifecycle: it is the only writer of the status
// column, and every transition goes through a conditional update so that
// concurrent requests cannot both succeed.
type orderService struct {
	logger   *slog.Logger
	repo     OrderRepo
	products ProductGetter
	intents  IntentCreator
	rails    map[entities.PaymentRail]Rail
	minter   MintIssuer
	labels   LabelPurchaser
	events   EventPublisher
}

func NewOrderService(
	logger *slog.Logger,
	repo OrderRepo,
	products ProductGetter,
	intents IntentCreator,
	rails map[entities.PaymentRail]Rail,
	minter MintIssuer,
	labels LabelPurchaser,
	events EventPublisher,
) *orderService {
	return &orderService{
		logger:   logger.With(slog.String("service", "order")),
		repo:     repo,
		products: products,
		intents:  intents,
		rails:    rails,
		minter:   minter,
		labels:   labels,
		events:   events,
	}
}

type CreateOrderInput struct {
	BuyerID      string
	ProductID    string
	RateID       string
	ShippingCost decimal.Decimal
	Address      entities.ShippingAddress
	Rail         entities.PaymentRail
}

type CreateOrderResult struct {
	Order entities.Order
	// ClientSecret confirms the card payment intent in the browser. Empty
	// for the crypto rail. Never persisted.
	ClientSecret string
}

// CreateOrder persists a pending order with total = product price + shipping
// cost, fixed here and never recomputed. The shipping cost is trusted to
// match an earlier quote; the rate id is only validated by the provider when
// a label is purchased.
func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (CreateOrderResult, error) {
	product, err := s.products.GetProductByID(ctx, in.ProductID)
	if err != nil {
		return CreateOrderResult{}, err
	}

	now := time.Now()
	order := entities.Order{
		ID:              uuid.NewString(),
		BuyerID:         in.BuyerID,
		SellerID:        product.SellerID,
		ProductID:       product.ID,
		Rail:            in.Rail,
		ShippingRateID:  in.RateID,
		ShippingAddress: in.Address,
		ShippingCost:    in.ShippingCost,
		Total:           product.Price.Add(in.ShippingCost),
		Currency:        product.Currency,
		Status:          entities.OrderPending,
		MintState:       entities.MintNone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var clientSecret string
	if in.Rail == entities.RailCard {
		// One intent per order, created here and reused by every payment
		// attempt.
		ref, err := s.intents.CreateIntent(ctx, order.TotalMinorUnits(), order.Currency, map[string]string{
			"order_id":   order.ID,
			"product_id": product.ID,
			"buyer_id":   in.BuyerID,
		})
		if err != nil {
			return CreateOrderResult{}, err
		}
		order.PaymentIntentID = ref.ID
		clientSecret = ref.ClientSecret
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return CreateOrderResult{}, err
	}

	s.publishEvent(ctx, order)
	s.logger.Info("order created",
		slog.String("order_id", order.ID),
		slog.String("product_id", product.ID),
		slog.String("total", order.Total.String()),
	)

	ordersCreated.Inc()
	return CreateOrderResult{Order: order, ClientSecret: clientSecret}, nil
}

// AttemptPayment settles an order over one rail. The conditional move to
// payment_processing is the gate: of two concurrent attempts exactly one
// proceeds to the provider. A provider-level failure that is not a definitive
// decline returns the order to its prior state so the attempt stays
// retryable; a decline parks it in payment_failed, from where a later attempt
// (same or different rail) is allowed.
func (s *orderService) AttemptPayment(ctx context.Context, orderID string, railName entities.PaymentRail, proof entities.PaymentProof) (entities.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if !order.Payable() {
		return entities.Order{}, entities.ErrInvalidState
	}

	rail, ok := s.rails[railName]
	if !ok {
		return entities.Order{}, fmt.Errorf("unsupported payment rail %q", railName)
	}

	prev := order.Status
	if err := s.repo.BeginPayment(ctx, orderID, railName); err != nil {
		return entities.Order{}, err
	}
	order.Rail = railName

	providerRef, chargeErr := rail.Charge(ctx, order, proof)
	if chargeErr != nil {
		return s.handleChargeFailure(ctx, order, prev, chargeErr)
	}

	paidProof := entities.PaymentProof{}
	switch railName {
	case entities.RailCard:
		paidProof.IntentID = providerRef
	case entities.RailCrypto:
		paidProof.TxHash = providerRef
	}

	if err := s.repo.SetPaid(ctx, orderID, paidProof); err != nil {
		// Paid at the provider but the transition lost: surface for manual
		// reconciliation rather than guessing.
		s.logger.Error("payment captured but order not marked paid",
			slog.String("order_id", orderID),
			slog.String("provider_ref", providerRef),
			slog.Any("error", err),
		)
		return entities.Order{}, fmt.Errorf("%w: captured as %s", entities.ErrPaymentProvider, providerRef)
	}

	paymentsTotal.WithLabelValues(string(railName), "success").Inc()
	s.logger.Info("order paid",
		slog.String("order_id", orderID),
		slog.String("rail", string(railName)),
		slog.String("provider_ref", providerRef),
	)

	order, err = s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	s.publishEvent(ctx, order)

	return s.finalizePaid(ctx, order, proof)
}

func (s *orderService) handleChargeFailure(ctx context.Context, order entities.Order, prev entities.OrderStatus, chargeErr error) (entities.Order, error) {
	declined := errors.Is(chargeErr, entities.ErrPaymentDeclined) ||
		errors.Is(chargeErr, entities.ErrAmountMismatch)

	if declined {
		paymentsTotal.WithLabelValues(string(order.Rail), "declined").Inc()
		if err := s.repo.SetPaymentFailed(ctx, order.ID, chargeErr.Error()); err != nil {
			s.logger.Error("failed to record payment failure",
				slog.String("order_id", order.ID), slog.Any("error", err))
		}
	} else {
		paymentsTotal.WithLabelValues(string(order.Rail), "error").Inc()
		if err := s.repo.RevertPayment(ctx, order.ID, prev); err != nil {
			s.logger.Error("failed to revert payment state",
				slog.String("order_id", order.ID), slog.Any("error", err))
		}
	}

	s.logger.Warn("payment attempt failed",
		slog.String("order_id", order.ID),
		slog.String("rail", string(order.Rail)),
		slog.Any("error", chargeErr),
	)

	updated, err := s.repo.GetOrderByID(ctx, order.ID)
	if err == nil {
		order = updated
		s.publishEvent(ctx, order)
	}
	return order, chargeErr
}

// finalizePaid runs the post-payment step: mint when the product requires it
// and the order settled over crypto, then mark the order fulfilled. Payment
// success is final; a mint failure leaves the order paid with the mint
// retryable.
func (s *orderService) finalizePaid(ctx context.Context, order entities.Order, proof entities.PaymentProof) (entities.Order, error) {
	product, err := s.products.GetProductByID(ctx, order.ProductID)
	if err != nil {
		s.logger.Error("failed to load product after payment",
			slog.String("order_id", order.ID), slog.Any("error", err))
		return order, nil
	}

	mintRequired := product.NFTEnabled && order.Rail == entities.RailCrypto
	if mintRequired {
		if _, err := s.minter.IssueMint(ctx, order.ID, proof.PayerAddress); err != nil {
			s.logger.Error("mint failed after payment",
				slog.String("order_id", order.ID), slog.Any("error", err))
			return order, nil
		}
	}

	if err := s.repo.SetFulfilled(ctx, order.ID); err != nil {
		s.logger.Error("failed to mark order fulfilled",
			slog.String("order_id", order.ID), slog.Any("error", err))
		return order, nil
	}

	order, err = s.repo.GetOrderByID(ctx, order.ID)
	if err != nil {
		return entities.Order{}, err
	}
	s.publishEvent(ctx, order)
	return order, nil
}

// MarkShipped purchases a label for the quoted rate and records the tracking
// number. Only orders with a successful payment on record can ship.
func (s *orderService) MarkShipped(ctx context.Context, orderID string) (entities.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if order.Status != entities.OrderPaid && order.Status != entities.OrderFulfilled {
		return entities.Order{}, entities.ErrInvalidState
	}

	label, err := s.labels.PurchaseLabel(ctx, order.ShippingRateID)
	if err != nil {
		return entities.Order{}, err
	}

	if err := s.repo.SetShipped(ctx, orderID, label.TrackingNumber); err != nil {
		return entities.Order{}, err
	}

	s.logger.Info("order shipped",
		slog.String("order_id", orderID),
		slog.String("tracking_number", label.TrackingNumber),
	)

	order, err = s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	s.publishEvent(ctx, order)
	return order, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, id string) (entities.Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

func (s *orderService) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]entities.Order, error) {
	return s.repo.ListOrdersByBuyer(ctx, buyerID)
}

func (s *orderService) publishEvent(ctx context.Context, order entities.Order) {
	evt := entities.OrderEvent{
		OrderID:    order.ID,
		Status:     order.Status,
		Rail:       order.Rail,
		Total:      order.Total.String(),
		Currency:   order.Currency,
		OccurredAt: time.Now(),
	}
	if err := s.events.PublishOrderEvent(ctx, evt); err != nil {
		// The audit stream is best effort from the request's point of view.
		s.logger.Error("failed to publish order event",
			slog.String("order_id", order.ID), slog.Any("error", err))
	}
}
