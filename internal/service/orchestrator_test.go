package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/craftchain/marketplace-service/internal/entities"
	"github.com/craftchain/marketplace-service/internal/payment"
	"github.com/craftchain/marketplace-service/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type orderAPI interface {
	CreateOrder(ctx context.Context, in service.CreateOrderInput) (service.CreateOrderResult, error)
	AttemptPayment(ctx context.Context, orderID string, rail entities.PaymentRail, proof entities.PaymentProof) (entities.Order, error)
	MarkShipped(ctx context.Context, orderID string) (entities.Order, error)
}

func newOrderService(
	repo *mockOrderRepo,
	products *mockProductGetter,
	intents *mockIntentCreator,
	card, crypto *mockRail,
	minter *mockMintIssuer,
	labels *mockLabelPurchaser,
	events *mockEventPublisher,
) orderAPI {
	return service.NewOrderService(discardLogger(), repo, products, intents,
		map[entities.PaymentRail]service.Rail{
			entities.RailCard:   card,
			entities.RailCrypto: crypto,
		}, minter, labels, events)
}

var testProduct = entities.Product{
	ID:       "5f7c8b1a-9a1e-4a83-9a57-2a3c5d4e6f70",
	SellerID: "seller-1",
	Title:    "Hand-carved chess set",
	Price:    decimal.RequireFromString("25.00"),
	Currency: "USD",
}

func TestOrderService_CreateOrder(t *testing.T) {
	shipping := decimal.RequireFromString("5.00")

	t.Run("card order totals price plus shipping and gets one intent", func(t *testing.T) {
		repo := new(mockOrderRepo)
		products := new(mockProductGetter)
		intents := new(mockIntentCreator)
		events := new(mockEventPublisher)

		products.On("GetProductByID", mock.Anything, testProduct.ID).Return(testProduct, nil)
		intents.On("CreateIntent", mock.Anything, int64(3000), "USD", mock.Anything).
			Return(payment.IntentRef{ID: "pi_1", ClientSecret: "secret_1"}, nil).Once()
		repo.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o entities.Order) bool {
			return o.Total.Equal(decimal.RequireFromString("30.00")) &&
				o.Status == entities.OrderPending &&
				o.PaymentIntentID == "pi_1"
		})).Return(nil).Once()
		events.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

		svc := newOrderService(repo, products, intents, new(mockRail), new(mockRail), new(mockMintIssuer), new(mockLabelPurchaser), events)

		result, err := svc.CreateOrder(context.Background(), service.CreateOrderInput{
			BuyerID:      "buyer-1",
			ProductID:    testProduct.ID,
			RateID:       "rate-1",
			ShippingCost: shipping,
			Rail:         entities.RailCard,
		})
		require.NoError(t, err)
		assert.Equal(t, "secret_1", result.ClientSecret)
		assert.Equal(t, entities.OrderPending, result.Order.Status)
		repo.AssertExpectations(t)
		intents.AssertExpectations(t)
	})

	t.Run("crypto order skips the intent", func(t *testing.T) {
		repo := new(mockOrderRepo)
		products := new(mockProductGetter)
		intents := new(mockIntentCreator)
		events := new(mockEventPublisher)

		products.On("GetProductByID", mock.Anything, testProduct.ID).Return(testProduct, nil)
		repo.On("CreateOrder", mock.Anything, mock.Anything).Return(nil).Once()
		events.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

		svc := newOrderService(repo, products, intents, new(mockRail), new(mockRail), new(mockMintIssuer), new(mockLabelPurchaser), events)

		result, err := svc.CreateOrder(context.Background(), service.CreateOrderInput{
			BuyerID:      "buyer-1",
			ProductID:    testProduct.ID,
			RateID:       "rate-1",
			ShippingCost: shipping,
			Rail:         entities.RailCrypto,
		})
		require.NoError(t, err)
		assert.Empty(t, result.ClientSecret)
		intents.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown product", func(t *testing.T) {
		repo := new(mockOrderRepo)
		products := new(mockProductGetter)
		products.On("GetProductByID", mock.Anything, "missing").
			Return(entities.Product{}, entities.ErrProductNotFound)

		svc := newOrderService(repo, products, new(mockIntentCreator), new(mockRail), new(mockRail), new(mockMintIssuer), new(mockLabelPurchaser), new(mockEventPublisher))

		_, err := svc.CreateOrder(context.Background(), service.CreateOrderInput{ProductID: "missing"})
		assert.ErrorIs(t, err, entities.ErrProductNotFound)
		repo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})
}

func baseOrder(status entities.OrderStatus) entities.Order {
	return entities.Order{
		ID:              "b3a1c2d4-0e5f-4a6b-8c7d-9e0f1a2b3c4d",
		BuyerID:         "buyer-1",
		SellerID:        "seller-1",
		ProductID:       testProduct.ID,
		Rail:            entities.RailCard,
		ShippingRateID:  "rate-1",
		ShippingCost:    decimal.RequireFromString("5.00"),
		Total:           decimal.RequireFromString("30.00"),
		Currency:        "USD",
		Status:          status,
		PaymentIntentID: "pi_1",
		MintState:       entities.MintNone,
	}
}

func TestOrderService_AttemptPayment(t *testing.T) {
	proof := entities.PaymentProof{IntentID: "pi_1"}

	t.Run("already paid order never reaches the provider", func(t *testing.T) {
		repo := new(mockOrderRepo)
		card := new(mockRail)
		repo.On("GetOrderByID", mock.Anything, mock.Anything).
			Return(baseOrder(entities.OrderPaid), nil).Once()

		svc := newOrderService(repo, new(mockProductGetter), new(mockIntentCreator), card, new(mockRail), new(mockMintIssuer), new(mockLabelPurchaser), new(mockEventPublisher))

		_, err := svc.AttemptPayment(context.Background(), "b3a1c2d4-0e5f-4a6b-8c7d-9e0f1a2b3c4d", entities.RailCard, proof)
		assert.ErrorIs(t, err, entities.ErrInvalidState)
		card.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "BeginPayment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("losing the processing gate stops the attempt", func(t *testing.T) {
		repo := new(mockOrderRepo)
		card := new(mockRail)
		repo.On("GetOrderByID", mock.Anything, mock.Anything).
			Return(baseOrder(entities.OrderPending), nil).Once()
		repo.On("BeginPayment", mock.Anything, mock.Anything, entities.RailCard).
			Return(entities.ErrInvalidState).Once()

		svc := newOrderService(repo, new(mockProductGetter), new(mockIntentCreator), card, new(mockRail), new(mockMintIssuer), new(mockLabelPurchaser), new(mockEventPublisher))

		_, err := svc.AttemptPayment(context.Background(), "b3a1c2d4-0e5f-4a6b-8c7d-9e0f1a2b3c4d", entities.RailCard, proof)
		assert.ErrorIs(t, err, entities.ErrInvalidState)
		card.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("successful card payment fulfills the order without minting", func(t *testing.T) {
		repo := new(mockOrderRepo)
		products := new(mockProductGetter)
		card := new(mockRail)
		minter := new(mockMintIssuer)
		events := new(mockEventPublisher)

		order := baseOrder(entities.OrderPending)
		paid := baseOrder(entities.OrderPaid)
		fulfilled := baseOrder(entities.OrderFulfilled)

		repo.On("GetOrderByID", mock.Anything, order.ID).Return(order, nil).Once()
		repo.On("BeginPayment", mock.Anything, order.ID, entities.RailCard).Return(nil).Once()
		card.On("Charge", mock.Anything, mock.Anything, proof).Return("pi_1", nil).Once()
		repo.On("SetPaid", mock.Anything, order.ID, entities.PaymentProof{IntentID: "pi_1"}).Return(nil).Once()
		repo.On("GetOrderByID", mock.Anything, order.ID).Return(paid, nil).Once()
		products.On("GetProductByID", mock.Anything, testProduct.ID).Return(testProduct, nil)
		repo.On("SetFulfilled", mock.Anything, order.ID).Return(nil).Once()
		repo.On("GetOrderByID", mock.Anything, order.ID).Return(fulfilled, nil).Once()
		events.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

		svc := newOrderService(repo, products, new(mockIntentCreator), card, new(mockRail), minter, new(mockLabelPurchaser), events)

		got, err := svc.AttemptPayment(context.Background(), order.ID, entities.RailCard, proof)
		require.NoError(t, err)
		assert.Equal(t, entities.OrderFulfilled, got.Status)
		minter.AssertNotCalled(t, "IssueMint", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("crypto payment on an nft product issues the mint", func(t *testing.T) {
		repo := new(mockOrderRepo)
		products := new(mockProductGetter)
		crypto := new(mockRail)
		minter := new(mockMintIssuer)
		events := new(mockEventPublisher)

		nftProduct := testProduct
		nftProduct.NFTEnabled = true

		order := baseOrder(entities.OrderPending)
		order.Rail = entities.RailCrypto
		paid := baseOrder(entities.OrderPaid)
		paid.Rail = entities.RailCrypto
		fulfilled := baseOrder(entities.OrderFulfilled)
		fulfilled.Rail = entities.RailCrypto

		cryptoProof := entities.PaymentProof{TxHash: "0xabc", PayerAddress: "0xbuyer"}

		repo.On("GetOrderByID", mock.Anything, order.ID).Return(order, nil).Once()
		repo.On("BeginPayment", mock.Anything, order.ID, entities.RailCrypto).Return(nil).Once()
		crypto.On("Charge", mock.Anything, mock.Anything, cryptoProof).Return("0xabc", nil).Once()
		repo.On("SetPaid", mock.Anything, order.ID, entities.PaymentProof{TxHash: "0xabc"}).Return(nil).Once()
		repo.On("GetOrderByID", mock.Anything, order.ID).Return(paid, nil).Once()
		products.On("GetProductByID", mock.Anything, testProduct.ID).Return(nftProduct, nil)
		minter.On("IssueMint", mock.Anything, order.ID, "0xbuyer").
			Return(entities.MintRecord{OrderID: order.ID, TokenID: 7}, nil).Once()
		repo.On("SetFulfilled", mock.Anything, order.ID).Return(nil).Once()
		repo.On("GetOrderByID", mock.Anything, order.ID).Return(fulfilled, nil).Once()
		events.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

		svc := newOrderService(repo, products, new(mockIntentCreator), new(mockRail), crypto, minter, new(mockLabelPurchaser), events)

		got, err := svc.AttemptPayment(context.Background(), order.ID, entities.RailCrypto, cryptoProof)
		require.NoError(t, err)
		assert.Equal(t, entities.OrderFulfilled, got.Status)
		minter.AssertExpectations(t)
	})

	t.Run("decline parks the order in payment_failed", func(t *testing.T) {
		repo := new(mockOrderRepo)
		card := new(mockRail)
		events := new(mockEventPublisher)

		order := baseOrder(entities.OrderPending)
		failed := baseOrder(entities.OrderPaymentFailed)

		declineErr := entities.ErrPaymentDeclined

		repo.On("GetOrderByID", mock.Anything, order.ID).Return(order, nil).Once()
		repo.On("BeginPayment", mock.Anything, order.ID, entities.RailCard).Return(nil).Once()
		card.On("Charge", mock.Anything, mock.Anything, proof).Return("", declineErr).Once()
		repo.On("SetPaymentFailed", mock.Anything, order.ID, declineErr.Error()).Return(nil).Once()
		repo.On("GetOrderByID", mock.Anything, order.ID).Return(failed, nil).Once()
		events.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

		svc := newOrderService(repo, new(mockProductGetter), new(mockIntentCreator), card, new(mockRail), new(mockMintIssuer), new(mockLabelPurchaser), events)

		got, err := svc.AttemptPayment(context.Background(), order.ID, entities.RailCard, proof)
		assert.ErrorIs(t, err, entities.ErrPaymentDeclined)
		assert.Equal(t, entities.OrderPaymentFailed, got.Status)
		repo.AssertNotCalled(t, "RevertPayment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider error reverts to the prior state", func(t *testing.T) {
		repo := new(mockOrderRepo)
		crypto := new(mockRail)
		events := new(mockEventPublisher)

		order := baseOrder(entities.OrderPaymentFailed)
		order.Rail = entities.RailCrypto
		reverted := baseOrder(entities.OrderPaymentFailed)

		cryptoProof := entities.PaymentProof{TxHash: "0xabc", PayerAddress: "0xbuyer"}
		providerErr := entities.ErrPaymentProvider

		repo.On("GetOrderByID", mock.Anything, order.ID).Return(order, nil).Once()
		repo.On("BeginPayment", mock.Anything, order.ID, entities.RailCrypto).Return(nil).Once()
		crypto.On("Charge", mock.Anything, mock.Anything, cryptoProof).Return("", providerErr).Once()
		repo.On("RevertPayment", mock.Anything, order.ID, entities.OrderPaymentFailed).Return(nil).Once()
		repo.On("GetOrderByID", mock.Anything, order.ID).Return(reverted, nil).Once()
		events.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

		svc := newOrderService(repo, new(mockProductGetter), new(mockIntentCreator), new(mockRail), crypto, new(mockMintIssuer), new(mockLabelPurchaser), events)

		_, err := svc.AttemptPayment(context.Background(), order.ID, entities.RailCrypto, cryptoProof)
		assert.ErrorIs(t, err, entities.ErrPaymentProvider)
		repo.AssertNotCalled(t, "SetPaymentFailed", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("mint failure after payment leaves the order paid", func(t *testing.T) {
		repo := new(mockOrderRepo)
		products := new(mockProductGetter)
		crypto := new(mockRail)
		minter := new(mockMintIssuer)
		events := new(mockEventPublisher)

		nftProduct := testProduct
		nftProduct.NFTEnabled = true

		order := baseOrder(entities.OrderPending)
		order.Rail = entities.RailCrypto
		paid := baseOrder(entities.OrderPaid)
		paid.Rail = entities.RailCrypto

		cryptoProof := entities.PaymentProof{TxHash: "0xabc", PayerAddress: "0xbuyer"}

		repo.On("GetOrderByID", mock.Anything, order.ID).Return(order, nil).Once()
		repo.On("BeginPayment", mock.Anything, order.ID, entities.RailCrypto).Return(nil).Once()
		crypto.On("Charge", mock.Anything, mock.Anything, cryptoProof).Return("0xabc", nil).Once()
		repo.On("SetPaid", mock.Anything, order.ID, mock.Anything).Return(nil).Once()
		repo.On("GetOrderByID", mock.Anything, order.ID).Return(paid, nil).Once()
		products.On("GetProductByID", mock.Anything, testProduct.ID).Return(nftProduct, nil)
		minter.On("IssueMint", mock.Anything, order.ID, "0xbuyer").
			Return(entities.MintRecord{}, entities.ErrMintFailed).Once()
		events.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

		svc := newOrderService(repo, products, new(mockIntentCreator), new(mockRail), crypto, minter, new(mockLabelPurchaser), events)

		got, err := svc.AttemptPayment(context.Background(), order.ID, entities.RailCrypto, cryptoProof)
		require.NoError(t, err)
		assert.Equal(t, entities.OrderPaid, got.Status)
		repo.AssertNotCalled(t, "SetFulfilled", mock.Anything, mock.Anything)
	})
}

func TestOrderService_MarkShipped(t *testing.T) {
	t.Run("pending order cannot ship", func(t *testing.T) {
		repo := new(mockOrderRepo)
		labels := new(mockLabelPurchaser)
		repo.On("GetOrderByID", mock.Anything, mock.Anything).
			Return(baseOrder(entities.OrderPending), nil).Once()

		svc := newOrderService(repo, new(mockProductGetter), new(mockIntentCreator), new(mockRail), new(mockRail), new(mockMintIssuer), labels, new(mockEventPublisher))

		_, err := svc.MarkShipped(context.Background(), "b3a1c2d4-0e5f-4a6b-8c7d-9e0f1a2b3c4d")
		assert.ErrorIs(t, err, entities.ErrInvalidState)
		labels.AssertNotCalled(t, "PurchaseLabel", mock.Anything, mock.Anything)
	})

	t.Run("fulfilled order ships with a tracking number", func(t *testing.T) {
		repo := new(mockOrderRepo)
		labels := new(mockLabelPurchaser)
		events := new(mockEventPublisher)

		order := baseOrder(entities.OrderFulfilled)
		shipped := baseOrder(entities.OrderShipped)
		shipped.TrackingNumber = "TRK123"

		repo.On("GetOrderByID", mock.Anything, order.ID).Return(order, nil).Once()
		labels.On("PurchaseLabel", mock.Anything, "rate-1").
			Return(entities.ShippingLabel{TrackingNumber: "TRK123", LabelURL: "https://example.com/label.pdf"}, nil).Once()
		repo.On("SetShipped", mock.Anything, order.ID, "TRK123").Return(nil).Once()
		repo.On("GetOrderByID", mock.Anything, order.ID).Return(shipped, nil).Once()
		events.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

		svc := newOrderService(repo, new(mockProductGetter), new(mockIntentCreator), new(mockRail), new(mockRail), new(mockMintIssuer), labels, events)

		got, err := svc.MarkShipped(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, "TRK123", got.TrackingNumber)
	})

	t.Run("label purchase failure leaves the order untouched", func(t *testing.T) {
		repo := new(mockOrderRepo)
		labels := new(mockLabelPurchaser)

		order := baseOrder(entities.OrderPaid)
		repo.On("GetOrderByID", mock.Anything, order.ID).Return(order, nil).Once()
		labels.On("PurchaseLabel", mock.Anything, "rate-1").
			Return(entities.ShippingLabel{}, entities.ErrShippingProvider).Once()

		svc := newOrderService(repo, new(mockProductGetter), new(mockIntentCreator), new(mockRail), new(mockRail), new(mockMintIssuer), labels, new(mockEventPublisher))

		_, err := svc.MarkShipped(context.Background(), order.ID)
		assert.ErrorIs(t, err, entities.ErrShippingProvider)
		repo.AssertNotCalled(t, "SetShipped", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOrderService_AttemptPayment_UnsupportedRail(t *testing.T) {
	repo := new(mockOrderRepo)
	repo.On("GetOrderByID", mock.Anything, mock.Anything).
		Return(baseOrder(entities.OrderPending), nil).Once()

	svc := service.NewOrderService(discardLogger(), repo, new(mockProductGetter), new(mockIntentCreator),
		map[entities.PaymentRail]service.Rail{}, new(mockMintIssuer), new(mockLabelPurchaser), new(mockEventPublisher))

	_, err := svc.AttemptPayment(context.Background(), "b3a1c2d4-0e5f-4a6b-8c7d-9e0f1a2b3c4d", entities.RailCard, entities.PaymentProof{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, entities.ErrInvalidState))
}
