package service_test

import (
	"context"

	"github.com/craftchain/marketplace-service/internal/chain"
	"github.com/craftchain/marketplace-service/internal/entities"
	"github.com/craftchain/marketplace-service/internal/payment"
	"github.com/craftchain/marketplace-service/pkg/trm"

	"github.com/stretchr/testify/mock"
)

type mockOrderRepo struct{ mock.Mock }

func (m *mockOrderRepo) CreateOrder(ctx context.Context, o entities.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOrderRepo) GetOrderByID(ctx context.Context, id string) (entities.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entities.Order), args.Error(1)
}

func (m *mockOrderRepo) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]entities.Order, error) {
	args := m.Called(ctx, buyerID)
	orders, _ := args.Get(0).([]entities.Order)
	return orders, args.Error(1)
}

func (m *mockOrderRepo) BeginPayment(ctx context.Context, id string, rail entities.PaymentRail) error {
	return m.Called(ctx, id, rail).Error(0)
}

func (m *mockOrderRepo) SetPaid(ctx context.Context, id string, proof entities.PaymentProof) error {
	return m.Called(ctx, id, proof).Error(0)
}

func (m *mockOrderRepo) SetPaymentFailed(ctx context.Context, id, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

func (m *mockOrderRepo) RevertPayment(ctx context.Context, id string, prev entities.OrderStatus) error {
	return m.Called(ctx, id, prev).Error(0)
}

func (m *mockOrderRepo) SetFulfilled(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOrderRepo) SetShipped(ctx context.Context, id, trackingNumber string) error {
	return m.Called(ctx, id, trackingNumber).Error(0)
}

func (m *mockOrderRepo) ClaimMint(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderRepo) ReleaseMint(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOrderRepo) CompleteMint(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockProductGetter struct{ mock.Mock }

func (m *mockProductGetter) GetProductByID(ctx context.Context, id string) (entities.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entities.Product), args.Error(1)
}

type mockProductRepo struct{ mock.Mock }

func (m *mockProductRepo) SaveProduct(ctx context.Context, p entities.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProductRepo) GetProductByID(ctx context.Context, id string) (entities.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entities.Product), args.Error(1)
}

func (m *mockProductRepo) ListProducts(ctx context.Context, limit int) ([]entities.Product, error) {
	args := m.Called(ctx, limit)
	products, _ := args.Get(0).([]entities.Product)
	return products, args.Error(1)
}

func (m *mockProductRepo) AppendProductImages(ctx context.Context, id string, urls []string) error {
	return m.Called(ctx, id, urls).Error(0)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Get(key string) ([]byte, bool) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Bool(1)
}

func (m *mockCache) Set(key string, value []byte) {
	m.Called(key, value)
}

func (m *mockCache) Delete(key string) {
	m.Called(key)
}

type mockImageStore struct{ mock.Mock }

func (m *mockImageStore) Add(ctx context.Context, data []byte) (string, error) {
	args := m.Called(ctx, data)
	return args.String(0), args.Error(1)
}

func (m *mockImageStore) GatewayURL(cid string) string {
	return m.Called(cid).String(0)
}

type mockIntentCreator struct{ mock.Mock }

func (m *mockIntentCreator) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (payment.IntentRef, error) {
	args := m.Called(ctx, amountMinor, currency, metadata)
	return args.Get(0).(payment.IntentRef), args.Error(1)
}

type mockRail struct{ mock.Mock }

func (m *mockRail) Charge(ctx context.Context, order entities.Order, proof entities.PaymentProof) (string, error) {
	args := m.Called(ctx, order, proof)
	return args.String(0), args.Error(1)
}

type mockMintIssuer struct{ mock.Mock }

func (m *mockMintIssuer) IssueMint(ctx context.Context, orderID, ownerAddress string) (entities.MintRecord, error) {
	args := m.Called(ctx, orderID, ownerAddress)
	return args.Get(0).(entities.MintRecord), args.Error(1)
}

type mockLabelPurchaser struct{ mock.Mock }

func (m *mockLabelPurchaser) PurchaseLabel(ctx context.Context, rateID string) (entities.ShippingLabel, error) {
	args := m.Called(ctx, rateID)
	return args.Get(0).(entities.ShippingLabel), args.Error(1)
}

type mockEventPublisher struct{ mock.Mock }

func (m *mockEventPublisher) PublishOrderEvent(ctx context.Context, evt entities.OrderEvent) error {
	return m.Called(ctx, evt).Error(0)
}

type mockShippingProvider struct{ mock.Mock }

func (m *mockShippingProvider) GetRates(ctx context.Context, from, to entities.ShippingAddress, dims entities.Dimensions) ([]entities.RateOption, error) {
	args := m.Called(ctx, from, to, dims)
	rates, _ := args.Get(0).([]entities.RateOption)
	return rates, args.Error(1)
}

func (m *mockShippingProvider) PurchaseLabel(ctx context.Context, rateID string) (entities.ShippingLabel, error) {
	args := m.Called(ctx, rateID)
	return args.Get(0).(entities.ShippingLabel), args.Error(1)
}

type mockMintRepo struct{ mock.Mock }

func (m *mockMintRepo) SaveMint(ctx context.Context, rec entities.MintRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockMintRepo) GetMintByOrderID(ctx context.Context, orderID string) (entities.MintRecord, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(entities.MintRecord), args.Error(1)
}

type mockMetadataStore struct{ mock.Mock }

func (m *mockMetadataStore) Add(ctx context.Context, data []byte) (string, error) {
	args := m.Called(ctx, data)
	return args.String(0), args.Error(1)
}

func (m *mockMetadataStore) URI(cid string) string {
	return m.Called(cid).String(0)
}

type mockContractMinter struct{ mock.Mock }

func (m *mockContractMinter) Mint(ctx context.Context, ownerAddress, orderID, metadataURI string) (chain.MintResult, error) {
	args := m.Called(ctx, ownerAddress, orderID, metadataURI)
	return args.Get(0).(chain.MintResult), args.Error(1)
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(ctx context.Context, u entities.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (entities.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(entities.User), args.Error(1)
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id string) (entities.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entities.User), args.Error(1)
}

// fakeTxManager runs the callback without a database.
type fakeTxManager struct{ err error }

func (f fakeTxManager) BeginTx(ctx context.Context) (context.Context, trm.Transaction, error) {
	panic("not used in tests")
}

func (f fakeTxManager) Do(ctx context.Context, callback func(ctx context.Context) error) error {
	if f.err != nil {
		return f.err
	}
	return callback(ctx)
}
