package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/craftchain/marketplace-service/internal/config"
	"github.com/craftchain/marketplace-service/internal/entities"
	"github.com/craftchain/marketplace-service/internal/middleware"
	"github.com/craftchain/marketplace-service/internal/service"
	"github.com/craftchain/marketplace-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type UserService interface {
	Register(ctx context.Context, in service.RegisterInput) (entities.User, string, error)
	Login(ctx context.Context, email, password string) (entities.User, string, error)
}

type ProductService interface {
	CreateProduct(ctx context.Context, in service.CreateProductInput) (entities.Product, error)
	GetProductByID(ctx context.Context, id string) (entities.Product, error)
	ListProducts(ctx context.Context, limit int) ([]entities.Product, error)
	UploadImages(ctx context.Context, productID string, files [][]byte) ([]string, error)
}

type ShippingService interface {
	Quote(ctx context.Context, from *entities.ShippingAddress, to entities.ShippingAddress, dims entities.Dimensions) ([]entities.RateOption, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, in service.CreateOrderInput) (service.CreateOrderResult, error)
	AttemptPayment(ctx context.Context, orderID string, rail entities.PaymentRail, proof entities.PaymentProof) (entities.Order, error)
	MarkShipped(ctx context.Context, orderID string) (entities.Order, error)
	GetOrderByID(ctx context.Context, id string) (entities.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]entities.Order, error)
}

type MintService interface {
	IssueMint(ctx context.Context, orderID, ownerAddress string) (entities.MintRecord, error)
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	authCfg  config.Auth
	users    UserService
	products ProductService
	shipping ShippingService
	orders   OrderService
	mints    MintService
}

func NewHTTPHandler(
	logger *slog.Logger,
	authCfg config.Auth,
	users UserService,
	products ProductService,
	shipping ShippingService,
	orders OrderService,
	mints MintService,
) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: validator.New(),
		authCfg:  authCfg,
		users:    users,
		products: products,
		shipping: shipping,
		orders:   orders,
		mints:    mints,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)

	r.Get("/products", h.ListProducts)
	r.Get("/products/{product_id}", h.GetProductByID)
	r.Post("/shipping/rates", h.QuoteRates)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.authCfg))

		r.Post("/products", h.CreateProduct)
		r.Post("/products/{product_id}/images", h.UploadImages)

		r.Post("/orders", h.CreateOrder)
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{order_id}", h.GetOrderByID)
		r.Post("/orders/{order_id}/pay/card", h.PayWithCard)
		r.Post("/orders/{order_id}/pay/crypto", h.PayWithCrypto)
		r.Post("/orders/{order_id}/mint", h.MintOrder)
		r.Post("/orders/{order_id}/ship", h.ShipOrder)
	})

	r.Get("/healthz", h.Healthz)
}

// Healthz reports liveness.
// @Summary      Health check
// @Tags         system
// @Success      200  {object}  map[string]string
// @Router       /healthz [get]
func (h *HTTPHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

var errStatus = []struct {
	err  error
	code int
}{
	{entities.ErrInvalidCredentials, http.StatusUnauthorized},
	{entities.ErrPaymentDeclined, http.StatusPaymentRequired},
	{entities.ErrAmountMismatch, http.StatusPaymentRequired},
	{entities.ErrUserNotFound, http.StatusNotFound},
	{entities.ErrProductNotFound, http.StatusNotFound},
	{entities.ErrOrderNotFound, http.StatusNotFound},
	{entities.ErrMintNotFound, http.StatusNotFound},
	{entities.ErrEmailTaken, http.StatusConflict},
	{entities.ErrInvalidState, http.StatusConflict},
	{entities.ErrInvalidDimensions, http.StatusUnprocessableEntity},
	{entities.ErrOriginNotConfigured, http.StatusUnprocessableEntity},
	{entities.ErrNoRatesAvailable, http.StatusUnprocessableEntity},
	{entities.ErrMintAmbiguous, http.StatusBadGateway},
	{entities.ErrMintFailed, http.StatusBadGateway},
	{entities.ErrShippingProvider, http.StatusBadGateway},
	{entities.ErrPaymentProvider, http.StatusBadGateway},
	{entities.ErrTimeout, http.StatusGatewayTimeout},
}

// writeError maps domain errors to status codes. Client errors carry the
// domain message, server errors are logged and masked. The mismatch sentinel
// wraps the provider one, so ordering in the table matters.
func (h *HTTPHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	for _, m := range errStatus {
		if errors.Is(err, m.err) {
			if m.code >= http.StatusInternalServerError {
				h.logger.ErrorContext(ctx, "upstream failure", slog.Any("error", err))
				utils.WriteError(w, m.err.Error(), m.code)
				return
			}
			utils.WriteError(w, err.Error(), m.code)
			return
		}
	}

	h.logger.ErrorContext(ctx, "unhandled error", slog.Any("error", err))
	utils.WriteError(w, "internal server error", http.StatusInternalServerError)
}
