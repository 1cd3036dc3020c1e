package handler

import (
	"net/http"

	"github.com/craftchain/marketplace-service/internal/entities"
	"github.com/craftchain/marketplace-service/internal/middleware"
	"github.com/craftchain/marketplace-service/internal/service"
	"github.com/craftchain/marketplace-service/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// CreateOrder places an order for a product with a previously quoted rate.
// @Summary      Create order
// @Tags         orders
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  CreateOrderRequest  true  "Order payload"
// @Success      201  {object}  CreateOrderResponse
// @Failure      400  {object}  utils.ValidationErrorResponse
// @Failure      404  {object}  utils.ErrorResponse "Product not found"
// @Router       /orders [post]
func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}
	if req.ShippingCost.IsNegative() {
		utils.WriteError(w, "shipping cost must not be negative", http.StatusBadRequest)
		return
	}

	result, err := h.orders.CreateOrder(ctx, service.CreateOrderInput{
		BuyerID:      middleware.UserID(ctx),
		ProductID:    req.ProductID,
		RateID:       req.RateID,
		ShippingCost: req.ShippingCost,
		Address:      AddressJSONToEntity(req.ShippingAddress),
		Rail:         entities.PaymentRail(req.Rail),
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, CreateOrderResponse{
		Order:        OrderEntityToJSON(result.Order),
		ClientSecret: result.ClientSecret,
	}, http.StatusCreated)
}

// GetOrderByID returns one of the caller's orders.
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Param        order_id  path  string  true  "Order id"
// @Success      200  {object}  OrderJSON
// @Failure      404  {object}  utils.ErrorResponse "Order not found"
// @Router       /orders/{order_id} [get]
func (h *HTTPHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r, false)
	if !ok {
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// ListOrders returns the caller's orders, newest first.
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Success      200  {array}  OrderJSON
// @Router       /orders [get]
func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orders, err := h.orders.ListOrdersByBuyer(ctx, middleware.UserID(ctx))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	out := make([]OrderJSON, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderEntityToJSON(o))
	}
	utils.WriteJSON(w, out, http.StatusOK)
}

// PayWithCard settles an order against its card payment intent.
// @Summary      Pay order by card
// @Tags         orders
// @Accept       json
// @Security     BearerAuth
// @Param        order_id  path  string              true  "Order id"
// @Param        body      body  CardPaymentRequest  true  "Confirmed intent"
// @Success      200  {object}  OrderJSON
// @Failure      402  {object}  utils.ErrorResponse "Payment declined"
// @Failure      409  {object}  utils.ErrorResponse "Order not payable"
// @Router       /orders/{order_id}/pay/card [post]
func (h *HTTPHandler) PayWithCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	order, ok := h.loadOrder(w, r, false)
	if !ok {
		return
	}

	var req CardPaymentRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	paid, err := h.orders.AttemptPayment(ctx, order.ID, entities.RailCard, entities.PaymentProof{
		IntentID: req.PaymentIntentID,
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(paid), http.StatusOK)
}

// PayWithCrypto settles an order against an on-chain transfer.
// @Summary      Pay order with crypto
// @Tags         orders
// @Accept       json
// @Security     BearerAuth
// @Param        order_id  path  string                true  "Order id"
// @Param        body      body  CryptoPaymentRequest  true  "On-chain transfer"
// @Success      200  {object}  OrderJSON
// @Failure      402  {object}  utils.ErrorResponse "Transfer rejected"
// @Failure      409  {object}  utils.ErrorResponse "Order not payable"
// @Router       /orders/{order_id}/pay/crypto [post]
func (h *HTTPHandler) PayWithCrypto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	order, ok := h.loadOrder(w, r, false)
	if !ok {
		return
	}

	var req CryptoPaymentRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	paid, err := h.orders.AttemptPayment(ctx, order.ID, entities.RailCrypto, entities.PaymentProof{
		TxHash:       req.TxHash,
		PayerAddress: req.WalletAddress,
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(paid), http.StatusOK)
}

// MintOrder retries the proof-of-purchase mint for a paid order.
// @Summary      Mint proof-of-purchase token
// @Tags         orders
// @Accept       json
// @Security     BearerAuth
// @Param        order_id  path  string       true  "Order id"
// @Param        body      body  MintRequest  true  "Token owner"
// @Success      200  {object}  MintJSON
// @Failure      409  {object}  utils.ErrorResponse "Order has no payment or mint in flight"
// @Router       /orders/{order_id}/mint [post]
func (h *HTTPHandler) MintOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	order, ok := h.loadOrder(w, r, false)
	if !ok {
		return
	}

	var req MintRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	record, err := h.mints.IssueMint(ctx, order.ID, req.OwnerAddress)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, MintEntityToJSON(record), http.StatusOK)
}

// ShipOrder purchases the shipping label and records the tracking number.
// @Summary      Ship order
// @Tags         orders
// @Security     BearerAuth
// @Param        order_id  path  string  true  "Order id"
// @Success      200  {object}  OrderJSON
// @Failure      409  {object}  utils.ErrorResponse "Order not ready to ship"
// @Router       /orders/{order_id}/ship [post]
func (h *HTTPHandler) ShipOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	order, ok := h.loadOrder(w, r, true)
	if !ok {
		return
	}

	shipped, err := h.orders.MarkShipped(ctx, order.ID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(shipped), http.StatusOK)
}

// loadOrder fetches the order from the path and enforces ownership: the buyer
// for most operations, the seller when asSeller is set. A foreign order reads
// as not found so ids cannot be probed.
func (h *HTTPHandler) loadOrder(w http.ResponseWriter, r *http.Request, asSeller bool) (entities.Order, bool) {
	ctx := r.Context()
	id := chi.URLParam(r, "order_id")

	if err := h.validate.Var(id, "required,uuid"); err != nil {
		utils.WriteValidationError(w, err)
		return entities.Order{}, false
	}

	order, err := h.orders.GetOrderByID(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return entities.Order{}, false
	}

	caller := middleware.UserID(ctx)
	owner := order.BuyerID
	if asSeller {
		owner = order.SellerID
	}
	if caller != owner {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return entities.Order{}, false
	}
	return order, true
}
