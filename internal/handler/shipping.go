package handler

import (
	"net/http"

	"github.com/craftchain/marketplace-service/pkg/utils"
)

// QuoteRates returns live carrier rates for shipping a product to an address.
// @Summary      Quote shipping rates
// @Tags         shipping
// @Accept       json
// @Param        body  body  QuoteRequest  true  "Product and destination"
// @Success      200  {array}   RateJSON
// @Failure      400  {object}  utils.ValidationErrorResponse
// @Failure      404  {object}  utils.ErrorResponse "Product not found"
// @Failure      422  {object}  utils.ErrorResponse "Product cannot be quoted"
// @Router       /shipping/rates [post]
func (h *HTTPHandler) QuoteRates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req QuoteRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	product, err := h.products.GetProductByID(ctx, req.ProductID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	rates, err := h.shipping.Quote(ctx, product.ShipFrom, AddressJSONToEntity(req.ShippingAddress), product.Dimensions)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	out := make([]RateJSON, 0, len(rates))
	for _, rate := range rates {
		out = append(out, RateEntityToJSON(rate))
	}
	utils.WriteJSON(w, out, http.StatusOK)
}
