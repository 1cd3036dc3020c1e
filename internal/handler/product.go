package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/craftchain/marketplace-service/internal/entities"
	"github.com/craftchain/marketplace-service/internal/middleware"
	"github.com/craftchain/marketplace-service/internal/service"
	"github.com/craftchain/marketplace-service/pkg/utils"

	"github.com/go-chi/chi/v5"
)

const (
	defaultListLimit  = 50
	maxListLimit      = 200
	maxUploadBytes    = 32 << 20
	maxImagesPerBatch = 10
)

// CreateProduct lists a new product for the authenticated seller.
// @Summary      Create product
// @Tags         products
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  CreateProductRequest  true  "Product payload"
// @Success      201  {object}  ProductJSON
// @Failure      400  {object}  utils.ValidationErrorResponse
// @Router       /products [post]
func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateProductRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}
	if !req.Price.IsPositive() {
		utils.WriteError(w, "price must be positive", http.StatusBadRequest)
		return
	}

	var shipFrom *entities.ShippingAddress
	if req.ShipFrom != nil {
		addr := AddressJSONToEntity(*req.ShipFrom)
		shipFrom = &addr
	}

	product, err := h.products.CreateProduct(ctx, service.CreateProductInput{
		SellerID:    middleware.UserID(ctx),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		NFTEnabled:  req.NFTEnabled,
		Images:      req.Images,
		Dimensions: entities.Dimensions{
			Length: req.LengthIn,
			Width:  req.WidthIn,
			Height: req.HeightIn,
			Weight: req.WeightLb,
		},
		ShipFrom: shipFrom,
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, ProductEntityToJSON(product), http.StatusCreated)
}

// GetProductByID returns one product.
// @Summary      Get product
// @Tags         products
// @Param        product_id  path  string  true  "Product id"
// @Success      200  {object}  ProductJSON
// @Failure      404  {object}  utils.ErrorResponse "Product not found"
// @Router       /products/{product_id} [get]
func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "product_id")

	if err := h.validate.Var(id, "required,uuid"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	product, err := h.products.GetProductByID(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, ProductEntityToJSON(product), http.StatusOK)
}

// ListProducts returns the most recent listings.
// @Summary      List products
// @Tags         products
// @Param        limit  query  int  false  "Max items, default 50"
// @Success      200  {array}  ProductJSON
// @Router       /products [get]
func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.WriteError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	products, err := h.products.ListProducts(ctx, limit)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	out := make([]ProductJSON, 0, len(products))
	for _, p := range products {
		out = append(out, ProductEntityToJSON(p))
	}
	utils.WriteJSON(w, out, http.StatusOK)
}

// UploadImages attaches image files to a product.
// @Summary      Upload product images
// @Tags         products
// @Accept       multipart/form-data
// @Security     BearerAuth
// @Param        product_id  path      string  true  "Product id"
// @Param        images      formData  file    true  "Image files"
// @Success      200  {object}  UploadImagesResponse
// @Failure      404  {object}  utils.ErrorResponse "Product not found"
// @Router       /products/{product_id}/images [post]
func (h *HTTPHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "product_id")

	if err := h.validate.Var(id, "required,uuid"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.WriteError(w, "invalid multipart body", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		utils.WriteError(w, "no image files provided", http.StatusBadRequest)
		return
	}
	if len(headers) > maxImagesPerBatch {
		utils.WriteError(w, "too many files in one batch", http.StatusBadRequest)
		return
	}

	files := make([][]byte, 0, len(headers))
	for _, hdr := range headers {
		f, err := hdr.Open()
		if err != nil {
			utils.WriteError(w, "failed to read uploaded file", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			utils.WriteError(w, "failed to read uploaded file", http.StatusBadRequest)
			return
		}
		files = append(files, data)
	}

	urls, err := h.products.UploadImages(ctx, id, files)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, UploadImagesResponse{URLs: urls}, http.StatusOK)
}
