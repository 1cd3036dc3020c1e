package handler

import (
	"net/http"

	"github.com/craftchain/marketplace-service/internal/service"
	"github.com/craftchain/marketplace-service/pkg/utils"
)

// Register creates a new account.
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Param        body  body  RegisterRequest  true  "Registration payload"
// @Success      201  {object}  AuthResponse
// @Failure      400  {object}  utils.ValidationErrorResponse
// @Failure      409  {object}  utils.ErrorResponse "Email already taken"
// @Router       /auth/register [post]
func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	user, token, err := h.users.Register(ctx, service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Seller:    req.Seller,
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, AuthResponse{User: UserEntityToJSON(user), Token: token}, http.StatusCreated)
}

// Login exchanges credentials for a token.
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Param        body  body  LoginRequest  true  "Credentials"
// @Success      200  {object}  AuthResponse
// @Failure      400  {object}  utils.ValidationErrorResponse
// @Failure      401  {object}  utils.ErrorResponse "Invalid credentials"
// @Router       /auth/login [post]
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	user, token, err := h.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, AuthResponse{User: UserEntityToJSON(user), Token: token}, http.StatusOK)
}
