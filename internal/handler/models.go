package handler

import (
	"time"

	"github.com/craftchain/marketplace-service/internal/entities"

	"github.com/shopspring/decimal"
)

// Address is a postal address
type Address struct {
	Name    string `json:"name" validate:"required"`
	Street1 string `json:"street1" validate:"required"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZIP     string `json:"zip" validate:"required"`
	Country string `json:"country" validate:"required,iso3166_1_alpha2"`
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Seller    bool   `json:"is_seller"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User  UserJSON `json:"user"`
	Token string   `json:"token"`
}

type UserJSON struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Seller    bool   `json:"is_seller"`
}

type CreateProductRequest struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	NFTEnabled  bool            `json:"nft_enabled"`
	Images      []string        `json:"images,omitempty" validate:"dive,url"`
	LengthIn    float64         `json:"length_inches" validate:"gte=0"`
	WidthIn     float64         `json:"width_inches" validate:"gte=0"`
	HeightIn    float64         `json:"height_inches" validate:"gte=0"`
	WeightLb    float64         `json:"weight_lbs" validate:"gte=0"`
	ShipFrom    *Address        `json:"shipping_from_address,omitempty"`
}

// ProductJSON represents a listed product
type ProductJSON struct {
	ID          string          `json:"id"`
	SellerID    string          `json:"seller_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	NFTEnabled  bool            `json:"nft_enabled"`
	Images      []string        `json:"images,omitempty"`
	LengthIn    float64         `json:"length_inches,omitempty"`
	WidthIn     float64         `json:"width_inches,omitempty"`
	HeightIn    float64         `json:"height_inches,omitempty"`
	WeightLb    float64         `json:"weight_lbs,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type QuoteRequest struct {
	ProductID       string  `json:"product_id" validate:"required,uuid"`
	ShippingAddress Address `json:"shipping_address" validate:"required"`
}

type RateJSON struct {
	RateID        string          `json:"rate_id"`
	Provider      string          `json:"provider"`
	ServiceLevel  string          `json:"service_level"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	EstimatedDays int             `json:"estimated_days,omitempty"`
}

type CreateOrderRequest struct {
	ProductID       string          `json:"product_id" validate:"required,uuid"`
	RateID          string          `json:"shipping_rate_id" validate:"required"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	ShippingAddress Address         `json:"shipping_address" validate:"required"`
	Rail            string          `json:"payment_rail" validate:"required,oneof=card crypto"`
}

type CreateOrderResponse struct {
	Order        OrderJSON `json:"order"`
	ClientSecret string    `json:"client_secret,omitempty"`
}

type CardPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

type CryptoPaymentRequest struct {
	TxHash        string `json:"transaction_hash" validate:"required,len=66,startswith=0x"`
	WalletAddress string `json:"wallet_address" validate:"required,eth_addr"`
}

type MintRequest struct {
	OwnerAddress string `json:"owner_address" validate:"required,eth_addr"`
}

// OrderJSON represents an order
type OrderJSON struct {
	ID              string          `json:"id"`
	BuyerID         string          `json:"buyer_id"`
	SellerID        string          `json:"seller_id"`
	ProductID       string          `json:"product_id"`
	Rail            string          `json:"payment_rail"`
	ShippingRateID  string          `json:"shipping_rate_id"`
	ShippingAddress Address         `json:"shipping_address"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	FailureReason   string          `json:"failure_reason,omitempty"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	TxHash          string          `json:"transaction_hash,omitempty"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	MintState       string          `json:"mint_state"`
	CreatedAt       time.Time       `json:"created_at"`
}

type MintJSON struct {
	OrderID         string `json:"order_id"`
	TokenID         int64  `json:"token_id"`
	ContractAddress string `json:"contract_address"`
	OwnerAddress    string `json:"owner_address"`
	MetadataURI     string `json:"metadata_uri"`
	CID             string `json:"cid"`
	TxHash          string `json:"transaction_hash"`
}

type UploadImagesResponse struct {
	URLs []string `json:"urls"`
}

func AddressJSONToEntity(a Address) entities.ShippingAddress {
	return entities.ShippingAddress{
		Name:    a.Name,
		Street1: a.Street1,
		Street2: a.Street2,
		City:    a.City,
		State:   a.State,
		ZIP:     a.ZIP,
		Country: a.Country,
	}
}

func AddressEntityToJSON(a entities.ShippingAddress) Address {
	return Address{
		Name:    a.Name,
		Street1: a.Street1,
		Street2: a.Street2,
		City:    a.City,
		State:   a.State,
		ZIP:     a.ZIP,
		Country: a.Country,
	}
}

func UserEntityToJSON(u entities.User) UserJSON {
	return UserJSON{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Seller:    u.Seller,
	}
}

func ProductEntityToJSON(p entities.Product) ProductJSON {
	return ProductJSON{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Currency:    p.Currency,
		NFTEnabled:  p.NFTEnabled,
		Images:      p.Images,
		LengthIn:    p.Dimensions.Length,
		WidthIn:     p.Dimensions.Width,
		HeightIn:    p.Dimensions.Height,
		WeightLb:    p.Dimensions.Weight,
		CreatedAt:   p.CreatedAt,
	}
}

func RateEntityToJSON(r entities.RateOption) RateJSON {
	return RateJSON{
		RateID:        r.RateID,
		Provider:      r.Provider,
		ServiceLevel:  r.ServiceLevel,
		Amount:        r.Amount,
		Currency:      r.Currency,
		EstimatedDays: r.EstimatedDays,
	}
}

func OrderEntityToJSON(o entities.Order) OrderJSON {
	return OrderJSON{
		ID:              o.ID,
		BuyerID:         o.BuyerID,
		SellerID:        o.SellerID,
		ProductID:       o.ProductID,
		Rail:            string(o.Rail),
		ShippingRateID:  o.ShippingRateID,
		ShippingAddress: AddressEntityToJSON(o.ShippingAddress),
		ShippingCost:    o.ShippingCost,
		Total:           o.Total,
		Currency:        o.Currency,
		Status:          string(o.Status),
		FailureReason:   o.FailureReason,
		PaymentIntentID: o.PaymentIntentID,
		TxHash:          o.TxHash,
		TrackingNumber:  o.TrackingNumber,
		MintState:       string(o.MintState),
		CreatedAt:       o.CreatedAt,
	}
}

func MintEntityToJSON(m entities.MintRecord) MintJSON {
	return MintJSON{
		OrderID:         m.OrderID,
		TokenID:         m.TokenID,
		ContractAddress: m.ContractAddress,
		OwnerAddress:    m.OwnerAddress,
		MetadataURI:     m.MetadataURI,
		CID:             m.CID,
		TxHash:          m.TxHash,
	}
}
