package repo

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/craftchain/marketplace-service/internal/entities"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	IsSeller     bool      `db:"is_seller"`
	CreatedAt    time.Time `db:"created_at"`
}

type Product struct {
	ID          string          `db:"id"`
	SellerID    string          `db:"seller_id"`
	Title       string          `db:"title"`
	Description sql.NullString  `db:"description"`
	Category    sql.NullString  `db:"category"`
	Price       decimal.Decimal `db:"price"`
	Currency    string          `db:"currency"`
	NFTEnabled  bool            `db:"nft_enabled"`
	Images      pq.StringArray  `db:"images"`
	LengthIn    float64         `db:"length_in"`
	WidthIn     float64         `db:"width_in"`
	HeightIn    float64         `db:"height_in"`
	WeightLb    float64         `db:"weight_lb"`
	ShipFrom    []byte          `db:"ship_from"`
	CreatedAt   time.Time       `db:"created_at"`
}

type Order struct {
	ID        string `db:"id"`
	BuyerID   string `db:"buyer_id"`
	SellerID  string `db:"seller_id"`
	ProductID string `db:"product_id"`

	Rail            string          `db:"rail"`
	ShippingRateID  string          `db:"shipping_rate_id"`
	ShippingAddress []byte          `db:"shipping_address"`
	ShippingCost    decimal.Decimal `db:"shipping_cost"`
	Total           decimal.Decimal `db:"total"`
	Currency        string          `db:"currency"`

	Status        string         `db:"status"`
	FailureReason sql.NullString `db:"failure_reason"`

	PaymentIntentID sql.NullString `db:"payment_intent_id"`
	TxHash          sql.NullString `db:"tx_hash"`
	TrackingNumber  sql.NullString `db:"tracking_number"`

	MintState string `db:"mint_state"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Mint struct {
	OrderID         string    `db:"order_id"`
	TokenID         int64     `db:"token_id"`
	ContractAddress string    `db:"contract_address"`
	OwnerAddress    string    `db:"owner_address"`
	MetadataURI     string    `db:"metadata_uri"`
	CID             string    `db:"cid"`
	TxHash          string    `db:"tx_hash"`
	CreatedAt       time.Time `db:"created_at"`
}

func UserToEntity(u User) entities.User {
	return entities.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Seller:       u.IsSeller,
		CreatedAt:    u.CreatedAt,
	}
}

func ProductToEntity(p Product) (entities.Product, error) {
	product := entities.Product{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Title:       p.Title,
		Description: nullStringToString(p.Description),
		Category:    nullStringToString(p.Category),
		Price:       p.Price,
		Currency:    p.Currency,
		NFTEnabled:  p.NFTEnabled,
		Images:      p.Images,
		Dimensions: entities.Dimensions{
			Length: p.LengthIn,
			Width:  p.WidthIn,
			Height: p.HeightIn,
			Weight: p.WeightLb,
		},
		CreatedAt: p.CreatedAt,
	}

	if len(p.ShipFrom) > 0 {
		var addr entities.ShippingAddress
		if err := json.Unmarshal(p.ShipFrom, &addr); err != nil {
			return entities.Product{}, err
		}
		product.ShipFrom = &addr
	}

	return product, nil
}

func OrderToEntity(o Order) (entities.Order, error) {
	var addr entities.ShippingAddress
	if len(o.ShippingAddress) > 0 {
		if err := json.Unmarshal(o.ShippingAddress, &addr); err != nil {
			return entities.Order{}, err
		}
	}

	return entities.Order{
		ID:        o.ID,
		BuyerID:   o.BuyerID,
		SellerID:  o.SellerID,
		ProductID: o.ProductID,

		Rail:            entities.PaymentRail(o.Rail),
		ShippingRateID:  o.ShippingRateID,
		ShippingAddress: addr,
		ShippingCost:    o.ShippingCost,
		Total:           o.Total,
		Currency:        o.Currency,

		Status:        entities.OrderStatus(o.Status),
		FailureReason: nullStringToString(o.FailureReason),

		PaymentIntentID: nullStringToString(o.PaymentIntentID),
		TxHash:          nullStringToString(o.TxHash),
		TrackingNumber:  nullStringToString(o.TrackingNumber),

		MintState: entities.MintState(o.MintState),

		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}, nil
}

func MintToEntity(m Mint) entities.MintRecord {
	return entities.MintRecord{
		OrderID:         m.OrderID,
		TokenID:         m.TokenID,
		ContractAddress: m.ContractAddress,
		OwnerAddress:    m.OwnerAddress,
		MetadataURI:     m.MetadataURI,
		CID:             m.CID,
		TxHash:          m.TxHash,
		CreatedAt:       m.CreatedAt,
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
