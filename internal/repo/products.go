package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/craftchain/marketplace-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

var productColumns = []string{
	"id", "seller_id", "title", "description", "category", "price", "currency",
	"nft_enabled", "images", "length_in", "width_in", "height_in", "weight_lb",
	"ship_from", "created_at",
}

func (r *postgresRepo) SaveProduct(ctx context.Context, p entities.Product) error {
	var shipFrom []byte
	if p.ShipFrom != nil {
		var err error
		shipFrom, err = json.Marshal(p.ShipFrom)
		if err != nil {
			return fmt.Errorf("failed to marshal ship_from: %w", err)
		}
	}

	query, args := r.qb.Insert("products").
		Columns(productColumns...).
		Values(
			p.ID, p.SellerID, p.Title, nullString(p.Description), nullString(p.Category),
			p.Price, p.Currency, p.NFTEnabled, pq.StringArray(p.Images),
			p.Dimensions.Length, p.Dimensions.Width, p.Dimensions.Height, p.Dimensions.Weight,
			shipFrom, p.CreatedAt,
		).
		MustSql()

	_, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetProductByID(ctx context.Context, id string) (entities.Product, error) {
	query, args := r.qb.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": id}).
		MustSql()

	var product Product
	err := r.getContext(ctx, &product, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Product{}, entities.ErrProductNotFound
	}
	if err != nil {
		return entities.Product{}, fmt.Errorf("failed to get product: %w", err)
	}

	return ProductToEntity(product)
}

func (r *postgresRepo) ListProducts(ctx context.Context, limit int) ([]entities.Product, error) {
	query, args := r.qb.Select(productColumns...).
		From("products").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		MustSql()

	var products []Product
	if err := r.selectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}

	result := make([]entities.Product, 0, len(products))
	for _, p := range products {
		product, err := ProductToEntity(p)
		if err != nil {
			return nil, err
		}
		result = append(result, product)
	}
	return result, nil
}

func (r *postgresRepo) AppendProductImages(ctx context.Context, id string, urls []string) error {
	query, args := r.qb.Update("products").
		Set("images", sq.Expr("images || ?", pq.StringArray(urls))).
		Where(sq.Eq{"id": id}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to append product images: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entities.ErrProductNotFound
	}
	return nil
}
