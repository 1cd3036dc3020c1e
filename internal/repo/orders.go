package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/craftchain/marketplace-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

var orderColumns = []string{
	"id", "buyer_id", "seller_id", "product_id", "rail", "shipping_rate_id",
	"shipping_address", "shipping_cost", "total", "currency", "status",
	"failure_reason", "payment_intent_id", "tx_hash", "tracking_number",
	"mint_state", "created_at", "updated_at",
}

func (r *postgresRepo) CreateOrder(ctx context.Context, o entities.Order) error {
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	query, args := r.qb.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID, o.BuyerID, o.SellerID, o.ProductID, string(o.Rail), o.ShippingRateID,
			addr, o.ShippingCost, o.Total, o.Currency, string(o.Status),
			nullString(o.FailureReason), nullString(o.PaymentIntentID),
			nullString(o.TxHash), nullString(o.TrackingNumber),
			string(o.MintState), o.CreatedAt, o.UpdatedAt,
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, id string) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	return OrderToEntity(order)
}

func (r *postgresRepo) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"buyer_id": buyerID}).
		OrderBy("created_at DESC").
		MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}

	result := make([]entities.Order, 0, len(orders))
	for _, o := range orders {
		order, err := OrderToEntity(o)
		if err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, nil
}

// casUpdate applies builder and treats zero affected rows as a lost
// conditional update. The status column is the single-writer gate for the
// whole workflow: every externally visible transition goes through here.
func (r *postgresRepo) casUpdate(ctx context.Context, b sq.UpdateBuilder) error {
	query, args := b.MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return entities.ErrInvalidState
	}
	return nil
}

func (r *postgresRepo) BeginPayment(ctx context.Context, id string, rail entities.PaymentRail) error {
	return r.casUpdate(ctx, r.qb.Update("orders").
		Set("status", string(entities.OrderPaymentProcessing)).
		Set("rail", string(rail)).
		Set("failure_reason", nil).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"status": []string{
			string(entities.OrderPending),
			string(entities.OrderPaymentFailed),
		}}))
}

func (r *postgresRepo) SetPaid(ctx context.Context, id string, proof entities.PaymentProof) error {
	b := r.qb.Update("orders").
		Set("status", string(entities.OrderPaid)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"status": string(entities.OrderPaymentProcessing)})

	if proof.IntentID != "" {
		b = b.Set("payment_intent_id", proof.IntentID)
	}
	if proof.TxHash != "" {
		b = b.Set("tx_hash", proof.TxHash)
	}

	return r.casUpdate(ctx, b)
}

func (r *postgresRepo) SetPaymentFailed(ctx context.Context, id, reason string) error {
	return r.casUpdate(ctx, r.qb.Update("orders").
		Set("status", string(entities.OrderPaymentFailed)).
		Set("failure_reason", nullString(reason)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"status": string(entities.OrderPaymentProcessing)}))
}

// RevertPayment returns an order from payment_processing to the state it was
// in before the attempt. Used when the provider failed without a determinate
// decline, so the attempt stays safely retryable.
func (r *postgresRepo) RevertPayment(ctx context.Context, id string, prev entities.OrderStatus) error {
	return r.casUpdate(ctx, r.qb.Update("orders").
		Set("status", string(prev)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"status": string(entities.OrderPaymentProcessing)}))
}

func (r *postgresRepo) SetFulfilled(ctx context.Context, id string) error {
	return r.casUpdate(ctx, r.qb.Update("orders").
		Set("status", string(entities.OrderFulfilled)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"status": string(entities.OrderPaid)}))
}

func (r *postgresRepo) SetShipped(ctx context.Context, id, trackingNumber string) error {
	return r.casUpdate(ctx, r.qb.Update("orders").
		Set("status", string(entities.OrderShipped)).
		Set("tracking_number", trackingNumber).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"status": []string{
			string(entities.OrderPaid),
			string(entities.OrderFulfilled),
		}}))
}

// ClaimMint moves mint_state none→pending. Returns false when another call
// already claimed or completed the mint, which makes "mint at most once"
// hold under concurrent retries.
func (r *postgresRepo) ClaimMint(ctx context.Context, id string) (bool, error) {
	query, args := r.qb.Update("orders").
		Set("mint_state", string(entities.MintPending)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"mint_state": string(entities.MintNone)}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to claim mint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

func (r *postgresRepo) ReleaseMint(ctx context.Context, id string) error {
	return r.casUpdate(ctx, r.qb.Update("orders").
		Set("mint_state", string(entities.MintNone)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"mint_state": string(entities.MintPending)}))
}

func (r *postgresRepo) CompleteMint(ctx context.Context, id string) error {
	return r.casUpdate(ctx, r.qb.Update("orders").
		Set("mint_state", string(entities.MintDone)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"mint_state": string(entities.MintPending)}))
}
