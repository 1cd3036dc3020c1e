package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/craftchain/marketplace-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

func (r *postgresRepo) SaveMint(ctx context.Context, m entities.MintRecord) error {
	query, args := r.qb.Insert("mints").
		Columns("order_id", "token_id", "contract_address", "owner_address",
			"metadata_uri", "cid", "tx_hash", "created_at").
		Values(m.OrderID, m.TokenID, m.ContractAddress, m.OwnerAddress,
			m.MetadataURI, m.CID, m.TxHash, m.CreatedAt).
		Suffix("ON CONFLICT (order_id) DO NOTHING").
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save mint record: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetMintByOrderID(ctx context.Context, orderID string) (entities.MintRecord, error) {
	query, args := r.qb.Select("order_id", "token_id", "contract_address", "owner_address",
		"metadata_uri", "cid", "tx_hash", "created_at").
		From("mints").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var mint Mint
	err := r.getContext(ctx, &mint, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.MintRecord{}, entities.ErrMintNotFound
	}
	if err != nil {
		return entities.MintRecord{}, fmt.Errorf("failed to get mint record: %w", err)
	}

	return MintToEntity(mint), nil
}
