package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/craftchain/marketplace-service/internal/chain"
	"github.com/craftchain/marketplace-service/internal/entities"
	"github.com/craftchain/marketplace-service/pkg/trm"
	"github.com/craftchain/marketplace-service/pkg/utils"
)

type MintOrderRepo interface {
	GetOrderByID(ctx context.Context, id string) (entities.Order, error)

	// Mint state machine: none -> pending -> minted, with pending -> none
	// on a determinate failure. ClaimMint reports whether this caller won
	// the none -> pending move.
	ClaimMint(ctx context.Context, id string) (bool, error)
	ReleaseMint(ctx context.Context, id string) error
	CompleteMint(ctx context.Context, id string) error
}

type MintRepo interface {
	SaveMint(ctx context.Context, m entities.MintRecord) error
	GetMintByOrderID(ctx context.Context, orderID string) (entities.MintRecord, error)
}

type MetadataStore interface {
	Add(ctx context.Context, data []byte) (string, error)
	URI(cid string) string
}

type ContractMinter interface {
	Mint(ctx context.Context, ownerAddress, orderID, metadataURI string) (chain.MintResult, error)
}

type mintService struct {
	logger    *slog.Logger
	txManager trm.Manager
	orders    MintOrderRepo
	mints     MintRepo
	products  ProductGetter
	storage   MetadataStore
	minter    ContractMinter
}

func NewMintService(
	logger *slog.Logger,
	txManager trm.Manager,
	orders MintOrderRepo,
	mints MintRepo,
	products ProductGetter,
	storage MetadataStore,
	minter ContractMinter,
) *mintService {
	return &mintService{
		logger:    logger.With(slog.String("service", "mint")),
		txManager: txManager,
		orders:    orders,
		mints:     mints,
		products:  products,
		storage:   storage,
		minter:    minter,
	}
}

type mintMetadata struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image,omitempty"`
	Attributes  []mintAttribute `json:"attributes"`
}

type mintAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// IssueMint issues the proof-of-purchase token for a paid order, exactly
// once. Retrying after success returns the stored record without touching the
// chain. The mint_state claim makes concurrent calls settle on one winner;
// an ambiguous outcome keeps the claim so a blind retry cannot double-mint.
func (s *mintService) IssueMint(ctx context.Context, orderID, ownerAddress string) (entities.MintRecord, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.MintRecord{}, err
	}
	if !order.HasPayment() {
		return entities.MintRecord{}, entities.ErrInvalidState
	}
	if order.MintState == entities.MintDone {
		return s.mints.GetMintByOrderID(ctx, orderID)
	}

	claimed, err := s.orders.ClaimMint(ctx, orderID)
	if err != nil {
		return entities.MintRecord{}, err
	}
	if !claimed {
		// Either another call just completed the mint, or one is in flight
		// (possibly crashed mid-mint). Only the former is safe to answer.
		order, err = s.orders.GetOrderByID(ctx, orderID)
		if err != nil {
			return entities.MintRecord{}, err
		}
		if order.MintState == entities.MintDone {
			return s.mints.GetMintByOrderID(ctx, orderID)
		}
		return entities.MintRecord{}, fmt.Errorf("%w: mint already in flight for order %s",
			entities.ErrMintAmbiguous, orderID)
	}

	record, err := s.mint(ctx, order, ownerAddress)
	if err != nil {
		mintsTotal.WithLabelValues("failure").Inc()
		return entities.MintRecord{}, err
	}

	mintsTotal.WithLabelValues("success").Inc()
	s.logger.Info("mint issued",
		slog.String("order_id", orderID),
		slog.Int64("token_id", record.TokenID),
		slog.String("tx_hash", record.TxHash),
	)
	return record, nil
}

func (s *mintService) mint(ctx context.Context, order entities.Order, ownerAddress string) (entities.MintRecord, error) {
	product, err := s.products.GetProductByID(ctx, order.ProductID)
	if err != nil {
		s.release(ctx, order.ID)
		return entities.MintRecord{}, err
	}

	metadata := mintMetadata{
		Name:        product.Title,
		Description: product.Description,
		Attributes: []mintAttribute{
			{TraitType: "Order ID", Value: order.ID},
			{TraitType: "Product ID", Value: product.ID},
			{TraitType: "Category", Value: product.Category},
		},
	}
	if len(product.Images) > 0 {
		metadata.Image = product.Images[0]
	}

	body, err := json.Marshal(metadata)
	if err != nil {
		s.release(ctx, order.ID)
		return entities.MintRecord{}, fmt.Errorf("%w: failed to marshal metadata: %v", entities.ErrMintFailed, err)
	}

	var cid string
	uploadErr := utils.Retry(utils.RetryConfig{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond}, func() error {
		var err error
		cid, err = s.storage.Add(ctx, body)
		return err
	})
	if uploadErr != nil {
		s.release(ctx, order.ID)
		return entities.MintRecord{}, fmt.Errorf("%w: metadata upload: %v", entities.ErrMintFailed, uploadErr)
	}

	uri := s.storage.URI(cid)

	result, err := s.minter.Mint(ctx, ownerAddress, order.ID, uri)
	if err != nil {
		// A determinate failure releases the claim for a clean retry. An
		// ambiguous one keeps it: a token may exist on-chain, and the
		// operator must reconcile before any further attempt.
		if !errors.Is(err, entities.ErrMintAmbiguous) {
			s.release(ctx, order.ID)
		}
		return entities.MintRecord{}, err
	}

	record := entities.MintRecord{
		OrderID:         order.ID,
		TokenID:         result.TokenID,
		ContractAddress: result.ContractAddress,
		OwnerAddress:    ownerAddress,
		MetadataURI:     uri,
		CID:             cid,
		TxHash:          result.TxHash,
		CreatedAt:       time.Now(),
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.mints.SaveMint(ctx, record); err != nil {
			return err
		}
		return s.orders.CompleteMint(ctx, order.ID)
	})
	if err != nil {
		// Token issued on-chain but the record did not persist. Keep the
		// claim and report ambiguity; reconciliation recovers the token id
		// from the chain.
		return entities.MintRecord{}, fmt.Errorf("%w: mint confirmed but not recorded: %v",
			entities.ErrMintAmbiguous, err)
	}

	return record, nil
}

func (s *mintService) release(ctx context.Context, orderID string) {
	if err := s.orders.ReleaseMint(ctx, orderID); err != nil {
		s.logger.Error("failed to release mint claim",
			slog.String("order_id", orderID), slog.Any("error", err))
	}
}
