package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/craftchain/marketplace-service/internal/entities"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type ProductRepo interface {
	SaveProduct(ctx context.Context, p entities.Product) error
	GetProductByID(ctx context.Context, id string) (entities.Product, error)
	ListProducts(ctx context.Context, limit int) ([]entities.Product, error)
	AppendProductImages(ctx context.Context, id string, urls []string) error
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

type ImageStore interface {
	Add(ctx context.Context, data []byte) (string, error)
	GatewayURL(cid string) string
}

type productService struct {
	logger *slog.Logger
	repo   ProductRepo
	cache  Cache
	images ImageStore
}

func NewProductService(logger *slog.Logger, repo ProductRepo, cache Cache, images ImageStore) *productService {
	return &productService{
		logger: logger.With(slog.String("service", "product")),
		repo:   repo,
		cache:  cache,
		images: images,
	}
}

type CreateProductInput struct {
	SellerID    string
	Title       string
	Description string
	Category    string
	Price       decimal.Decimal
	NFTEnabled  bool
	Images      []string
	Dimensions  entities.Dimensions
	ShipFrom    *entities.ShippingAddress
}

func (s *productService) CreateProduct(ctx context.Context, in CreateProductInput) (entities.Product, error) {
	product := entities.Product{
		ID:          uuid.NewString(),
		SellerID:    in.SellerID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Currency:    "USD",
		NFTEnabled:  in.NFTEnabled,
		Images:      in.Images,
		Dimensions:  in.Dimensions,
		ShipFrom:    in.ShipFrom,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.SaveProduct(ctx, product); err != nil {
		return entities.Product{}, err
	}

	s.logger.Info("product created",
		slog.String("product_id", product.ID),
		slog.String("seller_id", product.SellerID),
	)
	return product, nil
}

func (s *productService) GetProductByID(ctx context.Context, id string) (entities.Product, error) {
	if data, ok := s.cache.Get(id); ok {
		var product entities.Product
		if err := product.Unmarshal(data); err == nil {
			return product, nil
		}
		s.cache.Delete(id)
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return entities.Product{}, err
	}

	if data, err := product.Marshal(); err == nil {
		s.cache.Set(id, data)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, limit int) ([]entities.Product, error) {
	return s.repo.ListProducts(ctx, limit)
}

// UploadImages pushes each file to content-addressed storage concurrently and
// appends the resulting gateway URLs to the product.
func (s *productService) UploadImages(ctx context.Context, productID string, files [][]byte) ([]string, error) {
	if _, err := s.repo.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}

	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, data := range files {
		g.Go(func() error {
			cid, err := s.images.Add(gctx, data)
			if err != nil {
				return err
			}
			urls[i] = s.images.GatewayURL(cid)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.repo.AppendProductImages(ctx, productID, urls); err != nil {
		return nil, err
	}

	// Drop the stale cached copy; next read refills.
	s.cache.Delete(productID)
	return urls, nil
}
