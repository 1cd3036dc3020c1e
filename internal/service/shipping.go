package service

import (
	"context"
	"log/slog"

	"github.com/craftchain/marketplace-service/internal/entities"
)

type ShippingProvider interface {
	GetRates(ctx context.Context, from, to entities.ShippingAddress, dims entities.Dimensions) ([]entities.RateOption, error)
	PurchaseLabel(ctx context.Context, rateID string) (entities.ShippingLabel, error)
}

type shippingService struct {
	logger   *slog.Logger
	provider ShippingProvider
}

func NewShippingService(logger *slog.Logger, provider ShippingProvider) *shippingService {
	return &shippingService{
		logger:   logger.With(slog.String("service", "shipping")),
		provider: provider,
	}
}

// Quote returns carrier rate options for one parcel. Stateless and uncached:
// every call hits the rating service, and the returned rate ids expire on the
// provider's schedule. Input checks run before any network call.
func (s *shippingService) Quote(ctx context.Context, from *entities.ShippingAddress, to entities.ShippingAddress, dims entities.Dimensions) ([]entities.RateOption, error) {
	if from == nil {
		return nil, entities.ErrOriginNotConfigured
	}
	if !dims.Positive() {
		return nil, entities.ErrInvalidDimensions
	}

	rates, err := s.provider.GetRates(ctx, *from, to, dims)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, entities.ErrNoRatesAvailable
	}

	s.logger.Debug("quoted shipping rates", slog.Int("count", len(rates)))
	return rates, nil
}
