package service

import (
	"context"
	"fmt"

	"storefront/internal/media"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/variant"

	"github.com/rs/zerolog"
)

// catalogService implements CatalogService.
type catalogService struct {
	productRepo repository.ProductRepository
	media       media.Store
	logger      zerolog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(productRepo repository.ProductRepository, mediaStore media.Store, logger zerolog.Logger) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		media:       mediaStore,
		logger:      logger.With().Str("service", "catalog").Logger(),
	}
}

// GetProduct retrieves a single product by ID.
func (s *catalogService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, model.NewValidationError("product id is required")
	}
	if !variant.ValidProductID(id) {
		return nil, model.NewValidationError("invalid product id %q", id)
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		s.logger.Debug().Str("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// Quote prices a selection. The quantity defaults to the product's minimum purchase quantity.
func (s *catalogService) Quote(ctx context.Context, id string, req *model.QuoteRequest) (*model.Quote, error) {
	if req == nil {
		req = &model.QuoteRequest{}
	}
	if req.Quantity < 0 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	sel, err := variant.Canonicalize(product, req.Selection)
	if err != nil {
		return nil, err
	}
	if variant.MissingColor(product, sel) {
		return nil, model.ErrMissingColor
	}

	quantity := max(req.Quantity, product.EffectiveMinBuy())
	unit := variant.UnitPrice(product, sel)

	quote := &model.Quote{
		ProductID: product.ID,
		Key:       variant.CartKey(product.ID, sel),
		Quantity:  quantity,
		UnitPrice: unit,
		Subtotal:  variant.LineTotal(product, sel, quantity),
		Available: variant.IsAvailable(product, sel, quantity),
	}
	if available, limited := variant.AvailableQuantity(product, sel); limited {
		quote.AvailableQuantity = &available
	}

	return quote, nil
}

// DeleteProduct removes a product owned by the caller. Media deletion
// failures are logged and do not restore the product.
func (s *catalogService) DeleteProduct(ctx context.Context, caller model.Caller, id string) error {
	if err := requireSeller(caller); err != nil {
		return err
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if product.SellerID != caller.ID {
		s.logger.Warn().
			Str("product_id", id).
			Str("caller_id", caller.ID).
			Msg("product delete by non-owner rejected")
		return model.NewForbiddenError("caller does not own product %s", id)
	}

	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !deleted {
		return model.ErrProductNotFound
	}

	if len(product.MediaKeys) > 0 {
		if err := s.media.Delete(ctx, product.MediaKeys...); err != nil {
			s.logger.Error().
				Err(err).
				Str("product_id", id).
				Int("media_count", len(product.MediaKeys)).
				Msg("failed to delete product media")
		}
	}

	s.logger.Info().Str("product_id", id).Str("seller_id", caller.ID).Msg("product deleted")
	return nil
}
