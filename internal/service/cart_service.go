package service

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/variant"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, logger zerolog.Logger) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// Get returns the caller's priced ledger.
func (s *cartService) Get(ctx context.Context, caller model.Caller) (*model.CartView, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	cart, err := s.load(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, cart)
}

// Total sums the priced lines of the caller's ledger.
func (s *cartService) Total(ctx context.Context, caller model.Caller) (decimal.Decimal, error) {
	view, err := s.Get(ctx, caller)
	if err != nil {
		return decimal.Zero, err
	}
	return view.Total, nil
}

// AddLine adds one purchase step of a configured product. A new line starts
// at the product's minimum purchase quantity and each further add increments
// it by the same amount.
func (s *cartService) AddLine(ctx context.Context, caller model.Caller, req *model.AddCartLineRequest) (*model.AddCartLineResponse, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if req == nil || req.ProductID == "" {
		return nil, model.NewValidationError("productId is required")
	}
	if !variant.ValidProductID(req.ProductID) {
		return nil, model.NewValidationError("invalid product id %q", req.ProductID)
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", req.ProductID).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	sel, err := variant.Canonicalize(product, req.Selection)
	if err != nil {
		s.logger.Debug().Err(err).Str("product_id", product.ID).Msg("cart add with unknown option")
		return nil, err
	}
	if variant.MissingColor(product, sel) {
		s.logger.Debug().Str("product_id", product.ID).Msg("cart add without required colour")
		return nil, model.ErrMissingColor
	}

	cart, err := s.load(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	key := variant.CartKey(product.ID, sel)
	current := cart.Lines[key]
	minBuy := product.EffectiveMinBuy()

	if !variant.IsAvailable(product, sel, variant.RequiredQuantity(minBuy, current)) {
		available, _ := variant.AvailableQuantity(product, sel)
		s.logger.Info().
			Str("product_id", product.ID).
			Int("in_cart", current).
			Int("available", available).
			Msg("cart add rejected, out of stock")
		return nil, model.NewOutOfStockError(product.Name, &available)
	}

	cart.Lines[key] = current + minBuy

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}

	view, err := s.price(ctx, cart)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("buyer_id", caller.ID).
		Str("key", key).
		Int("quantity", cart.Lines[key]).
		Msg("cart line added")

	return &model.AddCartLineResponse{Key: key, Cart: view}, nil
}

// SetQuantity sets the quantity held under key. Quantities below the
// product's minimum purchase quantity are raised to it.
func (s *cartService) SetQuantity(ctx context.Context, caller model.Caller, key string, quantity int) (*model.CartView, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	productID, _ := variant.DecodeCartKey(key)
	if productID == "" {
		return nil, model.NewValidationError("cart key is required")
	}

	cart, err := s.load(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		delete(cart.Lines, key)
	} else {
		product, err := s.productRepo.GetByID(ctx, productID)
		if err != nil {
			s.logger.Error().Err(err).Str("product_id", productID).Msg("failed to get product")
			return nil, fmt.Errorf("failed to get product: %w", err)
		}
		if product == nil {
			return nil, model.ErrProductNotFound
		}
		if _, held := cart.Lines[key]; !held {
			if err := checkCanonicalKey(product, key); err != nil {
				return nil, err
			}
		}
		cart.Lines[key] = max(quantity, product.EffectiveMinBuy())
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return s.price(ctx, cart)
}

func (s *cartService) load(ctx context.Context, buyerID string) (*model.Cart, error) {
	cart, err := s.cartRepo.Get(ctx, buyerID)
	if err != nil {
		s.logger.Error().Err(err).Str("buyer_id", buyerID).Msg("failed to load cart")
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.Lines == nil {
		cart.Lines = make(map[string]int)
	}
	return cart, nil
}

func (s *cartService) save(ctx context.Context, cart *model.Cart) error {
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		s.logger.Error().Err(err).Str("buyer_id", cart.BuyerID).Msg("failed to save cart")
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// price renders the ledger in key order. Lines whose product no longer
// exists are marked unavailable and left out of the total.
func (s *cartService) price(ctx context.Context, cart *model.Cart) (*model.CartView, error) {
	keys := slices.Sorted(maps.Keys(cart.Lines))

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		productID, _ := variant.DecodeCartKey(key)
		if !slices.Contains(ids, productID) {
			ids = append(ids, productID)
		}
	}

	products := map[string]*model.Product{}
	if len(ids) > 0 {
		found, err := s.productRepo.GetByIDs(ctx, ids)
		if err != nil {
			s.logger.Error().Err(err).Str("buyer_id", cart.BuyerID).Msg("failed to get cart products")
			return nil, fmt.Errorf("failed to get cart products: %w", err)
		}
		for i := range found {
			products[found[i].ID] = &found[i]
		}
	}

	view := &model.CartView{
		BuyerID: cart.BuyerID,
		Lines:   make([]model.CartLineView, 0, len(keys)),
		Total:   decimal.Zero,
	}
	for _, key := range keys {
		qty := cart.Lines[key]
		if qty <= 0 {
			continue
		}
		productID, sel := variant.DecodeCartKey(key)
		line := model.CartLineView{
			Key:       key,
			ProductID: productID,
			Selection: sel,
			Quantity:  qty,
		}

		product, ok := products[productID]
		if !ok {
			line.Unavailable = true
			view.Lines = append(view.Lines, line)
			continue
		}

		canon, err := variant.Canonicalize(product, sel)
		if err != nil {
			s.logger.Debug().Err(err).Str("key", key).Msg("cart line no longer matches catalogue")
			line.Unavailable = true
			view.Lines = append(view.Lines, line)
			continue
		}

		unit := variant.UnitPrice(product, canon)
		lineTotal := variant.LineTotal(product, canon, qty)
		line.ProductName = product.Name
		line.UnitPrice = &unit
		line.LineTotal = &lineTotal
		view.Total = view.Total.Add(lineTotal)
		view.Lines = append(view.Lines, line)
	}

	return view, nil
}

// checkCanonicalKey rejects a key for a line the cart does not hold unless it
// is exactly the key AddLine would have built for the same choice.
func checkCanonicalKey(product *model.Product, key string) error {
	_, sel := variant.DecodeCartKey(key)
	canon, err := variant.Canonicalize(product, sel)
	if err != nil {
		return err
	}
	if variant.CartKey(product.ID, canon) != key {
		return model.NewValidationError("cart key %q does not match the catalogue", key)
	}
	return nil
}
