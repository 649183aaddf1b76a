package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"storefront/internal/events"
	"storefront/internal/media"
	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/variant"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OrderConfig holds order lifecycle policy.
type OrderConfig struct {
	// SurchargePercent is added on top of the line subtotal when an order is placed.
	SurchargePercent decimal.Decimal

	// EnforceStatusGraph rejects status and payment changes that skip the transition graph.
	EnforceStatusGraph bool

	// StrictVariantStock re-checks selected variant stock at order creation.
	StrictVariantStock bool

	// RestrictNotesToOwners limits notes to sellers owning a product in the order.
	RestrictNotesToOwners bool
}

// DefaultOrderConfig returns the stock policy: a 2% surcharge and no graph enforcement.
func DefaultOrderConfig() OrderConfig {
	return OrderConfig{SurchargePercent: decimal.NewFromInt(2)}
}

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	verifier    PaymentVerifier
	publisher   events.Publisher
	media       media.Store
	cfg         OrderConfig
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	verifier PaymentVerifier,
	publisher events.Publisher,
	mediaStore media.Store,
	cfg OrderConfig,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		verifier:    verifier,
		publisher:   publisher,
		media:       mediaStore,
		cfg:         cfg,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// errStockTaken marks a conditional decrement that lost the race for stock.
type errStockTaken struct {
	productID string
}

func (e *errStockTaken) Error() string {
	return fmt.Sprintf("stock for product %s was taken by a concurrent order", e.productID)
}

// CreateOrder places an order. Stock is taken per product with a conditional
// decrement inside the order transaction, so concurrent orders can never
// oversell.
func (s *orderService) CreateOrder(ctx context.Context, caller model.Caller, req *model.OrderRequest) (*model.OrderCreated, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, model.NewValidationError("order request is required")
	}
	if strings.TrimSpace(req.AddressRef) == "" {
		return nil, model.NewValidationError("addressRef is required")
	}

	lines := req.Lines
	fromCart := false
	if len(lines) == 0 {
		var err error
		lines, err = s.cartLines(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		fromCart = true
	}
	if len(lines) == 0 {
		return nil, model.NewValidationError("order must contain at least one line")
	}

	quantities := make(map[string]int)
	for i, line := range lines {
		if line.ProductID == "" {
			return nil, model.NewValidationError("line %d: productId is required", i)
		}
		if line.Quantity <= 0 {
			s.logger.Warn().
				Int("line_index", i).
				Str("product_id", line.ProductID).
				Int("quantity", line.Quantity).
				Msg("invalid quantity")
			return nil, model.ErrInvalidQuantity
		}
		quantities[line.ProductID] += line.Quantity
	}
	productIDs := slices.Sorted(maps.Keys(quantities))

	products, err := s.productsByID(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	for _, id := range productIDs {
		product, ok := products[id]
		if !ok {
			return nil, model.NewNotFoundError(model.ErrCodeProductNotFound, "product %s not found", id)
		}
		if product.StockQuantity != nil && *product.StockQuantity < quantities[id] {
			s.logger.Info().
				Str("product_id", id).
				Int("requested", quantities[id]).
				Int("available", *product.StockQuantity).
				Msg("order rejected, out of stock")
			return nil, model.NewOutOfStockError(product.Name, product.StockQuantity)
		}
	}

	lines = slices.Clone(lines)
	for i := range lines {
		sel, err := variant.Canonicalize(products[lines[i].ProductID], lines[i].Selection)
		if err != nil {
			s.logger.Info().Err(err).Int("line_index", i).Str("product_id", lines[i].ProductID).Msg("order rejected, unknown option")
			return nil, err
		}
		lines[i].Selection = sel
	}

	if s.cfg.StrictVariantStock {
		for _, line := range lines {
			product := products[line.ProductID]
			if !product.HasVariants() || variant.IsAvailable(product, line.Selection, line.Quantity) {
				continue
			}
			available, _ := variant.AvailableQuantity(product, line.Selection)
			return nil, model.NewOutOfStockError(product.Name, &available)
		}
	}

	now := time.Now().UTC()
	order := &model.Order{
		ID:             uuid.New(),
		BuyerID:        caller.ID,
		AddressRef:     strings.TrimSpace(req.AddressRef),
		SpecialRequest: req.SpecialRequest,
		Status:         model.StatusOrderPlaced,
		PaymentStatus:  model.PaymentPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	subtotal := decimal.Zero
	orderLines := make([]model.OrderLine, len(lines))
	for i, line := range lines {
		product := products[line.ProductID]
		orderLines[i] = model.OrderLine{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   variant.UnitPrice(product, line.Selection),
			Selection:   line.Selection,
		}
		subtotal = subtotal.Add(variant.LineTotal(product, line.Selection, line.Quantity))
	}
	order.TotalAmount = s.chargedTotal(subtotal)
	order.Lines = orderLines

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := s.orderRepo.CreateOrderLines(ctx, tx, orderLines); err != nil {
			return fmt.Errorf("failed to create order lines: %w", err)
		}
		for _, id := range productIDs {
			ok, err := s.productRepo.DecrementStock(ctx, tx, id, quantities[id])
			if err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
			if !ok {
				return &errStockTaken{productID: id}
			}
		}
		return nil
	})
	if err != nil {
		var taken *errStockTaken
		if errors.As(err, &taken) {
			return nil, s.outOfStockAfterRace(ctx, products[taken.productID])
		}
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to place order")
		return nil, err
	}

	if fromCart {
		if err := s.cartRepo.Delete(ctx, caller.ID); err != nil {
			s.logger.Error().Err(err).Str("buyer_id", caller.ID).Msg("failed to clear submitted cart")
		}
	}

	s.publish(ctx, events.OrderEvent{
		Type:          events.TypeOrderCreated,
		OrderID:       order.ID.String(),
		CurrentStatus: string(order.Status),
		ActorID:       caller.ID,
		OccurredAt:    now,
		Metadata: map[string]any{
			"totalAmount": order.TotalAmount.StringFixed(2),
			"productIds":  productIDs,
		},
	})

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("buyer_id", caller.ID).
		Int("line_count", len(orderLines)).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("order created successfully")

	return &model.OrderCreated{OrderID: order.ID, TotalAmount: order.TotalAmount}, nil
}

// chargedTotal applies the surcharge and floors to cents.
func (s *orderService) chargedTotal(subtotal decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(s.cfg.SurchargePercent.Div(decimal.NewFromInt(100)))
	return subtotal.Mul(factor).RoundFloor(2)
}

func (s *orderService) cartLines(ctx context.Context, buyerID string) ([]model.OrderLineRequest, error) {
	cart, err := s.cartRepo.Get(ctx, buyerID)
	if err != nil {
		s.logger.Error().Err(err).Str("buyer_id", buyerID).Msg("failed to load cart")
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	lines := make([]model.OrderLineRequest, 0, len(cart.Lines))
	for _, key := range slices.Sorted(maps.Keys(cart.Lines)) {
		qty := cart.Lines[key]
		if qty <= 0 {
			continue
		}
		productID, sel := variant.DecodeCartKey(key)
		lines = append(lines, model.OrderLineRequest{ProductID: productID, Selection: sel, Quantity: qty})
	}
	return lines, nil
}

func (s *orderService) outOfStockAfterRace(ctx context.Context, product *model.Product) error {
	s.logger.Info().Str("product_id", product.ID).Msg("order rejected, stock taken concurrently")

	current, err := s.productRepo.GetByID(ctx, product.ID)
	if err != nil || current == nil || current.StockQuantity == nil {
		return model.NewOutOfStockError(product.Name, nil)
	}
	return model.NewOutOfStockError(product.Name, current.StockQuantity)
}

// GetByID returns the order as visible to the caller. The buyer sees no
// notes; a seller owning a product in the order sees only their own note.
func (s *orderService) GetByID(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Order, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.BuyerID == caller.ID {
		order.Notes = nil
		return order, nil
	}

	if caller.IsSeller() {
		owned, err := s.ownedProducts(ctx, caller, order)
		if err != nil {
			return nil, err
		}
		if len(owned) > 0 {
			return ownView(caller, order), nil
		}
	}

	return nil, model.ErrNotOrderBuyer
}

// UpdateOrder applies a seller's changes under a row lock. Status and payment
// are shared between the sellers of an order and follow last-writer-wins.
func (s *orderService) UpdateOrder(ctx context.Context, caller model.Caller, id uuid.UUID, update *model.OrderUpdate) (*model.Order, error) {
	if err := requireSeller(caller); err != nil {
		return nil, err
	}
	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	var (
		previousStatus  model.OrderStatus
		previousPayment model.PaymentStatus
		current         *model.Order
	)

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}
		if order == nil {
			return model.ErrOrderNotFound
		}

		owned, err := s.ownedProducts(ctx, caller, order)
		if err != nil {
			return err
		}
		if len(owned) == 0 {
			s.logger.Warn().
				Str("order_id", id.String()).
				Str("caller_id", caller.ID).
				Msg("order update by non-owning seller rejected")
			return model.ErrNotOrderSeller
		}

		previousStatus = order.Status
		previousPayment = order.PaymentStatus
		now := time.Now().UTC()

		if update.Status != nil {
			if s.cfg.EnforceStatusGraph && !order.Status.CanTransitionTo(*update.Status) {
				return model.NewDomainError(model.KindValidation, model.ErrCodeInvalidStatus,
					fmt.Sprintf("cannot move order from %q to %q", order.Status, *update.Status))
			}
			order.Status = *update.Status
		}

		if update.PaymentStatus != nil {
			if s.cfg.EnforceStatusGraph && !order.PaymentStatus.CanTransitionTo(*update.PaymentStatus) {
				return model.NewDomainError(model.KindValidation, model.ErrCodeInvalidStatus,
					fmt.Sprintf("cannot move payment from %q to %q", order.PaymentStatus, *update.PaymentStatus))
			}
			order.PaymentStatus = *update.PaymentStatus
			if order.PaymentStatus == model.PaymentRefunded && order.RefundDate == nil {
				order.RefundDate = &now
			}
		}

		if update.CancellationReason != nil {
			order.CancellationReason = update.CancellationReason
		}
		if update.RefundReason != nil {
			order.RefundReason = update.RefundReason
		}
		if update.InvoiceRef != nil {
			order.InvoiceRef = update.InvoiceRef
		}

		if update.TrackingLink != nil {
			productID := *update.ProductID
			if !order.HasProduct(productID) {
				return model.NewNotFoundError(model.ErrCodeProductNotFound, "product %s is not part of this order", productID)
			}
			if !owned[productID] {
				s.logger.Warn().
					Str("order_id", id.String()).
					Str("product_id", productID).
					Str("caller_id", caller.ID).
					Msg("tracking update on another seller's line rejected")
				return model.NewForbiddenError("caller does not own product %s", productID)
			}
			if _, err := s.orderRepo.SetTracking(ctx, tx, order.ID, productID, strings.TrimSpace(*update.TrackingLink), now); err != nil {
				return fmt.Errorf("failed to set tracking: %w", err)
			}
		}

		order.UpdatedAt = now
		if err := s.orderRepo.Update(ctx, tx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		current = order
		return nil
	})
	if err != nil {
		if _, ok := model.AsDomainError(err); !ok {
			s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order")
		}
		return nil, err
	}

	s.publishUpdate(ctx, caller, current, previousStatus, previousPayment, update)

	s.logger.Info().
		Str("order_id", id.String()).
		Str("seller_id", caller.ID).
		Str("status", string(current.Status)).
		Str("payment_status", string(current.PaymentStatus)).
		Msg("order updated")

	refreshed, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return ownView(caller, refreshed), nil
}

func validateUpdate(update *model.OrderUpdate) error {
	if update == nil {
		return model.NewValidationError("update is required")
	}
	if update.Status != nil && !update.Status.Valid() {
		return model.NewDomainError(model.KindValidation, model.ErrCodeInvalidStatus,
			fmt.Sprintf("unknown order status %q", *update.Status))
	}
	if update.PaymentStatus != nil && !update.PaymentStatus.Valid() {
		return model.NewDomainError(model.KindValidation, model.ErrCodeInvalidStatus,
			fmt.Sprintf("unknown payment status %q", *update.PaymentStatus))
	}
	if update.TrackingLink != nil {
		if strings.TrimSpace(*update.TrackingLink) == "" {
			return model.NewValidationError("trackingLink cannot be empty")
		}
		if update.ProductID == nil || *update.ProductID == "" {
			return model.NewValidationError("productId is required with trackingLink")
		}
	}
	return nil
}

func (s *orderService) publishUpdate(ctx context.Context, caller model.Caller, order *model.Order, prevStatus model.OrderStatus, prevPayment model.PaymentStatus, update *model.OrderUpdate) {
	at := order.UpdatedAt
	if order.Status != prevStatus {
		s.publish(ctx, events.OrderEvent{
			Type:           events.TypeOrderStatusChanged,
			OrderID:        order.ID.String(),
			PreviousStatus: string(prevStatus),
			CurrentStatus:  string(order.Status),
			ActorID:        caller.ID,
			OccurredAt:     at,
		})
	}
	if order.PaymentStatus != prevPayment {
		s.publish(ctx, events.OrderEvent{
			Type:           events.TypeOrderPaymentChanged,
			OrderID:        order.ID.String(),
			PreviousStatus: string(prevPayment),
			CurrentStatus:  string(order.PaymentStatus),
			ActorID:        caller.ID,
			OccurredAt:     at,
		})
	}
	if update.TrackingLink != nil {
		s.publish(ctx, events.OrderEvent{
			Type:       events.TypeOrderTrackingUpdated,
			OrderID:    order.ID.String(),
			ActorID:    caller.ID,
			OccurredAt: at,
			Metadata:   map[string]any{"productId": *update.ProductID},
		})
	}
}

// SetNote upserts the caller's note. A blank note removes it and returns nil.
func (s *orderService) SetNote(ctx context.Context, caller model.Caller, id uuid.UUID, note string) (*model.AdminNote, error) {
	if err := requireSeller(caller); err != nil {
		return nil, err
	}

	if strings.TrimSpace(note) == "" {
		return nil, s.DeleteNote(ctx, caller, id)
	}

	if err := s.checkNoteAccess(ctx, caller, id); err != nil {
		return nil, err
	}

	adminNote := model.AdminNote{
		SellerID:  caller.ID,
		Note:      note,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.orderRepo.UpsertNote(ctx, id, adminNote); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to save note")
		return nil, fmt.Errorf("failed to save note: %w", err)
	}

	return &adminNote, nil
}

// DeleteNote removes the caller's note. Removing a missing note is not an error.
func (s *orderService) DeleteNote(ctx context.Context, caller model.Caller, id uuid.UUID) error {
	if err := requireSeller(caller); err != nil {
		return err
	}
	if err := s.checkNoteAccess(ctx, caller, id); err != nil {
		return err
	}

	deleted, err := s.orderRepo.DeleteNote(ctx, id, caller.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete note")
		return fmt.Errorf("failed to delete note: %w", err)
	}

	s.logger.Debug().Str("order_id", id.String()).Bool("deleted", deleted).Msg("note removed")
	return nil
}

func (s *orderService) checkNoteAccess(ctx context.Context, caller model.Caller, id uuid.UUID) error {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return err
	}
	if !s.cfg.RestrictNotesToOwners {
		return nil
	}

	owned, err := s.ownedProducts(ctx, caller, order)
	if err != nil {
		return err
	}
	if len(owned) == 0 {
		return model.ErrNotOrderSeller
	}
	return nil
}

// UpdateSpecialRequest replaces the special request on the caller's own order.
func (s *orderService) UpdateSpecialRequest(ctx context.Context, caller model.Caller, id uuid.UUID, text string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}

	order, err := s.getOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.BuyerID != caller.ID {
		return model.ErrNotOrderBuyer
	}

	updated, err := s.orderRepo.UpdateSpecialRequest(ctx, id, text)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update special request")
		return fmt.Errorf("failed to update special request: %w", err)
	}
	if !updated {
		return model.ErrOrderNotFound
	}
	return nil
}

// VerifyPayment checks a gateway callback for the caller's order. An accepted
// payment marks the order paid unless it is already paid or refunded.
func (s *orderService) VerifyPayment(ctx context.Context, caller model.Caller, id uuid.UUID, req *model.PaymentVerificationRequest) (*model.PaymentVerification, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if req == nil || req.GatewayOrderID == "" || req.PaymentID == "" {
		return nil, model.NewValidationError("gatewayOrderId and paymentId are required")
	}

	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != caller.ID {
		return nil, model.ErrNotOrderBuyer
	}

	// gateway amounts are in minor units and totals are floored to cents
	amount := order.TotalAmount.Shift(2).IntPart()
	result, err := s.verifier.Verify(ctx, req.GatewayOrderID, req.PaymentID, req.Signature, amount)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("payment verification failed")
		if errors.Is(err, payment.ErrGatewayUnavailable) {
			return nil, model.NewUpstreamPaymentError(err)
		}
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}

	if !result.Accepted {
		s.logger.Info().
			Str("order_id", id.String()).
			Str("payment_id", req.PaymentID).
			Str("reason", result.Reason).
			Msg("payment not accepted")
		return &model.PaymentVerification{Accepted: false, Reason: result.Reason}, nil
	}

	var previous model.PaymentStatus
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		locked, err := s.orderRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}
		if locked == nil {
			return model.ErrOrderNotFound
		}

		previous = locked.PaymentStatus
		if locked.PaymentStatus != model.PaymentRefunded {
			locked.PaymentStatus = model.PaymentPaid
		}
		locked.GatewayOrderID = &req.GatewayOrderID
		locked.GatewayPaymentID = &req.PaymentID
		locked.UpdatedAt = time.Now().UTC()
		order = locked

		if err := s.orderRepo.Update(ctx, tx, locked); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		return nil
	})
	if err != nil {
		if _, ok := model.AsDomainError(err); !ok {
			s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to record payment")
		}
		return nil, err
	}

	if order.PaymentStatus != previous {
		s.publish(ctx, events.OrderEvent{
			Type:           events.TypeOrderPaymentChanged,
			OrderID:        id.String(),
			PreviousStatus: string(previous),
			CurrentStatus:  string(order.PaymentStatus),
			ActorID:        caller.ID,
			OccurredAt:     order.UpdatedAt,
			Metadata:       map[string]any{"paymentId": req.PaymentID, "reason": result.Reason},
		})
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("payment_id", req.PaymentID).
		Str("reason", result.Reason).
		Msg("payment accepted")

	return &model.PaymentVerification{Accepted: true, Reason: result.Reason}, nil
}

// RemoveInvoice clears the invoice reference and then deletes the stored
// document. A failed blob delete is logged and does not restore the reference.
func (s *orderService) RemoveInvoice(ctx context.Context, caller model.Caller, id uuid.UUID) error {
	if err := requireSeller(caller); err != nil {
		return err
	}

	var invoiceKey string
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}
		if order == nil {
			return model.ErrOrderNotFound
		}

		owned, err := s.ownedProducts(ctx, caller, order)
		if err != nil {
			return err
		}
		if len(owned) == 0 {
			return model.ErrNotOrderSeller
		}
		if order.InvoiceRef == nil {
			return nil
		}

		invoiceKey = *order.InvoiceRef
		order.InvoiceRef = nil
		order.UpdatedAt = time.Now().UTC()
		if err := s.orderRepo.Update(ctx, tx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		return nil
	})
	if err != nil {
		if _, ok := model.AsDomainError(err); !ok {
			s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to remove invoice")
		}
		return err
	}

	if invoiceKey != "" {
		if err := s.media.Delete(ctx, invoiceKey); err != nil {
			s.logger.Error().Err(err).Str("order_id", id.String()).Str("invoice", invoiceKey).Msg("failed to delete invoice document")
		}
	}
	return nil
}

func (s *orderService) getOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) productsByID(ctx context.Context, ids []string) (map[string]*model.Product, error) {
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("product_count", len(ids)).Msg("failed to retrieve products")
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	byID := make(map[string]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}

// ownedProducts returns the ids of the order's products owned by caller.
// Products deleted since the order was placed have no owner.
func (s *orderService) ownedProducts(ctx context.Context, caller model.Caller, order *model.Order) (map[string]bool, error) {
	owned := make(map[string]bool)
	if !caller.IsSeller() {
		return owned, nil
	}

	products, err := s.productsByID(ctx, order.ProductIDs())
	if err != nil {
		return nil, err
	}
	for id, product := range products {
		if product.SellerID == caller.ID {
			owned[id] = true
		}
	}
	return owned, nil
}

// ownView strips every note but the caller's own.
func ownView(caller model.Caller, order *model.Order) *model.Order {
	var notes []model.AdminNote
	if note := order.NoteFor(caller.ID); note != nil {
		notes = []model.AdminNote{*note}
	}
	order.Notes = notes
	return order
}

// withTx runs fn in a transaction, rolling back when it fails.
func (s *orderService) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *orderService) publish(ctx context.Context, event events.OrderEvent) {
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error().
			Err(err).
			Str("event_type", event.Type).
			Str("order_id", event.OrderID).
			Msg("failed to publish order event")
	}
}
