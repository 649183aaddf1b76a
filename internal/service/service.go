package service

import (
	"context"

	"storefront/internal/model"
	"storefront/internal/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogService defines the storefront read side of the catalogue.
type CatalogService interface {
	// GetProduct retrieves a single product by ID.
	GetProduct(ctx context.Context, id string) (*model.Product, error)

	// Quote prices a selection and reports whether the quantity can be supplied.
	Quote(ctx context.Context, id string, req *model.QuoteRequest) (*model.Quote, error)

	// DeleteProduct removes a product owned by the caller together with its media.
	DeleteProduct(ctx context.Context, caller model.Caller, id string) error
}

// CartService defines operations on a buyer's cart ledger.
type CartService interface {
	// Get returns the caller's priced ledger.
	Get(ctx context.Context, caller model.Caller) (*model.CartView, error)

	// AddLine adds one purchase step of a configured product to the ledger.
	AddLine(ctx context.Context, caller model.Caller, req *model.AddCartLineRequest) (*model.AddCartLineResponse, error)

	// SetQuantity sets the quantity held under a composite key. Zero or less removes the line.
	SetQuantity(ctx context.Context, caller model.Caller, key string, quantity int) (*model.CartView, error)

	// Total sums the priced lines of the caller's ledger.
	Total(ctx context.Context, caller model.Caller) (decimal.Decimal, error)
}

// OrderService defines the order lifecycle.
type OrderService interface {
	// CreateOrder places an order from explicit lines or, when none are given, from the caller's cart.
	CreateOrder(ctx context.Context, caller model.Caller, req *model.OrderRequest) (*model.OrderCreated, error)

	// GetByID returns the order as visible to the caller.
	GetByID(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Order, error)

	// UpdateOrder applies a seller's status, payment, tracking or invoice changes.
	UpdateOrder(ctx context.Context, caller model.Caller, id uuid.UUID, update *model.OrderUpdate) (*model.Order, error)

	// SetNote upserts the caller's private note. A blank note removes it.
	SetNote(ctx context.Context, caller model.Caller, id uuid.UUID, note string) (*model.AdminNote, error)

	// DeleteNote removes the caller's private note.
	DeleteNote(ctx context.Context, caller model.Caller, id uuid.UUID) error

	// UpdateSpecialRequest replaces the buyer's special request.
	UpdateSpecialRequest(ctx context.Context, caller model.Caller, id uuid.UUID, text string) error

	// VerifyPayment checks a gateway callback and marks the order paid when accepted.
	VerifyPayment(ctx context.Context, caller model.Caller, id uuid.UUID, req *model.PaymentVerificationRequest) (*model.PaymentVerification, error)

	// RemoveInvoice clears the invoice reference and deletes the stored document.
	RemoveInvoice(ctx context.Context, caller model.Caller, id uuid.UUID) error
}

// PaymentVerifier checks payment gateway callbacks.
type PaymentVerifier interface {
	Verify(ctx context.Context, gatewayOrderID, paymentID, signature string, amount int64) (payment.Result, error)
}

func requireCaller(caller model.Caller) error {
	if caller.ID == "" {
		return model.ErrUnauthorised
	}
	return nil
}

func requireSeller(caller model.Caller) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !caller.IsSeller() {
		return model.ErrSellerOnly
	}
	return nil
}
