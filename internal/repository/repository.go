package repository

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for catalogue data access operations.
type ProductRepository interface {
	// GetByID retrieves a single product by its ID. Returns nil when it does not exist.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves the products that exist among ids.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// Create inserts a product.
	Create(ctx context.Context, product *model.Product) error

	// Delete removes a product. Returns false when it did not exist.
	Delete(ctx context.Context, id string) (bool, error)

	// DecrementStock atomically takes quantity units from a product's stock
	// within tx. Unlimited stock always succeeds. Returns false when the
	// product is missing or holds fewer than quantity units.
	DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int) (bool, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderLines inserts multiple order lines within the provided transaction.
	CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error

	// GetByID retrieves an order with its lines and notes. Returns nil when it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetForUpdate retrieves an order with its lines and locks the order row until tx ends.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// Update writes the order's mutable header fields within the provided transaction.
	Update(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// SetTracking sets the tracking link on every line of productID and returns the number of lines touched.
	SetTracking(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, productID, trackingURL string, at time.Time) (int64, error)

	// UpdateSpecialRequest replaces the buyer's special request. Returns false when the order does not exist.
	UpdateSpecialRequest(ctx context.Context, orderID uuid.UUID, text string) (bool, error)

	// UpsertNote creates or replaces a seller's note on an order.
	UpsertNote(ctx context.Context, orderID uuid.UUID, note model.AdminNote) error

	// DeleteNote removes a seller's note. Returns false when there was none.
	DeleteNote(ctx context.Context, orderID uuid.UUID, sellerID string) (bool, error)
}

// CartRepository defines the interface for cart ledger persistence.
// Saves replace the whole ledger; the last writer wins.
type CartRepository interface {
	// Get returns the buyer's ledger, or an empty one when none is stored.
	Get(ctx context.Context, buyerID string) (*model.Cart, error)

	// Save replaces the buyer's ledger.
	Save(ctx context.Context, cart *model.Cart) error

	// Delete removes the buyer's ledger.
	Delete(ctx context.Context, buyerID string) error
}
