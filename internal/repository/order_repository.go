package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, buyer_id, address_ref, special_request, total_amount, status, payment_status,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.BuyerID,
		order.AddressRef,
		order.SpecialRequest,
		order.TotalAmount.String(),
		string(order.Status),
		string(order.PaymentStatus),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderLines inserts multiple order lines within the provided transaction.
func (r *orderRepository) CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_lines (id, order_id, product_id, product_name, quantity, unit_price, selection)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, line := range lines {
		var selection []byte
		if len(line.Selection) > 0 {
			raw, err := json.Marshal(line.Selection)
			if err != nil {
				return fmt.Errorf("failed to encode selection: %w", err)
			}
			selection = raw
		}
		batch.Queue(query,
			line.ID,
			line.OrderID,
			line.ProductID,
			line.ProductName,
			line.Quantity,
			line.UnitPrice.String(),
			selection,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(lines); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", lines[i].OrderID.String()).
				Str("product_id", lines[i].ProductID).
				Msg("failed to create order line")
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(lines)).
		Msg("order lines created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its lines and notes.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := r.getOrder(ctx, r.pool, id, false)
	if err != nil || order == nil {
		return order, err
	}

	notes, err := r.getNotes(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Notes = notes

	return order, nil
}

// GetForUpdate retrieves an order with its lines and locks the order row until tx ends.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	return r.getOrder(ctx, tx, id, true)
}

func (r *orderRepository) getOrder(ctx context.Context, q querier, id uuid.UUID, lock bool) (*model.Order, error) {
	orderQuery := `
		SELECT id, buyer_id, address_ref, special_request, total_amount::text, status, payment_status,
			cancellation_reason, refund_reason, refund_date, invoice_ref,
			gateway_order_id, gateway_payment_id, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	if lock {
		orderQuery += ` FOR UPDATE`
	}

	var (
		order         model.Order
		total         string
		status        string
		paymentStatus string
	)
	err := q.QueryRow(ctx, orderQuery, id).Scan(
		&order.ID,
		&order.BuyerID,
		&order.AddressRef,
		&order.SpecialRequest,
		&total,
		&status,
		&paymentStatus,
		&order.CancellationReason,
		&order.RefundReason,
		&order.RefundDate,
		&order.InvoiceRef,
		&order.GatewayOrderID,
		&order.GatewayPaymentID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if order.TotalAmount, err = parseDecimal(total); err != nil {
		return nil, err
	}
	order.Status = model.OrderStatus(status)
	order.PaymentStatus = model.PaymentStatus(paymentStatus)

	lines, err := r.getLines(ctx, q, id)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return &order, nil
}

func (r *orderRepository) getLines(ctx context.Context, q querier, orderID uuid.UUID) ([]model.OrderLine, error) {
	linesQuery := `
		SELECT id, order_id, product_id, product_name, quantity, unit_price::text, selection,
			tracking_url, tracking_updated_at
		FROM order_lines
		WHERE order_id = $1
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, linesQuery, orderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("failed to query order lines")
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []model.OrderLine
	for rows.Next() {
		var (
			line      model.OrderLine
			unitPrice string
			selection []byte
		)
		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.ProductName,
			&line.Quantity,
			&unitPrice,
			&selection,
			&line.TrackingURL,
			&line.TrackingUpdatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order line row")
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		if line.UnitPrice, err = parseDecimal(unitPrice); err != nil {
			return nil, err
		}
		if len(selection) > 0 {
			if err := json.Unmarshal(selection, &line.Selection); err != nil {
				return nil, fmt.Errorf("failed to decode selection: %w", err)
			}
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order line rows")
		return nil, fmt.Errorf("error iterating order lines: %w", err)
	}

	return lines, nil
}

func (r *orderRepository) getNotes(ctx context.Context, orderID uuid.UUID) ([]model.AdminNote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT seller_id, note, updated_at
		FROM order_notes
		WHERE order_id = $1
		ORDER BY seller_id
	`, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query order notes")
		return nil, fmt.Errorf("failed to query order notes: %w", err)
	}
	defer rows.Close()

	var notes []model.AdminNote
	for rows.Next() {
		var note model.AdminNote
		if err := rows.Scan(&note.SellerID, &note.Note, &note.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order notes: %w", err)
	}

	return notes, nil
}

// Update writes the order's mutable header fields within the provided transaction.
func (r *orderRepository) Update(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		UPDATE orders
		SET status = $2,
			payment_status = $3,
			cancellation_reason = $4,
			refund_reason = $5,
			refund_date = $6,
			invoice_ref = $7,
			gateway_order_id = $8,
			gateway_payment_id = $9,
			updated_at = $10
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		string(order.Status),
		string(order.PaymentStatus),
		order.CancellationReason,
		order.RefundReason,
		order.RefundDate,
		order.InvoiceRef,
		order.GatewayOrderID,
		order.GatewayPaymentID,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}

	return nil
}

// SetTracking sets the tracking link on every line of productID.
func (r *orderRepository) SetTracking(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, productID, trackingURL string, at time.Time) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE order_lines
		SET tracking_url = $3, tracking_updated_at = $4
		WHERE order_id = $1 AND product_id = $2
	`, orderID, productID, trackingURL, at)
	if err != nil {
		r.logger.Error().Err(err).
			Str("order_id", orderID.String()).
			Str("product_id", productID).
			Msg("failed to set tracking link")
		return 0, fmt.Errorf("failed to set tracking link: %w", err)
	}

	return tag.RowsAffected(), nil
}

// UpdateSpecialRequest replaces the buyer's special request.
func (r *orderRepository) UpdateSpecialRequest(ctx context.Context, orderID uuid.UUID, text string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET special_request = $2, updated_at = NOW() WHERE id = $1
	`, orderID, text)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to update special request")
		return false, fmt.Errorf("failed to update special request: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// UpsertNote creates or replaces a seller's note on an order.
func (r *orderRepository) UpsertNote(ctx context.Context, orderID uuid.UUID, note model.AdminNote) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO order_notes (order_id, seller_id, note, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id, seller_id)
		DO UPDATE SET note = EXCLUDED.note, updated_at = EXCLUDED.updated_at
	`, orderID, note.SellerID, note.Note, note.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).
			Str("order_id", orderID.String()).
			Str("seller_id", note.SellerID).
			Msg("failed to upsert order note")
		return fmt.Errorf("failed to upsert order note: %w", err)
	}

	return nil
}

// DeleteNote removes a seller's note.
func (r *orderRepository) DeleteNote(ctx context.Context, orderID uuid.UUID, sellerID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM order_notes WHERE order_id = $1 AND seller_id = $2
	`, orderID, sellerID)
	if err != nil {
		r.logger.Error().Err(err).
			Str("order_id", orderID.String()).
			Str("seller_id", sellerID).
			Msg("failed to delete order note")
		return false, fmt.Errorf("failed to delete order note: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
