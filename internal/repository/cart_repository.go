package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// cartRepository stores each buyer's ledger as a single JSONB document.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// Get returns the buyer's ledger, or an empty one when none is stored.
func (r *cartRepository) Get(ctx context.Context, buyerID string) (*model.Cart, error) {
	var (
		raw       []byte
		updatedAt time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT lines, updated_at FROM carts WHERE buyer_id = $1
	`, buyerID).Scan(&raw, &updatedAt)
	if err != nil {
		if isNoRows(err) {
			return model.NewCart(buyerID), nil
		}
		r.logger.Error().Err(err).Str("buyer_id", buyerID).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	cart := model.NewCart(buyerID)
	cart.UpdatedAt = updatedAt
	if err := json.Unmarshal(raw, &cart.Lines); err != nil {
		r.logger.Error().Err(err).Str("buyer_id", buyerID).Msg("failed to decode cart lines")
		return nil, fmt.Errorf("failed to decode cart lines: %w", err)
	}
	if cart.Lines == nil {
		cart.Lines = make(map[string]int)
	}

	return cart, nil
}

// Save replaces the buyer's ledger.
func (r *cartRepository) Save(ctx context.Context, cart *model.Cart) error {
	raw, err := json.Marshal(positiveLines(cart.Lines))
	if err != nil {
		return fmt.Errorf("failed to encode cart lines: %w", err)
	}

	cart.UpdatedAt = time.Now().UTC()

	_, err = r.pool.Exec(ctx, `
		INSERT INTO carts (buyer_id, lines, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (buyer_id)
		DO UPDATE SET lines = EXCLUDED.lines, updated_at = EXCLUDED.updated_at
	`, cart.BuyerID, raw, cart.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("buyer_id", cart.BuyerID).Msg("failed to save cart")
		return fmt.Errorf("failed to save cart: %w", err)
	}

	return nil
}

// Delete removes the buyer's ledger.
func (r *cartRepository) Delete(ctx context.Context, buyerID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE buyer_id = $1`, buyerID); err != nil {
		r.logger.Error().Err(err).Str("buyer_id", buyerID).Msg("failed to delete cart")
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// positiveLines drops non-positive quantities so they are never persisted.
func positiveLines(lines map[string]int) map[string]int {
	out := make(map[string]int, len(lines))
	for key, qty := range lines {
		if qty > 0 {
			out[key] = qty
		}
	}
	return out
}
