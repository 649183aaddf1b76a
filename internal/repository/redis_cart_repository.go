package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisCartRepository keeps each buyer's ledger in a hash of cart key to quantity.
type redisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisCartRepository creates a Redis-backed cart repository. A zero ttl keeps carts forever.
func NewRedisCartRepository(client *redis.Client, ttl time.Duration, logger zerolog.Logger) CartRepository {
	return &redisCartRepository{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("repository", "redis_cart").Logger(),
	}
}

func cartItemsKey(buyerID string) string {
	return fmt.Sprintf("cart:%s:items", buyerID)
}

func cartMetaKey(buyerID string) string {
	return fmt.Sprintf("cart:%s:meta", buyerID)
}

// Get returns the buyer's ledger, or an empty one when none is stored.
func (r *redisCartRepository) Get(ctx context.Context, buyerID string) (*model.Cart, error) {
	items, err := r.client.HGetAll(ctx, cartItemsKey(buyerID)).Result()
	if err != nil {
		r.logger.Error().Err(err).Str("buyer_id", buyerID).Msg("failed to get cart items")
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}

	cart := model.NewCart(buyerID)
	for key, raw := range items {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			r.logger.Warn().Str("buyer_id", buyerID).Str("key", key).Msg("dropping cart line with invalid quantity")
			continue
		}
		if qty > 0 {
			cart.Lines[key] = qty
		}
	}

	updatedAt, err := r.client.HGet(ctx, cartMetaKey(buyerID), "updated_at").Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get cart meta: %w", err)
	}
	if updatedAt > 0 {
		cart.UpdatedAt = time.Unix(0, updatedAt).UTC()
	}

	return cart, nil
}

// Save replaces the buyer's ledger atomically.
func (r *redisCartRepository) Save(ctx context.Context, cart *model.Cart) error {
	itemsKey := cartItemsKey(cart.BuyerID)
	metaKey := cartMetaKey(cart.BuyerID)
	cart.UpdatedAt = time.Now().UTC()

	lines := positiveLines(cart.Lines)
	fields := make([]any, 0, len(lines)*2)
	for key, qty := range lines {
		fields = append(fields, key, qty)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, itemsKey)
		if len(fields) > 0 {
			pipe.HSet(ctx, itemsKey, fields...)
		}
		pipe.HSet(ctx, metaKey, "updated_at", cart.UpdatedAt.UnixNano())
		if r.ttl > 0 {
			pipe.Expire(ctx, itemsKey, r.ttl)
			pipe.Expire(ctx, metaKey, r.ttl)
		}
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Str("buyer_id", cart.BuyerID).Msg("failed to save cart")
		return fmt.Errorf("failed to save cart: %w", err)
	}

	return nil
}

// Delete removes the buyer's ledger.
func (r *redisCartRepository) Delete(ctx context.Context, buyerID string) error {
	if err := r.client.Del(ctx, cartItemsKey(buyerID), cartMetaKey(buyerID)).Err(); err != nil {
		r.logger.Error().Err(err).Str("buyer_id", buyerID).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
