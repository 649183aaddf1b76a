package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ColorSelectionKey is the reserved selection key for a product-level colour choice.
const ColorSelectionKey = "_color"

// Product is the catalogue view used for pricing and stock resolution.
type Product struct {
	ID            string           `json:"id" db:"id"`
	SellerID      string           `json:"sellerId" db:"seller_id"`
	Name          string           `json:"name" db:"name"`
	Price         decimal.Decimal  `json:"price" db:"price"`
	OfferPrice    *decimal.Decimal `json:"offerPrice,omitempty" db:"offer_price"`
	StockQuantity *int             `json:"stockQuantity,omitempty" db:"stock_quantity"`
	MinBuy        int              `json:"minBuy" db:"min_buy"`
	Variants      []VariantGroup   `json:"variants,omitempty" db:"variants"`
	Colors        []string         `json:"colors,omitempty" db:"colors"`
	MediaKeys     []string         `json:"mediaKeys,omitempty" db:"media_keys"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time        `json:"updatedAt" db:"updated_at"`
}

// VariantGroup is a named configuration axis, e.g. storage size.
type VariantGroup struct {
	Name    string          `json:"name"`
	Options []VariantOption `json:"options"`
}

// VariantOption is one choice within a group. Label is its identity within the group.
type VariantOption struct {
	Label       string           `json:"label"`
	Description string           `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	PriceDelta  *decimal.Decimal `json:"priceDelta,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Colors      []string         `json:"colors,omitempty"`
}

// OptionSnapshot is a selected option captured by value at selection time.
type OptionSnapshot struct {
	Label      string           `json:"label"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	PriceDelta *decimal.Decimal `json:"priceDelta,omitempty"`
	Stock      *int             `json:"stock,omitempty"`
	Colors     []string         `json:"colors,omitempty"`
	Color      string           `json:"color,omitempty"`
}

// Selection maps a group name (or ColorSelectionKey) to the chosen option.
type Selection map[string]OptionSnapshot

// EffectiveMinBuy returns the minimum purchase quantity, never less than one.
func (p *Product) EffectiveMinBuy() int {
	if p == nil || p.MinBuy < 1 {
		return 1
	}
	return p.MinBuy
}

// BasePrice is the offer price when set, otherwise the list price.
func (p *Product) BasePrice() decimal.Decimal {
	if p.OfferPrice != nil {
		return *p.OfferPrice
	}
	return p.Price
}

// HasVariants reports whether the product declares any variant group.
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// SnapshotOf captures an option by value for embedding in a selection.
func SnapshotOf(opt VariantOption) OptionSnapshot {
	snap := OptionSnapshot{
		Label:      opt.Label,
		Price:      opt.Price,
		PriceDelta: opt.PriceDelta,
		Stock:      opt.Stock,
	}
	if len(opt.Colors) > 0 {
		snap.Colors = append([]string(nil), opt.Colors...)
	}
	return snap
}

// Quote is a storefront price and availability answer for one selection.
type Quote struct {
	ProductID         string          `json:"productId"`
	Key               string          `json:"key"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Available         bool            `json:"available"`
	AvailableQuantity *int            `json:"availableQuantity,omitempty"`
}

// QuoteRequest represents the request payload for a price quote.
type QuoteRequest struct {
	Selection Selection `json:"selection,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
}
