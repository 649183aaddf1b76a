package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is a buyer's ledger of composite cart keys to quantities.
type Cart struct {
	BuyerID   string         `json:"buyerId" db:"buyer_id"`
	Lines     map[string]int `json:"lines" db:"lines"`
	UpdatedAt time.Time      `json:"updatedAt" db:"updated_at"`
}

// NewCart returns an empty ledger for buyerID.
func NewCart(buyerID string) *Cart {
	return &Cart{
		BuyerID: buyerID,
		Lines:   make(map[string]int),
	}
}

// CartView is a priced rendering of a cart ledger.
type CartView struct {
	BuyerID string          `json:"buyerId"`
	Lines   []CartLineView  `json:"lines"`
	Total   decimal.Decimal `json:"total"`
}

// CartLineView is one priced cart line. Unavailable lines reference a deleted product.
type CartLineView struct {
	Key         string           `json:"key"`
	ProductID   string           `json:"productId"`
	ProductName string           `json:"productName,omitempty"`
	Selection   Selection        `json:"selection,omitempty"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
	LineTotal   *decimal.Decimal `json:"lineTotal,omitempty"`
	Unavailable bool             `json:"unavailable,omitempty"`
}

// AddCartLineRequest represents the request payload for adding a cart line.
type AddCartLineRequest struct {
	ProductID string    `json:"productId"`
	Selection Selection `json:"selection,omitempty"`
}

// AddCartLineResponse returns the composite key of the touched line with the updated ledger.
type AddCartLineResponse struct {
	Key  string    `json:"key"`
	Cart *CartView `json:"cart"`
}

// SetQuantityRequest represents the request payload for setting a cart line quantity.
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}
