package variant

import (
	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// UnitPrice resolves the unit price of product under sel.
//
// The highest absolute price among selected options replaces the product base
// price; every selected option's delta is then added, including options that
// also supplied an absolute price. The result is floored to two decimals.
func UnitPrice(product *model.Product, sel model.Selection) decimal.Decimal {
	base := product.BasePrice()

	var highest *decimal.Decimal
	for _, snap := range sel {
		if snap.Price == nil {
			continue
		}
		if highest == nil || snap.Price.GreaterThan(*highest) {
			p := *snap.Price
			highest = &p
		}
	}
	if highest != nil {
		base = *highest
	}

	for _, snap := range sel {
		if snap.PriceDelta != nil {
			base = base.Add(*snap.PriceDelta)
		}
	}

	return base.RoundFloor(2)
}

// LineTotal is UnitPrice multiplied by quantity.
func LineTotal(product *model.Product, sel model.Selection, quantity int) decimal.Decimal {
	return UnitPrice(product, sel).Mul(decimal.NewFromInt(int64(quantity)))
}
