package variant

import (
	"maps"
	"slices"

	"storefront/internal/model"
)

// IsAvailable reports whether required units of product can be supplied under sel.
//
// For products with variant groups only the stock of the selected options counts:
// when none of them defines stock the selection is unlimited, whatever the
// product-level stock says.
func IsAvailable(product *model.Product, sel model.Selection, required int) bool {
	available, limited := AvailableQuantity(product, sel)
	if !limited {
		return true
	}
	return available >= required
}

// AvailableQuantity returns the number of units that can be supplied under sel.
// limited is false when stock is unlimited.
func AvailableQuantity(product *model.Product, sel model.Selection) (available int, limited bool) {
	if !product.HasVariants() {
		if product.StockQuantity == nil {
			return 0, false
		}
		return *product.StockQuantity, true
	}

	for _, group := range product.Variants {
		opt, ok := ResolveOption(group, sel)
		if !ok || opt.Stock == nil {
			continue
		}
		if !limited || *opt.Stock < available {
			available = *opt.Stock
		}
		limited = true
	}
	return available, limited
}

// ResolveOption finds the catalogue option selected for group. The selection
// entry keyed by the group name is tried first; otherwise any selected label
// that matches one of the group's options is used.
func ResolveOption(group model.VariantGroup, sel model.Selection) (*model.VariantOption, bool) {
	if len(sel) == 0 {
		return nil, false
	}

	if snap, ok := sel[group.Name]; ok {
		if opt := findOption(group, snap.Label); opt != nil {
			return opt, true
		}
	}

	for _, key := range slices.Sorted(maps.Keys(sel)) {
		if key == model.ColorSelectionKey {
			continue
		}
		if opt := findOption(group, sel[key].Label); opt != nil {
			return opt, true
		}
	}
	return nil, false
}

func findOption(group model.VariantGroup, label string) *model.VariantOption {
	if label == "" {
		return nil
	}
	for i := range group.Options {
		if group.Options[i].Label == label {
			return &group.Options[i]
		}
	}
	return nil
}

// RequiredQuantity is the quantity that must be in stock before another unit
// can be added: at least one, at least minBuy, and at least what is already in the cart.
func RequiredQuantity(minBuy, inCart int) int {
	return max(1, minBuy, inCart)
}
