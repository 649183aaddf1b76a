package variant

import (
	"strings"

	"storefront/internal/model"
)

// MissingColor reports whether sel omits a colour the product requires: a
// product-level colour when the product declares colours, or a colour for any
// selected option that declares its own colours.
func MissingColor(product *model.Product, sel model.Selection) bool {
	if len(product.Colors) > 0 {
		snap, ok := sel[model.ColorSelectionKey]
		if !ok || strings.TrimSpace(colorOf(snap)) == "" {
			return true
		}
	}

	for _, group := range product.Variants {
		snap, ok := sel[group.Name]
		if !ok {
			continue
		}
		opt := findOption(group, snap.Label)
		if opt == nil || len(opt.Colors) == 0 {
			continue
		}
		if strings.TrimSpace(snap.Color) == "" {
			return true
		}
	}
	return false
}

// colorOf reads a product-level colour entry, which may carry the colour as its label.
func colorOf(snap model.OptionSnapshot) string {
	if snap.Color != "" {
		return snap.Color
	}
	return snap.Label
}
