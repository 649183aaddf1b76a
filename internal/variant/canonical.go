package variant

import (
	"maps"
	"slices"
	"strings"

	"storefront/internal/model"
)

// Canonicalize rebuilds sel from the product's catalogue so that only the
// option choice and the chosen colour survive from the caller. Every entry is
// re-keyed by its group name and its price, delta, stock and colours are
// copied from the catalogue option. Unknown groups, labels or colours, and
// two entries naming the same group, are validation errors.
func Canonicalize(product *model.Product, sel model.Selection) (model.Selection, error) {
	if len(sel) == 0 {
		return nil, nil
	}

	out := make(model.Selection, len(sel))
	for _, key := range slices.Sorted(maps.Keys(sel)) {
		snap := sel[key]

		if key == model.ColorSelectionKey {
			color := strings.TrimSpace(colorOf(snap))
			if color == "" {
				continue
			}
			if !slices.Contains(product.Colors, color) {
				return nil, model.NewValidationError("colour %q is not offered for %s", color, product.ID)
			}
			out[key] = model.OptionSnapshot{Label: color, Color: color}
			continue
		}

		group, opt := lookupOption(product, key, snap.Label)
		if opt == nil {
			return nil, model.NewValidationError("unknown option %q for %q", snap.Label, key)
		}
		if _, taken := out[group.Name]; taken {
			return nil, model.NewValidationError("more than one option selected for %q", group.Name)
		}

		canon := model.SnapshotOf(*opt)
		if color := strings.TrimSpace(snap.Color); color != "" {
			if !slices.Contains(opt.Colors, color) {
				return nil, model.NewValidationError("colour %q is not offered for %q", color, opt.Label)
			}
			canon.Color = color
		}
		out[group.Name] = canon
	}

	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// lookupOption finds label in the group named key, falling back to the first
// group that offers label when key names no group.
func lookupOption(product *model.Product, key, label string) (*model.VariantGroup, *model.VariantOption) {
	for i := range product.Variants {
		if product.Variants[i].Name == key {
			return &product.Variants[i], findOption(product.Variants[i], label)
		}
	}
	for i := range product.Variants {
		if opt := findOption(product.Variants[i], label); opt != nil {
			return &product.Variants[i], opt
		}
	}
	return nil, nil
}
