package variant

import (
	"testing"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func variantProduct(productStock *int) *model.Product {
	return &model.Product{
		ID:            "P100",
		Price:         decimal.RequireFromString("100"),
		StockQuantity: productStock,
		Variants: []model.VariantGroup{
			{
				Name: "Storage",
				Options: []model.VariantOption{
					{Label: "128GB", Stock: intPtr(5)},
					{Label: "256GB", Stock: intPtr(2)},
					{Label: "512GB"},
				},
			},
			{
				Name: "Colour",
				Options: []model.VariantOption{
					{Label: "Black", Stock: intPtr(1)},
					{Label: "White"},
				},
			},
		},
	}
}

func TestIsAvailable_NoVariants(t *testing.T) {
	tests := []struct {
		name     string
		stock    *int
		required int
		expected bool
	}{
		{name: "Unlimited stock, small request", stock: nil, required: 1, expected: true},
		{name: "Unlimited stock, huge request", stock: nil, required: 1_000_000, expected: true},
		{name: "Enough stock", stock: intPtr(3), required: 3, expected: true},
		{name: "Insufficient stock", stock: intPtr(2), required: 3, expected: false},
		{name: "Zero stock", stock: intPtr(0), required: 1, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := &model.Product{ID: "P1", StockQuantity: tt.stock}
			assert.Equal(t, tt.expected, IsAvailable(product, nil, tt.required))
		})
	}
}

func TestIsAvailable_Variants(t *testing.T) {
	tests := []struct {
		name         string
		productStock *int
		sel          model.Selection
		required     int
		expected     bool
	}{
		{
			name:         "Single option stock satisfies request",
			productStock: intPtr(100),
			sel:          model.Selection{"Storage": {Label: "128GB"}},
			required:     5,
			expected:     true,
		},
		{
			name:         "Minimum across selected options applies",
			productStock: intPtr(100),
			sel:          model.Selection{"Storage": {Label: "128GB"}, "Colour": {Label: "Black"}},
			required:     2,
			expected:     false,
		},
		{
			name:         "Options without stock are unlimited even when product stock is zero",
			productStock: intPtr(0),
			sel:          model.Selection{"Storage": {Label: "512GB"}, "Colour": {Label: "White"}},
			required:     50,
			expected:     true,
		},
		{
			name:         "Empty selection on variant product is unlimited",
			productStock: intPtr(0),
			sel:          nil,
			required:     1,
			expected:     true,
		},
		{
			name:         "Selection keys not aligned with group names fall back to label",
			productStock: nil,
			sel:          model.Selection{"storage-size": {Label: "256GB"}},
			required:     3,
			expected:     false,
		},
		{
			name:         "Catalogue stock is used rather than the captured snapshot",
			productStock: nil,
			sel:          model.Selection{"Storage": {Label: "256GB", Stock: intPtr(99)}},
			required:     3,
			expected:     false,
		},
		{
			name:         "Unknown labels are ignored",
			productStock: intPtr(0),
			sel:          model.Selection{"Storage": {Label: "1TB"}},
			required:     1,
			expected:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := variantProduct(tt.productStock)
			assert.Equal(t, tt.expected, IsAvailable(product, tt.sel, tt.required))
		})
	}
}

func TestAvailableQuantity(t *testing.T) {
	product := variantProduct(nil)

	available, limited := AvailableQuantity(product, model.Selection{
		"Storage": {Label: "128GB"},
		"Colour":  {Label: "Black"},
	})
	assert.True(t, limited)
	assert.Equal(t, 1, available)

	_, limited = AvailableQuantity(product, model.Selection{"Storage": {Label: "512GB"}})
	assert.False(t, limited)
}

func TestResolveOption(t *testing.T) {
	product := variantProduct(nil)

	opt, ok := ResolveOption(product.Variants[0], model.Selection{"Storage": {Label: "256GB"}})
	require.True(t, ok)
	assert.Equal(t, "256GB", opt.Label)

	opt, ok = ResolveOption(product.Variants[1], model.Selection{"colour": {Label: "White"}})
	require.True(t, ok)
	assert.Equal(t, "White", opt.Label)

	_, ok = ResolveOption(product.Variants[1], model.Selection{model.ColorSelectionKey: {Label: "Black"}})
	assert.False(t, ok)

	_, ok = ResolveOption(product.Variants[0], nil)
	assert.False(t, ok)
}

func TestRequiredQuantity(t *testing.T) {
	assert.Equal(t, 1, RequiredQuantity(0, 0))
	assert.Equal(t, 1, RequiredQuantity(1, 0))
	assert.Equal(t, 3, RequiredQuantity(3, 0))
	assert.Equal(t, 6, RequiredQuantity(3, 6))
}
