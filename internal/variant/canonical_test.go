package variant

import (
	"testing"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canonicalProduct() *model.Product {
	return &model.Product{
		ID:     "P300",
		Price:  decimal.RequireFromString("120"),
		Colors: []string{"Red", "Blue"},
		Variants: []model.VariantGroup{
			{
				Name: "Storage",
				Options: []model.VariantOption{
					{Label: "128GB", Stock: intPtr(4)},
					{Label: "256GB", Price: dec("150"), PriceDelta: dec("-10"), Stock: intPtr(2)},
				},
			},
			{
				Name: "Frame",
				Options: []model.VariantOption{
					{Label: "Steel", Colors: []string{"Silver", "Black"}},
				},
			},
		},
	}
}

func TestCanonicalize_ReplacesCallerFields(t *testing.T) {
	product := canonicalProduct()
	sel := model.Selection{
		"Storage":               {Label: "256GB", Price: dec("0.01"), PriceDelta: dec("-500"), Stock: intPtr(999)},
		model.ColorSelectionKey: {Color: "Red", Price: dec("0.01")},
	}

	got, err := Canonicalize(product, sel)
	require.NoError(t, err)

	storage := got["Storage"]
	require.NotNil(t, storage.Price)
	assert.True(t, decimal.RequireFromString("150").Equal(*storage.Price))
	require.NotNil(t, storage.PriceDelta)
	assert.True(t, decimal.RequireFromString("-10").Equal(*storage.PriceDelta))
	require.NotNil(t, storage.Stock)
	assert.Equal(t, 2, *storage.Stock)

	assert.Equal(t, model.OptionSnapshot{Label: "Red", Color: "Red"}, got[model.ColorSelectionKey])
	assert.Equal(t, "140", UnitPrice(product, got).String())
}

func TestCanonicalize_SameKeyForForgedSnapshots(t *testing.T) {
	product := canonicalProduct()

	honest, err := Canonicalize(product, model.Selection{"Storage": {Label: "256GB"}})
	require.NoError(t, err)
	forged, err := Canonicalize(product, model.Selection{"Storage": {Label: "256GB", Price: dec("1")}})
	require.NoError(t, err)

	assert.Equal(t, CartKey(product.ID, honest), CartKey(product.ID, forged))
}

func TestCanonicalize_RekeysByGroupName(t *testing.T) {
	got, err := Canonicalize(canonicalProduct(), model.Selection{"storage": {Label: "128GB"}})
	require.NoError(t, err)

	require.Contains(t, got, "Storage")
	assert.NotContains(t, got, "storage")
}

func TestCanonicalize_KeepsOptionColour(t *testing.T) {
	got, err := Canonicalize(canonicalProduct(), model.Selection{"Frame": {Label: "Steel", Color: "Black"}})
	require.NoError(t, err)

	assert.Equal(t, "Black", got["Frame"].Color)
	assert.Equal(t, []string{"Silver", "Black"}, got["Frame"].Colors)
}

func TestCanonicalize_Empty(t *testing.T) {
	got, err := Canonicalize(canonicalProduct(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = Canonicalize(canonicalProduct(), model.Selection{model.ColorSelectionKey: {Label: " "}})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCanonicalize_Rejects(t *testing.T) {
	tests := []struct {
		name string
		sel  model.Selection
	}{
		{name: "Invented group", sel: model.Selection{"Hack": {Label: "nope", Price: dec("0.01")}}},
		{name: "Unknown label in known group", sel: model.Selection{"Storage": {Label: "1TB"}}},
		{name: "Two options for one group", sel: model.Selection{"Storage": {Label: "128GB"}, "Extra": {Label: "256GB"}}},
		{name: "Colour not offered by product", sel: model.Selection{model.ColorSelectionKey: {Label: "Green"}}},
		{name: "Colour not offered by option", sel: model.Selection{"Frame": {Label: "Steel", Color: "Gold"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(canonicalProduct(), tt.sel)

			require.Error(t, err)
			assert.Nil(t, got)
			de, ok := model.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, model.KindValidation, de.Kind)
		})
	}
}
