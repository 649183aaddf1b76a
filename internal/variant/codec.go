// Package variant resolves prices, stock and cart keys for variant-bearing products.
package variant

import (
	"encoding/json"
	"net/url"
	"strings"

	"storefront/internal/model"
)

// KeySeparator splits a composite cart key into product id and selection fragment.
// Product ids must not contain it; inside the fragment it is always percent-escaped.
const KeySeparator = "|"

// EncodeSelection serialises sel deterministically and escapes it for use in a single string key.
// An empty selection yields an empty fragment.
func EncodeSelection(sel model.Selection) string {
	if len(sel) == 0 {
		return ""
	}
	// map keys are sorted by encoding/json
	raw, err := json.Marshal(sel)
	if err != nil {
		return ""
	}
	return url.QueryEscape(string(raw))
}

// CartKey builds the composite cart line key for productID and sel.
func CartKey(productID string, sel model.Selection) string {
	fragment := EncodeSelection(sel)
	if fragment == "" {
		return productID
	}
	return productID + KeySeparator + fragment
}

// DecodeCartKey splits key into its product id and selection.
// A missing or malformed fragment yields a nil selection; it never fails.
func DecodeCartKey(key string) (string, model.Selection) {
	productID, fragment, found := strings.Cut(key, KeySeparator)
	if !found || fragment == "" {
		return productID, nil
	}

	raw, err := url.QueryUnescape(fragment)
	if err != nil {
		return productID, nil
	}

	var sel model.Selection
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return productID, nil
	}
	if len(sel) == 0 {
		return productID, nil
	}
	return productID, sel
}

// ValidProductID reports whether id can be embedded in a composite key.
func ValidProductID(id string) bool {
	return id != "" && !strings.Contains(id, KeySeparator)
}
