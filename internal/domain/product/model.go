// Package product holds the catalog product record and the pure text
// projection used to build corpus entries for embedding.
package product

import "strings"

// Product is the authoritative catalog record for a single product variant.
type Product struct {
	ID           int64  `json:"id"`
	ParentID     int64  `json:"parent_id"`
	Active       bool   `json:"active"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	VariantCombo string `json:"variant_combo"`
}

// Text returns the corpus text for p: its name, description, and flattened
// variant combo, space-joined and trimmed. It is a pure function of p, so
// corpus[id] == Text(products[id]) is the invariant the index core maintains.
func Text(p *Product) string {
	return strings.TrimSpace(strings.Join([]string{p.Name, p.Description, p.VariantCombo}, " "))
}
