// Package catalog defines the Catalog interface the index core depends on,
// and a Redis-backed implementation.
package catalog

import (
	"context"

	"github.com/fireclub/vsearch/internal/domain/product"
)

// Catalog looks up a product record by id. Get returns (nil, nil) — not an
// error — when the catalog has no active record for id; callers translate
// that into apperr.NotFound. A non-nil error means the lookup itself failed
// (catalog unreachable, or a stored record that does not decode); callers
// report it as apperr.Unavailable.
type Catalog interface {
	Get(ctx context.Context, id int64) (*product.Product, error)
}
