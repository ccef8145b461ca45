package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fireclub/vsearch/internal/domain/product"
	"github.com/fireclub/vsearch/internal/redisx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "catalog:product:"

func keyFor(id int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, id)
}

// RedisCatalog backs the Catalog interface with Redis: each product is a
// JSON blob at catalog:product:<id>, written out-of-band by a seed/ingest
// tool and read here. Grounded on redis/channel_repo.go's Get (typed
// not-found translation, JSON unmarshal of a domain struct).
type RedisCatalog struct {
	client *redisx.Client
	log    *zap.Logger
}

// NewRedisCatalog builds a RedisCatalog against addr/db.
func NewRedisCatalog(addr string, db int, log *zap.Logger) *RedisCatalog {
	log = log.Named("catalog")
	return &RedisCatalog{
		client: redisx.NewClient(addr, db, log),
		log:    log,
	}
}

// Get returns the product at id, or (nil, nil) if the key is absent or the
// stored record is inactive — both are "no active product" to the caller.
func (r *RedisCatalog) Get(ctx context.Context, id int64) (*product.Product, error) {
	raw, err := r.client.Get(ctx, keyFor(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: get %d: %w", id, err)
	}

	var p product.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("catalog: unmarshal %d: %w", id, err)
	}
	if !p.Active {
		return nil, nil
	}
	return &p, nil
}

// Put writes/overwrites the catalog record for p.ID. It exists for seed
// tooling and tests, not for the production read path (the catalog is
// populated by an external ingest process in the real deployment).
func (r *RedisCatalog) Put(ctx context.Context, p *product.Product) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("catalog: marshal %d: %w", p.ID, err)
	}
	if err := r.client.Set(ctx, keyFor(p.ID), payload, 0).Err(); err != nil {
		return fmt.Errorf("catalog: set %d: %w", p.ID, err)
	}
	return nil
}
