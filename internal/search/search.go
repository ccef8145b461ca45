// Package search implements the Search service's read-optimized view of the
// index (§4.4): an active tuple serving queries behind a short read lock,
// and a loading tuple built by reload and swapped in under a write lock.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fireclub/vsearch/internal/apperr"
	"github.com/fireclub/vsearch/internal/domain/product"
	"github.com/fireclub/vsearch/internal/embedding"
	"github.com/fireclub/vsearch/internal/snapshot"
	"github.com/fireclub/vsearch/internal/vectorindex"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultSemanticThreshold and DefaultHybridThreshold are the internal and
// HTTP-surface defaults named in §6's route table.
const (
	DefaultSemanticThreshold = 0.3
	DefaultHybridThreshold   = 0.45
)

// Result is one scored match, ready to serialize into the HTTP response
// shape (§6's `resultados` entries).
type Result struct {
	Product    *product.Product
	Similarity float32
}

// tuple is the active/loading unit: everything a query needs to answer
// without touching the snapshot store again.
type tuple struct {
	products map[int64]*product.Product
	slotToID map[int]int64
	vecIndex *vectorindex.Index
}

// Service is the Search service's process-wide service object.
type Service struct {
	log      *zap.Logger
	store    *snapshot.Store
	embedder embedding.Embedder

	mu     sync.RWMutex
	active *tuple

	reloadMu sync.Mutex
	loading  *tuple
	sg       singleflight.Group
}

// New builds a Service and performs an initial synchronous load so the
// service never serves an empty index when a snapshot is already on disk.
func New(store *snapshot.Store, embedder embedding.Embedder, log *zap.Logger) *Service {
	log = log.Named("search")
	s := &Service{
		log:      log,
		store:    store,
		embedder: embedder,
		active:   &tuple{products: map[int64]*product.Product{}, slotToID: map[int]int64{}, vecIndex: vectorindex.New(embedding.Dimension)},
	}

	if err := s.Reload(context.Background()); err != nil {
		log.Warn("initial index load failed, starting empty", zap.Error(err))
	}
	return s
}

// Stats mirrors §6's /stats response shape for the Search service.
type Stats struct {
	TotalProducts int
	FaissTotal    int
	Dimension     int
	IndexLoaded   bool
}

func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		TotalProducts: len(s.active.products),
		FaissTotal:    s.active.vecIndex.Count(),
		Dimension:     s.active.vecIndex.Dimension(),
		IndexLoaded:   s.active.vecIndex.Count() > 0,
	}
}

// Product looks up a single product by id against the active tuple. Returns
// nil if absent.
func (s *Service) Product(id int64) *product.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active.products[id]
}

// Semantic implements §4.4's semantic search algorithm.
func (s *Service) Semantic(ctx context.Context, query string, threshold float32) ([]Result, error) {
	q, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, apperr.New(apperr.Internal, "search.Semantic", fmt.Errorf("embed query: %w", err))
	}

	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()

	if active.vecIndex.Count() == 0 {
		return nil, nil
	}

	scored := active.vecIndex.Search(q[0])
	out := make([]Result, 0, len(scored))
	for _, sc := range scored {
		if sc.Score < threshold {
			continue
		}
		id, ok := active.slotToID[sc.Slot]
		if !ok {
			continue
		}
		p, ok := active.products[id]
		if !ok {
			continue
		}
		out = append(out, Result{Product: p, Similarity: sc.Score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Product.ID < out[j].Product.ID
	})
	return out, nil
}

// Hybrid implements §4.4's hybrid search: semantic results plus literal
// substring matches against description/variant_combo forced to score 1.0.
func (s *Service) Hybrid(ctx context.Context, query string, threshold float32) ([]Result, error) {
	semantic, err := s.Semantic(ctx, query, threshold)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()

	inResults := make(map[int64]struct{}, len(semantic))
	for _, r := range semantic {
		inResults[r.Product.ID] = struct{}{}
	}

	needle := strings.ToLower(query)
	var literal []Result
	for id, p := range active.products {
		if _, already := inResults[id]; already {
			continue
		}
		hay := strings.ToLower(p.Description) + strings.ToLower(p.VariantCombo)
		if strings.Contains(hay, needle) {
			literal = append(literal, Result{Product: p, Similarity: 1.0})
		}
	}

	out := append(literal, semantic...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Product.ID < out[j].Product.ID
	})
	return out, nil
}

// Reload implements §4.4's reload task: load into the loading tuple, then
// swap it into active under the write lock. Concurrent callers coalesce on
// the singleflight key, equivalent to serializing on the reload mutex.
func (s *Service) Reload(ctx context.Context) error {
	_, err, _ := s.sg.Do("reload", func() (any, error) {
		return nil, s.reloadOnce()
	})
	return err
}

func (s *Service) reloadOnce() error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	st, err := s.store.Load()
	if err != nil {
		s.log.Warn("reload: snapshot load failed, keeping prior index", zap.Error(err))
		return err
	}

	s.loading = &tuple{
		products: st.Products,
		slotToID: st.SlotToID,
		vecIndex: st.VecIndex,
	}

	s.mu.Lock()
	s.active = s.loading
	s.mu.Unlock()

	s.loading = nil
	return nil
}
