// Package indexcore implements the single-writer mutation algorithm (§4.2):
// Add/Modify/Delete against the in-memory maps and vector index, including
// the deterministic rebuild used by Modify and Delete.
package indexcore

import (
	"context"
	"fmt"
	"sort"

	"github.com/fireclub/vsearch/internal/apperr"
	"github.com/fireclub/vsearch/internal/catalog"
	"github.com/fireclub/vsearch/internal/domain/product"
	"github.com/fireclub/vsearch/internal/embedding"
	"github.com/fireclub/vsearch/internal/snapshot"
	"github.com/fireclub/vsearch/internal/vectorindex"
)

// Core owns the four maps and the vector index described in §3. It has no
// internal mutex of its own — the Updater service (internal/updater) holds
// a single mutex across every call into Core, matching the spec's
// "single-writer component" contract. Core is not safe for concurrent use
// without that external serialization.
type Core struct {
	catalog  catalog.Catalog
	embedder embedding.Embedder

	products map[int64]*product.Product
	corpus   map[int64]string
	idToSlot map[int64]int
	slotToID map[int]int64
	nextSlot int
	vecIndex *vectorindex.Index
}

// New builds an empty Core. Callers typically populate it immediately via
// LoadState after construction (on Updater startup).
func New(cat catalog.Catalog, embedder embedding.Embedder) *Core {
	return &Core{
		catalog:  cat,
		embedder: embedder,
		products: make(map[int64]*product.Product),
		corpus:   make(map[int64]string),
		idToSlot: make(map[int64]int),
		slotToID: make(map[int]int64),
		vecIndex: vectorindex.New(embedding.Dimension),
	}
}

// LoadState replaces Core's maps and index with a previously persisted
// state (used on Updater startup to resume from the last snapshot, and
// after a rollback following a failed save, §4.3).
func (c *Core) LoadState(st *snapshot.State) {
	c.products = st.Products
	c.corpus = st.Corpus
	c.idToSlot = st.IDToSlot
	c.slotToID = st.SlotToID
	c.nextSlot = st.NextSlot
	c.vecIndex = st.VecIndex
	if c.products == nil {
		c.products = make(map[int64]*product.Product)
	}
	if c.corpus == nil {
		c.corpus = make(map[int64]string)
	}
	if c.idToSlot == nil {
		c.idToSlot = make(map[int64]int)
	}
	if c.slotToID == nil {
		c.slotToID = make(map[int]int64)
	}
	if c.vecIndex == nil {
		c.vecIndex = vectorindex.New(embedding.Dimension)
	}
}

// State snapshots Core's current maps and index into a snapshot.State ready
// for persistence. The timestamp is stamped by the caller (internal/updater)
// so indexcore stays free of a wall-clock dependency.
func (c *Core) State(timestamp string) *snapshot.State {
	return &snapshot.State{
		Products:  c.products,
		Corpus:    c.corpus,
		IDToSlot:  c.idToSlot,
		SlotToID:  c.slotToID,
		NextSlot:  c.nextSlot,
		VecIndex:  c.vecIndex,
		Timestamp: timestamp,
	}
}

// Stats mirrors the Updater's /stats response shape.
type Stats struct {
	TotalProducts int
	FaissTotal    int
	NextFaissIdx  int
	Dimension     int
}

func (c *Core) Stats() Stats {
	return Stats{
		TotalProducts: len(c.products),
		FaissTotal:    c.vecIndex.Count(),
		NextFaissIdx:  c.nextSlot,
		Dimension:     c.vecIndex.Dimension(),
	}
}

// Add implements §4.2 Add(id): fetch from the catalog, fall through to
// Modify on an existing id, else embed and append.
func (c *Core) Add(ctx context.Context, id int64) error {
	p, err := c.catalog.Get(ctx, id)
	if err != nil {
		return apperr.New(apperr.Unavailable, "indexcore.Add", err)
	}
	if p == nil || !p.Active {
		return apperr.New(apperr.NotFound, "indexcore.Add", fmt.Errorf("product %d not found or inactive", id))
	}

	if _, exists := c.products[id]; exists {
		return c.Modify(ctx, id)
	}

	text := product.Text(p)
	vecs, err := c.embedder.Embed(ctx, []string{text})
	if err != nil {
		return apperr.New(apperr.Internal, "indexcore.Add", fmt.Errorf("embed: %w", err))
	}

	slot, err := c.vecIndex.Add(vecs[0])
	if err != nil {
		return apperr.New(apperr.Internal, "indexcore.Add", fmt.Errorf("append vector: %w", err))
	}

	c.products[id] = p
	c.corpus[id] = text
	c.idToSlot[id] = slot
	c.slotToID[slot] = id
	c.nextSlot++

	return nil
}

// Modify implements §4.2 Modify(id): fall through to Add if absent, to
// Delete if the catalog no longer has it active, else recompute and rebuild.
func (c *Core) Modify(ctx context.Context, id int64) error {
	if _, exists := c.products[id]; !exists {
		return c.Add(ctx, id)
	}

	p, err := c.catalog.Get(ctx, id)
	if err != nil {
		return apperr.New(apperr.Unavailable, "indexcore.Modify", err)
	}
	if p == nil || !p.Active {
		return c.Delete(ctx, id)
	}

	oldProduct, oldText := c.products[id], c.corpus[id]
	c.products[id] = p
	c.corpus[id] = product.Text(p)

	if err := c.rebuild(ctx); err != nil {
		c.products[id], c.corpus[id] = oldProduct, oldText
		return err
	}
	return nil
}

// Delete implements §4.2 Delete(id): idempotent no-op if absent, else
// remove from all maps and rebuild.
func (c *Core) Delete(ctx context.Context, id int64) error {
	if _, exists := c.products[id]; !exists {
		return nil
	}

	slot := c.idToSlot[id]
	oldProduct, oldText := c.products[id], c.corpus[id]
	delete(c.products, id)
	delete(c.corpus, id)
	delete(c.idToSlot, id)
	delete(c.slotToID, slot)

	if err := c.rebuild(ctx); err != nil {
		c.products[id], c.corpus[id] = oldProduct, oldText
		c.idToSlot[id], c.slotToID[slot] = slot, id
		return err
	}
	return nil
}

// rebuild implements the deterministic rebuild procedure of §4.2: empty
// corpus resets to a fresh empty index; otherwise the corpus is enumerated
// in ascending product-id order, batch-embedded, and appended as one block
// to a fresh index. Rebuild is the only path that ever changes existing
// slot assignments, and it always reassigns every slot from 0.
func (c *Core) rebuild(ctx context.Context) error {
	if len(c.corpus) == 0 {
		c.vecIndex = vectorindex.New(embedding.Dimension)
		c.idToSlot = make(map[int64]int)
		c.slotToID = make(map[int]int64)
		c.nextSlot = 0
		return nil
	}

	ids := make([]int64, 0, len(c.corpus))
	for id := range c.corpus {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	texts := make([]string, len(ids))
	newIDToSlot := make(map[int64]int, len(ids))
	newSlotToID := make(map[int]int64, len(ids))
	for k, id := range ids {
		texts[k] = c.corpus[id]
		newIDToSlot[id] = k
		newSlotToID[k] = id
	}

	vecs, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return apperr.New(apperr.Internal, "indexcore.rebuild", fmt.Errorf("batch embed: %w", err))
	}

	fresh := vectorindex.New(embedding.Dimension)
	if _, err := fresh.AddBatch(vecs); err != nil {
		return apperr.New(apperr.Internal, "indexcore.rebuild", fmt.Errorf("append batch: %w", err))
	}

	c.vecIndex = fresh
	c.idToSlot = newIDToSlot
	c.slotToID = newSlotToID
	c.nextSlot = len(ids)

	return nil
}
