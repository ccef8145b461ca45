// Package search wires the Search service's HTTP surface (§6, port 8002):
// hybrid and semantic search, product lookup, stats, reload, and health.
package search

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/fireclub/vsearch/internal/httpapi/middleware"
	"github.com/fireclub/vsearch/internal/search"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers binds a *search.Service to gin routes.
type Handlers struct {
	svc *search.Service
	log *zap.Logger
}

// New builds Handlers for svc.
func New(svc *search.Service, log *zap.Logger) *Handlers {
	return &Handlers{svc: svc, log: log.Named("httpapi.search")}
}

// Register mounts every route from §6's Search HTTP surface table onto r.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/search", h.hybridSearch)
	r.GET("/search/semantic", h.semanticSearch)
	r.GET("/product/:id", middleware.RequireValidID(), h.product)
	r.GET("/stats", h.stats)
	r.POST("/reload_index", h.reloadIndex)
	r.GET("/health", h.health)
}

type resultDTO struct {
	ID            int64   `json:"id"`
	Nombre        string  `json:"nombre"`
	Descripcion   string  `json:"descripcion"`
	VariantesComb string  `json:"variantes_comb"`
	Similitud     float64 `json:"similitud"`
}

func toResultDTOs(results []search.Result) []resultDTO {
	out := make([]resultDTO, len(results))
	for i, r := range results {
		out[i] = resultDTO{
			ID:            r.Product.ID,
			Nombre:        r.Product.Name,
			Descripcion:   r.Product.Description,
			VariantesComb: r.Product.VariantCombo,
			Similitud:     round3(r.Similarity),
		}
	}
	return out
}

func round3(f float32) float64 {
	return math.Round(float64(f)*1000) / 1000
}

func (h *Handlers) hybridSearch(c *gin.Context) {
	h.runSearch(c, search.DefaultHybridThreshold, func(ctx context.Context, q string, th float32) ([]search.Result, error) {
		return h.svc.Hybrid(ctx, q, th)
	})
}

func (h *Handlers) semanticSearch(c *gin.Context) {
	h.runSearch(c, search.DefaultSemanticThreshold, func(ctx context.Context, q string, th float32) ([]search.Result, error) {
		return h.svc.Semantic(ctx, q, th)
	})
}

func (h *Handlers) runSearch(c *gin.Context, defaultThreshold float32, fn func(context.Context, string, float32) ([]search.Result, error)) {
	query := c.Query("query")
	if query == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "query is required"})
		return
	}

	threshold := defaultThreshold
	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "threshold must be numeric"})
			return
		}
		threshold = float32(v)
	}

	results, err := fn(c.Request.Context(), query, threshold)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"query": query, "resultados": toResultDTOs(results)})
}

func (h *Handlers) product(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	p := h.svc.Product(id)
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "product not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handlers) stats(c *gin.Context) {
	st := h.svc.Stats()
	c.JSON(http.StatusOK, gin.H{
		"total_productos": st.TotalProducts,
		"faiss_total":     st.FaissTotal,
		"dimension":       st.Dimension,
		"index_loaded":    st.IndexLoaded,
		"service":         "search",
	})
}

// reloadIndex enqueues a reload and returns immediately (§4.4): the caller
// doesn't wait for the swap, only for the singleflight-coalesced call to be
// kicked off.
func (h *Handlers) reloadIndex(c *gin.Context) {
	go func() {
		if err := h.svc.Reload(context.Background()); err != nil {
			h.log.Warn("background reload failed", zap.Error(err))
		}
	}()
	c.JSON(http.StatusOK, gin.H{"mensaje": "reload enqueued"})
}

// health always reports healthy. An empty, not-yet-loaded index is a normal
// boundary state (fresh boot, before the first snapshot exists), not a
// liveness failure — index_loaded stays informational only, surfaced via
// /stats.
func (h *Handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "search"})
}
