// Package updater wires the Updater service's HTTP surface (§6, port 8001):
// the three mutation endpoints, stats, and health.
package updater

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fireclub/vsearch/internal/apperr"
	"github.com/fireclub/vsearch/internal/httpapi/middleware"
	"github.com/fireclub/vsearch/internal/updater"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers binds a *updater.Service to gin routes.
type Handlers struct {
	svc *updater.Service
	log *zap.Logger
}

// New builds Handlers for svc.
func New(svc *updater.Service, log *zap.Logger) *Handlers {
	return &Handlers{svc: svc, log: log.Named("httpapi.updater")}
}

// Register mounts every route from §6's Updater HTTP surface table onto r.
func (h *Handlers) Register(r *gin.Engine) {
	idGroup := r.Group("/update", middleware.RequireValidID())
	idGroup.POST("/add/:id", h.add)
	idGroup.POST("/modify/:id", h.modify)
	idGroup.POST("/delete/:id", h.delete)

	r.GET("/stats", h.stats)
	r.GET("/health", h.health)
}

func (h *Handlers) add(c *gin.Context) {
	h.mutate(c, h.svc.Add)
}

func (h *Handlers) modify(c *gin.Context) {
	h.mutate(c, h.svc.Modify)
}

func (h *Handlers) delete(c *gin.Context) {
	h.mutate(c, h.svc.Delete)
}

func (h *Handlers) mutate(c *gin.Context, op func(context.Context, int64) error) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	if err := op(c.Request.Context(), id); err != nil {
		_ = c.Error(err)

		if apperr.Is(err, apperr.NotFound) {
			c.JSON(http.StatusNotFound, gin.H{"mensaje": err.Error()})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{"mensaje": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"mensaje": "ok"})
}

func (h *Handlers) stats(c *gin.Context) {
	st := h.svc.Stats()
	c.JSON(http.StatusOK, gin.H{
		"total_productos": st.TotalProducts,
		"faiss_total":     st.FaissTotal,
		"next_faiss_idx":  st.NextFaissIdx,
		"dimension":       st.Dimension,
	})
}

func (h *Handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "updater"})
}
