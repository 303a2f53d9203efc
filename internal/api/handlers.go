// Package api exposes a read-only HTTP surface over a branch's
// membership registry and local store, for operators and the branchctl
// CLI. It never accepts a mutation — every write goes through the
// mutex/quorum path on the coordination port instead.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nomadgto/dist-syst/internal/membership"
	"github.com/nomadgto/dist-syst/internal/store"
)

// Handler holds the read-only dependencies injected from main.
type Handler struct {
	store    *store.Store
	registry *membership.Registry
}

// NewHandler creates a Handler.
func NewHandler(s *store.Store, registry *membership.Registry) *Handler {
	return &Handler{store: s, registry: registry}
}

// Register mounts all routes on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/branches", h.ListBranches)
	r.GET("/customers", h.ListCustomers)
	r.GET("/articles", h.ListArticles)
	r.GET("/guides", h.ListShippingGuides)
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	self := h.registry.Self()
	c.JSON(http.StatusOK, gin.H{
		"branch_id": self.ID,
		"is_master": h.registry.IsMasterSelf(),
		"master_id": h.registry.MasterID(),
	})
}

// ListBranches handles GET /branches.
func (h *Handler) ListBranches(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"branches": h.registry.All()})
}

// ListCustomers handles GET /customers.
func (h *Handler) ListCustomers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"customers": h.store.ListCustomers()})
}

// ListArticles handles GET /articles.
func (h *Handler) ListArticles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"articles": h.store.ListArticles()})
}

// ListShippingGuides handles GET /guides.
func (h *Handler) ListShippingGuides(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"guides": h.store.ListShippingGuides()})
}
