package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lmercier/pricewatch/internal/models"
	"github.com/lmercier/pricewatch/internal/repository"
	"github.com/lmercier/pricewatch/internal/scraper"
)

// historyWindow is the range served by the history endpoint.
const historyWindow = 30 * 24 * time.Hour

type registerRequest struct {
	URL string `json:"url" binding:"required"`
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// registerHandler starts tracking a product given a raw URL or bare ASIN.
func (s *Server) registerHandler(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorPayload("invalid_payload", err))
		return
	}

	ctx := c.Request.Context()

	product, err := s.tracker.Register(ctx, req.URL)
	switch {
	case errors.Is(err, repository.ErrDuplicateProduct):
		// Already tracked is a conflict carrying the existing record, not a
		// hard failure: the caller decides whether to treat it as success.
		c.JSON(http.StatusConflict, gin.H{
			"error":   "duplicate_product",
			"message": "product is already tracked",
			"product": product,
		})
	case errors.Is(err, scraper.ErrASINNotFound):
		c.JSON(http.StatusUnprocessableEntity, errorPayload("identifier_not_found", err))
	case errors.Is(err, scraper.ErrFetchFailed):
		c.JSON(http.StatusBadGateway, errorPayload("fetch_failed", err))
	case errors.Is(err, scraper.ErrPageBlocked), errors.Is(err, scraper.ErrInsufficientData):
		c.JSON(http.StatusBadGateway, errorPayload("insufficient_data", err))
	case err != nil:
		s.log.Error("Failed to register product", "op", "server.registerHandler", "error", err)
		c.JSON(http.StatusInternalServerError, errorPayload("internal", err))
	default:
		c.JSON(http.StatusCreated, product)
	}
}

func (s *Server) listHandler(c *gin.Context) {
	products, err := s.repo.ListProducts(c.Request.Context())
	if err != nil {
		s.log.Error("Failed to list products", "op", "server.listHandler", "error", err)
		c.JSON(http.StatusInternalServerError, errorPayload("internal", err))
		return
	}

	if products == nil {
		products = []models.TrackedProduct{}
	}
	c.JSON(http.StatusOK, products)
}

func (s *Server) getHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := s.repo.GetProductByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, errorPayload("product_not_found", err))
			return
		}
		s.log.Error("Failed to get product", "op", "server.getHandler", "error", err)
		c.JSON(http.StatusInternalServerError, errorPayload("internal", err))
		return
	}

	c.JSON(http.StatusOK, product)
}

// deleteHandler removes a product; history entries cascade in the store.
func (s *Server) deleteHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	err := s.repo.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, errorPayload("product_not_found", err))
			return
		}
		s.log.Error("Failed to delete product", "op", "server.deleteHandler", "error", err)
		c.JSON(http.StatusInternalServerError, errorPayload("internal", err))
		return
	}

	c.Status(http.StatusNoContent)
}

// refreshOneHandler runs the reconcile pipeline for one product with the
// manual-update origin.
func (s *Server) refreshOneHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := s.tracker.UpdateProduct(c.Request.Context(), id, models.OriginManualUpdate)
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		c.JSON(http.StatusNotFound, errorPayload("product_not_found", err))
	case errors.Is(err, scraper.ErrFetchFailed):
		c.JSON(http.StatusBadGateway, errorPayload("fetch_failed", err))
	case errors.Is(err, scraper.ErrPageBlocked), errors.Is(err, scraper.ErrInsufficientData):
		c.JSON(http.StatusBadGateway, errorPayload("insufficient_data", err))
	case err != nil:
		s.log.Error("Failed to refresh product", "op", "server.refreshOneHandler", "error", err)
		c.JSON(http.StatusInternalServerError, errorPayload("internal", err))
	default:
		c.JSON(http.StatusOK, result)
	}
}

// refreshAllHandler triggers a full sweep and reports its summary. Per-item
// failures are inside the summary; only listing the products can fail here.
func (s *Server) refreshAllHandler(c *gin.Context) {
	summary, err := s.tracker.SweepAll(c.Request.Context())
	if err != nil {
		s.log.Error("Failed to sweep products", "op", "server.refreshAllHandler", "error", err)
		c.JSON(http.StatusInternalServerError, errorPayload("internal", err))
		return
	}

	c.JSON(http.StatusOK, summary)
}

// historyHandler serves the last 30 days of observations, oldest first.
func (s *Server) historyHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	if _, err := s.repo.GetProductByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, errorPayload("product_not_found", err))
			return
		}
		s.log.Error("Failed to get product", "op", "server.historyHandler", "error", err)
		c.JSON(http.StatusInternalServerError, errorPayload("internal", err))
		return
	}

	entries, err := s.repo.ListHistorySince(ctx, id, time.Now().Add(-historyWindow))
	if err != nil {
		s.log.Error("Failed to list history", "op", "server.historyHandler", "error", err)
		c.JSON(http.StatusInternalServerError, errorPayload("internal", err))
		return
	}

	if entries == nil {
		entries = []models.PriceHistoryEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorPayload("invalid_id", err))
		return 0, false
	}

	return id, true
}
