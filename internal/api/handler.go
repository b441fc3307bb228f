package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront-admin/internal/redisclient"
	"storefront-admin/internal/service"
	"storefront-admin/internal/store"
	"storefront-admin/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	trxService *service.TransactionService
	store      *store.Store
	cache      *redisclient.Client
}

// NewHandler creates a new HTTP handler. cache may be nil; product stock
// reads then go straight to the database.
func NewHandler(trxService *service.TransactionService, st *store.Store, cache *redisclient.Client) *Handler {
	return &Handler{
		trxService: trxService,
		store:      st,
		cache:      cache,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/transactions", h.createTransaction)
		v1.GET("/transactions", h.listTransactions)
		v1.GET("/transactions/:id", h.getTransaction)
		v1.PATCH("/transactions/:id", h.updateTransaction)
		v1.DELETE("/transactions/:id", h.deleteTransaction)
		v1.POST("/transactions/:id/restore", h.restoreTransaction)
		v1.DELETE("/transactions/:id/force", h.forceDeleteTransaction)
		v1.POST("/transactions/:id/approve", h.approveTransaction)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id/stock", h.getProductStock)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createTransaction handles transaction creation
func (h *Handler) createTransaction(c *gin.Context) {
	var req service.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	trx, err := h.trxService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, trx)
}

// listTransactions handles listing active transactions
func (h *Handler) listTransactions(c *gin.Context) {
	trxs, err := h.trxService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": trxs})
}

// getTransaction handles get transaction by ID
func (h *Handler) getTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	trx, err := h.trxService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trx)
}

// updateTransaction handles partial updates of a transaction
func (h *Handler) updateTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req service.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	trx, err := h.trxService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trx)
}

// deleteTransaction handles soft deletion
func (h *Handler) deleteTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.trxService.SoftDelete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// restoreTransaction handles restore from the trash
func (h *Handler) restoreTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	trx, err := h.trxService.Restore(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trx)
}

// forceDeleteTransaction handles permanent removal
func (h *Handler) forceDeleteTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.trxService.ForceDelete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "purged"})
}

// approveTransaction marks a transaction paid. A missing proof of payment
// is not an error: the response carries a warning telling the operator to
// attach proof and retry.
func (h *Handler) approveTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.trxService.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.ProofRequired {
		c.JSON(http.StatusOK, gin.H{
			"transaction": result.Transaction,
			"warning":     "proof of payment missing; attach proof and approve again",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": result.Transaction})
}

// listProducts handles listing products
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.store.GetProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// getProductStock returns the stock count for a product, cache-first
func (h *Handler) getProductStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if h.cache != nil {
		if stock, err := h.cache.GetStock(ctx, id); err == nil {
			c.JSON(http.StatusOK, gin.H{"product_id": id, "stock": stock, "source": "cache"})
			return
		}
	}

	product, err := h.store.GetProduct(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.cache != nil {
		_ = h.cache.SetStock(ctx, product.ID, product.Stock)
	}

	c.JSON(http.StatusOK, gin.H{"product_id": product.ID, "stock": product.Stock, "source": "db"})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

// respondError maps service errors onto HTTP responses. Validation
// failures render as a field-keyed error map so the admin UI can show the
// message next to the offending input.
func respondError(c *gin.Context, err error) {
	var fieldErr *service.FieldError
	if errors.As(err, &fieldErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors": gin.H{fieldErr.Field: fieldErr.Message},
		})
		return
	}

	if errors.Is(err, store.ErrTransactionNotFound) || errors.Is(err, store.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Operation failed",
		"details": err.Error(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
