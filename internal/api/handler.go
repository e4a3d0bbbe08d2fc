package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sales-service/internal/service"
	"sales-service/internal/store"
	"sales-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const biPrefix = "/bi"

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	orderService *service.OrderService
	biProxy      *service.BIProxy
	readiness    Pinger
	logger       *zap.Logger
}

// NewHandler creates a new HTTP handler. readiness may be nil.
func NewHandler(orderService *service.OrderService, biProxy *service.BIProxy, readiness Pinger) *Handler {
	return &Handler{
		orderService: orderService,
		biProxy:      biProxy,
		readiness:    readiness,
		logger:       util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	orders := router.Group("/orders")
	{
		orders.GET("", h.listOrders)
		orders.POST("", h.upsertOrders)
		orders.GET("/:id", h.getOrder)
		orders.DELETE("/:id", h.deleteOrder)
	}

	router.Any(biPrefix, h.proxyBI)
	router.Any(biPrefix+"/*path", h.proxyBI)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the store answers a ping
func (h *Handler) readinessCheck(c *gin.Context) {
	if h.readiness != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.readiness.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unavailable",
				"details": err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// upsertOrders accepts a single record or an array of records
func (h *Handler) upsertOrders(c *gin.Context) {
	if !strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content-Type must be application/json"})
		return
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	raws, batch, err := service.DecodeOrderPayload(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if batch {
		res, err := h.orderService.BulkUpsert(ctx, raws)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}

	res, err := h.orderService.UpsertOrder(ctx, raws[0])
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"changes": res.Changes,
	})
}

// listOrders handles filtered, paginated listing
func (h *Handler) listOrders(c *gin.Context) {
	filter, err := service.ParseOrderFilter(c.Request.URL.Query())
	if err != nil {
		h.writeError(c, err)
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// getOrder handles get order by surrogate id
func (h *Handler) getOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// deleteOrder handles delete by surrogate id
func (h *Handler) deleteOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	deleted, err := h.orderService.DeleteOrder(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// proxyBI relays the call to the BI API
func (h *Handler) proxyBI(c *gin.Context) {
	req := &service.ProxyRequest{
		Method:       c.Request.Method,
		UpstreamPath: service.ResolveUpstreamPath(biPrefix, c.Request.URL.Path, c.Request.URL.Query()),
		Query:        c.Request.URL.Query(),
		ContentType:  c.GetHeader("Content-Type"),
	}

	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead &&
		strings.Contains(req.ContentType, "application/json") {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
			return
		}
		req.Body = body
	}

	resp, err := h.biProxy.Forward(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(resp.StatusCode, resp.ContentType, resp.Body)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return 0, false
	}
	return id, true
}

// writeError maps service errors onto status codes and bodies
func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		abortErr      *service.BulkAbortError
		storageErr    *service.StorageError
		missingErr    *service.MissingParamsError
		configErr     *service.ConfigError
		upstreamErr   *service.UpstreamError
	)

	switch {
	case errors.Is(err, service.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Reason})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.As(err, &abortErr):
		h.logger.Error("Bulk upsert aborted", zap.Int("failedIndex", abortErr.Index), zap.Error(abortErr.Err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":       "Storage failure",
			"details":     abortErr.Err.Error(),
			"ok":          abortErr.Result.OK,
			"bad":         abortErr.Result.Bad,
			"failedIndex": abortErr.Index,
		})
	case errors.As(err, &storageErr):
		h.logger.Error("Storage failure", zap.String("op", storageErr.Op), zap.Error(storageErr.Err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Storage failure",
			"details": storageErr.Err.Error(),
		})
	case errors.As(err, &missingErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "Missing required parameters",
			"required": service.RequiredBIParams,
			"missing":  missingErr.Missing,
			"example":  service.ExampleBIInvocation,
		})
	case errors.As(err, &configErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": configErr.Msg})
	case errors.As(err, &upstreamErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to reach BI API",
			"details": upstreamErr.Err.Error(),
		})
	default:
		h.logger.Error("Unhandled request error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// requestIDMiddleware tags every request with an X-Request-ID
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("requestID", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
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
