package api

import (
	"net/http"
	"strconv"
	"time"

	"tpcc-service/internal/models"
	"tpcc-service/internal/service"
	"tpcc-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	engine *service.Engine
}

// NewHandler creates a new HTTP handler
func NewHandler(engine *service.Engine) *Handler {
	return &Handler{
		engine: engine,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/", h.status)
	router.POST("/prepare_db", h.prepareDB)

	router.POST("/orders", h.newOrder)
	router.POST("/payment", h.payment)
	router.POST("/delivery", h.delivery)

	router.GET("/customers", h.customersByLastName)
	router.GET("/customers/:w/:d/:c", h.customerByID)
	router.GET("/customers/:w/:d/:c/orders", h.orderStatus)

	router.GET("/districts/:w/:d/check_stocks", h.stockLevel)
}

var statusFor = map[service.ErrorKind]int{
	service.NotFound:          http.StatusNotFound,
	service.StorageFailure:    http.StatusInternalServerError,
	service.ResourceExhausted: http.StatusServiceUnavailable,
	service.WorkerFailure:     http.StatusInternalServerError,
	service.SetupFailure:      http.StatusInternalServerError,
}

// fail writes an engine error. Only NotFound details reach the client.
func fail(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status, ok := statusFor[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	if kind == service.NotFound {
		c.JSON(status, gin.H{
			"error":   "Not found",
			"details": err.Error(),
		})
		return
	}

	util.GetLogger().Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.String("kind", kind.String()),
		zap.Error(err))
	c.JSON(status, gin.H{
		"error": http.StatusText(status),
	})
}

func badRequest(c *gin.Context, msg string, err error) {
	body := gin.H{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// intParam parses a positive int32 path or query value
func intParam(raw string) (int32, bool) {
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 1 {
		return 0, false
	}
	return int32(v), true
}

// location reads the :w and :d path parameters
func location(c *gin.Context) (int32, int32, bool) {
	w, ok := intParam(c.Param("w"))
	if !ok {
		return 0, 0, false
	}
	d, ok := intParam(c.Param("d"))
	return w, d, ok
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the database answers
func (h *Handler) readinessCheck(c *gin.Context) {
	if err := h.engine.Ready(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"time":   time.Now().Unix(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) status(c *gin.Context) {
	resp, err := h.engine.Status(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) prepareDB(c *gin.Context) {
	var req models.PrepareDbRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	resp, err := h.engine.Prepare(c.Request.Context(), req.ScaleFactor)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) newOrder(c *gin.Context) {
	var req models.NewOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	resp, err := h.engine.NewOrder(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) payment(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	resp, err := h.engine.Payment(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) delivery(c *gin.Context) {
	var req models.DeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	resp, err := h.engine.Delivery(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	if resp.Queued {
		c.JSON(http.StatusAccepted, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) customersByLastName(c *gin.Context) {
	w, okW := intParam(c.Query("warehouse_id"))
	d, okD := intParam(c.Query("district_id"))
	last := c.Query("lastname")
	if !okW || !okD || last == "" {
		badRequest(c, "warehouse_id, district_id and lastname are required", nil)
		return
	}

	resp, err := h.engine.CustomersByLastName(c.Request.Context(), w, d, last)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) customerByID(c *gin.Context) {
	w, d, ok := location(c)
	cid, okC := intParam(c.Param("c"))
	if !ok || !okC {
		badRequest(c, "Invalid customer path", nil)
		return
	}

	resp, err := h.engine.CustomerByID(c.Request.Context(), w, d, cid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) orderStatus(c *gin.Context) {
	w, d, ok := location(c)
	cid, okC := intParam(c.Param("c"))
	if !ok || !okC {
		badRequest(c, "Invalid customer path", nil)
		return
	}

	resp, err := h.engine.OrderStatus(c.Request.Context(), w, d, cid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) stockLevel(c *gin.Context) {
	w, d, ok := location(c)
	if !ok {
		badRequest(c, "Invalid district path", nil)
		return
	}
	threshold, err := strconv.ParseInt(c.Query("stock_level"), 10, 32)
	if err != nil || threshold < 0 {
		badRequest(c, "stock_level must be a non-negative integer", err)
		return
	}

	resp, err := h.engine.StockLevel(c.Request.Context(), w, d, int32(threshold))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
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
