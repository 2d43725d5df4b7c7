package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/annazecevic/catalog-service/docs"
	"github.com/annazecevic/catalog-service/dto"
	"github.com/annazecevic/catalog-service/logger"
	"github.com/annazecevic/catalog-service/middleware"
	"github.com/gin-gonic/gin"
)

// MainHandler owns the root path. GET sends clients to the documentation
// and every write verb is refused.
type MainHandler struct{}

func NewMainHandler() *MainHandler { return &MainHandler{} }

func (h *MainHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Index)
	r.POST("/", h.NotAllowed)
	r.PUT("/", h.NotAllowed)
	r.DELETE("/", h.NotAllowed)
}

func (h *MainHandler) Index(c *gin.Context) {
	c.Redirect(http.StatusFound, docs.UIPath)
}

func (h *MainHandler) NotAllowed(c *gin.Context) {
	logger.Warn(logger.EventAccessDenied, "write request on root path", logger.Fields(
		"request_id", middleware.RequestID(c),
		"method", c.Request.Method,
		"ip", c.ClientIP(),
	))
	c.JSON(http.StatusForbidden, dto.MessageResponse{Message: msgNotAllowed})
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler { return &HealthHandler{store: store} }

func (h *HealthHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		logger.Error(logger.EventDBError, "health check failed", logger.Fields("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable"})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}
