package http

import (
	"net/http"

	"pairlink/internal/core/ports"
	"pairlink/internal/infrastructure/monitoring"
	"pairlink/internal/infrastructure/signal"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type SignalHandler struct {
	ws       *signal.WebSocketServer
	sessions ports.SessionService
	health   *monitoring.HealthChecker

	metricsEnabled bool
}

func NewSignalHandler(ws *signal.WebSocketServer, sessions ports.SessionService, health *monitoring.HealthChecker, metricsEnabled bool) *SignalHandler {
	return &SignalHandler{
		ws:             ws,
		sessions:       sessions,
		health:         health,
		metricsEnabled: metricsEnabled,
	}
}

func (h *SignalHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/", h.Greeting)
	router.GET("/health", h.Health)
	router.GET("/ws", gin.WrapF(h.ws.HandleWebSocket))

	if h.metricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// Greeting is a trivial liveness check: a static body, nothing more.
func (h *SignalHandler) Greeting(c *gin.Context) {
	c.String(http.StatusOK, "Hello World!")
}

func (h *SignalHandler) Health(c *gin.Context) {
	status := h.health.CheckAll(c.Request.Context())

	users, rooms, err := h.sessions.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":      status.Status,
		"timestamp":   status.Timestamp.Unix(),
		"checks":      status.Checks,
		"connections": h.ws.ConnectionCount(),
		"users":       users,
		"rooms":       rooms,
	})
}
