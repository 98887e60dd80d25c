package handler

import (
	"net/http"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	rdb     *redis.Client
	breaker *infra.CircuitBreaker
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client, breaker *infra.CircuitBreaker) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, breaker: breaker}
}

// Check godoc
// @Summary  Estado del servicio
// @Tags     health
// @Success  200 {object} map[string]string
// @Router   /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	out := gin.H{
		"status":   "ok",
		"database": "ok",
		"redis":    "ok",
		"circuito": h.breaker.State().String(),
	}

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		out["database"] = "down"
		out["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	if err := h.rdb.Ping(c.Request.Context()).Err(); err != nil {
		out["redis"] = "down"
		out["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, out)
}
