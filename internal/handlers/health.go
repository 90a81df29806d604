package handlers

import (
	"errors"

	"authgate/internal/store"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports the status of the gateway's subsystems.
type HealthHandler struct {
	db *gorm.DB
	kv store.Store
}

func NewHealthHandler(db *gorm.DB, kv store.Store) *HealthHandler {
	return &HealthHandler{db: db, kv: kv}
}

// CheckHealth returns the health status of the database and the shared store.
// GET /api/health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// A miss on the probe key still proves the store answers.
	storeStatus := "ok"
	if _, err := h.kv.Get(c.Request.Context(), "health:probe"); err != nil && !errors.Is(err, store.ErrNotFound) {
		storeStatus = "error: " + err.Error()
		overall = "degraded"
	}

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "authgate",
		"components": gin.H{
			"database": dbStatus,
			"store":    storeStatus,
		},
	})
}
