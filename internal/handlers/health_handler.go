package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	cache cache.Cache
}

func NewHealthHandler(db *gorm.DB, c cache.Cache) *HealthHandler {
	return &HealthHandler{db: db, cache: c}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "ok"

	dbStatus := "ok"
	if err := database.Ping(h.db); err != nil {
		dbStatus = "unhealthy: " + err.Error()
		status = "degraded"
	}

	cacheStatus := "ok"
	if err := h.cache.Ping(c.UserContext()); err != nil {
		cacheStatus = "unhealthy: " + err.Error()
		status = "degraded"
	}

	var vendors int64
	if err := h.db.Model(&models.Vendor{}).Where("status = ?", models.VendorStatusActive).Count(&vendors).Error; err != nil {
		dbStatus = "unhealthy: " + err.Error()
		status = "degraded"
	}

	return c.JSON(dto.HealthResponse{
		Status:      status,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		DB:          dbStatus,
		Cache:       cacheStatus,
		VendorCount: vendors,
	})
}
