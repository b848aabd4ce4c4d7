package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rosenblum-buero/backoffice_be/internal/models"
	"github.com/rosenblum-buero/backoffice_be/internal/services/reviews"
)

type ReviewHandler struct {
	DB     *gorm.DB
	Syncer *reviews.Syncer
	Log    *zap.Logger
}

func NewReviewHandler(db *gorm.DB, syncer *reviews.Syncer, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{DB: db, Syncer: syncer, Log: log}
}

// List serves the public review feed. A refresh from the Places API runs
// first on a best-effort basis; when Google is unreachable the stored
// reviews still come back.
func (h *ReviewHandler) List(c *fiber.Ctx) error {
	if h.Syncer != nil {
		if err := h.Syncer.Sync(c.Context()); err != nil {
			h.Log.Warn("review sync failed, serving stored reviews", zap.Error(err))
		}
	}

	var revs []models.Review
	if err := h.DB.Preload("Translations").
		Order("review_timestamp DESC").
		Find(&revs).Error; err != nil {
		h.Log.Error("listing reviews failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch reviews",
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": revs})
}

// Sync lets staff force a refresh and see the outcome instead of the
// silent best-effort path the public list uses.
func (h *ReviewHandler) Sync(c *fiber.Ctx) error {
	if h.Syncer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"message": "Review sync is not configured",
		})
	}

	if err := h.Syncer.Sync(c.Context()); err != nil {
		h.Log.Error("review sync failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "Review sync failed",
		})
	}

	var count int64
	h.DB.Model(&models.Review{}).Count(&count)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Reviews synced",
		"total":   count,
	})
}
