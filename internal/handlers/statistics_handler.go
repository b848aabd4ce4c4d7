package handlers

import (
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rosenblum-buero/backoffice_be/internal/models"
)

type StatisticsHandler struct {
	DB  *gorm.DB
	Log *zap.Logger
	Now func() time.Time
}

func NewStatisticsHandler(db *gorm.DB, log *zap.Logger) *StatisticsHandler {
	return &StatisticsHandler{DB: db, Log: log, Now: time.Now}
}

// statusLabels maps order statuses to the labels the dashboard shows.
var statusLabels = map[models.OrderStatus]string{
	models.OrderStatusReview:     "Wird bearbeitet",
	models.OrderStatusInProgress: "Ausführung",
	models.OrderStatusCompleted:  "Fertig",
	models.OrderStatusReadyPick:  "Abholbereit",
	models.OrderStatusSent:       "Versandt",
	models.OrderStatusCanceled:   "Storniert",
}

func (h *StatisticsHandler) Totals(c *fiber.Ctx) error {
	var total, fresh int64
	if err := h.DB.Model(&models.Order{}).Count(&total).Error; err != nil {
		return h.fail(c, err)
	}
	if err := h.DB.Model(&models.Order{}).Where("is_new = ?", true).Count(&fresh).Error; err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_orders": total,
			"new_orders":   fresh,
		},
	})
}

type statusBucket struct {
	Status models.OrderStatus `json:"status"`
	Label  string             `json:"label"`
	Count  int64              `json:"count"`
}

// StatusDistribution reports how many orders sit in each status. Every
// status shows up, zero counts included, so the chart keeps a stable
// shape.
func (h *StatisticsHandler) StatusDistribution(c *fiber.Ctx) error {
	type row struct {
		Status models.OrderStatus
		Count  int64
	}
	var rows []row
	if err := h.DB.Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return h.fail(c, err)
	}

	counts := map[models.OrderStatus]int64{}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}

	out := make([]statusBucket, 0, len(models.OrderStatuses))
	for _, st := range models.OrderStatuses {
		out = append(out, statusBucket{
			Status: st,
			Label:  statusLabels[st],
			Count:  counts[st],
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

type monthBucket struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// monthKey formats a timestamp as the bucket label, e.g. "2026-08".
func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// bucketByMonth counts timestamps per calendar month between from and
// now, emitting every month in the range so gaps show as zero.
func bucketByMonth(stamps []time.Time, from, now time.Time) []monthBucket {
	counts := map[string]int64{}
	for _, t := range stamps {
		counts[monthKey(t)]++
	}

	out := []monthBucket{}
	cur := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		key := monthKey(cur)
		out = append(out, monthBucket{Month: key, Count: counts[key]})
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

// OrderingDynamics charts monthly order volume over the trailing year.
func (h *StatisticsHandler) OrderingDynamics(c *fiber.Ctx) error {
	now := h.Now()
	from := now.AddDate(0, 0, -365)

	var stamps []time.Time
	if err := h.DB.Model(&models.Order{}).
		Where("created_at >= ?", from).
		Pluck("created_at", &stamps).Error; err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": bucketByMonth(stamps, from, now)})
}

type typeBucket struct {
	OrderType models.OrderType `json:"order_type"`
	Count     int64            `json:"count"`
}

func (h *StatisticsHandler) TypeDistribution(c *fiber.Ctx) error {
	type row struct {
		OrderType models.OrderType
		Count     int64
	}
	var rows []row
	if err := h.DB.Model(&models.Order{}).
		Select("order_type, COUNT(*) as count").
		Group("order_type").
		Scan(&rows).Error; err != nil {
		return h.fail(c, err)
	}

	counts := map[models.OrderType]int64{}
	for _, r := range rows {
		counts[r.OrderType] = r.Count
	}

	out := []typeBucket{
		{OrderType: models.OrderTypeOrder, Count: counts[models.OrderTypeOrder]},
		{OrderType: models.OrderTypeCostEstimate, Count: counts[models.OrderTypeCostEstimate]},
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

type cityBucket struct {
	City  string `json:"city"`
	Count int64  `json:"count"`
}

// CustomersGeography lists the ten cities with the most customers.
// Accounts without a city are left out rather than lumped into a blank
// bucket.
func (h *StatisticsHandler) CustomersGeography(c *fiber.Ctx) error {
	var rows []cityBucket
	if err := h.DB.Model(&models.User{}).
		Select("city, COUNT(*) as count").
		Where("is_staff = ? AND is_superuser = ? AND city <> ''", false, false).
		Group("city").
		Scan(&rows).Error; err != nil {
		return h.fail(c, err)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	if len(rows) > 10 {
		rows = rows[:10]
	}

	return c.JSON(fiber.Map{"success": true, "data": rows})
}

// CustomersGrowth charts monthly customer sign-ups over the trailing
// year.
func (h *StatisticsHandler) CustomersGrowth(c *fiber.Ctx) error {
	now := h.Now()
	from := now.AddDate(0, 0, -365)

	var stamps []time.Time
	if err := h.DB.Model(&models.User{}).
		Where("is_staff = ? AND is_superuser = ? AND created_at >= ?", false, false, from).
		Pluck("created_at", &stamps).Error; err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": bucketByMonth(stamps, from, now)})
}

// OrderRequestComparison pairs monthly order and contact-request volumes
// over the trailing half year.
func (h *StatisticsHandler) OrderRequestComparison(c *fiber.Ctx) error {
	now := h.Now()
	from := now.AddDate(0, 0, -180)

	var orderStamps []time.Time
	if err := h.DB.Model(&models.Order{}).
		Where("created_at >= ?", from).
		Pluck("created_at", &orderStamps).Error; err != nil {
		return h.fail(c, err)
	}

	var requestStamps []time.Time
	if err := h.DB.Model(&models.RequestObject{}).
		Where("created_at >= ?", from).
		Pluck("created_at", &requestStamps).Error; err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"orders":   bucketByMonth(orderStamps, from, now),
			"requests": bucketByMonth(requestStamps, from, now),
		},
	})
}

func (h *StatisticsHandler) fail(c *fiber.Ctx, err error) error {
	h.Log.Error("statistics query failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Failed to compute statistics",
	})
}
