package handlers

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rosenblum-buero/backoffice_be/internal/models"
	"github.com/rosenblum-buero/backoffice_be/internal/services/mailer"
	"github.com/rosenblum-buero/backoffice_be/internal/services/storage"
	"github.com/rosenblum-buero/backoffice_be/internal/utils"
)

type OrderHandler struct {
	DB        *gorm.DB
	Notifier  *mailer.Notifier
	Store     storage.Storage
	JWTSecret string
	Log       *zap.Logger
}

func NewOrderHandler(db *gorm.DB, notifier *mailer.Notifier, store storage.Storage, jwtSecret string, log *zap.Logger) *OrderHandler {
	return &OrderHandler{DB: db, Notifier: notifier, Store: store, JWTSecret: jwtSecret, Log: log}
}

// optionalUser resolves the caller from a bearer token if one is present.
// Order submission works anonymously, so a missing or bad token is not an
// error here.
func (h *OrderHandler) optionalUser(c *fiber.Ctx) *uuid.UUID {
	auth := c.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil
	}
	claims, err := utils.ParseToken(h.JWTSecret, strings.TrimPrefix(auth, "Bearer "), utils.TokenAccess)
	if err != nil {
		return nil
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil
	}
	return &uid
}

// Create accepts an order or cost-estimate submission, authenticated or
// anonymous, with optional file attachments.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.FormValue("name"))
	email := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	message := strings.TrimSpace(c.FormValue("message"))
	orderType := models.OrderType(strings.TrimSpace(c.FormValue("order_type")))

	errs := FieldErrors{}
	if name == "" {
		errs.Add("name", "Name is required")
	}
	if email == "" {
		errs.Add("email", "Email is required")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "Invalid email format")
	}
	if utf8.RuneCountInString(message) > models.MaxMessageLen {
		errs.Add("message", "Message is too long")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	if orderType != models.OrderTypeCostEstimate {
		orderType = models.OrderTypeOrder
	}

	order := models.Order{
		UserID:      h.optionalUser(c),
		Name:        name,
		Email:       email,
		PhoneNumber: strings.TrimSpace(c.FormValue("phone_number")),
		City:        strings.TrimSpace(c.FormValue("city")),
		Street:      strings.TrimSpace(c.FormValue("street")),
		Zip:         strings.TrimSpace(c.FormValue("zip")),
		Message:     message,
		Status:      models.OrderStatusReview,
		OrderType:   orderType,
		IsNew:       true,
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		form, err := c.MultipartForm()
		if err != nil {
			return nil
		}
		for _, fh := range form.File["files"] {
			key := "uploads/" + uuid.New().String() + "_" + filepath.Base(fh.Filename)
			src, err := fh.Open()
			if err != nil {
				return err
			}
			err = h.Store.Save(c.Context(), key, src)
			src.Close()
			if err != nil {
				return err
			}
			file := models.File{
				OrderID:   &order.ID,
				ObjectKey: key,
				FileName:  fh.Filename,
				FileSize:  models.SizeMB(fh.Size),
			}
			if err := tx.Create(&file).Error; err != nil {
				return err
			}
			order.Files = append(order.Files, file)
		}
		return nil
	})
	if err != nil {
		h.Log.Error("creating order failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create order",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

// List returns all orders for staff (with status/is_new/search filters) and
// only the caller's own orders otherwise.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	q := h.DB.Preload("Files").Preload("User").Order("created_at DESC")

	if isStaff(c) {
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		if isNew := c.Query("is_new"); isNew != "" {
			q = q.Where("is_new = ?", isNew == "true")
		}
		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			q = q.Where("name LIKE ? OR email LIKE ? OR phone_number LIKE ? OR message LIKE ?",
				like, like, like, like)
		}
	} else {
		q = q.Where("user_id = ?", userUUID)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		h.Log.Error("listing orders failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch orders",
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": orders})
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var order models.Order
	if err := h.DB.Preload("Files").Preload("User").
		First(&order, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Order not found",
		})
	}

	if !isStaff(c) && (order.UserID == nil || *order.UserID != userUUID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Access denied",
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type OrderUpdateReq struct {
	Status  *string `json:"status"`
	IsNew   *bool   `json:"is_new"`
	Message *string `json:"message"`
}

// Update applies a staff partial update. When the status crosses from
// outside the ready set into it, the owner gets the order-ready email
// after the transaction has committed; moves inside the ready set or
// between non-ready states stay silent.
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	var order models.Order
	if err := h.DB.Preload("User").First(&order, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Order not found",
		})
	}

	var req OrderUpdateReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	oldStatus := order.Status
	updates := map[string]interface{}{}

	if req.Status != nil {
		newStatus := models.OrderStatus(*req.Status)
		if !newStatus.Valid() {
			errs := FieldErrors{}
			errs.Add("status", "Unknown status")
			return validationFail(c, errs)
		}
		updates["status"] = newStatus
		order.Status = newStatus
	}
	if req.IsNew != nil {
		updates["is_new"] = *req.IsNew
		order.IsNew = *req.IsNew
	}
	if req.Message != nil {
		updates["message"] = strings.TrimSpace(*req.Message)
		order.Message = strings.TrimSpace(*req.Message)
	}

	if len(updates) > 0 {
		err := h.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Model(&models.Order{}).
				Where("id = ?", order.ID).
				Updates(updates).Error
		})
		if err != nil {
			h.Log.Error("updating order failed", zap.Uint("order", order.ID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to update order",
			})
		}
	}

	// notify only on the edge into the ready set, after the write is durable
	if !oldStatus.Ready() && order.Status.Ready() {
		h.Notifier.OrderReady(order.ContactEmail(), order.ID)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	var order models.Order
	if err := h.DB.First(&order, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Order not found",
		})
	}

	if err := h.DB.Select("Files").Delete(&order).Error; err != nil {
		h.Log.Error("deleting order failed", zap.Uint("order", order.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete order",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// Toggle clears the is_new flag once staff has looked at the order.
func (h *OrderHandler) Toggle(c *fiber.Ctx) error {
	var order models.Order
	if err := h.DB.First(&order, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Order not found",
		})
	}

	if err := h.DB.Model(&order).Update("is_new", false).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to toggle order",
		})
	}

	return c.JSON(fiber.Map{"status": "order toggled"})
}

func (h *OrderHandler) UserOrders(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid user ID",
		})
	}

	var orders []models.Order
	if err := h.DB.Preload("Files").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch orders",
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": orders})
}

type FileURLReq struct {
	FileName string `json:"file_name"`
}

// FileURL hands out a time-limited signed download link for a stored
// object key.
func (h *OrderHandler) FileURL(c *fiber.Ctx) error {
	var req FileURLReq
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.FileName) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "file_name is required",
		})
	}

	url, err := h.Store.FileURL(c.Context(), strings.TrimSpace(req.FileName))
	if err != nil {
		h.Log.Error("presigning file url failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "Failed to sign file URL",
		})
	}

	return c.JSON(fiber.Map{"success": true, "url": url})
}
