package handlers

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rosenblum-buero/backoffice_be/internal/models"
	"github.com/rosenblum-buero/backoffice_be/internal/services/mailer"
)

type RequestHandler struct {
	DB       *gorm.DB
	Notifier *mailer.Notifier
	Log      *zap.Logger
}

func NewRequestHandler(db *gorm.DB, notifier *mailer.Notifier, log *zap.Logger) *RequestHandler {
	return &RequestHandler{DB: db, Notifier: notifier, Log: log}
}

type RequestCreateReq struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
}

// Create stores a public contact-form request. A confirmation email goes
// out only when the submitter left both a name and an email.
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	var req RequestCreateReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	req.Message = strings.TrimSpace(req.Message)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	errs := FieldErrors{}
	if req.Message == "" {
		errs.Add("message", "Message is required")
	} else if utf8.RuneCountInString(req.Message) > models.MaxMessageLen {
		errs.Add("message", "Message is too long")
	}
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		errs.Add("email", "Invalid email format")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	obj := models.RequestObject{
		Name:        strings.TrimSpace(req.Name),
		Email:       req.Email,
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Message:     req.Message,
		IsNew:       true,
	}

	if err := h.DB.Create(&obj).Error; err != nil {
		h.Log.Error("creating request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create request",
		})
	}

	if obj.Notifiable() {
		h.Notifier.RequestReceived(obj.Email, obj.Name)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    obj,
	})
}

// List returns all requests for staff, with optional is_new and search
// filters.
func (h *RequestHandler) List(c *fiber.Ctx) error {
	q := h.DB.Preload("Answers").Order("created_at DESC")

	if isNew := c.Query("is_new"); isNew != "" {
		q = q.Where("is_new = ?", isNew == "true")
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR email LIKE ? OR phone_number LIKE ? OR message LIKE ?",
			like, like, like, like)
	}

	var requests []models.RequestObject
	if err := q.Find(&requests).Error; err != nil {
		h.Log.Error("listing requests failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch requests",
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": requests})
}

func (h *RequestHandler) Get(c *fiber.Ctx) error {
	var obj models.RequestObject
	if err := h.DB.Preload("Answers").First(&obj, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Request not found",
		})
	}
	return c.JSON(fiber.Map{"success": true, "data": obj})
}

// Toggle clears the is_new flag once staff has looked at the request.
func (h *RequestHandler) Toggle(c *fiber.Ctx) error {
	var obj models.RequestObject
	if err := h.DB.First(&obj, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Request not found",
		})
	}

	if err := h.DB.Model(&obj).Update("is_new", false).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to toggle request",
		})
	}

	return c.JSON(fiber.Map{"status": "request toggled"})
}

func (h *RequestHandler) Delete(c *fiber.Ctx) error {
	var obj models.RequestObject
	if err := h.DB.First(&obj, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Request not found",
		})
	}

	if err := h.DB.Select("Answers").Delete(&obj).Error; err != nil {
		h.Log.Error("deleting request failed", zap.Uint("request", obj.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete request",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *RequestHandler) ListAnswers(c *fiber.Ctx) error {
	var obj models.RequestObject
	if err := h.DB.Preload("Answers").First(&obj, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Request not found",
		})
	}
	return c.JSON(fiber.Map{"success": true, "data": obj.Answers})
}

type AnswerCreateReq struct {
	Text string `json:"text"`
}

// CreateAnswer records a staff reply to a request and, when the request
// carries a usable contact, emails the submitter that an answer exists.
func (h *RequestHandler) CreateAnswer(c *fiber.Ctx) error {
	var obj models.RequestObject
	if err := h.DB.First(&obj, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Request not found",
		})
	}

	var req AnswerCreateReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		errs := FieldErrors{}
		errs.Add("text", "Text is required")
		return validationFail(c, errs)
	}

	answer := models.RequestAnswer{
		RequestID: obj.ID,
		Text:      req.Text,
	}
	if err := h.DB.Create(&answer).Error; err != nil {
		h.Log.Error("creating answer failed", zap.Uint("request", obj.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create answer",
		})
	}

	if obj.Notifiable() {
		h.Notifier.RequestAnswered(obj.Email, obj.Name, answer.Text)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    answer,
	})
}
