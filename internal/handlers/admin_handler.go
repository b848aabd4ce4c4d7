package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rosenblum-buero/backoffice_be/internal/models"
	"github.com/rosenblum-buero/backoffice_be/internal/utils"
)

type AdminHandler struct {
	DB             *gorm.DB
	JWTSecret      string
	AccessExpires  int
	RefreshExpires int
	Log            *zap.Logger
}

func NewAdminHandler(db *gorm.DB, jwtSecret string, accessExpires, refreshExpires int, log *zap.Logger) *AdminHandler {
	return &AdminHandler{DB: db, JWTSecret: jwtSecret, AccessExpires: accessExpires, RefreshExpires: refreshExpires, Log: log}
}

// Login is the back-office entry point. Credentials work like the
// customer login, but an account without the staff flag gets 403 even
// with the right password.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	var u models.User
	if err := h.DB.Where("email = ?", email).First(&u).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Wrong email or password",
		})
	}
	if u.Password == "" || !utils.CheckPassword(u.Password, password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Wrong email or password",
		})
	}
	if !u.IsStaff && !u.IsSuperuser {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Staff access required",
		})
	}

	access, err := utils.SignToken(h.JWTSecret, u.ID.String(), string(u.Role()), utils.TokenAccess, h.AccessExpires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create token",
		})
	}
	refresh, err := utils.SignToken(h.JWTSecret, u.ID.String(), string(u.Role()), utils.TokenRefresh, h.RefreshExpires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create token",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"access":  access,
			"refresh": refresh,
			"user": fiber.Map{
				"id":         u.ID,
				"email":      u.Email,
				"first_name": u.FirstName,
				"last_name":  u.LastName,
				"role":       u.Role(),
			},
		},
	})
}

// Customers lists registered customer accounts, staff excluded, with an
// optional search over name, email and phone.
func (h *AdminHandler) Customers(c *fiber.Ctx) error {
	q := h.DB.Where("is_staff = ? AND is_superuser = ?", false, false).
		Order("created_at DESC")

	if search := c.Query("search"); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR phone_number LIKE ?",
			like, like, like, like)
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		h.Log.Error("listing customers failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch customers",
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": users})
}

// Search is the dashboard quick-search over customer accounts.
func (h *AdminHandler) Search(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.JSON(fiber.Map{"success": true, "data": []models.User{}})
	}

	like := "%" + strings.ToLower(query) + "%"
	var users []models.User
	if err := h.DB.
		Where("is_staff = ? AND is_superuser = ?", false, false).
		Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR phone_number LIKE ?",
			like, like, like, like).
		Order("created_at DESC").
		Limit(50).
		Find(&users).Error; err != nil {
		h.Log.Error("customer search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Search failed",
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": users})
}

func (h *AdminHandler) Customer(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid user ID",
		})
	}

	var u models.User
	if err := h.DB.Preload("Orders").Preload("Orders.Files").
		First(&u, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": u})
}

type TranslationReq struct {
	Title          string `json:"title"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	SourceText     string `json:"source_text"`
	TranslatedText string `json:"translated_text"`
}

func (h *AdminHandler) CreateTranslation(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req TranslationReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	errs := FieldErrors{}
	if strings.TrimSpace(req.Title) == "" {
		errs.Add("title", "Title is required")
	}
	if strings.TrimSpace(req.SourceText) == "" {
		errs.Add("source_text", "Source text is required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	tr := models.Translation{
		CreatedBy:      &userUUID,
		Title:          strings.TrimSpace(req.Title),
		SourceLanguage: strings.TrimSpace(req.SourceLanguage),
		TargetLanguage: strings.TrimSpace(req.TargetLanguage),
		SourceText:     req.SourceText,
		TranslatedText: req.TranslatedText,
	}
	if err := h.DB.Create(&tr).Error; err != nil {
		h.Log.Error("creating translation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create translation",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": tr})
}

func (h *AdminHandler) Translations(c *fiber.Ctx) error {
	q := h.DB.Order("created_at DESC")

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		q = q.Where("title LIKE ? OR source_text LIKE ? OR translated_text LIKE ?", like, like, like)
	}

	var trs []models.Translation
	if err := q.Find(&trs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch translations",
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": trs})
}

func (h *AdminHandler) Translation(c *fiber.Ctx) error {
	var tr models.Translation
	if err := h.DB.First(&tr, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Translation not found",
		})
	}
	return c.JSON(fiber.Map{"success": true, "data": tr})
}

type TranslationUpdateReq struct {
	Title          *string `json:"title"`
	SourceLanguage *string `json:"source_language"`
	TargetLanguage *string `json:"target_language"`
	SourceText     *string `json:"source_text"`
	TranslatedText *string `json:"translated_text"`
}

func (h *AdminHandler) UpdateTranslation(c *fiber.Ctx) error {
	var tr models.Translation
	if err := h.DB.First(&tr, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Translation not found",
		})
	}

	var req TranslationUpdateReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.SourceLanguage != nil {
		updates["source_language"] = strings.TrimSpace(*req.SourceLanguage)
	}
	if req.TargetLanguage != nil {
		updates["target_language"] = strings.TrimSpace(*req.TargetLanguage)
	}
	if req.SourceText != nil {
		updates["source_text"] = *req.SourceText
	}
	if req.TranslatedText != nil {
		updates["translated_text"] = *req.TranslatedText
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&tr).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to update translation",
			})
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": tr})
}

func (h *AdminHandler) DeleteTranslation(c *fiber.Ctx) error {
	var tr models.Translation
	if err := h.DB.First(&tr, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Translation not found",
		})
	}

	if err := h.DB.Delete(&tr).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete translation",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
