package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rosenblum-buero/backoffice_be/internal/models"
	"github.com/rosenblum-buero/backoffice_be/internal/services/mailer"
	"github.com/rosenblum-buero/backoffice_be/internal/services/verification"
	"github.com/rosenblum-buero/backoffice_be/internal/utils"
)

type AuthHandler struct {
	DB             *gorm.DB
	JWTSecret      string
	AccessExpires  int
	RefreshExpires int
	Verifier       *verification.Service
	Notifier       *mailer.Notifier
	Log            *zap.Logger
}

type RegisterReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	City        string `json:"city"`
	Street      string `json:"street"`
	Zip         string `json:"zip"`
}

// Register creates an inactive account and its verification record in one
// transaction; the welcome and code emails go out after the commit.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)

	errs := FieldErrors{}
	if firstName == "" {
		errs.Add("first_name", "First name is required")
	}
	if email == "" {
		errs.Add("email", "Email is required")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "Invalid email format")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	} else if len(password) < 6 {
		errs.Add("password", "Password must be at least 6 characters")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	pw, err := utils.HashPassword(password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to process password",
		})
	}

	u := models.User{
		Email:       email,
		Password:    pw,
		FirstName:   firstName,
		LastName:    lastName,
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		City:        strings.TrimSpace(req.City),
		Street:      strings.TrimSpace(req.Street),
		Zip:         strings.TrimSpace(req.Zip),
		IsActive:    false,
	}

	var code string
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		var issueErr error
		code, issueErr = h.Verifier.Issue(tx, &u)
		return issueErr
	})
	if err != nil {
		// the unique index is the authority on duplicates, so concurrent
		// registrations of the same email cannot both pass
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "Email already registered",
			})
		}
		h.Log.Error("registration failed", zap.String("email", email), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to register",
		})
	}

	h.Notifier.Welcome(u.Email, u.FirstName, u.LastName)
	h.Notifier.VerificationCode(u.Email, u.FirstName, u.LastName, code)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Registered, please verify your email",
		"data": fiber.Map{
			"user": fiber.Map{
				"id":         u.ID,
				"email":      u.Email,
				"first_name": u.FirstName,
				"last_name":  u.LastName,
				"is_active":  u.IsActive,
			},
		},
	})
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	errs := FieldErrors{}
	if email == "" {
		errs.Add("email", "Email is required")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var u models.User
	if err := h.DB.Where("email = ?", email).First(&u).Error; err != nil {
		// same answer as a wrong password, account existence stays hidden
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

	if !u.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Account is not verified",
		})
	}

	return h.respondWithTokens(c, &u)
}

func (h *AuthHandler) respondWithTokens(c *fiber.Ctx, u *models.User) error {
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
				"is_staff":   u.IsStaff,
			},
		},
	})
}

type RefreshReq struct {
	Refresh string `json:"refresh"`
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req RefreshReq
	if err := c.BodyParser(&req); err != nil || req.Refresh == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "refresh token is required",
		})
	}

	claims, err := utils.ParseToken(h.JWTSecret, req.Refresh, utils.TokenRefresh)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid refresh token",
		})
	}

	var u models.User
	if err := h.DB.First(&u, "id = ?", claims.UserID).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid refresh token",
		})
	}

	return h.respondWithTokens(c, &u)
}

type VerifyEmailReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req VerifyEmailReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	res := h.Verifier.Verify(strings.ToLower(strings.TrimSpace(req.Email)), strings.TrimSpace(req.Code))
	if res.OK {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Email verified",
		})
	}

	status := fiber.StatusBadRequest
	if res.Error == verification.ErrUserNotFound {
		status = fiber.StatusNotFound
	}

	body := fiber.Map{
		"success": false,
		"error":   res.Error,
	}
	if res.Attempts != nil {
		body["attempts"] = *res.Attempts
	}
	return c.Status(status).JSON(body)
}

type ResendVerificationReq struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var req ResendVerificationReq
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "email is required",
		})
	}

	err := h.Verifier.Resend(strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, verification.ErrNoUser) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   verification.ErrUserNotFound,
		})
	}
	if err != nil {
		h.Log.Error("resend verification failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to resend code",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Verification code sent",
	})
}

type PasswordResetLinkReq struct {
	Email string `json:"email"`
}

// PasswordResetLink always reports success so the endpoint can't be used
// to probe which emails have accounts.
func (h *AuthHandler) PasswordResetLink(c *fiber.Ctx) error {
	var req PasswordResetLinkReq
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "email is required",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var u models.User
	if err := h.DB.Where("email = ?", email).First(&u).Error; err == nil {
		token, err := utils.SignToken(h.JWTSecret, u.ID.String(), string(u.Role()), utils.TokenReset, 15)
		if err == nil {
			h.Notifier.PasswordReset(u.Email, h.Notifier.FrontendBaseURL+"/password-reset?token="+token)
		} else {
			h.Log.Error("signing reset token failed", zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "If the email exists, a reset link has been sent",
	})
}

type PasswordResetConfirmReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) PasswordResetConfirm(c *fiber.Ctx) error {
	var req PasswordResetConfirmReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	if len(strings.TrimSpace(req.Password)) < 6 {
		errs := FieldErrors{}
		errs.Add("password", "Password must be at least 6 characters")
		return validationFail(c, errs)
	}

	claims, err := utils.ParseToken(h.JWTSecret, req.Token, utils.TokenReset)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid or expired reset token",
		})
	}

	pw, err := utils.HashPassword(strings.TrimSpace(req.Password))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to process password",
		})
	}

	if err := h.DB.Model(&models.User{}).
		Where("id = ?", claims.UserID).
		Update("password", pw).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to reset password",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password updated",
	})
}

func (h *AuthHandler) UserData(c *fiber.Ctx) error {
	user, err := currentUser(c, h.DB)
	if err != nil {
		return fiber.ErrUnauthorized
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}

type ProfileUpdateReq struct {
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	PhoneNumber   *string `json:"phone_number"`
	City          *string `json:"city"`
	Street        *string `json:"street"`
	Zip           *string `json:"zip"`
	ProfileImgURL *string `json:"profile_img_url"`
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, err := currentUser(c, h.DB)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req ProfileUpdateReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.PhoneNumber != nil {
		updates["phone_number"] = strings.TrimSpace(*req.PhoneNumber)
	}
	if req.City != nil {
		updates["city"] = strings.TrimSpace(*req.City)
	}
	if req.Street != nil {
		updates["street"] = strings.TrimSpace(*req.Street)
	}
	if req.Zip != nil {
		updates["zip"] = strings.TrimSpace(*req.Zip)
	}
	if req.ProfileImgURL != nil {
		updates["profile_img_url"] = strings.TrimSpace(*req.ProfileImgURL)
	}

	if len(updates) > 0 {
		if err := h.DB.Model(user).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to update profile",
			})
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}
