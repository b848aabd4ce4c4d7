package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/rosenblum-buero/backoffice_be/internal/models"
	"github.com/rosenblum-buero/backoffice_be/internal/utils"
)

type GoogleOAuthHandler struct {
	DB              *gorm.DB
	JWTSecret       string
	AccessExpires   int
	RefreshExpires  int
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
	Log             *zap.Logger
}

func (h *GoogleOAuthHandler) oauthCfg() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.GoogleClientID,
		ClientSecret: h.GoogleSecret,
		RedirectURL:  h.GoogleRedirect,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	st := randomState(32)

	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    st,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   10 * 60,
	})

	return c.Redirect(h.oauthCfg().AuthCodeURL(st, oauth2.AccessTypeOffline), http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// GoogleCallback exchanges the code, provisions an active account for new
// emails and redirects back to the frontend with the token pair.
func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing code/state")
	}
	if st := c.Cookies("oauth_state"); st == "" || st != state {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid state")
	}

	tok, err := h.oauthCfg().Exchange(c.Context(), code)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Failed to exchange code")
	}

	info, err := h.fetchUserInfo(tok)
	if err != nil {
		h.Log.Warn("google userinfo fetch failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).SendString("Failed to fetch user info")
	}
	if info.Email == "" || !info.VerifiedEmail {
		return c.Status(fiber.StatusBadRequest).SendString("Google account email not verified")
	}

	var u models.User
	err = h.DB.Where("email = ?", info.Email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Google already verified the address, no email verification loop
		u = models.User{
			Email:         info.Email,
			FirstName:     info.GivenName,
			LastName:      info.FamilyName,
			ProfileImgURL: info.Picture,
			IsActive:      true,
		}
		if err := h.DB.Create(&u).Error; err != nil {
			h.Log.Error("creating google user failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to create user")
		}
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Server error")
	}

	access, err := utils.SignToken(h.JWTSecret, u.ID.String(), string(u.Role()), utils.TokenAccess, h.AccessExpires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to create token")
	}
	refresh, err := utils.SignToken(h.JWTSecret, u.ID.String(), string(u.Role()), utils.TokenRefresh, h.RefreshExpires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to create token")
	}

	q := url.Values{}
	q.Set("access", access)
	q.Set("refresh", refresh)
	return c.Redirect(h.FrontendBaseURL+"/auth/google?"+q.Encode(), http.StatusTemporaryRedirect)
}

func (h *GoogleOAuthHandler) fetchUserInfo(tok *oauth2.Token) (*googleUserInfo, error) {
	client := h.oauthCfg().Client(context.Background(), tok)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}
