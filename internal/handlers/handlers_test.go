package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rosenblum-buero/backoffice_be/internal/models"
	"github.com/rosenblum-buero/backoffice_be/internal/services/mailer"
)

type sentMail struct {
	Subject string
	To      string
}

type fakeSender struct {
	sent []sentMail
}

func (f *fakeSender) Send(subject, body, to string) error {
	f.sent = append(f.sent, sentMail{Subject: subject, To: to})
	return nil
}

// fakeStorage mimics the object store: a link can only be produced for a
// key that was stored first.
type fakeStorage struct {
	saved map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: map[string][]byte{}}
}

func (f *fakeStorage) Save(ctx context.Context, key string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.saved[key] = b
	return nil
}

func (f *fakeStorage) FileURL(ctx context.Context, key string) (string, error) {
	if _, ok := f.saved[key]; !ok {
		return "", errors.New("no such object: " + key)
	}
	return "https://files.example.com/" + key, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.EmailVerification{},
		&models.Message{},
		&models.Order{},
		&models.File{},
		&models.RequestObject{},
		&models.RequestAnswer{},
		&models.Review{},
		&models.ReviewTranslation{},
		&models.Translation{},
	))
	return db
}

func newTestNotifier(sender *fakeSender) *mailer.Notifier {
	return mailer.NewNotifier(sender, "http://localhost:3000", zap.NewNop())
}

// loginAs fakes the bearer middleware for route tests.
func loginAs(u *models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userId", u.ID.String())
		c.Locals("role", string(u.Role()))
		return c.Next()
	}
}

func createTestUser(t *testing.T, db *gorm.DB, email string, staff bool) *models.User {
	t.Helper()
	u := &models.User{
		Email:       email,
		FirstName:   "Test",
		LastName:    "User",
		IsActive:    true,
		IsStaff:     staff,
		IsSuperuser: staff,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]interface{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &parsed)
	}
	return resp, parsed
}
